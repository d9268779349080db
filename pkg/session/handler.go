package session

// RequestHandler handles structured requests received while the session is
// in JSON mode. It returns the response text and whether one should be sent.
type RequestHandler interface {
	HandleRequest(text string) (response string, ok bool)
}

// HandlerFunc adapts a function to RequestHandler.
type HandlerFunc func(text string) (string, bool)

// HandleRequest calls f(text).
func (f HandlerFunc) HandleRequest(text string) (string, bool) {
	return f(text)
}
