// Package request implements the structured JSON requests carried by BSCP
// strings while a session is in JSON mode.
//
// A request is a JSON object with a "requestType" member. The mux answers
// with {"responseType": ..., "responseData": [...]}. "ping" is answered with
// "pong" and any type without a registered handler with "unknownRequest".
// Text that is not a JSON object, or that has no requestType, gets no
// response at all.
package request

import (
	"encoding/json"
	"sync"

	"github.com/pion/logging"
)

// Built-in request and response types.
const (
	TypePing    = "ping"
	TypePong    = "pong"
	TypeUnknown = "unknownRequest"
)

// Request is a decoded structured request.
type Request struct {
	// Type is the requestType member.
	Type string

	// Fields holds every member of the request object, requestType included.
	Fields map[string]json.RawMessage
}

// Response is the reply to a Request.
type Response struct {
	ResponseType string `json:"responseType"`
	ResponseData []any  `json:"responseData"`
}

// NewResponse returns a response of the given type with data, never nil.
func NewResponse(responseType string, data ...any) Response {
	if data == nil {
		data = []any{}
	}
	return Response{ResponseType: responseType, ResponseData: data}
}

// HandlerFunc answers one request type.
type HandlerFunc func(req Request) Response

// MuxConfig configures a Mux.
type MuxConfig struct {
	// LoggerFactory for creating loggers. Nil disables logging.
	LoggerFactory logging.LoggerFactory
}

// Mux routes requests to handlers by requestType.
type Mux struct {
	log logging.LeveledLogger

	mu     sync.RWMutex
	routes map[string]HandlerFunc
}

// NewMux returns a mux that already answers ping.
func NewMux(config MuxConfig) *Mux {
	m := &Mux{routes: make(map[string]HandlerFunc)}
	if config.LoggerFactory != nil {
		m.log = config.LoggerFactory.NewLogger("request")
	}
	m.Handle(TypePing, func(Request) Response {
		return NewResponse(TypePong)
	})
	return m
}

// Handle registers f for requestType, replacing any earlier handler.
func (m *Mux) Handle(requestType string, f HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[requestType] = f
}

// Parse decodes text into a Request. It reports false when text is not a
// JSON object or has no non-null requestType.
func Parse(text string) (Request, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil || fields == nil {
		return Request{}, false
	}
	raw, ok := fields["requestType"]
	if !ok || string(raw) == "null" {
		return Request{}, false
	}

	// Non-string types are kept in their JSON form so they route to unknownRequest.
	var typ string
	if err := json.Unmarshal(raw, &typ); err != nil {
		typ = string(raw)
	}
	return Request{Type: typ, Fields: fields}, true
}

// Serve answers req.
func (m *Mux) Serve(req Request) Response {
	m.mu.RLock()
	f, ok := m.routes[req.Type]
	m.mu.RUnlock()

	if !ok {
		if m.log != nil {
			m.log.Infof("unknown request %q", req.Type)
		}
		return NewResponse(TypeUnknown)
	}
	if m.log != nil {
		m.log.Infof("received %s request", req.Type)
	}
	return f(req)
}

// HandleRequest parses text, serves it and returns the encoded response.
// It satisfies session.RequestHandler.
func (m *Mux) HandleRequest(text string) (string, bool) {
	req, ok := Parse(text)
	if !ok {
		if m.log != nil {
			m.log.Debugf("ignoring malformed request %q", text)
		}
		return "", false
	}

	resp := m.Serve(req)
	if resp.ResponseData == nil {
		resp.ResponseData = []any{}
	}
	out, err := json.Marshal(resp)
	if err != nil {
		if m.log != nil {
			m.log.Errorf("encode %s response: %v", resp.ResponseType, err)
		}
		return "", false
	}
	return string(out), true
}
