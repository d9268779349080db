package diag

import (
	"strings"

	"github.com/pion/logging"
)

// Sink receives session diagnostics.
type Sink interface {
	// Info reports general progress.
	Info(format string, args ...any)

	// Client reports something the peer did.
	Client(format string, args ...any)

	// Error reports a failure.
	Error(format string, args ...any)

	// Action reports something the local side is about to do.
	Action(format string, args ...any)

	// Debug reports detail useful when tracing a session.
	Debug(format string, args ...any)

	// Wire dumps one chunk as it crosses the stream.
	Wire(sending bool, data []byte)
}

// New returns a Sink that logs through a LeveledLogger from factory.
// A nil factory returns Discard.
func New(factory logging.LoggerFactory, scope string) Sink {
	if factory == nil {
		return Discard
	}
	return &leveledSink{log: factory.NewLogger(scope)}
}

// FromLogger returns a Sink that logs through log.
func FromLogger(log logging.LeveledLogger) Sink {
	if log == nil {
		return Discard
	}
	return &leveledSink{log: log}
}

type leveledSink struct {
	log logging.LeveledLogger
}

func (s *leveledSink) Info(format string, args ...any) { s.log.Infof(format, args...) }

func (s *leveledSink) Client(format string, args ...any) { s.log.Infof("client: "+format, args...) }

func (s *leveledSink) Error(format string, args ...any) { s.log.Errorf(format, args...) }

func (s *leveledSink) Action(format string, args ...any) { s.log.Infof("action: "+format, args...) }

func (s *leveledSink) Debug(format string, args ...any) { s.log.Debugf(format, args...) }

func (s *leveledSink) Wire(sending bool, data []byte) {
	dir := "[In]"
	if sending {
		dir = "[Out]"
	}
	s.log.Tracef("%s %s", dir, FormatBinary(data))
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Info(string, ...any)   {}
func (discard) Client(string, ...any) {}
func (discard) Error(string, ...any)  {}
func (discard) Action(string, ...any) {}
func (discard) Debug(string, ...any)  {}
func (discard) Wire(bool, []byte)     {}

// FormatBinary renders data as space separated 8-digit binary octets.
func FormatBinary(data []byte) string {
	var b strings.Builder
	b.Grow(len(data) * 9)
	for i, v := range data {
		if i > 0 {
			b.WriteByte(' ')
		}
		for bit := 7; bit >= 0; bit-- {
			b.WriteByte('0' + (v>>uint(bit))&1)
		}
	}
	return b.String()
}
