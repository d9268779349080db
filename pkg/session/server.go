package session

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pion/logging"

	"github.com/Agrael11/BSCP/pkg/crypto"
	"github.com/Agrael11/BSCP/pkg/diag"
	"github.com/Agrael11/BSCP/pkg/wire"
)

// ServerConfig configures a responder session.
type ServerConfig struct {
	// Version is the only protocol version accepted. Default: DefaultVersion.
	Version wire.Version

	// RSABits is the RSA modulus size for protocol 2. Default: crypto.DefaultRSABits.
	RSABits int

	// Rand is the entropy source for key generation. Nil selects crypto/rand.
	Rand io.Reader

	// Handler receives structured requests. Nil disables responses.
	Handler RequestHandler

	// LoggerFactory for creating loggers. Nil disables logging.
	LoggerFactory logging.LoggerFactory

	// ID names the session in log output.
	ID string
}

// Server is the responder side of one BSCP session.
//
// A Server serves exactly one stream. Create a new one per connection.
type Server struct {
	config ServerConfig
	sink   diag.Sink
	hybrid *crypto.Hybrid

	mu      sync.RWMutex
	stage   Stage
	pending wire.Number
	hasNum  bool
	started bool
}

// NewServer creates a responder session.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Version == 0 {
		config.Version = DefaultVersion
	}
	if err := CheckVersion(config.Version); err != nil {
		return nil, err
	}
	var hybrid *crypto.Hybrid
	if needsKeyExchange(config.Version) {
		h, err := newHybrid(config.RSABits, config.Rand)
		if err != nil {
			return nil, err
		}
		hybrid = h
	}
	return &Server{
		config: config,
		sink:   diag.New(config.LoggerFactory, scope("session", config.ID)),
		hybrid: hybrid,
		stage:  StageAwaitingHandshake,
	}, nil
}

// Stage returns the current stage.
func (s *Server) Stage() Stage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stage
}

// PendingNumber returns the last number received, if any.
func (s *Server) PendingNumber() (wire.Number, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending, s.hasNum
}

// JSONMode reports whether the last number received latched structured-request mode.
func (s *Server) JSONMode() bool {
	n, ok := s.PendingNumber()
	return ok && n == wire.JSONModeNumber
}

func (s *Server) setStage(stage Stage) {
	s.mu.Lock()
	s.stage = stage
	s.mu.Unlock()
	s.sink.Debug("stage %v", stage)
}

// Serve runs the session on rw until the peer says Goodbye or an error
// ends it. It returns nil after a Goodbye. The caller closes rw.
func (s *Server) Serve(rw io.ReadWriter) (err error) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrClosed
	}
	s.started = true
	s.mu.Unlock()

	conn := newFieldConn(rw, s.sink, false)
	defer func() {
		s.setStage(StageClosed)
		if err != nil {
			s.sink.Error("session aborted: %v", err)
		} else {
			s.sink.Info("client disconnected")
		}
	}()

	if err := s.acceptHello(conn); err != nil {
		return err
	}

	s.setStage(StageAwaitingVersion)
	if err := s.acceptVersion(conn); err != nil {
		return err
	}

	if needsKeyExchange(s.config.Version) {
		s.setStage(StageAwaitingKeyExchange)
		if err := acceptKeys(conn, s.hybrid); err != nil {
			return err
		}
		s.sink.Info("encryption enabled")
	}

	s.setStage(StageDispatch)
	for {
		done, err := s.dispatch(conn)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (s *Server) acceptHello(conn *fieldConn) error {
	h, err := conn.readHandshake()
	if err != nil {
		if errors.Is(err, wire.ErrUnknownHandshake) {
			return fmt.Errorf("%w: %w", ErrHandshake, err)
		}
		return err
	}
	s.sink.Client("received handshake: %v", h)
	if h != wire.HandshakeClientHello {
		return fmt.Errorf("%w: got %v, want %v", ErrHandshake, h, wire.HandshakeClientHello)
	}
	if err := conn.writeHandshake(wire.HandshakeServerHello); err != nil {
		return err
	}
	s.sink.Action("sent handshake: %v", wire.HandshakeServerHello)
	return nil
}

func (s *Server) acceptVersion(conn *fieldConn) error {
	v, err := conn.readVersion()
	if err != nil {
		return err
	}
	s.sink.Client("received version: %d", v)
	if v != s.config.Version {
		if err := conn.writeStatus(wire.StatusFailure); err != nil {
			return err
		}
		return fmt.Errorf("%w: client %d, server %d", ErrVersionMismatch, v, s.config.Version)
	}
	return conn.writeStatus(wire.StatusSuccess)
}

// dispatch handles one signal. It returns true once the peer said Goodbye.
func (s *Server) dispatch(conn *fieldConn) (bool, error) {
	h, err := conn.readHandshake()
	if err != nil {
		if errors.Is(err, wire.ErrUnknownHandshake) {
			return false, fmt.Errorf("%w: %w", ErrProtocol, err)
		}
		return false, err
	}

	switch h {
	case wire.HandshakeSendingNumber:
		n, err := conn.readNumber()
		if err != nil {
			return false, err
		}
		s.sink.Client("received number: %d", n)
		if n == wire.JSONModeNumber {
			s.sink.Action("%#x, activating JSON mode", uint16(n))
		}
		s.mu.Lock()
		s.pending, s.hasNum = n, true
		s.mu.Unlock()
		return false, conn.writeStatus(wire.StatusSuccess)

	case wire.HandshakeSendingString:
		text, ok, err := conn.readText()
		if err != nil {
			return false, err
		}
		if ok {
			s.sink.Client("received string: %s", text)
		} else {
			s.sink.Error("checksum mismatch when reading string %q", text)
		}
		if err := conn.writeStatus(wire.StatusSuccess); err != nil {
			return false, err
		}
		return false, s.respond(conn, text)

	case wire.HandshakeGoodbye:
		s.sink.Client("requested to disconnect")
		return true, nil

	default:
		return false, fmt.Errorf("%w: unexpected %v", ErrProtocol, h)
	}
}

// respond hands text to the handler when JSON mode is latched and pushes the
// response, if any. No signal precedes the pushed string.
func (s *Server) respond(conn *fieldConn, text string) error {
	if !s.JSONMode() || s.config.Handler == nil {
		return nil
	}
	response, ok := s.config.Handler.HandleRequest(text)
	if !ok {
		s.sink.Debug("no response for request")
		return nil
	}
	if err := conn.writeText(response); err != nil {
		return err
	}
	s.sink.Action("sent string: %s", response)
	return nil
}

func scope(base, id string) string {
	if id == "" {
		return base
	}
	return base + ":" + id
}
