package session

import (
	"fmt"
	"io"
	"sync"

	"github.com/pion/logging"

	"github.com/Agrael11/BSCP/pkg/crypto"
	"github.com/Agrael11/BSCP/pkg/diag"
	"github.com/Agrael11/BSCP/pkg/wire"
)

// ClientConfig configures an initiator session.
type ClientConfig struct {
	// Version is the protocol version offered. Default: DefaultVersion.
	Version wire.Version

	// RSABits is the RSA modulus size for protocol 2. Default: crypto.DefaultRSABits.
	RSABits int

	// Rand is the entropy source for key generation. Nil selects crypto/rand.
	Rand io.Reader

	// LoggerFactory for creating loggers. Nil disables logging.
	LoggerFactory logging.LoggerFactory

	// ID names the session in log output.
	ID string
}

// Client is the initiator side of one BSCP session.
//
// Client methods must not be called concurrently. Any error closes the
// session.
type Client struct {
	config ClientConfig
	conn   *fieldConn
	sink   diag.Sink
	hybrid *crypto.Hybrid

	mu       sync.RWMutex
	stage    Stage
	jsonMode bool
}

// NewClient creates an initiator session over rw. Call Connect before
// sending anything.
func NewClient(rw io.ReadWriter, config ClientConfig) (*Client, error) {
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
	sink := diag.New(config.LoggerFactory, scope("client", config.ID))
	return &Client{
		config: config,
		conn:   newFieldConn(rw, sink, true),
		sink:   sink,
		hybrid: hybrid,
		stage:  StageAwaitingHandshake,
	}, nil
}

// Stage returns the current stage.
func (c *Client) Stage() Stage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stage
}

// Version returns the protocol version offered by the client.
func (c *Client) Version() wire.Version {
	return c.config.Version
}

func (c *Client) setStage(stage Stage) {
	c.mu.Lock()
	c.stage = stage
	c.mu.Unlock()
	c.sink.Debug("stage %v", stage)
}

// fail closes the session and returns err.
func (c *Client) fail(err error) error {
	c.setStage(StageClosed)
	c.sink.Error("%v", err)
	return err
}

// Connect runs the hello exchange, version negotiation and, for protocol 2,
// the key exchange.
func (c *Client) Connect() error {
	if c.Stage() != StageAwaitingHandshake {
		return ErrClosed
	}

	if err := c.conn.writeHandshake(wire.HandshakeClientHello); err != nil {
		return c.fail(err)
	}
	h, err := c.conn.readHandshake()
	if err != nil {
		return c.fail(fmt.Errorf("%w: %w", ErrHandshake, err))
	}
	if h != wire.HandshakeServerHello {
		return c.fail(fmt.Errorf("%w: got %v, want %v", ErrHandshake, h, wire.HandshakeServerHello))
	}
	c.sink.Info("handshake successful")

	c.setStage(StageAwaitingVersion)
	if err := c.conn.writeVersion(c.config.Version); err != nil {
		return c.fail(err)
	}
	status, err := c.conn.readStatus()
	if err != nil {
		return c.fail(err)
	}
	if status != wire.StatusSuccess {
		return c.fail(fmt.Errorf("%w: server answered %v to version %d", ErrVersionMismatch, status, c.config.Version))
	}
	c.sink.Info("version %d verified", c.config.Version)

	if needsKeyExchange(c.config.Version) {
		c.setStage(StageAwaitingKeyExchange)
		if err := offerKeys(c.conn, c.hybrid); err != nil {
			return c.fail(err)
		}
		c.sink.Info("encryption enabled")
	}

	c.setStage(StageDispatch)
	return nil
}

func (c *Client) ready() error {
	switch c.Stage() {
	case StageDispatch:
		return nil
	case StageClosed:
		return ErrClosed
	default:
		return ErrNotConnected
	}
}

func (c *Client) expectSuccess(what string) error {
	status, err := c.conn.readStatus()
	if err != nil {
		return err
	}
	if status != wire.StatusSuccess {
		return fmt.Errorf("%w: %s answered with %v", ErrRejected, what, status)
	}
	return nil
}

// SendNumber sends n and waits for the acknowledgement. Sending
// wire.JSONModeNumber switches the server into structured-request mode; any
// other number switches it off.
func (c *Client) SendNumber(n wire.Number) error {
	if err := c.ready(); err != nil {
		return err
	}
	if err := c.conn.writeHandshake(wire.HandshakeSendingNumber); err != nil {
		return c.fail(err)
	}
	if err := c.conn.writeNumber(n); err != nil {
		return c.fail(err)
	}
	if err := c.expectSuccess(fmt.Sprintf("number %d", n)); err != nil {
		return c.fail(err)
	}
	c.mu.Lock()
	c.jsonMode = n == wire.JSONModeNumber
	c.mu.Unlock()
	c.sink.Info("number %d sent", n)
	return nil
}

// SendString sends text and waits for the acknowledgement.
func (c *Client) SendString(text string) error {
	if err := c.ready(); err != nil {
		return err
	}
	if len(text) > wire.MaxTextLen {
		return fmt.Errorf("%w: %d bytes", wire.ErrTextTooLong, len(text))
	}
	if err := c.conn.writeHandshake(wire.HandshakeSendingString); err != nil {
		return c.fail(err)
	}
	if err := c.conn.writeText(text); err != nil {
		return c.fail(err)
	}
	if err := c.expectSuccess("string"); err != nil {
		return c.fail(err)
	}
	c.sink.Info("string %q sent", text)
	return nil
}

// ReceiveString reads a string pushed by the server. A checksum mismatch is
// logged and the text is still returned.
func (c *Client) ReceiveString() (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	text, ok, err := c.conn.readText()
	if err != nil {
		return "", c.fail(err)
	}
	if !ok {
		c.sink.Error("checksum mismatch when receiving string %q", text)
	} else {
		c.sink.Client("received string: %s", text)
	}
	return text, nil
}

// Request sends a structured request and returns the server's response.
// JSON mode is latched first if it is not already active. Request blocks
// until the server pushes a response, so text must be a request the server
// answers.
func (c *Client) Request(text string) (string, error) {
	c.mu.RLock()
	latched := c.jsonMode
	c.mu.RUnlock()

	if !latched {
		if err := c.SendNumber(wire.JSONModeNumber); err != nil {
			return "", err
		}
	}
	if err := c.SendString(text); err != nil {
		return "", err
	}
	return c.ReceiveString()
}

// Goodbye tells the server to end the session and closes it locally.
// The caller still closes the underlying stream.
func (c *Client) Goodbye() error {
	if err := c.ready(); err != nil {
		return err
	}
	err := c.conn.writeHandshake(wire.HandshakeGoodbye)
	c.setStage(StageClosed)
	return err
}
