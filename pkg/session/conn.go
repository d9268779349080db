package session

import (
	"fmt"
	"io"

	"github.com/Agrael11/BSCP/pkg/bitcodec"
	"github.com/Agrael11/BSCP/pkg/crypto"
	"github.com/Agrael11/BSCP/pkg/diag"
	"github.com/Agrael11/BSCP/pkg/wire"
)

// fieldConn reads and writes protocol fields as independent chunks.
//
// Outgoing chunks are encoded with sendStop and incoming ones decoded with
// recvStop. Every chunk passes through cipher.
type fieldConn struct {
	rw       io.ReadWriter
	cipher   crypto.Cipher
	sink     diag.Sink
	sendStop bool
	recvStop bool
}

func newFieldConn(rw io.ReadWriter, sink diag.Sink, sendStop bool) *fieldConn {
	return &fieldConn{
		rw:       rw,
		cipher:   crypto.Plain{},
		sink:     sink,
		sendStop: sendStop,
		recvStop: !sendStop,
	}
}

// writeBytes encrypts data and writes it as one chunk.
func (c *fieldConn) writeBytes(data []byte) error {
	out, err := c.cipher.Encrypt(data)
	if err != nil {
		return fmt.Errorf("session: encrypt chunk: %w", err)
	}
	c.sink.Wire(true, out)
	if _, err := c.rw.Write(out); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionReset, err)
	}
	return nil
}

// readBytes reads the chunk carrying n plaintext bytes and decrypts it.
func (c *fieldConn) readBytes(n int) ([]byte, error) {
	buf := make([]byte, c.cipher.PaddedLength(n))
	if _, err := io.ReadFull(c.rw, buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionReset, err)
	}
	c.sink.Wire(false, buf)

	out, err := c.cipher.Decrypt(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: decrypt chunk: %v", ErrFraming, err)
	}
	return out, nil
}

func (c *fieldConn) writeValues(values ...bitcodec.Value) error {
	data, err := bitcodec.Encode(values, c.sendStop)
	if err != nil {
		return err
	}
	return c.writeBytes(data)
}

func (c *fieldConn) readValues(width uint8, count int) ([]bitcodec.Value, error) {
	data, err := c.readBytes(bitcodec.EncodedLen(width, count, c.recvStop))
	if err != nil {
		return nil, err
	}
	values, err := bitcodec.Decode(data, c.recvStop, width)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFraming, err)
	}
	if len(values) != count {
		return nil, fmt.Errorf("%w: got %d fields, want %d", ErrFraming, len(values), count)
	}
	return values, nil
}

func (c *fieldConn) readValue(width uint8) (bitcodec.Value, error) {
	values, err := c.readValues(width, 1)
	if err != nil {
		return bitcodec.Value{}, err
	}
	return values[0], nil
}

func (c *fieldConn) writeHandshake(h wire.Handshake) error {
	return c.writeValues(h.Value())
}

func (c *fieldConn) readHandshake() (wire.Handshake, error) {
	v, err := c.readValue(wire.HandshakeWidth)
	if err != nil {
		return 0, err
	}
	return wire.ParseHandshake(v)
}

func (c *fieldConn) writeVersion(v wire.Version) error {
	return c.writeValues(v.Value())
}

func (c *fieldConn) readVersion() (wire.Version, error) {
	v, err := c.readValue(wire.VersionWidth)
	if err != nil {
		return 0, err
	}
	return wire.ParseVersion(v)
}

func (c *fieldConn) writeStatus(s wire.Status) error {
	return c.writeValues(s.Value())
}

func (c *fieldConn) readStatus() (wire.Status, error) {
	v, err := c.readValue(wire.StatusWidth)
	if err != nil {
		return 0, err
	}
	s, err := wire.ParseStatus(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrProtocol, err)
	}
	return s, nil
}

func (c *fieldConn) writeNumber(n wire.Number) error {
	return c.writeValues(n.Value())
}

func (c *fieldConn) readNumber() (wire.Number, error) {
	v, err := c.readValue(wire.NumberWidth)
	if err != nil {
		return 0, err
	}
	return wire.ParseNumber(v)
}

// writeText sends a length field followed by all characters as one chunk.
// Empty text sends only the length.
func (c *fieldConn) writeText(text string) error {
	values, err := wire.EncodeText(text)
	if err != nil {
		return err
	}
	if err := c.writeNumber(wire.NewNumber(len(values))); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	return c.writeValues(values...)
}

// readText reads a length-prefixed string. The returned flag reports whether
// the embedded checksums matched.
func (c *fieldConn) readText() (string, bool, error) {
	n, err := c.readNumber()
	if err != nil {
		return "", false, err
	}
	if n == 0 {
		return "", true, nil
	}
	values, err := c.readValues(wire.CharacterWidth, int(n))
	if err != nil {
		return "", false, err
	}
	return wire.DecodeText(values)
}

// writeBlob sends a length field followed by the raw blob bytes.
func (c *fieldConn) writeBlob(blob []byte) error {
	if len(blob) > wire.MaxNumber {
		return fmt.Errorf("%w: blob of %d bytes", ErrProtocol, len(blob))
	}
	if err := c.writeNumber(wire.NewNumber(len(blob))); err != nil {
		return err
	}
	return c.writeBytes(blob)
}

// readBlob reads a length-prefixed blob and checks that decryption returned
// exactly the announced number of bytes.
func (c *fieldConn) readBlob() ([]byte, error) {
	n, err := c.readNumber()
	if err != nil {
		return nil, err
	}
	blob, err := c.readBytes(int(n))
	if err != nil {
		return nil, err
	}
	if len(blob) != int(n) {
		return nil, fmt.Errorf("%w: blob of %d bytes, announced %d", ErrFraming, len(blob), n)
	}
	return blob, nil
}
