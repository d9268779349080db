package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func newTestHybrid(t *testing.T) *Hybrid {
	t.Helper()
	h, err := NewHybrid(HybridConfig{Bits: MinRSABits})
	if err != nil {
		t.Fatalf("NewHybrid failed: %v", err)
	}
	return h
}

// exchange runs the key exchange between an initiator and a responder the
// way a session does it and leaves both in symmetric mode.
func exchange(t *testing.T, initiator, responder *Hybrid) {
	t.Helper()

	if err := responder.ImportPeerPublicKey(initiator.ExportPublicKey()); err != nil {
		t.Fatalf("responder import: %v", err)
	}
	if err := initiator.ImportPeerPublicKey(responder.ExportPublicKey()); err != nil {
		t.Fatalf("initiator import: %v", err)
	}

	blob, err := responder.ExportSessionKey()
	if err != nil {
		t.Fatalf("ExportSessionKey: %v", err)
	}
	sealed, err := responder.Encrypt(blob)
	if err != nil {
		t.Fatalf("RSA encrypt of session key: %v", err)
	}
	if len(sealed) != initiator.PaddedLength(len(blob)) {
		t.Fatalf("sealed blob = %d bytes, initiator expects %d", len(sealed), initiator.PaddedLength(len(blob)))
	}
	opened, err := initiator.Decrypt(sealed)
	if err != nil {
		t.Fatalf("RSA decrypt of session key: %v", err)
	}
	if err := initiator.ImportSessionKey(opened); err != nil {
		t.Fatalf("ImportSessionKey: %v", err)
	}

	if err := responder.EnableSymmetric(); err != nil {
		t.Fatalf("responder EnableSymmetric: %v", err)
	}
	if err := initiator.EnableSymmetric(); err != nil {
		t.Fatalf("initiator EnableSymmetric: %v", err)
	}
}

func TestHybridModes(t *testing.T) {
	client, server := newTestHybrid(t), newTestHybrid(t)

	if client.Mode() != ModeDisabled {
		t.Errorf("initial mode = %v, want Disabled", client.Mode())
	}
	if got := client.KeySize(); got != MinRSABits/8 {
		t.Errorf("KeySize = %d, want %d", got, MinRSABits/8)
	}

	exchange(t, client, server)

	if client.Mode() != ModeSymmetric || server.Mode() != ModeSymmetric {
		t.Errorf("modes after exchange = %v/%v, want Symmetric", client.Mode(), server.Mode())
	}
}

func TestHybridRoundtrip(t *testing.T) {
	client, server := newTestHybrid(t), newTestHybrid(t)
	exchange(t, client, server)

	for _, msg := range [][]byte{{}, []byte("x"), bytes.Repeat([]byte{0xAB}, 16), []byte(`{"requestType":"ping"}`)} {
		ct, err := client.Encrypt(msg)
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		if len(ct) != client.PaddedLength(len(msg)) {
			t.Errorf("len(ct) = %d, PaddedLength = %d", len(ct), client.PaddedLength(len(msg)))
		}
		pt, err := server.Decrypt(ct)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if !bytes.Equal(pt, msg) {
			t.Errorf("roundtrip = %x, want %x", pt, msg)
		}
	}
}

func TestHybridPaddedLength(t *testing.T) {
	client, server := newTestHybrid(t), newTestHybrid(t)

	// Before activation every ciphertext is one RSA block.
	for _, n := range []int{0, 1, 2, 58} {
		if got := client.PaddedLength(n); got != client.KeySize() {
			t.Errorf("asymmetric PaddedLength(%d) = %d, want %d", n, got, client.KeySize())
		}
	}

	exchange(t, client, server)

	for n := 0; n <= 64; n++ {
		got := client.PaddedLength(n)
		if got%AESBlockSize != 0 || got <= n || got-n > AESBlockSize {
			t.Errorf("symmetric PaddedLength(%d) = %d", n, got)
		}
	}
	if got := client.PaddedLength(32); got != 48 {
		t.Errorf("PaddedLength(32) = %d, want 48", got)
	}
}

func TestHybridAsymmetricRoundtrip(t *testing.T) {
	client, server := newTestHybrid(t), newTestHybrid(t)
	if err := server.ImportPeerPublicKey(client.ExportPublicKey()); err != nil {
		t.Fatalf("ImportPeerPublicKey: %v", err)
	}

	ct, err := server.Encrypt([]byte{0x00, 0x3A})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if len(ct) != client.KeySize() {
		t.Errorf("ciphertext = %d bytes, want %d", len(ct), client.KeySize())
	}
	pt, err := client.Decrypt(ct)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(pt, []byte{0x00, 0x3A}) {
		t.Errorf("Decrypt = %x", pt)
	}

	if _, err := server.Encrypt(make([]byte, server.MaxMessageLen()+1)); !errors.Is(err, ErrMessageTooLong) {
		t.Errorf("oversized plaintext: got %v, want ErrMessageTooLong", err)
	}
}

func TestHybridErrors(t *testing.T) {
	if _, err := NewHybrid(HybridConfig{Bits: 512}); !errors.Is(err, ErrInvalidKeySize) {
		t.Errorf("NewHybrid(512): got %v, want ErrInvalidKeySize", err)
	}

	client, server := newTestHybrid(t), newTestHybrid(t)

	if _, err := client.Encrypt([]byte("hi")); err != ErrNoPeerKey {
		t.Errorf("Encrypt without peer key: got %v, want ErrNoPeerKey", err)
	}
	if err := client.EnableSymmetric(); err != ErrNoSessionKey {
		t.Errorf("EnableSymmetric without session key: got %v, want ErrNoSessionKey", err)
	}

	blob := server.ExportPublicKey()
	if err := client.ImportPeerPublicKey(blob); err != nil {
		t.Fatalf("ImportPeerPublicKey: %v", err)
	}
	if err := client.ImportPeerPublicKey(blob); !errors.Is(err, ErrKeyAlreadySet) {
		t.Errorf("second ImportPeerPublicKey: got %v, want ErrKeyAlreadySet", err)
	}

	if _, err := server.ExportSessionKey(); err != nil {
		t.Fatalf("ExportSessionKey: %v", err)
	}
	if _, err := server.ExportSessionKey(); !errors.Is(err, ErrKeyAlreadySet) {
		t.Errorf("second ExportSessionKey: got %v, want ErrKeyAlreadySet", err)
	}
	if err := server.EnableSymmetric(); err != nil {
		t.Fatalf("EnableSymmetric: %v", err)
	}
	if err := server.EnableSymmetric(); err != ErrAlreadyEnabled {
		t.Errorf("second EnableSymmetric: got %v, want ErrAlreadyEnabled", err)
	}
}

func TestHybridImportRejectsCorruptBlob(t *testing.T) {
	client, server := newTestHybrid(t), newTestHybrid(t)

	blob := server.ExportPublicKey()
	blob[len(blob)/2] ^= 0x10
	if err := client.ImportPeerPublicKey(blob); !errors.Is(err, ErrBlobChecksum) {
		t.Errorf("corrupt public key: got %v, want ErrBlobChecksum", err)
	}
	if client.Mode() != ModeDisabled {
		t.Errorf("mode after rejected import = %v, want Disabled", client.Mode())
	}

	key := make([]byte, SessionKeyBlobSize)
	if err := client.ImportSessionKey(key); !errors.Is(err, ErrInvalidBlob) {
		t.Errorf("zero session key blob: got %v, want ErrInvalidBlob", err)
	}
}

func TestPlain(t *testing.T) {
	var c Cipher = Plain{}
	msg := []byte{0x01, 0x02, 0x03}
	ct, _ := c.Encrypt(msg)
	if !bytes.Equal(ct, msg) {
		t.Errorf("Plain.Encrypt = %x", ct)
	}
	pt, _ := c.Decrypt(ct)
	if !bytes.Equal(pt, msg) {
		t.Errorf("Plain.Decrypt = %x", pt)
	}
	if c.PaddedLength(7) != 7 {
		t.Errorf("Plain.PaddedLength(7) = %d", c.PaddedLength(7))
	}
}

func TestModeString(t *testing.T) {
	if ModeSymmetric.String() != "Symmetric" || Mode(9).String() != "Mode(9)" {
		t.Error("unexpected Mode strings")
	}
}
