package session

import (
	"fmt"

	"github.com/Agrael11/BSCP/pkg/crypto"
	"github.com/Agrael11/BSCP/pkg/wire"
)

// acceptKeys runs the responder side of the key exchange.
//
// The initiator's public key arrives in the clear. The responder answers with
// its own public key in the clear, then sends the session key blob and its
// length, each RSA-encrypted to the initiator. Both sides switch to AES
// afterwards.
func acceptKeys(conn *fieldConn, hybrid *crypto.Hybrid) error {
	peer, err := conn.readBlob()
	if err != nil {
		return err
	}
	if err := hybrid.ImportPeerPublicKey(peer); err != nil {
		return fmt.Errorf("%w: peer public key: %w", ErrKeyImport, err)
	}
	conn.sink.Client("received public key (%d bytes)", len(peer))

	if err := conn.writeBlob(hybrid.ExportPublicKey()); err != nil {
		return err
	}
	conn.sink.Action("sent public key")

	sessionKey, err := hybrid.ExportSessionKey()
	if err != nil {
		return err
	}

	conn.cipher = hybrid
	if err := conn.writeNumber(wire.NewNumber(len(sessionKey))); err != nil {
		return err
	}
	if err := conn.writeBytes(sessionKey); err != nil {
		return err
	}
	conn.sink.Action("sent session key")

	return hybrid.EnableSymmetric()
}

// offerKeys runs the initiator side of the key exchange.
func offerKeys(conn *fieldConn, hybrid *crypto.Hybrid) error {
	if err := conn.writeBlob(hybrid.ExportPublicKey()); err != nil {
		return err
	}
	conn.sink.Action("sent public key")

	peer, err := conn.readBlob()
	if err != nil {
		return err
	}
	if err := hybrid.ImportPeerPublicKey(peer); err != nil {
		return fmt.Errorf("%w: peer public key: %w", ErrKeyImport, err)
	}
	conn.sink.Client("received public key (%d bytes)", len(peer))

	conn.cipher = hybrid
	sessionKey, err := conn.readBlob()
	if err != nil {
		return err
	}
	if err := hybrid.ImportSessionKey(sessionKey); err != nil {
		return fmt.Errorf("%w: session key: %w", ErrKeyImport, err)
	}
	conn.sink.Client("received session key")

	return hybrid.EnableSymmetric()
}
