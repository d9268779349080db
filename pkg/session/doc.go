// Package session implements the BSCP session state machine.
//
// A session runs over one full-duplex byte stream and moves through four
// stages before it closes:
//
//   - AwaitingHandshake: the initiator sends ClientHello, the responder answers ServerHello.
//   - AwaitingVersion: the initiator sends its version, the responder answers Success or Failure.
//   - AwaitingKeyExchange: protocol 2 only. RSA public keys are swapped and the
//     responder issues an AES-256-CBC session key encrypted to the initiator.
//   - Dispatch: the initiator sends numbers and strings, the responder
//     acknowledges each one and may push a response to a structured request.
//
// Server is the responder and Client the initiator. Both own their cipher and
// share nothing with other sessions. Every failure is fatal to the session;
// a new connection must start from the handshake again.
//
// Fields sent by the initiator carry stop bits, fields sent by the responder
// do not. Each field is one chunk on the wire and, once a session key is
// active, each chunk is encrypted on its own.
package session
