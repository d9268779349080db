// Package wire defines the typed BSCP protocol values carried by the bit codec.
//
// Every value has a fixed bit width:
//   - Handshake: 21 bits, a closed set of signals
//   - Version: 10 bits
//   - Number: 12 bits, general purpose, taken mod 4096
//   - Character: 12 bits, an 8-bit code with an embedded 4-bit checksum
//   - Status: 9 bits, the receive status reply
//
// Decoding an integer that is not a member of a closed set is an error; the
// sentinel members used by older implementations are not representable.
package wire
