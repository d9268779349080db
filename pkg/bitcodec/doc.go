// Package bitcodec packs fixed-width integers into byte buffers and back.
//
// Values are written most-significant bit first. When stop-bit framing is
// enabled every value is followed by a single 1 bit, which the decoder checks
// to detect misalignment. Unused bits needed to reach a byte boundary are
// split between the front and the back of the buffer: the front receives
// floor(pad/2) zero bits, the back receives the rest.
//
// Independently encoded buffers do not concatenate bit-for-bit; each buffer
// must be decoded on its own with the same width and framing it was encoded
// with. Fields of 8 bits or more (stop bit included) always decode back to
// the values they were encoded from; narrower fields may not, because the
// padding can be wide enough to hold an extra field.
package bitcodec
