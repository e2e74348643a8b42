// ABOUTME: Deterministic DSSE Pre-Authentication Encoding (PAE) for attestation signatures
// ABOUTME: Implements the exact byte layout the Chainsights signer covers
package pae

import (
	"strconv"
)

// prefix is the DSSE PAE version tag, written verbatim followed by a space.
const prefix = "DSSEv1"

// Encode produces the DSSE Pre-Authentication Encoding of (payloadType, payload):
//
//	"DSSEv1" SP len(payloadType) SP payloadType SP len(payload) SP payload
//
// Lengths are ASCII base-10 encodings of byte length. There is no trailing
// newline; the returned slice is exactly what the signature covers.
func Encode(payloadType string, payload []byte) []byte {
	typeLen := strconv.Itoa(len(payloadType))
	payloadLen := strconv.Itoa(len(payload))

	size := len(prefix) + 1 +
		len(typeLen) + 1 +
		len(payloadType) + 1 +
		len(payloadLen) + 1 +
		len(payload)

	out := make([]byte, 0, size)
	out = append(out, prefix...)
	out = append(out, ' ')
	out = append(out, typeLen...)
	out = append(out, ' ')
	out = append(out, payloadType...)
	out = append(out, ' ')
	out = append(out, payloadLen...)
	out = append(out, ' ')
	out = append(out, payload...)
	return out
}
