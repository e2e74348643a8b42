// ABOUTME: Wire types and decoding for the Sigstore-shaped attestation bundle
// ABOUTME: Extracts the leaf certificate DER, DSSE payload, payload type, and signature
package bundlewire

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Bundle mirrors the on-the-wire JSON shape described by the Chainsights
// manifest format: a Sigstore-style bundle carrying a DSSE envelope and the
// signer's leaf certificate. Transparency-log and timestamp material, when
// present, is skipped by the decoder and never interpreted.
type Bundle struct {
	MediaType            string               `json:"mediaType"`
	VerificationMaterial verificationMaterial `json:"verificationMaterial"`
	DSSEEnvelope         dsseEnvelope         `json:"dsseEnvelope"`
}

type verificationMaterial struct {
	Certificate certificateRef `json:"certificate"`
}

type certificateRef struct {
	RawBytes string `json:"rawBytes"`
}

type dsseEnvelope struct {
	Payload     string      `json:"payload"`
	PayloadType string      `json:"payloadType"`
	Signatures  []signature `json:"signatures"`
}

type signature struct {
	Sig string `json:"sig"`
}

// MalformedBundleError reports why a bundle failed to decode.
type MalformedBundleError struct {
	Reason string
}

func (e *MalformedBundleError) Error() string {
	return fmt.Sprintf("malformed bundle: %s", e.Reason)
}

// Decoded holds the bytes needed for verification, extracted from a Bundle.
type Decoded struct {
	LeafCertDER []byte
	Payload     []byte
	PayloadType string
	Signature   []byte
}

// Decode parses raw bundle JSON and base64-decodes the leaf certificate,
// payload, and first signature. Only signatures[0] is consulted, per the
// Chainsights manifest contract.
func Decode(raw []byte) (*Decoded, error) {
	var b Bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, &MalformedBundleError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	if b.VerificationMaterial.Certificate.RawBytes == "" {
		return nil, &MalformedBundleError{Reason: "missing verificationMaterial.certificate.rawBytes"}
	}
	if b.DSSEEnvelope.Payload == "" {
		return nil, &MalformedBundleError{Reason: "missing dsseEnvelope.payload"}
	}
	if b.DSSEEnvelope.PayloadType == "" {
		return nil, &MalformedBundleError{Reason: "missing dsseEnvelope.payloadType"}
	}
	if len(b.DSSEEnvelope.Signatures) == 0 {
		return nil, &MalformedBundleError{Reason: "dsseEnvelope.signatures is empty"}
	}
	if b.DSSEEnvelope.Signatures[0].Sig == "" {
		return nil, &MalformedBundleError{Reason: "dsseEnvelope.signatures[0].sig is empty"}
	}

	certDER, err := base64.StdEncoding.DecodeString(b.VerificationMaterial.Certificate.RawBytes)
	if err != nil {
		return nil, &MalformedBundleError{Reason: fmt.Sprintf("certificate rawBytes: %v", err)}
	}

	payload, err := base64.StdEncoding.DecodeString(b.DSSEEnvelope.Payload)
	if err != nil {
		return nil, &MalformedBundleError{Reason: fmt.Sprintf("dsseEnvelope.payload: %v", err)}
	}

	sig, err := base64.StdEncoding.DecodeString(b.DSSEEnvelope.Signatures[0].Sig)
	if err != nil {
		return nil, &MalformedBundleError{Reason: fmt.Sprintf("dsseEnvelope.signatures[0].sig: %v", err)}
	}

	return &Decoded{
		LeafCertDER: certDER,
		Payload:     payload,
		PayloadType: b.DSSEEnvelope.PayloadType,
		Signature:   sig,
	}, nil
}
