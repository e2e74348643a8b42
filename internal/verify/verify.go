// ABOUTME: Combines PAE encoding, X.509-backed signature verification, and
// ABOUTME: signer identity matching into the single-manifest verification step
package verify

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"fmt"

	"github.com/chainsights-rest/chainsights-client/internal/bundlewire"
	"github.com/chainsights-rest/chainsights-client/internal/identity"
	"github.com/chainsights-rest/chainsights-client/internal/pae"
)

// SignatureInvalidError reports a signature that failed cryptographic
// verification against the leaf certificate's public key.
type SignatureInvalidError struct {
	Reason string
}

func (e *SignatureInvalidError) Error() string {
	return fmt.Sprintf("signature invalid: %s", e.Reason)
}

// UnsupportedAlgorithmError reports a certificate public key algorithm this
// verifier does not implement.
type UnsupportedAlgorithmError struct {
	Algorithm string
}

func (e *UnsupportedAlgorithmError) Error() string {
	return fmt.Sprintf("unsupported signing algorithm: %s", e.Algorithm)
}

// Verifier verifies a single Sigstore-shaped bundle: it reconstructs the
// DSSE PAE, checks the signature against the leaf certificate's public key,
// and matches the certificate's RFC822 SAN against an expected identity.
//
// By design this revision never checks certificate chain-to-Fulcio-root,
// certificate validity window, transparency-log inclusion, or timestamp
// proofs — those are reserved for a future hardening pass (see spec §4.4).
type Verifier struct{}

// New returns a ready-to-use Verifier. It takes no configuration because
// the verification steps it performs are fixed by spec; policy and trust
// root concerns are deliberately out of scope here.
func New() *Verifier {
	return &Verifier{}
}

// Verify decodes bundleJSON, verifies the signature over the DSSE PAE of
// the declared payload using the leaf certificate's public key, checks the
// certificate's identity against expectedIdentity, and returns the decoded
// payload bytes.
func (v *Verifier) Verify(bundleJSON []byte, expectedIdentity string) ([]byte, error) {
	decoded, err := bundlewire.Decode(bundleJSON)
	if err != nil {
		return nil, err
	}

	cert, err := identity.ParseCertificate(decoded.LeafCertDER)
	if err != nil {
		return nil, err
	}

	paeBytes := pae.Encode(decoded.PayloadType, decoded.Payload)

	if err := verifySignature(cert, paeBytes, decoded.Signature); err != nil {
		return nil, err
	}

	if err := identity.MatchIdentity(cert, expectedIdentity); err != nil {
		return nil, err
	}

	return decoded.Payload, nil
}

// verifySignature checks sig over data using cert's public key. At minimum
// ECDSA over NIST P-256/P-384/P-521 with SHA-256 is supported (the
// Sigstore default); RSA PKCS#1v1.5 and PSS with SHA-256 are also accepted
// as implementable extras. Any other key type fails UnsupportedAlgorithm.
func verifySignature(cert *x509.Certificate, data, sig []byte) error {
	digest := sha256.Sum256(data)

	switch pub := cert.PublicKey.(type) {
	case *ecdsa.PublicKey:
		if !ecdsa.VerifyASN1(pub, digest[:], sig) {
			return &SignatureInvalidError{Reason: "ECDSA signature does not verify against leaf certificate public key"}
		}
		return nil

	case *rsa.PublicKey:
		if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig); err == nil {
			return nil
		}
		if err := rsa.VerifyPSS(pub, crypto.SHA256, digest[:], sig, nil); err == nil {
			return nil
		}
		return &SignatureInvalidError{Reason: "RSA signature does not verify against leaf certificate public key"}

	default:
		return &UnsupportedAlgorithmError{Algorithm: fmt.Sprintf("%T", cert.PublicKey)}
	}
}
