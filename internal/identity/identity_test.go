package identity

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"
)

func selfSignedCertWithEmail(t *testing.T, email string) []byte {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	template := &x509.Certificate{
		SerialNumber:   big.NewInt(1),
		Subject:        pkix.Name{CommonName: "test-leaf"},
		NotBefore:      time.Now().Add(-time.Hour),
		NotAfter:       time.Now().Add(time.Hour),
		EmailAddresses: []string{email},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate() error = %v", err)
	}
	return der
}

func TestMatchIdentityCaseInsensitive(t *testing.T) {
	der := selfSignedCertWithEmail(t, "alice@Example.COM")
	cert, err := ParseCertificate(der)
	if err != nil {
		t.Fatalf("ParseCertificate() error = %v", err)
	}

	if err := MatchIdentity(cert, "ALICE@example.com"); err != nil {
		t.Fatalf("MatchIdentity() error = %v", err)
	}
}

func TestMatchIdentityMismatch(t *testing.T) {
	der := selfSignedCertWithEmail(t, "bob@x")
	cert, err := ParseCertificate(der)
	if err != nil {
		t.Fatalf("ParseCertificate() error = %v", err)
	}

	err = MatchIdentity(cert, "alice@x")
	if err == nil {
		t.Fatal("expected IdentityMismatchError, got nil")
	}
	mismatch, ok := err.(*IdentityMismatchError)
	if !ok {
		t.Fatalf("expected *IdentityMismatchError, got %T", err)
	}
	if mismatch.Expected != "alice@x" {
		t.Errorf("Expected = %q", mismatch.Expected)
	}
	if len(mismatch.ObservedSANs) != 1 || mismatch.ObservedSANs[0] != "bob@x" {
		t.Errorf("ObservedSANs = %v", mismatch.ObservedSANs)
	}
}

func TestParseCertificateMalformed(t *testing.T) {
	_, err := ParseCertificate([]byte("not a certificate"))
	if err == nil {
		t.Fatal("expected error for garbage DER")
	}
	if _, ok := err.(*MalformedCertificateError); !ok {
		t.Fatalf("expected *MalformedCertificateError, got %T", err)
	}
}
