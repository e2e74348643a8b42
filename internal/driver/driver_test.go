package driver

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type signer struct {
	key   *ecdsa.PrivateKey
	email string
}

func newSigner(t *testing.T, email string) *signer {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	return &signer{key: key, email: email}
}

func (s *signer) certDER(t *testing.T) []byte {
	t.Helper()
	template := &x509.Certificate{
		SerialNumber:   big.NewInt(1),
		Subject:        pkix.Name{CommonName: "test-leaf"},
		NotBefore:      time.Now().Add(-time.Hour),
		NotAfter:       time.Now().Add(time.Hour),
		EmailAddresses: []string{s.email},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &s.key.PublicKey, s.key)
	if err != nil {
		t.Fatalf("CreateCertificate() error = %v", err)
	}
	return der
}

func pae(payloadType string, payload []byte) []byte {
	return []byte(fmt.Sprintf("DSSEv1 %d %s %d %s", len(payloadType), payloadType, len(payload), payload))
}

func (s *signer) bundle(t *testing.T, payload []byte) string {
	t.Helper()
	payloadType := "application/vnd.in-toto+json"
	digest := sha256.Sum256(pae(payloadType, payload))
	sig, err := ecdsa.SignASN1(rand.Reader, s.key, digest[:])
	if err != nil {
		t.Fatalf("SignASN1() error = %v", err)
	}

	raw, err := json.Marshal(map[string]any{
		"mediaType": "application/vnd.dev.sigstore.bundle.v0.3+json",
		"verificationMaterial": map[string]any{
			"certificate": map[string]any{"rawBytes": base64.StdEncoding.EncodeToString(s.certDER(t))},
		},
		"dsseEnvelope": map[string]any{
			"payload":     base64.StdEncoding.EncodeToString(payload),
			"payloadType": payloadType,
			"signatures":  []map[string]any{{"sig": base64.StdEncoding.EncodeToString(sig)}},
		},
	})
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	return string(raw) + "\n"
}

func statementJSON(t *testing.T, predicateType string, predicate any) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"_type":         "https://in-toto.io/Statement/v1",
		"subject":       []any{},
		"predicateType": predicateType,
		"predicate":     predicate,
	})
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	return raw
}

type fakeResolver struct {
	uri      string
	identity string
}

func (f *fakeResolver) LookupTXT(ctx context.Context, name string) ([][]string, error) {
	return [][]string{{fmt.Sprintf(`uri=%q identity=%q`, f.uri, f.identity)}}, nil
}

// buildFixture serves a catalog with one component "core" carrying two
// releases, one matching version 1.2.0 and one matching 1.1.0, mirroring
// spec §8 scenario 2.
func buildFixture(t *testing.T) (*httptest.Server, *signer, *fakeResolver) {
	t.Helper()
	s := newSigner(t, "supply@example.com")
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)

	sbomBody := []byte(`{"spdxVersion":"SPDX-2.3"}`)
	sbomSum := sha256.Sum256(sbomBody)
	sbomDigest := hex.EncodeToString(sbomSum[:])
	mux.HandleFunc("/sbom.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(sbomBody)
	})

	release120 := statementJSON(t, "https://chainsights.rest/release/v1", map[string]any{
		"timestamp": "2026-01-01T00:00:00Z",
		"purl":      "pkg:chainsights/example.com/core@1.2.0",
		"name":      "core",
		"metadataLinks": []any{
			map[string]any{
				"uri":       srv.URL + "/sbom.json",
				"digest":    map[string]any{"sha256": sbomDigest},
				"mediaType": "application/spdx+json",
			},
		},
	})
	mux.HandleFunc("/release-1.2.0.jsonl", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(s.bundle(t, release120)))
	})

	release110 := statementJSON(t, "https://chainsights.rest/release/v1", map[string]any{
		"timestamp": "2026-01-01T00:00:00Z",
		"purl":      "pkg:chainsights/example.com/core@1.1.0",
		"name":      "core",
	})
	mux.HandleFunc("/release-1.1.0.jsonl", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(s.bundle(t, release110)))
	})

	componentBody := statementJSON(t, "https://chainsights.rest/component/v1", map[string]any{
		"timestamp":    "2026-01-01T00:00:00Z",
		"purl":         "pkg:chainsights/example.com/core",
		"name":         "core",
		"repositories": []any{},
		"releaseAttestations": []any{
			map[string]any{"uri": srv.URL + "/release-1.2.0.jsonl", "expectedSignerIdentity": "supply@example.com"},
			map[string]any{"uri": srv.URL + "/release-1.1.0.jsonl", "expectedSignerIdentity": "supply@example.com"},
		},
	})
	mux.HandleFunc("/component.jsonl", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(s.bundle(t, componentBody)))
	})

	catalogBody := statementJSON(t, "https://chainsights.rest/catalog/v1", map[string]any{
		"timestamp": "2026-01-01T00:00:00Z",
		"components": []any{
			map[string]any{
				"name":          "core",
				"componentPurl": "pkg:chainsights/example.com/core",
				"componentAttestationLink": map[string]any{
					"uri":                    srv.URL + "/component.jsonl",
					"expectedSignerIdentity": "supply@example.com",
				},
			},
		},
	})
	mux.HandleFunc("/root.jsonl", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(s.bundle(t, catalogBody)))
	})

	resolver := &fakeResolver{uri: srv.URL + "/root.jsonl", identity: "supply@example.com"}
	return srv, s, resolver
}

func TestRunDomainHappyPath(t *testing.T) {
	srv, _, resolver := buildFixture(t)
	defer srv.Close()

	d := New(resolver, srv.Client(), 10, 0)
	agg, err := d.RunDomain(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("RunDomain() error = %v", err)
	}
	if len(agg.Components) != 1 || len(agg.Components[0].Releases) != 2 {
		t.Fatalf("unexpected aggregate: %+v", agg)
	}
}

func TestRunPurlMatchingVersion(t *testing.T) {
	srv, _, resolver := buildFixture(t)
	defer srv.Close()

	d := New(resolver, srv.Client(), 10, 0)
	result, err := d.RunPurl(context.Background(), "pkg:chainsights/example.com/core@1.2.0", false, "")
	if err != nil {
		t.Fatalf("RunPurl() error = %v", err)
	}
	if len(result.Releases) != 1 {
		t.Fatalf("expected exactly 1 matching release, got %d", len(result.Releases))
	}
	if result.Releases[0].ReleasePredicate.Purl != "pkg:chainsights/example.com/core@1.2.0" {
		t.Errorf("unexpected release matched: %s", result.Releases[0].ReleasePredicate.Purl)
	}
	if result.Warning != "" {
		t.Errorf("unexpected warning: %s", result.Warning)
	}
}

func TestRunPurlMissingVersionWarns(t *testing.T) {
	srv, _, resolver := buildFixture(t)
	defer srv.Close()

	d := New(resolver, srv.Client(), 10, 0)
	result, err := d.RunPurl(context.Background(), "pkg:chainsights/example.com/core", false, "")
	if err != nil {
		t.Fatalf("RunPurl() error = %v", err)
	}
	if len(result.Releases) != 0 {
		t.Fatalf("expected no releases, got %d", len(result.Releases))
	}
	if result.Warning == "" {
		t.Fatal("expected a warning for missing version without --all-releases")
	}
}

func TestRunPurlAllReleases(t *testing.T) {
	srv, _, resolver := buildFixture(t)
	defer srv.Close()

	d := New(resolver, srv.Client(), 10, 0)
	result, err := d.RunPurl(context.Background(), "pkg:chainsights/example.com/core", true, "")
	if err != nil {
		t.Fatalf("RunPurl() error = %v", err)
	}
	if len(result.Releases) != 2 {
		t.Fatalf("expected 2 releases with --all-releases, got %d", len(result.Releases))
	}
}

func TestRunPurlComponentNotFound(t *testing.T) {
	srv, _, resolver := buildFixture(t)
	defer srv.Close()

	d := New(resolver, srv.Client(), 10, 0)
	_, err := d.RunPurl(context.Background(), "pkg:chainsights/example.com/nonexistent@1.0.0", false, "")
	if _, ok := err.(*ComponentNotFoundError); !ok {
		t.Fatalf("expected *ComponentNotFoundError, got %T (%v)", err, err)
	}
}

func TestRunPurlFetchSBOM(t *testing.T) {
	srv, _, resolver := buildFixture(t)
	defer srv.Close()

	d := New(resolver, srv.Client(), 10, 0)
	result, err := d.RunPurl(context.Background(), "pkg:chainsights/example.com/core@1.2.0", false, "application/spdx+json")
	if err != nil {
		t.Fatalf("RunPurl() error = %v", err)
	}
	if len(result.FetchedArtifacts) != 1 {
		t.Fatalf("expected 1 fetched artifact, got %d (errors: %v)", len(result.FetchedArtifacts), result.ArtifactFetchErrors)
	}
	if result.FetchedArtifacts[0].Body == "" {
		t.Error("expected non-empty SBOM body")
	}
	if len(result.ArtifactFetchErrors) != 0 {
		t.Errorf("unexpected fetch errors: %v", result.ArtifactFetchErrors)
	}
}
