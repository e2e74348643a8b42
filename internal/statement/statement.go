// ABOUTME: In-toto statement decoding and the tagged Catalog/Component/Release predicate variant
// ABOUTME: Dispatches on predicateType; unrecognized types become an Unknown observation, not an error
package statement

import (
	"encoding/json"
	"fmt"

	"github.com/chainsights-rest/chainsights-client/internal/links"
)

// Recognized predicate type URIs.
const (
	CatalogPredicateType   = "https://chainsights.rest/catalog/v1"
	ComponentPredicateType = "https://chainsights.rest/component/v1"
	ReleasePredicateType   = "https://chainsights.rest/release/v1"
)

// Subject is an in-toto statement subject entry.
type Subject struct {
	Name   string            `json:"name,omitempty"`
	URI    string            `json:"uri,omitempty"`
	Digest map[string]string `json:"digest,omitempty"`
}

// InTotoStatement is the decoded DSSE payload: an in-toto statement
// carrying a predicateType discriminator and the raw predicate value.
type InTotoStatement struct {
	Type          string          `json:"_type"`
	Subject       []Subject       `json:"subject"`
	PredicateType string          `json:"predicateType"`
	Predicate     json.RawMessage `json:"predicate"`
}

// Kind identifies which predicate variant a decoded Predicate carries.
type Kind string

const (
	KindCatalog   Kind = "catalog"
	KindComponent Kind = "component"
	KindRelease   Kind = "release"
	KindUnknown   Kind = "unknown"
)

// Predicate is a tagged variant over the closed set of Chainsights
// predicate kinds, discriminated by Kind().
type Predicate interface {
	Kind() Kind
}

// CatalogComponentEntry is one entry in a CatalogPredicate's components list.
type CatalogComponentEntry struct {
	Name                     string            `json:"name"`
	Description              string            `json:"description,omitempty"`
	ComponentPurl            string            `json:"componentPurl"`
	ComponentAttestationLink links.Attestation `json:"componentAttestationLink"`
	Labels                   map[string]string `json:"labels,omitempty"`
}

// SubCatalogEntry links to a nested catalog attestation.
type SubCatalogEntry struct {
	Name string            `json:"name"`
	Link links.Attestation `json:"link"`
}

// CatalogPredicate is the https://chainsights.rest/catalog/v1 predicate.
type CatalogPredicate struct {
	Timestamp     string                  `json:"timestamp"`
	Generator     string                  `json:"generator,omitempty"`
	Components    []CatalogComponentEntry `json:"components"`
	SubCatalogs   []SubCatalogEntry       `json:"subCatalogs,omitempty"`
	MetadataLinks []links.Artifact        `json:"metadataLinks,omitempty"`
}

func (CatalogPredicate) Kind() Kind { return KindCatalog }

// RepositoryRef describes a source repository for a component.
type RepositoryRef struct {
	Type        string   `json:"type"`
	URI         string   `json:"uri"`
	Paths       []string `json:"paths,omitempty"`
	PrimaryPath string   `json:"primaryPath,omitempty"`
}

// SubComponentEntry links to a nested component attestation.
type SubComponentEntry struct {
	Name string            `json:"name"`
	Purl string            `json:"purl"`
	Link links.Attestation `json:"link"`
}

// ComponentPredicate is the https://chainsights.rest/component/v1 predicate.
type ComponentPredicate struct {
	Timestamp           string              `json:"timestamp"`
	Generator           string              `json:"generator,omitempty"`
	Purl                string              `json:"purl"`
	Name                string              `json:"name"`
	Description         string              `json:"description,omitempty"`
	Aliases             []string            `json:"aliases,omitempty"`
	Labels              map[string]string   `json:"labels,omitempty"`
	Repositories        []RepositoryRef     `json:"repositories"`
	SubComponents       []SubComponentEntry `json:"subComponents,omitempty"`
	ReleaseAttestations []links.Attestation `json:"releaseAttestations"`
	MetadataLinks       []links.Artifact    `json:"metadataLinks,omitempty"`
}

func (ComponentPredicate) Kind() Kind { return KindComponent }

// ReleasePredicate is the https://chainsights.rest/release/v1 predicate.
type ReleasePredicate struct {
	Timestamp       string           `json:"timestamp"`
	Generator       string           `json:"generator,omitempty"`
	Purl            string           `json:"purl"`
	Name            string           `json:"name"`
	ReleaseDate     string           `json:"releaseDate,omitempty"`
	ReleaseNotesURI string           `json:"releaseNotesUri,omitempty"`
	LifecyclePhase  string           `json:"lifecyclePhase,omitempty"`
	MetadataLinks   []links.Artifact `json:"metadataLinks,omitempty"`
	Artifacts       []links.Artifact `json:"artifacts,omitempty"`
}

func (ReleasePredicate) Kind() Kind { return KindRelease }

// UnknownPredicate carries a predicateType this decoder does not recognize,
// along with the original JSON value verbatim. It is not an error; it is
// reported as an UnexpectedPredicate where a specific kind was required.
type UnknownPredicate struct {
	Type string
	Raw  json.RawMessage
}

func (UnknownPredicate) Kind() Kind { return KindUnknown }

// MalformedPredicateError reports that a recognized predicateType failed
// schema parsing of its predicate payload.
type MalformedPredicateError struct {
	DeclaredType string
	Reason       string
}

func (e *MalformedPredicateError) Error() string {
	return fmt.Sprintf("malformed predicate %q: %s", e.DeclaredType, e.Reason)
}

// DecodePredicate dispatches on stmt.PredicateType and parses the raw
// predicate into the matching variant. An unrecognized predicateType
// yields Unknown rather than an error.
func DecodePredicate(stmt *InTotoStatement) (Predicate, error) {
	switch stmt.PredicateType {
	case CatalogPredicateType:
		var p CatalogPredicate
		if err := json.Unmarshal(stmt.Predicate, &p); err != nil {
			return nil, &MalformedPredicateError{DeclaredType: stmt.PredicateType, Reason: err.Error()}
		}
		return p, nil

	case ComponentPredicateType:
		var p ComponentPredicate
		if err := json.Unmarshal(stmt.Predicate, &p); err != nil {
			return nil, &MalformedPredicateError{DeclaredType: stmt.PredicateType, Reason: err.Error()}
		}
		return p, nil

	case ReleasePredicateType:
		var p ReleasePredicate
		if err := json.Unmarshal(stmt.Predicate, &p); err != nil {
			return nil, &MalformedPredicateError{DeclaredType: stmt.PredicateType, Reason: err.Error()}
		}
		return p, nil

	default:
		return UnknownPredicate{Type: stmt.PredicateType, Raw: stmt.Predicate}, nil
	}
}

// ParseStatement decodes a raw in-toto statement JSON payload (the bytes
// returned by Verifier.Verify).
func ParseStatement(payload []byte) (*InTotoStatement, error) {
	var stmt InTotoStatement
	if err := json.Unmarshal(payload, &stmt); err != nil {
		return nil, fmt.Errorf("parsing in-toto statement: %w", err)
	}
	return &stmt, nil
}
