// ABOUTME: Package URL parsing constrained to the chainsights type
// ABOUTME: pkg:chainsights/<domain>/<component>[@<version>] per spec §6.3
package purl

import (
	"fmt"

	packageurl "github.com/package-url/packageurl-go"
)

// Type is the only PURL type this client accepts.
const Type = "chainsights"

// Reference is a parsed chainsights PURL: namespace is the domain,
// Name is the component, Version is optional.
type Reference struct {
	Domain    string
	Component string
	Version   string
}

// HasVersion reports whether the PURL carried an explicit version.
func (r Reference) HasVersion() bool {
	return r.Version != ""
}

// InvalidPurlError reports a PURL that fails to parse, or parses to a
// type/namespace/name this client cannot act on.
type InvalidPurlError struct {
	Input  string
	Reason string
}

func (e *InvalidPurlError) Error() string {
	return fmt.Sprintf("invalid purl %q: %s", e.Input, e.Reason)
}

// Parse parses s and rejects any type other than "chainsights", a
// missing namespace (domain), or an empty name (component).
func Parse(s string) (*Reference, error) {
	parsed, err := packageurl.FromString(s)
	if err != nil {
		return nil, &InvalidPurlError{Input: s, Reason: err.Error()}
	}

	if parsed.Type != Type {
		return nil, &InvalidPurlError{Input: s, Reason: fmt.Sprintf("type %q is not %q", parsed.Type, Type)}
	}
	if parsed.Namespace == "" {
		return nil, &InvalidPurlError{Input: s, Reason: "missing namespace (domain)"}
	}
	if parsed.Name == "" {
		return nil, &InvalidPurlError{Input: s, Reason: "empty name (component)"}
	}

	return &Reference{
		Domain:    parsed.Namespace,
		Component: parsed.Name,
		Version:   parsed.Version,
	}, nil
}
