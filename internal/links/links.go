// ABOUTME: AttestationLink and ArtifactLink — the two reference shapes that
// ABOUTME: carry a fetch target, optional digest, and signer identity expectations
package links

// Attestation points at a further manifest to fetch and verify. Its
// expectedSignerIdentity is required: every attestation the traversal
// follows must be signed by a known identity.
type Attestation struct {
	URI                    string            `json:"uri"`
	Digest                 map[string]string `json:"digest,omitempty"`
	MediaType              string            `json:"mediaType,omitempty"`
	ExpectedSignerIdentity string            `json:"expectedSignerIdentity"`
}

// Artifact points at a referenced file (SBOM, SLSA attestation document,
// binary, etc.). Its expectedSignerIdentity is optional; artifact
// integrity is established by digest rather than signature.
type Artifact struct {
	URI                    string            `json:"uri"`
	Digest                 map[string]string `json:"digest,omitempty"`
	MediaType              string            `json:"mediaType,omitempty"`
	ExpectedSignerIdentity string            `json:"expectedSignerIdentity,omitempty"`
}
