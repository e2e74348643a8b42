// ABOUTME: ORAS-backed transport for oci:// link URIs
// ABOUTME: Adapted from the teacher's GHCR repository client into a generic single-layer blob fetch
package oci

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/registry"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/retry"
)

// Scheme is the URI scheme that routes a link through this transport
// instead of a plain HTTPS GET. A Chainsights link of the form
// "oci://host/repository:tag" (or "...@sha256:<digest>") names a single-layer OCI
// artifact whose one layer carries the manifest JSONL or artifact bytes.
const Scheme = "oci://"

// IsOCIReference reports whether uri should be routed through FetchBlob.
func IsOCIReference(uri string) bool {
	return strings.HasPrefix(uri, Scheme)
}

// FetchBlob resolves an oci:// reference, fetches its manifest, and
// returns the bytes of the manifest's single layer along with that
// layer's media type.
func FetchBlob(ctx context.Context, uri string) ([]byte, string, error) {
	if !IsOCIReference(uri) {
		return nil, "", fmt.Errorf("not an oci:// reference: %s", uri)
	}
	imageRef := strings.TrimPrefix(uri, Scheme)

	ref, err := registry.ParseReference(imageRef)
	if err != nil {
		return nil, "", fmt.Errorf("parsing oci reference %q: %w", uri, err)
	}

	repo, err := remote.NewRepository(ref.Registry + "/" + ref.Repository)
	if err != nil {
		return nil, "", fmt.Errorf("creating repository client for %q: %w", uri, err)
	}
	repo.Client = retry.DefaultClient

	desc, err := repo.Resolve(ctx, ref.Reference)
	if err != nil {
		return nil, "", fmt.Errorf("resolving %q: %w", uri, err)
	}

	manifestReader, err := repo.Fetch(ctx, desc)
	if err != nil {
		return nil, "", fmt.Errorf("fetching manifest for %q: %w", uri, err)
	}
	defer manifestReader.Close()

	manifestBytes, err := content.ReadAll(manifestReader, desc)
	if err != nil {
		return nil, "", fmt.Errorf("reading manifest for %q: %w", uri, err)
	}

	var manifest ocispec.Manifest
	if err := json.Unmarshal(manifestBytes, &manifest); err != nil {
		return nil, "", fmt.Errorf("unmarshaling manifest for %q: %w", uri, err)
	}

	if len(manifest.Layers) == 0 {
		return nil, "", fmt.Errorf("oci reference %q has no layers", uri)
	}

	layer := manifest.Layers[0]
	layerReader, err := repo.Fetch(ctx, layer)
	if err != nil {
		return nil, "", fmt.Errorf("fetching layer for %q: %w", uri, err)
	}
	defer layerReader.Close()

	layerBytes, err := content.ReadAll(layerReader, layer)
	if err != nil {
		return nil, "", fmt.Errorf("reading layer for %q: %w", uri, err)
	}

	return layerBytes, layer.MediaType, nil
}
