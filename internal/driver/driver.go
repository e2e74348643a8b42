// ABOUTME: Orchestrates the two top-level CLI flows: plain domain traversal and PURL-filtered traversal
// ABOUTME: The only component permitted to unwind on failure; traversal failures stay aggregated (spec §4.10)
package driver

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/chainsights-rest/chainsights-client/internal/discovery"
	"github.com/chainsights-rest/chainsights-client/internal/fetch"
	"github.com/chainsights-rest/chainsights-client/internal/links"
	"github.com/chainsights-rest/chainsights-client/internal/purl"
	"github.com/chainsights-rest/chainsights-client/internal/statement"
	"github.com/chainsights-rest/chainsights-client/internal/traversal"
)

// ComponentNotFoundError reports that a PURL's component name did not
// match any component in the resolved catalog.
type ComponentNotFoundError struct {
	Name string
}

func (e *ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component %q not found in catalog", e.Name)
}

// Driver wires discovery, traversal and artifact fetching into the two
// flows exposed over the CLI.
type Driver struct {
	Resolver        discovery.Resolver
	HTTPClient      *http.Client
	MaxDepth        int
	MaxArtifactSize int64
}

// New returns a Driver sharing one HTTP client and one resolver across
// every operation it performs, per spec §5.
func New(resolver discovery.Resolver, client *http.Client, maxDepth int, maxArtifactSize int64) *Driver {
	return &Driver{
		Resolver:        resolver,
		HTTPClient:      client,
		MaxDepth:        maxDepth,
		MaxArtifactSize: maxArtifactSize,
	}
}

// RunDomain implements the Domain flow: resolveDomain, then
// traverseAndAggregate. The only fatal error is discovery failure;
// every traversal-time failure is captured inside the returned
// AggregatedCatalog.
func (d *Driver) RunDomain(ctx context.Context, domain string) (*traversal.AggregatedCatalog, error) {
	result, err := discovery.ResolveDomain(ctx, d.Resolver, domain)
	if err != nil {
		return nil, err
	}

	tr := traversal.New(d.HTTPClient, d.MaxDepth)
	agg := tr.TraverseAndAggregate(ctx, result.URI, result.Identity)
	return agg, nil
}

// PurlResult is the filtered view of a catalog's single matching
// component, produced by RunPurl.
type PurlResult struct {
	ComponentPredicate  *statement.ComponentPredicate `json:"componentPredicate,omitempty"`
	ComponentLinkURI    string                         `json:"componentLinkUri"`
	Releases            []traversal.AggregatedRelease  `json:"releases"`
	Warning             string                         `json:"warning,omitempty"`
	FetchedArtifacts    []FetchedArtifact              `json:"fetchedArtifacts,omitempty"`
	ArtifactFetchErrors []traversal.ComponentError     `json:"artifactFetchErrors,omitempty"`
}

// FetchedArtifact is one artifact retrieved and digest-verified during
// the optional --fetch-sbom step of the PURL flow.
type FetchedArtifact struct {
	URI       string `json:"uri"`
	MediaType string `json:"mediaType,omitempty"`
	Body      string `json:"body"`
	Warning   string `json:"warning,omitempty"`
}

// RunPurl implements the PURL flow of spec §4.10: parse, run the
// domain flow, locate the single named component, filter its releases
// by version (or include all, or none with a warning), and optionally
// fetch matching ArtifactLinks concurrently.
func (d *Driver) RunPurl(ctx context.Context, purlString string, allReleases bool, fetchMediaType string) (*PurlResult, error) {
	ref, err := purl.Parse(purlString)
	if err != nil {
		return nil, err
	}

	agg, err := d.RunDomain(ctx, ref.Domain)
	if err != nil {
		return nil, err
	}

	var matched *traversal.AggregatedComponent
	for i := range agg.Components {
		if agg.Components[i].ComponentPredicate != nil && agg.Components[i].ComponentPredicate.Name == ref.Component {
			matched = &agg.Components[i]
			break
		}
	}
	if matched == nil {
		return nil, &ComponentNotFoundError{Name: ref.Component}
	}

	result := &PurlResult{
		ComponentPredicate: matched.ComponentPredicate,
		ComponentLinkURI:   matched.ComponentLinkURI,
		Releases:           []traversal.AggregatedRelease{},
	}

	switch {
	case allReleases:
		result.Releases = matched.Releases

	case ref.HasVersion():
		for _, rel := range matched.Releases {
			if releaseMatchesVersion(rel, ref.Version) {
				result.Releases = append(result.Releases, rel)
			}
		}

	default:
		result.Warning = fmt.Sprintf("purl %q has no version and --all-releases was not set; no releases included", purlString)
	}

	if fetchMediaType != "" {
		d.fetchMatchingArtifacts(ctx, result, fetchMediaType)
	}

	return result, nil
}

// releaseMatchesVersion reports whether rel's own purl parses to the
// given version. A release whose purl fails to parse never matches.
func releaseMatchesVersion(rel traversal.AggregatedRelease, version string) bool {
	if rel.ReleasePredicate == nil {
		return false
	}
	releaseRef, err := purl.Parse(rel.ReleasePredicate.Purl)
	if err != nil {
		return false
	}
	return releaseRef.Version == version
}

// fetchMatchingArtifacts concurrently fetches every ArtifactLink (drawn
// from both metadataLinks and artifacts) across result.Releases whose
// mediaType equals fetchMediaType, per spec §4.10/§4.7.
func (d *Driver) fetchMatchingArtifacts(ctx context.Context, result *PurlResult, fetchMediaType string) {
	var candidates []links.Artifact
	for _, rel := range result.Releases {
		if rel.ReleasePredicate == nil {
			continue
		}
		for _, l := range rel.ReleasePredicate.MetadataLinks {
			if l.MediaType == fetchMediaType {
				candidates = append(candidates, l)
			}
		}
		for _, l := range rel.ReleasePredicate.Artifacts {
			if l.MediaType == fetchMediaType {
				candidates = append(candidates, l)
			}
		}
	}
	if len(candidates) == 0 {
		return
	}

	artifactFetcher := fetch.NewArtifactFetcher(d.HTTPClient, d.MaxArtifactSize)

	type outcome struct {
		artifact FetchedArtifact
		err      error
		uri      string
	}
	outcomes := make([]outcome, len(candidates))

	var wg sync.WaitGroup
	for i, link := range candidates {
		wg.Add(1)
		go func(i int, link links.Artifact) {
			defer wg.Done()
			res, err := artifactFetcher.FetchAndVerifyArtifact(ctx, link)
			if err != nil {
				outcomes[i] = outcome{err: err, uri: link.URI}
				return
			}
			outcomes[i] = outcome{artifact: FetchedArtifact{
				URI:       link.URI,
				MediaType: link.MediaType,
				Body:      string(res.Bytes),
				Warning:   res.Warning,
			}}
		}(i, link)
	}
	wg.Wait()

	for _, o := range outcomes {
		if o.err != nil {
			result.ArtifactFetchErrors = append(result.ArtifactFetchErrors, traversal.ComponentError{URI: o.uri, Message: o.err.Error()})
			continue
		}
		result.FetchedArtifacts = append(result.FetchedArtifacts, o.artifact)
	}
}
