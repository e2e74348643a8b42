// ABOUTME: Bounded, cycle-safe, depth-limited walk over the catalog/component/release graph
// ABOUTME: Dispatches by predicate kind and aggregates both successes and per-node failures
package traversal

import (
	"context"
	"fmt"
	"net/http"

	"github.com/chainsights-rest/chainsights-client/internal/fetch"
	"github.com/chainsights-rest/chainsights-client/internal/links"
	"github.com/chainsights-rest/chainsights-client/internal/policy"
	"github.com/chainsights-rest/chainsights-client/internal/statement"
	"github.com/chainsights-rest/chainsights-client/internal/verify"
)

// DefaultMaxDepth is the traversal depth bound used when none is configured.
const DefaultMaxDepth = 10

// CycleError reports that a URI had already been visited in this traversal.
type CycleError struct {
	URI string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("Cycle detected: URI '%s' already visited", e.URI)
}

// DepthExceededError reports that processing a URI would exceed maxDepth.
type DepthExceededError struct {
	URI      string
	MaxDepth int
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("Depth exceeded: URI '%s' would exceed maxDepth %d", e.URI, e.MaxDepth)
}

// UnexpectedPredicateError reports that a node carried a different
// predicate kind than the traversal required at that position.
type UnexpectedPredicateError struct {
	Expected statement.Kind
	Found    statement.Kind
}

func (e *UnexpectedPredicateError) Error() string {
	return fmt.Sprintf("Expected %s predicate, found %s", e.Expected, e.Found)
}

// ComponentError pairs a URI with the message describing why processing it
// failed, used for both componentErrors and releaseErrors/artifact errors.
type ComponentError struct {
	URI     string `json:"uri"`
	Message string `json:"message"`
}

// AggregatedRelease is one release node's aggregated result.
type AggregatedRelease struct {
	ReleasePredicate    *statement.ReleasePredicate `json:"releasePredicate,omitempty"`
	MetadataArtifacts   []links.Artifact            `json:"metadataArtifacts"`
	ReleaseLinkURI      string                       `json:"releaseLinkUri"`
	ArtifactFetchErrors []ComponentError             `json:"artifactFetchErrors,omitempty"`
}

// AggregatedComponent is one component node's aggregated result.
type AggregatedComponent struct {
	ComponentPredicate *statement.ComponentPredicate `json:"componentPredicate,omitempty"`
	Releases           []AggregatedRelease           `json:"releases"`
	ComponentLinkURI   string                         `json:"componentLinkUri"`
	ReleaseErrors      []ComponentError               `json:"releaseErrors,omitempty"`
}

// AggregatedCatalog is the top-level traversal result shape.
type AggregatedCatalog struct {
	CatalogPredicate *statement.CatalogPredicate `json:"catalogPredicate,omitempty"`
	Components       []AggregatedComponent       `json:"components"`
	RootError        string                       `json:"rootError,omitempty"`
	ComponentErrors  []ComponentError             `json:"componentErrors,omitempty"`
}

// Traversal owns the visited set, depth bound, and the collaborators
// needed to fetch and verify each node.
type Traversal struct {
	MaxDepth int
	Policy   policy.Func

	verifier *verify.Verifier
	fetcher  *fetch.ManifestFetcher
	visited  map[string]struct{}
}

// New returns a Traversal sharing the given HTTP client across every
// manifest fetch it performs.
func New(client *http.Client, maxDepth int) *Traversal {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Traversal{
		MaxDepth: maxDepth,
		Policy:   policy.NoOp,
		verifier: verify.New(),
		fetcher:  fetch.NewManifestFetcher(client),
		visited:  make(map[string]struct{}),
	}
}

// TraverseAndAggregate walks the graph rooted at rootURI/rootIdentity and
// returns the aggregated result. It never returns a fatal error: every
// failure is captured structurally in the returned AggregatedCatalog.
func (t *Traversal) TraverseAndAggregate(ctx context.Context, rootURI, rootIdentity string) *AggregatedCatalog {
	agg := &AggregatedCatalog{
		Components: []AggregatedComponent{},
	}

	pred, err := t.processAttestationURI(ctx, rootURI, rootIdentity, 0)
	if err != nil {
		agg.RootError = err.Error()
		return agg
	}

	catalogPred, ok := pred.(statement.CatalogPredicate)
	if !ok {
		agg.RootError = fmt.Sprintf("Expected Catalog predicate at root URI '%s', found %s", rootURI, pred.Kind())
		return agg
	}
	agg.CatalogPredicate = &catalogPred

	for _, comp := range catalogPred.Components {
		agg.Components = append(agg.Components, t.processComponent(ctx, comp, agg))
	}
	// processComponent never fails the whole traversal; component-level
	// errors are appended directly onto agg.ComponentErrors inside it.
	return agg
}

func (t *Traversal) processComponent(ctx context.Context, comp statement.CatalogComponentEntry, agg *AggregatedCatalog) AggregatedComponent {
	link := comp.ComponentAttestationLink

	pred, err := t.processAttestationURI(ctx, link.URI, link.ExpectedSignerIdentity, 1)
	if err != nil {
		agg.ComponentErrors = append(agg.ComponentErrors, ComponentError{URI: link.URI, Message: err.Error()})
		return AggregatedComponent{Releases: []AggregatedRelease{}, ComponentLinkURI: link.URI}
	}

	componentPred, ok := pred.(statement.ComponentPredicate)
	if !ok {
		msg := (&UnexpectedPredicateError{Expected: statement.KindComponent, Found: pred.Kind()}).Error()
		agg.ComponentErrors = append(agg.ComponentErrors, ComponentError{URI: link.URI, Message: msg})
		return AggregatedComponent{Releases: []AggregatedRelease{}, ComponentLinkURI: link.URI}
	}

	aggComp := AggregatedComponent{
		ComponentPredicate: &componentPred,
		Releases:           []AggregatedRelease{},
		ComponentLinkURI:   link.URI,
	}

	for _, relLink := range componentPred.ReleaseAttestations {
		release, releaseErr := t.processRelease(ctx, relLink)
		if releaseErr != nil {
			aggComp.ReleaseErrors = append(aggComp.ReleaseErrors, ComponentError{URI: relLink.URI, Message: releaseErr.Error()})
			continue
		}
		aggComp.Releases = append(aggComp.Releases, *release)
	}

	return aggComp
}

func (t *Traversal) processRelease(ctx context.Context, relLink links.Attestation) (*AggregatedRelease, error) {
	pred, err := t.processAttestationURI(ctx, relLink.URI, relLink.ExpectedSignerIdentity, 2)
	if err != nil {
		return nil, err
	}

	releasePred, ok := pred.(statement.ReleasePredicate)
	if !ok {
		return nil, &UnexpectedPredicateError{Expected: statement.KindRelease, Found: pred.Kind()}
	}

	metadataArtifacts := releasePred.MetadataLinks
	if metadataArtifacts == nil {
		metadataArtifacts = []links.Artifact{}
	}

	return &AggregatedRelease{
		ReleasePredicate:  &releasePred,
		MetadataArtifacts: metadataArtifacts,
		ReleaseLinkURI:    relLink.URI,
	}, nil
}

// processAttestationURI implements spec §4.8 step 2: cycle check, depth
// check, mark-before-fetch, fetch, verify, and predicate decode.
func (t *Traversal) processAttestationURI(ctx context.Context, uri, identity string, depth int) (statement.Predicate, error) {
	if _, seen := t.visited[uri]; seen {
		return nil, &CycleError{URI: uri}
	}
	// A node at exactly maxDepth is still processed; only a node that
	// would need to go deeper than maxDepth is rejected. See DESIGN.md
	// for why depth > maxDepth (not depth >= maxDepth) is the correct
	// reading of the bound against the worked examples in spec §8.
	if depth > t.MaxDepth {
		return nil, &DepthExceededError{URI: uri, MaxDepth: t.MaxDepth}
	}

	t.visited[uri] = struct{}{}

	text, err := t.fetcher.FetchManifestText(ctx, uri)
	if err != nil {
		return nil, err
	}

	payload, err := t.verifier.Verify([]byte(text), identity)
	if err != nil {
		return nil, err
	}

	stmt, err := statement.ParseStatement(payload)
	if err != nil {
		return nil, err
	}

	if policyErr := t.Policy(stmt); policyErr != nil {
		return nil, policyErr
	}

	return statement.DecodePredicate(stmt)
}
