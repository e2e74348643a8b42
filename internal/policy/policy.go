// ABOUTME: Policy seam — a hook from a verified in-toto statement to an accept/reject decision
// ABOUTME: Inert in this revision; reserves the integration point described in spec §9
package policy

import "github.com/chainsights-rest/chainsights-client/internal/statement"

// Func is called once per successfully verified manifest, after signature
// and identity checks pass and before the predicate is dispatched. A
// non-nil error is treated the same as any other per-node traversal
// failure: it is recorded structurally, never unwinding the traversal.
type Func func(stmt *statement.InTotoStatement) error

// NoOp always accepts. It is the default policy until a real policy
// engine is wired in.
func NoOp(*statement.InTotoStatement) error {
	return nil
}
