// Package policy implements the two kinds of check a compiled
// controller can be asked: a temporal safety invariant (§4.6) and a
// non-interference / privacy policy via self-composition (§4.7).
// Counter-example trace attribution lives in internal/controller.
package policy

import (
	hashset "github.com/hashicorp/go-set/v3"

	"safechain/internal/cond"
	"safechain/internal/graph"
	"safechain/internal/rule"
)

// Policy is what a controller's grouping and pruning passes need from
// whichever check is being run, and what Controller.Check needs to
// render the final INVARSPEC/SPEC line. It takes the controller's rule
// list and vulnerable set as plain arguments rather than a Controller
// reference, so this package never imports internal/controller — the
// dependency runs the other way (controller -> policy).
type Policy interface {
	// Name identifies the policy for logging and result reporting.
	Name() string

	// RelatedVariables returns the variables pruning must keep
	// reachable-to: the variables the top-level spec mentions (an
	// invariant), or the vulnerable variables that are descendants in
	// g of the high variable set (a privacy policy).
	RelatedVariables(rules []*rule.Rule, vulnerable *hashset.Set[cond.VarRef], g *graph.Graph[cond.VarRef]) []cond.VarRef

	// Constraints returns atoms the grouping pass should record
	// literals from, beyond every rule's own conditions: the
	// invariant's own atoms, or (for a privacy policy) the atoms of
	// every action assignment that writes a vulnerable variable.
	Constraints(rules []*rule.Rule) []cond.Condition

	// Spec renders the top-level property text (already NuSMV-ready)
	// Controller.Check appends as the model's closing SPEC line.
	Spec(r cond.Resolver) (string, error)
}
