// Package checker discharges assertions against the solved equation
// graph. An assertion is proved when no concrete state at its program
// point can violate it: filtering the asserted variable by the negated
// condition must come out empty. This is sound but not complete; it
// cannot prove assertions whose left operand is not a variable or that
// need relational reasoning between variables.
package checker

import (
	"github.com/tia-lang/tia/analysis/diag"
	"github.com/tia-lang/tia/analysis/eqgraph"
	"github.com/tia-lang/tia/analysis/transfer"
	"github.com/tia-lang/tia/lang/ast"
)

// Check walks the solved graph in build order and reports a verdict for
// every assertion into the sink.
func Check(g *eqgraph.Graph, sink *diag.Sink) error {
	for _, loc := range g.Locations() {
		if loc.Kind() != eqgraph.Seq || loc.Node() == nil ||
			loc.Node().Kind != ast.Postcondition {
			continue
		}
		post := loc.Node()
		cond := post.Children[0]
		if err := cond.Expect(ast.LogicOp, 2); err != nil {
			return err
		}

		σ := g.Loc(loc.Deps()[0]).Store()
		if σ.IsBot() {
			// The assertion point is unreachable; vacuously proved.
			sink.Proved(post.Pos, cond.String())
			continue
		}

		lhs := cond.Children[0]
		if lhs.Kind != ast.VarRef {
			// Without a variable on the left there is nothing to
			// restrict; report conservatively.
			sink.MayFail(post.Pos, cond.String(), σ)
			continue
		}

		left := σ.Get(lhs.Name)
		right, err := transfer.EvalArith(cond.Children[1], σ, sink)
		if err != nil {
			return err
		}
		violating := transfer.FilterIntervals(cond.Cmp.Negate(), left, right)
		if violating.IsBot() {
			sink.Proved(post.Pos, cond.String())
		} else {
			sink.MayFail(post.Pos, cond.String(), σ)
		}
	}
	return nil
}
