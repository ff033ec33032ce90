// Package solver computes a fixpoint of an equation graph by chaotic
// iteration, with widening at loop heads; widening makes the result an
// over-approximation of the least fixpoint, not the least one itself. Stores only ever move
// up the lattice, and widening saturates any unstable bound in one
// step, so the number of distinct stores per location is finite and
// iteration terminates.
package solver

import (
	"fmt"

	"github.com/tia-lang/tia/analysis/diag"
	"github.com/tia-lang/tia/analysis/eqgraph"
	"github.com/tia-lang/tia/analysis/lattice"
	"github.com/tia-lang/tia/analysis/store"
	"github.com/tia-lang/tia/analysis/transfer"
	"github.com/tia-lang/tia/lang/ast"
	"github.com/tia-lang/tia/utils"
	"github.com/tia-lang/tia/utils/worklist"
)

// Solve iterates full passes over the locations in build order until a
// pass produces no change, and returns the number of passes. Within a
// pass, a location reads the already-updated stores of dependencies
// that precede it and the previous pass's stores otherwise; this is
// what lets loops converge over successive rounds plus widening.
func Solve(g *eqgraph.Graph, sink *diag.Sink) (passes int, err error) {
	for changed := true; changed; {
		changed = false
		passes++
		for i, loc := range g.Locations() {
			next, err := step(g, i, sink)
			if err != nil {
				return passes, err
			}
			if !next.Eq(loc.Store()) {
				loc.UpdateStore(next)
				changed = true
			}
		}
		utils.VerbosePrint("pass %d done\n", passes)
	}
	return passes, nil
}

// SolveWorklist solves the same equation system with a worklist seeded
// in build order, re-enqueueing the dependents of every location whose
// store grows. It reaches the same fixpoint as Solve; the returned
// count is the number of location evaluations rather than passes.
func SolveWorklist(g *eqgraph.Graph, sink *diag.Sink) (evals int, err error) {
	dependents := make([][]int, g.Len())
	for i, loc := range g.Locations() {
		for _, dep := range loc.Deps() {
			dependents[dep] = append(dependents[dep], i)
		}
	}

	seed := make([]int, g.Len())
	for i := range seed {
		seed[i] = i
	}

	worklist.StartV(seed, func(i int, add func(int)) {
		if err != nil {
			return
		}
		evals++
		var next store.Store
		if next, err = step(g, i, sink); err != nil {
			return
		}
		loc := g.Loc(i)
		if !next.Eq(loc.Store()) {
			loc.UpdateStore(next)
			for _, dep := range dependents[i] {
				add(dep)
			}
		}
	})
	return evals, err
}

// step recomputes the store of location i from its dependencies.
func step(g *eqgraph.Graph, i int, sink *diag.Sink) (store.Store, error) {
	loc := g.Loc(i)
	in := func(k int) store.Store { return g.Loc(loc.Deps()[k]).Store() }

	switch loc.Kind() {
	case eqgraph.Entry:
		return loc.Store(), nil

	case eqgraph.Assign:
		σ := in(0)
		if σ.IsBot() {
			return σ, nil
		}
		n := loc.Node()
		iv, err := transfer.EvalArith(n.Children[1], σ, sink)
		if err != nil {
			return store.Store{}, err
		}
		return σ.Set(n.Children[0].Name, iv), nil

	case eqgraph.Precondition:
		σ := in(0)
		if σ.IsBot() {
			return σ, nil
		}
		x, lo, hi := loc.PreBounds()
		return σ.Set(x, lattice.Finite(lo, hi)), nil

	case eqgraph.IfGuardTrue:
		return transfer.FilterCond(loc.Node(), in(0), false, sink)

	case eqgraph.IfGuardFalse:
		return transfer.FilterCond(loc.Node(), in(0), true, sink)

	case eqgraph.IfElseJoin:
		return in(0).Join(in(1)), nil

	case eqgraph.WhileHead:
		// Join the incoming edge with the back edge, filter by the
		// guard, then widen against the previous value at the head.
		joined := in(0).Join(in(1))
		filtered, err := transfer.FilterCond(loc.Node(), joined, false, sink)
		if err != nil {
			return store.Store{}, err
		}
		return loc.Store().Widen(filtered), nil

	case eqgraph.WhileBodyExit, eqgraph.Seq:
		return in(0), nil

	case eqgraph.WhileExit:
		return transfer.FilterCond(loc.Node(), in(0).Join(in(1)), true, sink)
	}
	return store.Store{}, fmt.Errorf("%w: location %d has unknown kind %s",
		ast.ErrKind, i, loc.Kind())
}
