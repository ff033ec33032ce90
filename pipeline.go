package main

import (
	"fmt"
	"io"

	"github.com/tia-lang/tia/analysis/checker"
	"github.com/tia-lang/tia/analysis/diag"
	"github.com/tia-lang/tia/analysis/eqgraph"
	"github.com/tia-lang/tia/analysis/solver"
	"github.com/tia-lang/tia/lang/parser"
	"github.com/tia-lang/tia/utils"
)

// result carries everything the reporting stages need: the solved
// equation graph, the diagnostics, and the solver effort.
type result struct {
	graph      *eqgraph.Graph
	sink       *diag.Sink
	iterations int
}

// analyze runs the pipeline on source text: parse, build the equation
// graph, solve to a fixpoint, check assertions.
func analyze(src string, useWorklist bool, disabled []diag.Category) (*result, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	g, err := eqgraph.Build(prog)
	if err != nil {
		return nil, err
	}
	utils.VerbosePrint("equation graph: %d locations, %d loops\n", g.Len(), len(g.Regions()))

	sink := diag.NewSink(disabled...)
	var iterations int
	if useWorklist {
		iterations, err = solver.SolveWorklist(g, sink)
	} else {
		iterations, err = solver.Solve(g, sink)
	}
	if err != nil {
		return nil, err
	}
	if err := checker.Check(g, sink); err != nil {
		return nil, err
	}
	return &result{graph: g, sink: sink, iterations: iterations}, nil
}

// dumpStores writes the final store of every program point.
func (r *result) dumpStores(w io.Writer) {
	for i, loc := range r.graph.Locations() {
		fmt.Fprintf(w, "%d: %s\n", i, loc)
		σ := loc.Store()
		if σ.IsBot() {
			fmt.Fprintln(w, "  unreachable")
			continue
		}
		for _, x := range σ.Vars() {
			fmt.Fprintf(w, "  %s = %s\n", x, σ.Get(x))
		}
	}
}
