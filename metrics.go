package main

import (
	"fmt"
	"io"
	"strings"
)

// gatherMetrics reports structural and solver statistics for a run.
func gatherMetrics(w io.Writer, r *result) {
	fmt.Fprintln(w, "================ Metrics =====================")
	fmt.Fprintf(w, "Locations: %d\n", r.graph.Len())

	counts := make(map[string]int)
	var order []string
	for _, loc := range r.graph.Locations() {
		k := loc.Kind().String()
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}
	for _, k := range order {
		fmt.Fprintf(w, "  %s: %d\n", k, counts[k])
	}

	fmt.Fprintf(w, "Loops: %d\n", len(r.graph.Regions()))
	fmt.Fprintf(w, "Solver iterations: %d\n", r.iterations)

	fmt.Fprintln(w, "Variable dataflow classes:")
	for _, class := range r.graph.VarClasses() {
		fmt.Fprintf(w, "  {%s}\n", strings.Join(class, ", "))
	}
}
