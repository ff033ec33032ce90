package eqgraph

import (
	"fmt"
	"io"

	"github.com/tia-lang/tia/utils/dot"
)

// DotGraph renders the equation graph for visualization: one node per
// location, one edge per dependency, and loop bodies grouped into
// clusters (nested for nested loops). Back edges are dashed.
func (g *Graph) DotGraph(title string) *dot.DotGraph {
	nodes := make([]*dot.DotNode, g.Len())
	for i, loc := range g.Locations() {
		// The node name doubles as the label; stores are deliberately
		// left out (their rendering is colorized, and -dump-stores
		// covers them).
		nodes[i] = &dot.DotNode{
			ID:    fmt.Sprintf("%d: %s", i, loc),
			Attrs: dot.DotAttrs{},
		}
	}

	dg := &dot.DotGraph{Title: title}

	// A loop's cluster spans its head through its body exit. Clusters
	// of nested loops nest by region containment.
	clusters := make([]*dot.DotCluster, len(g.regions))
	for r, region := range g.regions {
		clusters[r] = dot.NewDotCluster(fmt.Sprintf("loop%d", r))
		clusters[r].Attrs["label"] = fmt.Sprintf("while %s", g.Loc(region.Head).Node())
	}
	for i := range g.locs {
		if r, ok := g.innermost(i); ok {
			clusters[r].Nodes = append(clusters[r].Nodes, nodes[i])
		} else {
			dg.Nodes = append(dg.Nodes, nodes[i])
		}
	}
	for r := range g.regions {
		if parent, ok := g.enclosing(r); ok {
			clusters[parent].Clusters = append(clusters[parent].Clusters, clusters[r])
		} else {
			dg.Clusters = append(dg.Clusters, clusters[r])
		}
	}

	for i, loc := range g.Locations() {
		for _, d := range loc.Deps() {
			edge := &dot.DotEdge{From: nodes[d], To: nodes[i], Attrs: dot.DotAttrs{}}
			if d > i {
				edge.Attrs["style"] = "dashed"
			}
			dg.Edges = append(dg.Edges, edge)
		}
	}
	return dg
}

// innermost returns the index of the smallest region whose span
// [Head, BodyExit] contains location i.
func (g *Graph) innermost(i int) (int, bool) {
	best, bestSpan := -1, 0
	for r, region := range g.regions {
		if region.Head <= i && i <= region.BodyExit {
			span := region.BodyExit - region.Head
			if best == -1 || span < bestSpan {
				best, bestSpan = r, span
			}
		}
	}
	return best, best != -1
}

// enclosing returns the innermost region strictly containing region r.
func (g *Graph) enclosing(r int) (int, bool) {
	inner := g.regions[r]
	best, bestSpan := -1, 0
	for p, region := range g.regions {
		if p == r {
			continue
		}
		if region.Head < inner.Head && inner.BodyExit <= region.BodyExit {
			span := region.BodyExit - region.Head
			if best == -1 || span < bestSpan {
				best, bestSpan = p, span
			}
		}
	}
	return best, best != -1
}

// WriteDot writes the equation graph as dot text.
func (g *Graph) WriteDot(w io.Writer, title string) error {
	return g.DotGraph(title).WriteDot(w)
}
