package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tia-lang/tia/analysis/diag"
	"github.com/tia-lang/tia/analysis/eqgraph"
	"github.com/tia-lang/tia/analysis/lattice"
	"github.com/tia-lang/tia/lang/parser"
)

func solve(t *testing.T, src string) (*eqgraph.Graph, *diag.Sink) {
	t.Helper()
	root, err := parser.Parse(src)
	require.NoError(t, err)
	g, err := eqgraph.Build(root)
	require.NoError(t, err)
	sink := diag.NewSink()
	_, err = Solve(g, sink)
	require.NoError(t, err)
	return g, sink
}

// lastStore returns the store of the final location.
func lastStore(g *eqgraph.Graph) func(string) lattice.Interval {
	σ := g.Loc(g.Len() - 1).Store()
	return σ.Get
}

// at returns the store of the first location of the given kind.
func at(t *testing.T, g *eqgraph.Graph, k eqgraph.Kind) func(string) lattice.Interval {
	t.Helper()
	for _, loc := range g.Locations() {
		if loc.Kind() == k {
			return loc.Store().Get
		}
	}
	t.Fatalf("no %s location", k)
	return nil
}

func TestSolveStraightLine(t *testing.T) {
	g, sink := solve(t, "int x; x := 5; x := x + 3;")
	assert.True(t, lastStore(g)("x").Eq(lattice.Singleton(8)))
	assert.Empty(t, sink.Warnings())
}

func TestSolveBranchJoin(t *testing.T) {
	g, _ := solve(t, `
		int x;
		pre 0 <= x <= 10;
		if (x < 5) { x := x + 1; } else { x := x - 1; }
	`)
	assert.True(t, lastStore(g)("x").Eq(lattice.Finite(1, 9)))
}

func TestSolveLoopWidening(t *testing.T) {
	g, _ := solve(t, "int x; x := 0; while (x < 10) { x := x + 1; }")

	head := at(t, g, eqgraph.WhileHead)
	assert.True(t, head("x").Eq(lattice.Finite(0, math.MaxInt64)),
		"widening saturates the unstable upper bound at the head, got %s", head("x"))

	exit := at(t, g, eqgraph.WhileExit)
	assert.True(t, exit("x").Eq(lattice.Finite(10, math.MaxInt64)),
		"the exit filters by the negated guard, got %s", exit("x"))
}

func TestSolveDivisionByZero(t *testing.T) {
	g, sink := solve(t, `
		int x, y;
		pre 1 <= x <= 10;
		pre 0 <= y <= 10;
		y := 100 / y;
	`)
	assert.True(t, lastStore(g)("y").IsTop())
	assert.True(t, lastStore(g)("x").Eq(lattice.Finite(1, 10)))

	warnings := sink.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, diag.DivisionByZero, warnings[0].Category)
	assert.True(t, warnings[0].Store.Get("y").Eq(lattice.Finite(0, 10)),
		"the warning snapshots the store before the assignment")
}

func TestSolveSingletonBranch(t *testing.T) {
	g, _ := solve(t, `
		int x;
		pre 0 <= x <= 100;
		if (x == 0) { x := 1; } else { x := x; }
	`)
	assert.True(t, lastStore(g)("x").Eq(lattice.Finite(1, 100)),
		"then yields [1, 1], else filters x != 0 to [1, 100], joined [1, 100]")
}

func TestSolveUnreachableLoopBody(t *testing.T) {
	g, sink := solve(t, `
		int x, y;
		x := 0;
		y := 1;
		while (x > 0) { y := y / 0; }
	`)
	body := at(t, g, eqgraph.WhileBodyExit)
	assert.True(t, body("y").IsBot(), "the loop body is unreachable")
	assert.Empty(t, sink.Warnings(), "unreachable divisions must not warn")

	exit := at(t, g, eqgraph.WhileExit)
	assert.True(t, exit("x").Eq(lattice.Singleton(0)))
	assert.True(t, exit("y").Eq(lattice.Singleton(1)))
}

// Solving an already-solved system must change nothing, and the pass
// count of the re-solve is exactly one (the stable pass).
func TestSolveIdempotent(t *testing.T) {
	src := `
		int x, y;
		pre 0 <= x <= 10;
		y := 0;
		while (y < x) { y := y + 1; }
	`
	root, err := parser.Parse(src)
	require.NoError(t, err)
	g, err := eqgraph.Build(root)
	require.NoError(t, err)

	_, err = Solve(g, diag.NewSink())
	require.NoError(t, err)
	before := make([]string, g.Len())
	for i, loc := range g.Locations() {
		before[i] = loc.Store().String()
	}

	passes, err := Solve(g, diag.NewSink())
	require.NoError(t, err)
	assert.Equal(t, 1, passes, "one extra pass after convergence changes nothing")
	for i, loc := range g.Locations() {
		assert.Equal(t, before[i], loc.Store().String(), "store %d changed on re-solve", i)
	}
}

// The worklist strategy must reach the same fixpoint and produce the
// same diagnostics as full chaotic passes.
func TestSolveWorklistEquivalent(t *testing.T) {
	srcs := []string{
		"int x; x := 5; x := x + 3;",
		"int x; pre 0 <= x <= 10; if (x < 5) { x := x + 1; } else { x := x - 1; }",
		"int x; x := 0; while (x < 10) { x := x + 1; }",
		"int x, y; pre 0 <= y <= 10; y := 100 / y; x := y * 2;",
		`int x, y;
		 x := 0; y := 0;
		 while (x < 100) {
		 	y := 0;
		 	while (y < x) { y := y + 1; }
		 	x := x + 1;
		 }`,
	}

	for _, src := range srcs {
		root, err := parser.Parse(src)
		require.NoError(t, err)

		g1, err := eqgraph.Build(root)
		require.NoError(t, err)
		sink1 := diag.NewSink()
		_, err = Solve(g1, sink1)
		require.NoError(t, err)

		g2, err := eqgraph.Build(root)
		require.NoError(t, err)
		sink2 := diag.NewSink()
		_, err = SolveWorklist(g2, sink2)
		require.NoError(t, err)

		require.Equal(t, g1.Len(), g2.Len())
		for i := range g1.Locations() {
			assert.True(t, g1.Loc(i).Store().Eq(g2.Loc(i).Store()),
				"store %d differs between strategies for %q: %s vs %s",
				i, src, g1.Loc(i).Store(), g2.Loc(i).Store())
		}
		w1, w2 := sink1.Warnings(), sink2.Warnings()
		require.Equal(t, len(w1), len(w2), src)
		for k := range w1 {
			assert.Equal(t, w1[k].Pos, w2[k].Pos, src)
			assert.Equal(t, w1[k].Category, w2[k].Category, src)
			assert.True(t, w1[k].Store.Eq(w2[k].Store), src)
		}
	}
}
