package transfer

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tia-lang/tia/analysis/diag"
	"github.com/tia-lang/tia/analysis/lattice"
	"github.com/tia-lang/tia/analysis/store"
	"github.com/tia-lang/tia/lang/ast"
	"github.com/tia-lang/tia/lang/parser"
)

// rhs parses "x := <expr>;" and returns the right-hand side node.
func rhs(t *testing.T, expr string) *ast.Node {
	t.Helper()
	root, err := parser.Parse("int x, y; x := " + expr + ";")
	require.NoError(t, err)
	return root.Children[2].Children[1]
}

// cond parses "assert <cond>;" and returns the condition node.
func cond(t *testing.T, c string) *ast.Node {
	t.Helper()
	root, err := parser.Parse("int x, y; assert " + c + ";")
	require.NoError(t, err)
	return root.Children[2].Children[0]
}

func TestEvalArith(t *testing.T) {
	σ := store.Empty().
		Set("x", lattice.Finite(0, 10)).
		Set("y", lattice.Finite(2, 4))

	tests := []struct {
		expr     string
		expected lattice.Interval
	}{
		{"5", lattice.Singleton(5)},
		{"-5", lattice.Singleton(-5)},
		{"x", lattice.Finite(0, 10)},
		{"x + 1", lattice.Finite(1, 11)},
		{"x - y", lattice.Finite(-4, 8)},
		{"x * y", lattice.Finite(0, 40)},
		{"x / y", lattice.Finite(0, 5)},
		{"(x + y) * 2", lattice.Finite(4, 28)},
		{"-x", lattice.Finite(-10, 0)},
	}

	for _, test := range tests {
		sink := diag.NewSink()
		res, err := EvalArith(rhs(t, test.expr), σ, sink)
		require.NoError(t, err, test.expr)
		assert.True(t, res.Eq(test.expected),
			"%s = %s, expected %s", test.expr, res, test.expected)
		assert.Empty(t, sink.Warnings(), test.expr)
	}
}

func TestEvalWarnings(t *testing.T) {
	σ := store.Empty().
		Set("x", lattice.Finite(0, math.MaxInt64)).
		Set("y", lattice.Finite(0, 4))

	sink := diag.NewSink()
	res, err := EvalArith(rhs(t, "x + 1"), σ, sink)
	require.NoError(t, err)
	assert.True(t, res.Eq(lattice.Finite(1, math.MaxInt64)),
		"the overflowing bound saturates")
	warnings := sink.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, diag.Overflow, warnings[0].Category)

	sink = diag.NewSink()
	res, err = EvalArith(rhs(t, "100 / y"), σ, sink)
	require.NoError(t, err)
	assert.True(t, res.IsTop(), "division by a possibly-zero interval is top")
	warnings = sink.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, diag.DivisionByZero, warnings[0].Category)
}

func TestEvalBottomSilent(t *testing.T) {
	sink := diag.NewSink()
	res, err := EvalArith(rhs(t, "100 / y"), store.Bot(), sink)
	require.NoError(t, err)
	assert.True(t, res.IsBot())
	assert.Empty(t, sink.Warnings(), "unreachable code must not warn")
}

func TestEvalStructuralError(t *testing.T) {
	sink := diag.NewSink()
	_, err := EvalArith(&ast.Node{Kind: ast.While}, store.Empty(), sink)
	assert.ErrorIs(t, err, ast.ErrKind)

	_, err = EvalArith(&ast.Node{Kind: ast.BinOp}, store.Empty(), sink)
	assert.ErrorIs(t, err, ast.ErrArity)
}

func TestFilterCond(t *testing.T) {
	σ := store.Empty().
		Set("x", lattice.Finite(0, 10)).
		Set("y", lattice.Finite(3, 5))

	tests := []struct {
		cond     string
		negate   bool
		expected lattice.Interval
	}{
		{"x < 5", false, lattice.Finite(0, 4)},
		{"x < 5", true, lattice.Finite(5, 10)},
		{"x <= 5", false, lattice.Finite(0, 5)},
		{"x <= 5", true, lattice.Finite(6, 10)},
		{"x == 3", false, lattice.Singleton(3)},
		{"x != 20", false, lattice.Finite(0, 10)},
		{"x > y", false, lattice.Finite(4, 10)},
	}

	for _, test := range tests {
		sink := diag.NewSink()
		res, err := FilterCond(cond(t, test.cond), σ, test.negate, sink)
		require.NoError(t, err)
		assert.True(t, res.Get("x").Eq(test.expected),
			"filter %s (negate=%t) gave x=%s, expected %s",
			test.cond, test.negate, res.Get("x"), test.expected)
		assert.True(t, res.Get("y").Eq(σ.Get("y")),
			"only the left operand's variable may be restricted")
	}
}

func TestFilterCondUnsatisfiable(t *testing.T) {
	σ := store.Empty().Set("x", lattice.Finite(0, 10))
	sink := diag.NewSink()
	res, err := FilterCond(cond(t, "x >= 20"), σ, false, sink)
	require.NoError(t, err)
	assert.True(t, res.IsBot(), "an unsatisfiable guard makes the branch unreachable")
}

func TestFilterCondIdentity(t *testing.T) {
	σ := store.Empty().Set("x", lattice.Finite(0, 10))
	sink := diag.NewSink()
	// A non-variable left operand cannot be restricted.
	res, err := FilterCond(cond(t, "x + 1 < 5"), σ, false, sink)
	require.NoError(t, err)
	assert.True(t, res.Eq(σ))
}

func TestFilterCondStructuralError(t *testing.T) {
	sink := diag.NewSink()
	_, err := FilterCond(&ast.Node{Kind: ast.BinOp}, store.Empty(), false, sink)
	assert.ErrorIs(t, err, ast.ErrKind)
}

// Monotonicity by sampling: σ1 ⊑ σ2 implies T(σ1) ⊑ T(σ2) for
// arithmetic evaluation and condition filtering.
func TestTransferMonotone(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	exprs := []*ast.Node{
		rhs(t, "x + y"),
		rhs(t, "x - y"),
		rhs(t, "x * y"),
		rhs(t, "x / y"),
		rhs(t, "x * x - y"),
	}
	conds := []*ast.Node{
		cond(t, "x < y"),
		cond(t, "x <= 3"),
		cond(t, "x == y"),
		cond(t, "x >= y + 1"),
	}

	randIv := func() lattice.Interval {
		lo := rng.Int63n(41) - 20
		return lattice.Finite(lo, lo+rng.Int63n(21))
	}
	grow := func(iv lattice.Interval) lattice.Interval {
		return iv.Join(randIv())
	}

	for round := 0; round < 500; round++ {
		small := store.Empty().Set("x", randIv()).Set("y", randIv())
		big := store.Empty().Set("x", grow(small.Get("x"))).Set("y", grow(small.Get("y")))

		sink := diag.NewSink()
		for _, e := range exprs {
			r1, err := EvalArith(e, small, sink)
			require.NoError(t, err)
			r2, err := EvalArith(e, big, sink)
			require.NoError(t, err)
			assert.True(t, r1.Leq(r2),
				"eval %s not monotone: %s ⋢ %s", e, r1, r2)
		}
		for _, c := range conds {
			for _, negate := range []bool{false, true} {
				f1, err := FilterCond(c, small, negate, sink)
				require.NoError(t, err)
				f2, err := FilterCond(c, big, negate, sink)
				require.NoError(t, err)
				assert.True(t, f1.Get("x").Leq(f2.Get("x")),
					"filter %s not monotone on x", c)
			}
		}
	}
}
