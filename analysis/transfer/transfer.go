// Package transfer implements the abstract transfer functions: the
// evaluation of arithmetic expressions over a store and the restriction
// of a store by a branch condition. Warnings discovered during
// evaluation go into the diagnostics sink; malformed AST shapes are
// structural errors.
package transfer

import (
	"fmt"

	"github.com/tia-lang/tia/analysis/diag"
	"github.com/tia-lang/tia/analysis/lattice"
	"github.com/tia-lang/tia/analysis/store"
	"github.com/tia-lang/tia/lang/ast"
)

// EvalArith evaluates an arithmetic expression in σ. Integer literals
// become singletons, variables read from the store, and binary
// operators recurse on both children and apply the corresponding
// interval operation. In the bottom store every variable reads as ⊥, so
// any expression mentioning a variable evaluates to ⊥ there, and no
// warnings are emitted: unreachable code cannot overflow.
func EvalArith(n *ast.Node, σ store.Store, sink *diag.Sink) (lattice.Interval, error) {
	if n == nil {
		return lattice.Interval{}, fmt.Errorf("%w: missing expression node", ast.ErrArity)
	}
	switch n.Kind {
	case ast.IntLiteral:
		return lattice.Singleton(n.Int), nil

	case ast.VarRef:
		return σ.Get(n.Name), nil

	case ast.BinOp:
		if err := n.Expect(ast.BinOp, 2); err != nil {
			return lattice.Interval{}, err
		}
		left, err := EvalArith(n.Children[0], σ, sink)
		if err != nil {
			return lattice.Interval{}, err
		}
		right, err := EvalArith(n.Children[1], σ, sink)
		if err != nil {
			return lattice.Interval{}, err
		}

		var res lattice.Interval
		var sat bool
		switch n.Arith {
		case ast.Add:
			res, sat = left.Add(right)
		case ast.Sub:
			res, sat = left.Sub(right)
		case ast.Mul:
			res, sat = left.Mul(right)
		case ast.Div:
			res, maybeZero := left.Div(right)
			if maybeZero && !σ.IsBot() {
				sink.Warn(n.Pos, diag.DivisionByZero, σ)
			}
			return res, nil
		default:
			return lattice.Interval{}, fmt.Errorf("%w: unknown arithmetic operator at %s",
				ast.ErrKind, n.Pos)
		}
		if sat && !σ.IsBot() {
			sink.Warn(n.Pos, diag.Overflow, σ)
		}
		return res, nil
	}
	return lattice.Interval{}, fmt.Errorf("%w: %s is not an arithmetic expression at %s",
		ast.ErrKind, n.Kind, n.Pos)
}

// FilterIntervals restricts l by `l op r`.
func FilterIntervals(op ast.CmpOp, l, r lattice.Interval) lattice.Interval {
	switch op {
	case ast.Eq:
		return lattice.FilterEq(l, r)
	case ast.Neq:
		return lattice.FilterNeq(l, r)
	case ast.Lt:
		return lattice.FilterLt(l, r)
	case ast.Le:
		return lattice.FilterLe(l, r)
	case ast.Gt:
		return lattice.FilterGt(l, r)
	case ast.Ge:
		return lattice.FilterGe(l, r)
	}
	panic(fmt.Sprintf("unknown comparison operator %d", int(op)))
}

// FilterCond restricts σ to the states that may satisfy cond, or its
// negation when negate is set. Only the variable appearing directly as
// the condition's left operand is restricted; when the left side is not
// a variable reference the filter is the identity, which is sound but
// imprecise. An unsatisfiable condition yields the bottom store: the
// guarded code is unreachable.
func FilterCond(cond *ast.Node, σ store.Store, negate bool, sink *diag.Sink) (store.Store, error) {
	if err := cond.Expect(ast.LogicOp, 2); err != nil {
		return store.Store{}, err
	}
	if σ.IsBot() {
		return σ, nil
	}

	lhs := cond.Children[0]
	if lhs.Kind != ast.VarRef {
		return σ, nil
	}

	op := cond.Cmp
	if negate {
		op = op.Negate()
	}
	left := σ.Get(lhs.Name)
	right, err := EvalArith(cond.Children[1], σ, sink)
	if err != nil {
		return store.Store{}, err
	}
	restricted := left.Meet(FilterIntervals(op, left, right))
	if restricted.IsBot() {
		return store.Bot(), nil
	}
	return σ.Set(lhs.Name, restricted), nil
}
