// Package eqgraph translates an AST into the equation system solved by
// the fixpoint engine: an ordered list of locations (program points),
// each owning a store slot and naming its input locations by stable
// index. Index-based dependencies keep the graph self-describing and
// admit the one legal cycle, the back edge into a while head, without
// shared ownership.
package eqgraph

import (
	"fmt"

	"github.com/tia-lang/tia/analysis/store"
	"github.com/tia-lang/tia/lang/ast"
)

// Kind discriminates locations by the program construct they follow.
type Kind int

const (
	Entry Kind = iota
	Assign
	Precondition
	IfGuardTrue
	IfGuardFalse
	IfElseJoin
	WhileHead
	WhileBodyExit
	WhileExit
	Seq
)

func (k Kind) String() string {
	switch k {
	case Entry:
		return "Entry"
	case Assign:
		return "Assign"
	case Precondition:
		return "Precondition"
	case IfGuardTrue:
		return "IfGuardTrue"
	case IfGuardFalse:
		return "IfGuardFalse"
	case IfElseJoin:
		return "IfElseJoin"
	case WhileHead:
		return "WhileHead"
	case WhileBodyExit:
		return "WhileBodyExit"
	case WhileExit:
		return "WhileExit"
	case Seq:
		return "Seq"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Location is one program point: a kind, the owned store slot, the
// ordered dependency list (indices into the graph's location vector)
// and the kind-specific AST payload. For Assign that is the assignment
// node, for the guard kinds the condition, for Seq the postcondition
// when the location stands in for an assertion.
type Location struct {
	kind  Kind
	store store.Store
	deps  []int
	node  *ast.Node

	// Precondition payload, extracted and validated at build time.
	preVar string
	preLo  int64
	preHi  int64
}

// Kind returns the location's kind.
func (l *Location) Kind() Kind {
	return l.kind
}

// Deps returns the location's dependency indices. The slice is owned by
// the location and must not be mutated.
func (l *Location) Deps() []int {
	return l.deps
}

// Node returns the kind-specific AST payload, or nil.
func (l *Location) Node() *ast.Node {
	return l.node
}

// Store returns the abstract state currently held at this point.
func (l *Location) Store() store.Store {
	return l.store
}

// UpdateStore replaces the held abstract state. The solver only ever
// moves stores up the lattice.
func (l *Location) UpdateStore(σ store.Store) {
	l.store = σ
}

// PreBounds unpacks a Precondition payload. Panics on other kinds.
func (l *Location) PreBounds() (x string, lo, hi int64) {
	if l.kind != Precondition {
		panic(fmt.Sprintf("PreBounds on %s location", l.kind))
	}
	return l.preVar, l.preLo, l.preHi
}

func (l *Location) String() string {
	switch {
	case l.kind == Precondition:
		return fmt.Sprintf("%s(%d <= %s <= %d)", l.kind, l.preLo, l.preVar, l.preHi)
	case l.node != nil:
		return fmt.Sprintf("%s(%s)", l.kind, l.node)
	}
	return l.kind.String()
}

// Region is the location span of one while loop: the head, the
// half-open body range, and the body-exit and loop-exit locations.
type Region struct {
	Head      int
	BodyStart int
	BodyExit  int
	Exit      int
}

// Graph is the equation system: locations in build order, the declared
// variables, the loop regions, and the variable dataflow partition.
type Graph struct {
	locs    []*Location
	vars    []string
	regions []Region
	classes *varPartition
}

// Locations returns the locations in build order.
func (g *Graph) Locations() []*Location {
	return g.locs
}

// Loc returns the location at index i.
func (g *Graph) Loc(i int) *Location {
	return g.locs[i]
}

// Len returns the number of locations.
func (g *Graph) Len() int {
	return len(g.locs)
}

// Vars returns the declared variables in declaration order.
func (g *Graph) Vars() []string {
	return g.vars
}

// Regions returns the loop regions in build order.
func (g *Graph) Regions() []Region {
	return g.regions
}
