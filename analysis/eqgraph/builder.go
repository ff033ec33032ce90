package eqgraph

import (
	"fmt"
	"sort"

	uf "github.com/spakin/disjoint"

	"github.com/tia-lang/tia/analysis/lattice"
	"github.com/tia-lang/tia/analysis/store"
	"github.com/tia-lang/tia/lang/ast"
)

// varPartition groups variables that exchange dataflow: the target of
// an assignment with every variable of its right-hand side, and the
// operands of a condition with each other. Union-find keeps the
// partition cheap to maintain during the single build walk.
type varPartition struct {
	elems map[string]*uf.Element
}

func newVarPartition() *varPartition {
	return &varPartition{elems: make(map[string]*uf.Element)}
}

func (p *varPartition) add(x string) {
	if _, ok := p.elems[x]; !ok {
		p.elems[x] = uf.NewElement()
	}
}

func (p *varPartition) union(xs []string) {
	for i := 1; i < len(xs); i++ {
		uf.Union(p.elems[xs[0]], p.elems[xs[i]])
	}
}

// classes returns the partition as sorted variable groups, ordered by
// their smallest member.
func (p *varPartition) classes() [][]string {
	groups := make(map[*uf.Element][]string)
	for x, e := range p.elems {
		rep := e.Find()
		groups[rep] = append(groups[rep], x)
	}
	res := make([][]string, 0, len(groups))
	for _, members := range groups {
		sort.Strings(members)
		res = append(res, members)
	}
	sort.Slice(res, func(i, j int) bool { return res[i][0] < res[j][0] })
	return res
}

// VarClasses returns the variable dataflow partition as sorted groups.
func (g *Graph) VarClasses() [][]string {
	return g.classes.classes()
}

type builder struct {
	locs     []*Location
	vars     []string
	declared map[string]bool
	regions  []Region
	classes  *varPartition
}

// Build walks the AST once and emits one location per program point.
// The root must be a Sequence of declarations followed by statements.
// Entry binds every declared variable to ⊤; all other locations start
// at the bottom store and grow as the solver iterates.
func Build(root *ast.Node) (*Graph, error) {
	if err := root.Expect(ast.Sequence, -1); err != nil {
		return nil, err
	}

	b := &builder{
		declared: make(map[string]bool),
		classes:  newVarPartition(),
	}

	rest, err := b.declarations(root.Children)
	if err != nil {
		return nil, err
	}

	σ := store.Empty()
	for _, x := range b.vars {
		σ = σ.Set(x, lattice.Top())
	}
	prev := b.emit(&Location{kind: Entry, store: σ})

	for _, stmt := range rest {
		if prev, err = b.stmt(stmt, prev); err != nil {
			return nil, err
		}
	}

	return &Graph{
		locs:    b.locs,
		vars:    b.vars,
		regions: b.regions,
		classes: b.classes,
	}, nil
}

// declarations consumes the Decl prefix of the top-level sequence.
func (b *builder) declarations(children []*ast.Node) ([]*ast.Node, error) {
	i := 0
	for ; i < len(children) && children[i].Kind == ast.Decl; i++ {
		decl := children[i]
		if err := decl.Expect(ast.Decl, 1); err != nil {
			return nil, err
		}
		v := decl.Children[0]
		if err := v.Expect(ast.VarRef, 0); err != nil {
			return nil, err
		}
		if b.declared[v.Name] {
			return nil, fmt.Errorf("%w: variable %q redeclared at %s",
				ast.ErrKind, v.Name, v.Pos)
		}
		b.declared[v.Name] = true
		b.vars = append(b.vars, v.Name)
		b.classes.add(v.Name)
	}
	return children[i:], nil
}

func (b *builder) emit(l *Location) int {
	b.locs = append(b.locs, l)
	return len(b.locs) - 1
}

func (b *builder) stmt(n *ast.Node, prev int) (int, error) {
	switch n.Kind {
	case ast.Assign:
		return b.assign(n, prev)
	case ast.Precondition:
		return b.precondition(n, prev)
	case ast.Postcondition:
		return b.postcondition(n, prev)
	case ast.IfElse:
		return b.ifElse(n, prev)
	case ast.While:
		return b.while(n, prev)
	case ast.Sequence:
		return b.seq(n, prev)
	case ast.Decl:
		return 0, fmt.Errorf("%w: declaration after first statement at %s",
			ast.ErrKind, n.Pos)
	}
	return 0, fmt.Errorf("%w: %s is not a statement at %s", ast.ErrKind, n.Kind, n.Pos)
}

func (b *builder) seq(n *ast.Node, prev int) (int, error) {
	var err error
	for _, child := range n.Children {
		if prev, err = b.stmt(child, prev); err != nil {
			return 0, err
		}
	}
	return prev, nil
}

func (b *builder) assign(n *ast.Node, prev int) (int, error) {
	if err := n.Expect(ast.Assign, 2); err != nil {
		return 0, err
	}
	lhs := n.Children[0]
	if err := lhs.Expect(ast.VarRef, 0); err != nil {
		return 0, err
	}
	rhs := collectVars(n.Children[1], nil)
	if err := b.checkDeclared(append([]string{lhs.Name}, rhs...), n.Pos); err != nil {
		return 0, err
	}
	b.classes.union(append([]string{lhs.Name}, rhs...))
	return b.emit(&Location{kind: Assign, store: store.Bot(), deps: []int{prev}, node: n}), nil
}

// precondition validates the `lo <= x <= hi` shape: two LogicOp
// children, the first `lo <= x`, the second `x <= hi`, with literal
// bounds naming the same variable.
func (b *builder) precondition(n *ast.Node, prev int) (int, error) {
	if err := n.Expect(ast.Precondition, 2); err != nil {
		return 0, err
	}
	first, second := n.Children[0], n.Children[1]
	for _, c := range []*ast.Node{first, second} {
		if err := c.Expect(ast.LogicOp, 2); err != nil {
			return 0, err
		}
	}
	lo, v1 := first.Children[0], first.Children[1]
	v2, hi := second.Children[0], second.Children[1]
	if first.Cmp != ast.Le || second.Cmp != ast.Le ||
		lo.Kind != ast.IntLiteral || hi.Kind != ast.IntLiteral ||
		v1.Kind != ast.VarRef || v2.Kind != ast.VarRef || v1.Name != v2.Name {
		return 0, fmt.Errorf("%w: precondition at %s is not of the form lo <= x <= hi",
			ast.ErrKind, n.Pos)
	}
	if lo.Int > hi.Int {
		return 0, fmt.Errorf("%w: precondition bounds [%d, %d] at %s are inverted",
			ast.ErrKind, lo.Int, hi.Int, n.Pos)
	}
	if err := b.checkDeclared([]string{v1.Name}, n.Pos); err != nil {
		return 0, err
	}
	return b.emit(&Location{
		kind:   Precondition,
		store:  store.Bot(),
		deps:   []int{prev},
		node:   n,
		preVar: v1.Name,
		preLo:  lo.Int,
		preHi:  hi.Int,
	}), nil
}

// postcondition emits a no-op Seq location carrying the assertion, so
// the checker can read the predecessor store through it.
func (b *builder) postcondition(n *ast.Node, prev int) (int, error) {
	if err := n.Expect(ast.Postcondition, 1); err != nil {
		return 0, err
	}
	cond := n.Children[0]
	if err := cond.Expect(ast.LogicOp, 2); err != nil {
		return 0, err
	}
	vars := collectVars(cond, nil)
	if err := b.checkDeclared(vars, n.Pos); err != nil {
		return 0, err
	}
	b.classes.union(vars)
	return b.emit(&Location{kind: Seq, store: store.Bot(), deps: []int{prev}, node: n}), nil
}

func (b *builder) ifElse(n *ast.Node, prev int) (int, error) {
	if err := n.Expect(ast.IfElse, 3); err != nil {
		return 0, err
	}
	cond, then, els := n.Children[0], n.Children[1], n.Children[2]
	if err := b.condition(cond); err != nil {
		return 0, err
	}
	if err := then.Expect(ast.Sequence, -1); err != nil {
		return 0, err
	}
	if err := els.Expect(ast.Sequence, -1); err != nil {
		return 0, err
	}

	guardTrue := b.emit(&Location{kind: IfGuardTrue, store: store.Bot(), deps: []int{prev}, node: cond})
	thenLast, err := b.seq(then, guardTrue)
	if err != nil {
		return 0, err
	}
	guardFalse := b.emit(&Location{kind: IfGuardFalse, store: store.Bot(), deps: []int{prev}, node: cond})
	elseLast, err := b.seq(els, guardFalse)
	if err != nil {
		return 0, err
	}
	return b.emit(&Location{kind: IfElseJoin, store: store.Bot(), deps: []int{thenLast, elseLast}}), nil
}

// while wires the one legal cycle: the head depends on the predecessor
// and on the body exit, which is emitted after the body and patched in.
func (b *builder) while(n *ast.Node, prev int) (int, error) {
	if err := n.Expect(ast.While, 2); err != nil {
		return 0, err
	}
	cond, body := n.Children[0], n.Children[1]
	if err := b.condition(cond); err != nil {
		return 0, err
	}
	if err := body.Expect(ast.Sequence, -1); err != nil {
		return 0, err
	}

	head := b.emit(&Location{kind: WhileHead, store: store.Bot(), deps: []int{prev, -1}, node: cond})
	bodyStart := len(b.locs)
	bodyLast, err := b.seq(body, head)
	if err != nil {
		return 0, err
	}
	bodyExit := b.emit(&Location{kind: WhileBodyExit, store: store.Bot(), deps: []int{bodyLast}})
	b.locs[head].deps[1] = bodyExit
	// The exit filters the negated guard over the same pre-guard join
	// the head sees. Filtering the head itself would be unsound for
	// loops whose guard is never satisfied: their head is unreachable,
	// but the code after the loop is not.
	exit := b.emit(&Location{kind: WhileExit, store: store.Bot(), deps: []int{prev, bodyExit}, node: cond})

	b.regions = append(b.regions, Region{
		Head:      head,
		BodyStart: bodyStart,
		BodyExit:  bodyExit,
		Exit:      exit,
	})
	return exit, nil
}

func (b *builder) condition(cond *ast.Node) error {
	if err := cond.Expect(ast.LogicOp, 2); err != nil {
		return err
	}
	vars := collectVars(cond, nil)
	if err := b.checkDeclared(vars, cond.Pos); err != nil {
		return err
	}
	b.classes.union(vars)
	return nil
}

func (b *builder) checkDeclared(vars []string, pos ast.Pos) error {
	for _, x := range vars {
		if !b.declared[x] {
			return fmt.Errorf("%w: undeclared variable %q at %s", ast.ErrKind, x, pos)
		}
	}
	return nil
}

func collectVars(n *ast.Node, acc []string) []string {
	if n == nil {
		return acc
	}
	if n.Kind == ast.VarRef {
		return append(acc, n.Name)
	}
	for _, c := range n.Children {
		acc = collectVars(c, acc)
	}
	return acc
}
