// Package parser turns source text in the surface syntax into the AST
// consumed by the analysis. The grammar is a sequence of declarations
// followed by a sequence of statements:
//
//	program := { "int" ident {"," ident} ";" } { stmt }
//	stmt    := ident ":=" expr ";"
//	         | "pre" expr cmp ident cmp expr ";"
//	         | "assert" cond ";"
//	         | "if" "(" cond ")" block ["else" block]
//	         | "while" "(" cond ")" block
//	block   := "{" { stmt } "}"
//	cond    := expr cmp expr
//	expr    := term {("+"|"-") term}
//	term    := factor {("*"|"/") factor}
//	factor  := int | ident | "(" expr ")" | "-" factor
//
// Line comments start with "//".
package parser

import (
	"fmt"

	"github.com/tia-lang/tia/lang/ast"
)

type parser struct {
	lex *lexer
	tok token
}

// Parse parses a whole program. The returned root is a Sequence node whose
// children are the Decl nodes followed by the statement nodes.
func Parse(src string) (*ast.Node, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.bump(); err != nil {
		return nil, err
	}
	root := &ast.Node{Kind: ast.Sequence, Pos: p.tok.pos}

	for p.tok.kind == tokKeyword && p.tok.text == "int" {
		decls, err := p.declaration()
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, decls...)
	}
	for p.tok.kind != tokEOF {
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, stmt)
	}
	return root, nil
}

func (p *parser) bump() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	if p.tok.kind != kind {
		return token{}, fmt.Errorf("%s: expected %s, found %s", p.tok.pos, what, p.tok)
	}
	tok := p.tok
	return tok, p.bump()
}

func (p *parser) keyword(kw string) error {
	if p.tok.kind != tokKeyword || p.tok.text != kw {
		return fmt.Errorf("%s: expected %q, found %s", p.tok.pos, kw, p.tok)
	}
	return p.bump()
}

// declaration parses "int x, y, z;" into one Decl node per variable,
// each carrying a single VarRef child.
func (p *parser) declaration() ([]*ast.Node, error) {
	if err := p.keyword("int"); err != nil {
		return nil, err
	}
	var decls []*ast.Node
	for {
		id, err := p.expect(tokIdent, "variable name")
		if err != nil {
			return nil, err
		}
		decls = append(decls, &ast.Node{
			Kind: ast.Decl,
			Pos:  id.pos,
			Children: []*ast.Node{
				{Kind: ast.VarRef, Pos: id.pos, Name: id.text},
			},
		})
		if p.tok.kind != tokComma {
			break
		}
		if err := p.bump(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(tokSemi, `";"`); err != nil {
		return nil, err
	}
	return decls, nil
}

func (p *parser) statement() (*ast.Node, error) {
	switch {
	case p.tok.kind == tokIdent:
		return p.assignment()
	case p.tok.kind == tokKeyword && p.tok.text == "pre":
		return p.precondition()
	case p.tok.kind == tokKeyword && p.tok.text == "assert":
		return p.assertion()
	case p.tok.kind == tokKeyword && p.tok.text == "if":
		return p.ifElse()
	case p.tok.kind == tokKeyword && p.tok.text == "while":
		return p.while()
	}
	return nil, fmt.Errorf("%s: expected statement, found %s", p.tok.pos, p.tok)
}

func (p *parser) assignment() (*ast.Node, error) {
	id, err := p.expect(tokIdent, "variable name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokAssign, `":="`); err != nil {
		return nil, err
	}
	rhs, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemi, `";"`); err != nil {
		return nil, err
	}
	return &ast.Node{
		Kind: ast.Assign,
		Pos:  id.pos,
		Children: []*ast.Node{
			{Kind: ast.VarRef, Pos: id.pos, Name: id.text},
			rhs,
		},
	}, nil
}

// precondition parses "pre lo <= x <= hi;" into a Precondition node with
// two LogicOp children, `lo <= x` and `x <= hi`.
func (p *parser) precondition() (*ast.Node, error) {
	pos := p.tok.pos
	if err := p.keyword("pre"); err != nil {
		return nil, err
	}
	lo, err := p.expr()
	if err != nil {
		return nil, err
	}
	op1, err := p.cmpOp()
	if err != nil {
		return nil, err
	}
	id, err := p.expect(tokIdent, "variable name")
	if err != nil {
		return nil, err
	}
	v := &ast.Node{Kind: ast.VarRef, Pos: id.pos, Name: id.text}
	op2, err := p.cmpOp()
	if err != nil {
		return nil, err
	}
	hi, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemi, `";"`); err != nil {
		return nil, err
	}
	return &ast.Node{
		Kind: ast.Precondition,
		Pos:  pos,
		Children: []*ast.Node{
			{Kind: ast.LogicOp, Pos: pos, Cmp: op1, Children: []*ast.Node{lo, v}},
			{Kind: ast.LogicOp, Pos: id.pos, Cmp: op2, Children: []*ast.Node{v, hi}},
		},
	}, nil
}

func (p *parser) assertion() (*ast.Node, error) {
	pos := p.tok.pos
	if err := p.keyword("assert"); err != nil {
		return nil, err
	}
	cond, err := p.condition()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemi, `";"`); err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.Postcondition, Pos: pos, Children: []*ast.Node{cond}}, nil
}

func (p *parser) ifElse() (*ast.Node, error) {
	pos := p.tok.pos
	if err := p.keyword("if"); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLParen, `"("`); err != nil {
		return nil, err
	}
	cond, err := p.condition()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen, `")"`); err != nil {
		return nil, err
	}
	then, err := p.block()
	if err != nil {
		return nil, err
	}
	// The else block is always present in the AST; absent in the source
	// means an empty Sequence.
	els := &ast.Node{Kind: ast.Sequence, Pos: pos}
	if p.tok.kind == tokKeyword && p.tok.text == "else" {
		if err := p.bump(); err != nil {
			return nil, err
		}
		if els, err = p.block(); err != nil {
			return nil, err
		}
	}
	return &ast.Node{Kind: ast.IfElse, Pos: pos, Children: []*ast.Node{cond, then, els}}, nil
}

func (p *parser) while() (*ast.Node, error) {
	pos := p.tok.pos
	if err := p.keyword("while"); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLParen, `"("`); err != nil {
		return nil, err
	}
	cond, err := p.condition()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen, `")"`); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.While, Pos: pos, Children: []*ast.Node{cond, body}}, nil
}

func (p *parser) block() (*ast.Node, error) {
	open, err := p.expect(tokLBrace, `"{"`)
	if err != nil {
		return nil, err
	}
	seq := &ast.Node{Kind: ast.Sequence, Pos: open.pos}
	for p.tok.kind != tokRBrace {
		if p.tok.kind == tokEOF {
			return nil, fmt.Errorf(`%s: unterminated block, expected "}"`, p.tok.pos)
		}
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		seq.Children = append(seq.Children, stmt)
	}
	return seq, p.bump()
}

func (p *parser) condition() (*ast.Node, error) {
	lhs, err := p.expr()
	if err != nil {
		return nil, err
	}
	pos := p.tok.pos
	op, err := p.cmpOp()
	if err != nil {
		return nil, err
	}
	rhs, err := p.expr()
	if err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.LogicOp, Pos: pos, Cmp: op, Children: []*ast.Node{lhs, rhs}}, nil
}

func (p *parser) cmpOp() (ast.CmpOp, error) {
	tok, err := p.expect(tokCmp, "comparison operator")
	if err != nil {
		return 0, err
	}
	switch tok.text {
	case "==":
		return ast.Eq, nil
	case "!=":
		return ast.Neq, nil
	case "<":
		return ast.Lt, nil
	case "<=":
		return ast.Le, nil
	case ">":
		return ast.Gt, nil
	case ">=":
		return ast.Ge, nil
	}
	panic("unreachable comparison token " + tok.text)
}

func (p *parser) expr() (*ast.Node, error) {
	lhs, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokArith && (p.tok.text == "+" || p.tok.text == "-") {
		op := ast.Add
		if p.tok.text == "-" {
			op = ast.Sub
		}
		pos := p.tok.pos
		if err := p.bump(); err != nil {
			return nil, err
		}
		rhs, err := p.term()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Node{Kind: ast.BinOp, Pos: pos, Arith: op, Children: []*ast.Node{lhs, rhs}}
	}
	return lhs, nil
}

func (p *parser) term() (*ast.Node, error) {
	lhs, err := p.factor()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokArith && (p.tok.text == "*" || p.tok.text == "/") {
		op := ast.Mul
		if p.tok.text == "/" {
			op = ast.Div
		}
		pos := p.tok.pos
		if err := p.bump(); err != nil {
			return nil, err
		}
		rhs, err := p.factor()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Node{Kind: ast.BinOp, Pos: pos, Arith: op, Children: []*ast.Node{lhs, rhs}}
	}
	return lhs, nil
}

func (p *parser) factor() (*ast.Node, error) {
	switch {
	case p.tok.kind == tokInt:
		n := &ast.Node{Kind: ast.IntLiteral, Pos: p.tok.pos, Int: p.tok.val}
		return n, p.bump()

	case p.tok.kind == tokIdent:
		n := &ast.Node{Kind: ast.VarRef, Pos: p.tok.pos, Name: p.tok.text}
		return n, p.bump()

	case p.tok.kind == tokLParen:
		if err := p.bump(); err != nil {
			return nil, err
		}
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		_, err = p.expect(tokRParen, `")"`)
		return inner, err

	case p.tok.kind == tokArith && p.tok.text == "-":
		pos := p.tok.pos
		if err := p.bump(); err != nil {
			return nil, err
		}
		inner, err := p.factor()
		if err != nil {
			return nil, err
		}
		// Negative literals fold; anything else desugars to 0 - e.
		if inner.Kind == ast.IntLiteral {
			inner.Int = -inner.Int
			inner.Pos = pos
			return inner, nil
		}
		return &ast.Node{
			Kind:  ast.BinOp,
			Pos:   pos,
			Arith: ast.Sub,
			Children: []*ast.Node{
				{Kind: ast.IntLiteral, Pos: pos},
				inner,
			},
		}, nil
	}
	return nil, fmt.Errorf("%s: expected expression, found %s", p.tok.pos, p.tok)
}
