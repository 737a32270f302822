// Package formula evaluates the restricted arithmetic expressions users
// type into transaction cells. A formula is a string starting with "="
// followed by numeric literals, the operators + - * /, unary signs and
// parentheses. There are no identifiers, functions or cell references.
package formula

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Prefix marks a cell value as a formula.
const Prefix = "="

// maxDepth bounds nesting of parentheses and unary signs.
const maxDepth = 64

var (
	// ErrNotFormula is returned by Eval when the input lacks the "=" prefix.
	ErrNotFormula = errors.New("not a formula")
	// ErrDivisionByZero is returned when a divisor evaluates to zero.
	ErrDivisionByZero = errors.New("division by zero")
)

// SyntaxError reports a malformed expression.
type SyntaxError struct {
	Pos int // byte offset into the expression (after the prefix)
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("formula syntax error at %d: %s", e.Pos, e.Msg)
}

// IsFormula reports whether s is formula-prefixed.
func IsFormula(s string) bool {
	return strings.HasPrefix(s, Prefix)
}

// Eval evaluates a formula-prefixed string.
func Eval(s string) (decimal.Decimal, error) {
	if !IsFormula(s) {
		return decimal.Zero, ErrNotFormula
	}
	return EvalExpr(strings.TrimPrefix(s, Prefix))
}

// EvalExpr evaluates an expression without the "=" prefix.
func EvalExpr(expr string) (decimal.Decimal, error) {
	p := &parser{src: expr}
	p.skipSpace()
	if p.done() {
		return decimal.Zero, &SyntaxError{Pos: p.pos, Msg: "empty expression"}
	}
	v, err := p.expr(0)
	if err != nil {
		return decimal.Zero, err
	}
	p.skipSpace()
	if !p.done() {
		return decimal.Zero, &SyntaxError{Pos: p.pos, Msg: fmt.Sprintf("unexpected %q", p.src[p.pos])}
	}
	return v, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) done() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.done() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) skipSpace() {
	for !p.done() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

// expr := term (('+' | '-') term)*
func (p *parser) expr(depth int) (decimal.Decimal, error) {
	left, err := p.term(depth)
	if err != nil {
		return decimal.Zero, err
	}
	for {
		p.skipSpace()
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.term(depth)
		if err != nil {
			return decimal.Zero, err
		}
		if op == '+' {
			left = left.Add(right)
		} else {
			left = left.Sub(right)
		}
	}
}

// term := unary (('*' | '/') unary)*
func (p *parser) term(depth int) (decimal.Decimal, error) {
	left, err := p.unary(depth)
	if err != nil {
		return decimal.Zero, err
	}
	for {
		p.skipSpace()
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++
		right, err := p.unary(depth)
		if err != nil {
			return decimal.Zero, err
		}
		if op == '*' {
			left = left.Mul(right)
			continue
		}
		if right.IsZero() {
			return decimal.Zero, ErrDivisionByZero
		}
		left = left.Div(right)
	}
}

// unary := ('+' | '-') unary | primary
func (p *parser) unary(depth int) (decimal.Decimal, error) {
	if depth > maxDepth {
		return decimal.Zero, &SyntaxError{Pos: p.pos, Msg: "expression nested too deeply"}
	}
	p.skipSpace()
	switch p.peek() {
	case '-':
		p.pos++
		v, err := p.unary(depth + 1)
		if err != nil {
			return decimal.Zero, err
		}
		return v.Neg(), nil
	case '+':
		p.pos++
		return p.unary(depth + 1)
	}
	return p.primary(depth)
}

// primary := number | '(' expr ')'
func (p *parser) primary(depth int) (decimal.Decimal, error) {
	p.skipSpace()
	if p.done() {
		return decimal.Zero, &SyntaxError{Pos: p.pos, Msg: "unexpected end of expression"}
	}
	if p.peek() == '(' {
		open := p.pos
		p.pos++
		v, err := p.expr(depth + 1)
		if err != nil {
			return decimal.Zero, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return decimal.Zero, &SyntaxError{Pos: open, Msg: "unclosed parenthesis"}
		}
		p.pos++
		return v, nil
	}
	return p.number()
}

func (p *parser) number() (decimal.Decimal, error) {
	start := p.pos
	dot := false
	for !p.done() {
		c := p.src[p.pos]
		if c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		if c == '.' && !dot {
			dot = true
			p.pos++
			continue
		}
		break
	}
	lit := p.src[start:p.pos]
	if lit == "" || lit == "." {
		if p.done() {
			return decimal.Zero, &SyntaxError{Pos: start, Msg: "expected number"}
		}
		return decimal.Zero, &SyntaxError{Pos: start, Msg: fmt.Sprintf("unexpected %q", p.src[start])}
	}
	v, err := decimal.NewFromString(lit)
	if err != nil {
		return decimal.Zero, &SyntaxError{Pos: start, Msg: fmt.Sprintf("bad number %q", lit)}
	}
	return v, nil
}
