// Package compiler renders expression trees to parameterized SQL.
//
// Parameters are accumulated in left-to-right, depth-first evaluation order
// and placeholders are numbered after appending, so the n-th literal in the
// tree always becomes $n. That ordering is part of the observable contract.
package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/relq-dev/relq/dialect"
	"github.com/relq-dev/relq/expr"
)

// ErrEmptyInList is returned when an in/not-in node carries no values.
var ErrEmptyInList = errors.New("in operator requires a non-empty value list")

// Compiler threads one parameter list through any number of expression
// compilations. Statement actions compile several fragments (SET list, WHERE
// condition) against a single Compiler so the placeholder numbering stays
// consistent across the whole statement.
type Compiler struct {
	dialect dialect.Dialect
	args    []any
}

func New(d dialect.Dialect) *Compiler {
	return &Compiler{dialect: d, args: make([]any, 0, 8)}
}

// Args returns the accumulated parameter list.
func (c *Compiler) Args() []any {
	return c.args
}

// Arg appends a parameter and returns its placeholder.
func (c *Compiler) Arg(v any) string {
	c.args = append(c.args, v)
	return c.dialect.Placeholder(len(c.args))
}

// Compile is a one-shot convenience over a fresh Compiler.
func Compile(d dialect.Dialect, n *expr.Node) (string, []any, error) {
	c := New(d)
	sql, err := c.Expr(n)
	if err != nil {
		return "", nil, err
	}
	return sql, c.Args(), nil
}

// Expr renders one node, appending its literals to the parameter list.
func (c *Compiler) Expr(n *expr.Node) (string, error) {
	switch n.Op {
	case expr.OpValue:
		return c.Arg(n.Left), nil

	case expr.OpField:
		name, ok := n.Left.(string)
		if !ok {
			return "", fmt.Errorf("field node expects a string name, got %T", n.Left)
		}
		return c.dialect.WrapIdentifier(name), nil

	case expr.OpSafe:
		raw, ok := n.Left.(string)
		if !ok {
			return "", fmt.Errorf("safe node expects a string fragment, got %T", n.Left)
		}
		return raw, nil

	case expr.OpNeg:
		inner, err := c.Expr(n.Left.(*expr.Node))
		if err != nil {
			return "", err
		}
		return "-(" + inner + ")", nil

	case expr.OpNot:
		inner, err := c.Expr(n.Left.(*expr.Node))
		if err != nil {
			return "", err
		}
		return "not (" + inner + ")", nil

	case expr.OpIn, expr.OpNotIn:
		return c.inList(n)
	}

	// Null comparisons rewrite to IS [NOT] NULL instead of binding a
	// parameter that could never match.
	if (n.Op == expr.OpEq || n.Op == expr.OpNe) && n.Right == nil {
		left := n.Left.(*expr.Node)
		leftSQL, err := c.Expr(left)
		if err != nil {
			return "", err
		}
		if left.IsBinaryLike() {
			leftSQL = "(" + leftSQL + ")"
		}
		if n.Op == expr.OpEq {
			return leftSQL + " is null", nil
		}
		return leftSQL + " is not null", nil
	}

	return c.binary(n)
}

func (c *Compiler) binary(n *expr.Node) (string, error) {
	left, ok := n.Left.(*expr.Node)
	if !ok {
		return "", fmt.Errorf("operator %q expects a node on the left, got %T", n.Op, n.Left)
	}
	leftSQL, err := c.Expr(left)
	if err != nil {
		return "", err
	}

	right := expr.Parse(n.Right)
	rightSQL, err := c.Expr(right)
	if err != nil {
		return "", err
	}

	// A binary-like operand under a binary-like parent would be ambiguous
	// in the flat rendering; wrap that side.
	if n.IsBinaryLike() {
		if left.IsBinaryLike() {
			leftSQL = "(" + leftSQL + ")"
		}
		if right.IsBinaryLike() {
			rightSQL = "(" + rightSQL + ")"
		}
	}

	return leftSQL + " " + string(n.Op) + " " + rightSQL, nil
}

func (c *Compiler) inList(n *expr.Node) (string, error) {
	leftSQL, err := c.Expr(n.Left.(*expr.Node))
	if err != nil {
		return "", err
	}

	values, ok := n.Right.([]any)
	if !ok {
		return "", fmt.Errorf("operator %q expects a value list, got %T", n.Op, n.Right)
	}
	if len(values) == 0 {
		return "", ErrEmptyInList
	}

	places := make([]string, len(values))
	for i, v := range values {
		places[i] = c.Arg(v)
	}
	return leftSQL + " " + string(n.Op) + " (" + strings.Join(places, ",") + ")", nil
}
