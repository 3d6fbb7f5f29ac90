// Package expr implements the expression tree of the query language.
//
// A Node is immutable once built: every combinator allocates a new node and
// never mutates its operands, so expressions can be shared freely between
// queries.
package expr

type Op string

// Leaf operators.
const (
	OpValue Op = "value"
	OpField Op = "field"
	OpSafe  Op = "safe"
)

// Comparison operators.
const (
	OpEq Op = "="
	OpNe Op = "<>"
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
)

// Logical operators.
const (
	OpAnd Op = "and"
	OpOr  Op = "or"
	OpNot Op = "not"
	OpNeg Op = "neg"
)

// Arithmetic and pattern operators. These form the "binary-like" set that
// drives parenthesization during compilation.
const (
	OpAdd   Op = "+"
	OpSub   Op = "-"
	OpMul   Op = "*"
	OpDiv   Op = "/"
	OpPow   Op = "^"
	OpLike  Op = "like"
	OpILike Op = "ilike"
)

// Membership operators.
const (
	OpIn    Op = "in"
	OpNotIn Op = "not in"
)

// Node is one unit of an expression tree.
//
// For OpValue, Left holds the opaque scalar and Right is nil. For OpField and
// OpSafe, Left holds the identifier or raw fragment string. For every other
// operator Left is a *Node; Right is a *Node, a scalar coerced at compile
// time, a []any for OpIn/OpNotIn, or nil.
type Node struct {
	Op    Op
	Left  any
	Right any
}

// Field builds a column reference. Dotted paths are quoted per segment when
// compiled.
func Field(name string) *Node {
	return &Node{Op: OpField, Left: name}
}

// F is shorthand for Field.
func F(name string) *Node {
	return Field(name)
}

// Safe builds a raw SQL fragment emitted verbatim and unescaped. The caller
// is responsible for its safety.
func Safe(sql string) *Node {
	return &Node{Op: OpSafe, Left: sql}
}

// Value wraps a literal scalar.
func Value(v any) *Node {
	return &Node{Op: OpValue, Left: v}
}

// Parse coerces v to a node, wrapping non-node values as literals.
func Parse(v any) *Node {
	if n, ok := v.(*Node); ok {
		return n
	}
	return Value(v)
}

// IsBinaryLike reports whether the node's top-level operator participates in
// precedence-safety parenthesization.
func (n *Node) IsBinaryLike() bool {
	switch n.Op {
	case OpAdd, OpSub, OpMul, OpDiv, OpPow, OpLike, OpILike:
		return true
	}
	return false
}

func (n *Node) binary(op Op, right any) *Node {
	return &Node{Op: op, Left: n, Right: right}
}

func (n *Node) Eq(v any) *Node { return n.binary(OpEq, v) }
func (n *Node) Ne(v any) *Node { return n.binary(OpNe, v) }
func (n *Node) Lt(v any) *Node { return n.binary(OpLt, v) }
func (n *Node) Le(v any) *Node { return n.binary(OpLe, v) }
func (n *Node) Gt(v any) *Node { return n.binary(OpGt, v) }
func (n *Node) Ge(v any) *Node { return n.binary(OpGe, v) }

func (n *Node) And(v any) *Node { return n.binary(OpAnd, Parse(v)) }
func (n *Node) Or(v any) *Node  { return n.binary(OpOr, Parse(v)) }

func (n *Node) Add(v any) *Node { return n.binary(OpAdd, v) }
func (n *Node) Sub(v any) *Node { return n.binary(OpSub, v) }
func (n *Node) Mul(v any) *Node { return n.binary(OpMul, v) }
func (n *Node) Div(v any) *Node { return n.binary(OpDiv, v) }
func (n *Node) Pow(v any) *Node { return n.binary(OpPow, v) }

func (n *Node) Like(pattern string) *Node  { return n.binary(OpLike, pattern) }
func (n *Node) ILike(pattern string) *Node { return n.binary(OpILike, pattern) }

// StartsWith matches values beginning with prefix.
func (n *Node) StartsWith(prefix string) *Node {
	return n.Like(prefix + "%")
}

// In matches any of the given values. The compiler rejects an empty list;
// callers must not construct one.
func (n *Node) In(values ...any) *Node {
	return &Node{Op: OpIn, Left: n, Right: values}
}

// NotIn matches none of the given values.
func (n *Node) NotIn(values ...any) *Node {
	return &Node{Op: OpNotIn, Left: n, Right: values}
}

// IsNull compiles to "IS NULL" via the null-comparison rewrite.
func (n *Node) IsNull() *Node { return n.binary(OpEq, nil) }

// IsNotNull compiles to "IS NOT NULL".
func (n *Node) IsNotNull() *Node { return n.binary(OpNe, nil) }

func (n *Node) Not() *Node { return &Node{Op: OpNot, Left: n} }
func (n *Node) Neg() *Node { return &Node{Op: OpNeg, Left: n} }
