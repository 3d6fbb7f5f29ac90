package query

import "errors"

// ErrBuilderMisuse marks structurally invalid statements: an empty insert
// field set, an exclude with no predicates, update/delete on a joined table,
// and the like. It is always detected before any SQL is sent.
var ErrBuilderMisuse = errors.New("query builder misuse")
