// Package relq builds parameterized Postgres SQL from immutable expression
// trees and executes it through context-scoped transactions over pgx pools.
//
// The facade re-exports the pieces most programs need: expression
// constructors from package expr, the fluent Table/Query chain from package
// query, and transaction scoping from package txn. Statements render with
// positional $N placeholders only; values never appear in SQL text unless
// explicitly injected with Safe.
package relq
