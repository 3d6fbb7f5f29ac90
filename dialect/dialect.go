package dialect

// Dialect abstracts the identifier quoting and placeholder syntax of the
// target database.
type Dialect interface {
	// QuoteIdentifier quotes a single bare identifier.
	QuoteIdentifier(name string) string

	// WrapIdentifier quotes a possibly dotted identifier path. Each
	// identifier-shaped segment is quoted; anything else passes through
	// verbatim so already-qualified or computed expressions survive.
	WrapIdentifier(name string) string

	// Placeholder renders the n-th (1-indexed) bind parameter.
	Placeholder(n int) string
}
