package dialect

import (
	"regexp"
	"strconv"
	"strings"
)

// identPattern matches plain identifier segments: word characters only.
// Segments that do not match (function calls, "*", casts) are emitted as-is.
var identPattern = regexp.MustCompile(`^\w+$`)

type Postgres struct{}

func NewPostgresDialect() Dialect {
	return Postgres{}
}

func (Postgres) QuoteIdentifier(name string) string {
	return `"` + name + `"`
}

func (p Postgres) WrapIdentifier(name string) string {
	terms := strings.Split(name, ".")
	for i, term := range terms {
		if identPattern.MatchString(term) {
			terms[i] = p.QuoteIdentifier(term)
		}
	}
	return strings.Join(terms, ".")
}

func (Postgres) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
