package query

import (
	"strings"
	"unicode"

	pluralizer "github.com/gertd/go-pluralize"
)

var pluralizeClient = pluralizer.NewClient()

// TableNameFor derives the conventional table name for a Go struct name:
// snake_cased and pluralized ("BlogPost" → "blog_posts").
func TableNameFor(structName string) string {
	return pluralizeClient.Plural(toSnakeCase(structName))
}

// toSnakeCase converts Go naming to snake_case, keeping acronym runs intact
// ("HTTPServer" → "http_server").
func toSnakeCase(name string) string {
	if name == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(name) + 4)

	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
