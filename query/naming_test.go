package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSnakeCase(t *testing.T) {
	tests := []struct{ in, want string }{
		{"User", "user"},
		{"BlogPost", "blog_post"},
		{"HTTPServer", "http_server"},
		{"UserID", "user_id"},
		{"OAuth2Token", "o_auth2_token"},
		{"already_snake", "already_snake"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toSnakeCase(tt.in), "input %q", tt.in)
	}
}

func TestTableNameFor(t *testing.T) {
	assert.Equal(t, "users", TableNameFor("User"))
	assert.Equal(t, "blog_posts", TableNameFor("BlogPost"))
	assert.Equal(t, "people", TableNameFor("Person"))
	assert.Equal(t, "categories", TableNameFor("Category"))
}
