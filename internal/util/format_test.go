package util

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatArguments(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "empty", raw: "", want: "(none)"},
		{name: "null", raw: "null", want: "(none)"},
		{name: "empty object", raw: "{}", want: "(none)"},
		{name: "not an object", raw: `"Ann"`, want: `"Ann"`},
		{name: "flat", raw: `{"name":"Ann Lee","id":1}`, want: "id: 1\nname: Ann Lee"},
		{
			name: "nested",
			raw:  `{"filter":{"school":"North"},"ids":[1,2],"none":[]}`,
			want: "filter: \n  school: North\nids: \n  0: 1\n  1: 2\nnone: []",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatArguments(json.RawMessage(tc.raw)))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abc... (3 more characters)", Truncate("abcdef", 3))
	assert.Equal(t, "abcdef", Truncate("abcdef", 0))
}
