package util

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// FormatArguments renders tool call arguments as indented "key: value" lines.
// Arguments that are not a JSON object are returned as is.
func FormatArguments(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return "(none)"
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return string(raw)
	}
	if len(args) == 0 {
		return "(none)"
	}

	var b strings.Builder
	writeMap(&b, args, 0)
	return strings.TrimRight(b.String(), "\n")
}

// Truncate shortens s to at most n runes, marking the cut
func Truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	return string(runes[:n]) + fmt.Sprintf("... (%d more characters)", len(runes)-n)
}

func writeMap(b *strings.Builder, m map[string]any, indent int) {
	keys := lo.Keys(m)
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(strings.Repeat("  ", indent))
		b.WriteString(k)
		b.WriteString(": ")
		writeValue(b, m[k], indent)
	}
}

// writeValue formats a value based on its type
func writeValue(b *strings.Builder, value any, indent int) {
	switch v := value.(type) {
	case nil:
		b.WriteString("null\n")
	case string:
		b.WriteString(v + "\n")
	case []any:
		if len(v) == 0 {
			b.WriteString("[]\n")
			return
		}
		b.WriteString("\n")
		for i, item := range v {
			fmt.Fprintf(b, "%s%d: ", strings.Repeat("  ", indent+1), i)
			writeValue(b, item, indent+1)
		}
	case map[string]any:
		if len(v) == 0 {
			b.WriteString("{}\n")
			return
		}
		b.WriteString("\n")
		writeMap(b, v, indent+1)
	default:
		fmt.Fprintf(b, "%v\n", v)
	}
}
