package rdapbootstrap

import (
	"net/http"
	"strings"
)

func trimDotLower(s string) string { return strings.ToLower(strings.TrimPrefix(s, ".")) }

func lower(s string) string { return strings.ToLower(s) }

func copyHeaders(dst, src http.Header) {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}

// toStringSlice converts an interface{} holding a []any into []string.
// Non-string items are dropped.
func toStringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, x := range arr {
		if s, ok := x.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
