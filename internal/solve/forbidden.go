package solve

import "strings"

// ParseForbidden splits text on runs of whitespace and uppercases each word,
// keeping the input order. Blank input yields an empty, non-nil slice.
func ParseForbidden(text string) []string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, strings.ToUpper(f))
	}
	return out
}
