package runner

import "strings"

// SplitArgs tokenizes a free-form argument string on whitespace, keeping
// segments inside double quotes intact. A backslash escapes the next
// character inside quotes. No variable interpolation is performed.
func SplitArgs(s string) []string {
	var tokens []string
	var cur strings.Builder
	inQuotes := false
	escaped := false
	hasToken := false

	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case inQuotes && r == '\\':
			escaped = true
		case r == '"':
			inQuotes = !inQuotes
			hasToken = true
		case !inQuotes && (r == ' ' || r == '\t'):
			if hasToken {
				tokens = append(tokens, cur.String())
				cur.Reset()
				hasToken = false
			}
		default:
			cur.WriteRune(r)
			hasToken = true
		}
	}
	if hasToken {
		tokens = append(tokens, cur.String())
	}
	return tokens
}
