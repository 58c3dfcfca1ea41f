package css

import (
	"strings"

	"github.com/tdewolff/parse/v2/css"
)

// Unquote removes surrounding quotes from a string.
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

// EscapeDoubleQuoted escapes a string for use inside CSS double quotes.
// Backslashes and double quotes are escaped per CSS syntax: \" and \\.
func EscapeDoubleQuoted(s string) string {
	// Fast path: nothing to escape.
	if !strings.ContainsAny(s, `"\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ExtractURL extracts the reference from a URLToken.
// The token data is the full url(...) string, possibly quoted inside.
func ExtractURL(data []byte) string {
	s := string(data)
	s = strings.TrimPrefix(s, "url(")
	s = strings.TrimSuffix(s, ")")
	return Unquote(strings.TrimSpace(s))
}

// serializeTokens writes raw token data back preserving original text.
func serializeTokens(tokens []css.Token, sb *strings.Builder) {
	for _, t := range tokens {
		sb.Write(t.Data)
	}
}

// valueString builds a normalized value string from declaration tokens:
// whitespace runs collapse to a single space.
func valueString(tokens []css.Token) string {
	var parts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			parts = append(parts, string(t.Data))
		} else if len(parts) > 0 {
			parts = append(parts, " ")
		}
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}
