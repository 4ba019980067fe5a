package predicate

import (
	"regexp"
	"strings"
)

// LikeRegexp converts a LIKE pattern into an anchored expression accepted by
// both RE2 and PCRE. The end anchor is \z so a trailing newline in the
// value never matches.
// '%' matches any run of characters, '_' matches one character and a
// backslash escapes the character after it.
func LikeRegexp(pattern string, caseInsensitive bool) string {
	var b strings.Builder
	if caseInsensitive {
		b.WriteString("(?is)^")
	} else {
		b.WriteString("(?s)^")
	}

	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			b.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			b.WriteString(".*")
		case r == '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	if escaped {
		b.WriteString(`\\`)
	}

	b.WriteString(`\z`)
	return b.String()
}
