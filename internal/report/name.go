package report

import (
	"strings"
	"unicode"
)

// NormalizeName joins name tokens and title-cases them: every letter that
// follows a non-word character is upper-cased, the rest lower-cased.
func NormalizeName(tokens []string) string {
	s := strings.ToLower(strings.Join(strings.Fields(strings.Join(tokens, " ")), " "))

	var sb strings.Builder
	sb.Grow(len(s))
	prevWord := false
	for _, r := range s {
		word := isWordRune(r)
		if word && !prevWord {
			r = unicode.ToUpper(r)
		}
		sb.WriteRune(r)
		prevWord = word
	}
	return sb.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
