// Package naming derives graph keys and relationship types from Go
// identifiers.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	upper = cases.Upper(language.Und)
	lower = cases.Lower(language.Und)
)

// Words splits a Go identifier into words. Acronyms stay together:
// "HTTPCode" yields ["HTTP", "Code"] and "ActsIn" yields ["Acts", "In"].
// Underscores separate words and are dropped.
func Words(s string) []string {
	var (
		words []string
		runes = []rune(s)
		start = 0
	)
	flush := func(end int) {
		if end > start {
			words = append(words, string(runes[start:end]))
		}
	}
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '_' || r == '-' || unicode.IsSpace(r) {
			flush(i)
			start = i + 1
			continue
		}
		if i == start || !unicode.IsUpper(r) {
			continue
		}
		prev := runes[i-1]
		switch {
		case unicode.IsLower(prev) || unicode.IsDigit(prev):
			flush(i)
			start = i
		case unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			flush(i)
			start = i
		}
	}
	flush(len(runes))
	return words
}

// UpperSnake returns s in UPPER_SNAKE_CASE, the conventional spelling of
// relationship types.
func UpperSnake(s string) string {
	return upper.String(strings.Join(Words(s), "_"))
}

// LowerCamel lower-cases the leading word of a Go identifier and keeps the
// rest: "PrimitiveIntArray" becomes "primitiveIntArray", "ID" becomes "id"
// and "UserID" becomes "userID".
func LowerCamel(s string) string {
	words := Words(s)
	if len(words) == 0 {
		return s
	}
	words[0] = lower.String(words[0])
	return strings.Join(words, "")
}
