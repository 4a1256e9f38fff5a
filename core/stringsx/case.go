package stringsx

import (
	"unicode"
	"unicode/utf8"
)

// LowerFirstChar returns s with its first rune lower-cased, the spelling of
// the unexported counterpart of an exported Go name.
func LowerFirstChar(s string) string {
	return mapFirst(s, unicode.ToLower)
}

// UpperFirstChar returns s with its first rune upper-cased.
func UpperFirstChar(s string) string {
	return mapFirst(s, unicode.ToUpper)
}

func mapFirst(s string, f func(rune) rune) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}

	return string(f(r)) + s[size:]
}
