package types

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxCityNameLength bounds the city query forwarded to weather providers.
const MaxCityNameLength = 100

// NormalizeCity trims surrounding whitespace and collapses inner runs of
// whitespace to a single space.
func NormalizeCity(city string) string {
	return strings.Join(strings.Fields(city), " ")
}

// ValidCityName reports whether city, after normalization, is a plausible
// place name: non-empty, at most MaxCityNameLength runes, and made of
// letters, marks, digits, spaces and the punctuation used in place names
// ("St. John's", "Aix-en-Provence", "London,GB").
func ValidCityName(city string) bool {
	city = NormalizeCity(city)
	if city == "" || utf8.RuneCountInString(city) > MaxCityNameLength {
		return false
	}
	for _, r := range city {
		switch {
		case unicode.IsLetter(r), unicode.IsMark(r), unicode.IsDigit(r):
		case r == ' ', r == '-', r == '\'', r == '.', r == ',', r == '(', r == ')':
		case r == '’': // right single quotation mark
		default:
			return false
		}
	}
	return true
}
