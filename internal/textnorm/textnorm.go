// Package textnorm provides the text folding shared by classification and
// identity matching: lowercasing, Turkish character folding, and diacritic
// stripping for anything the explicit table misses.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var turkishFold = strings.NewReplacer(
	"ç", "c", "Ç", "c",
	"ğ", "g", "Ğ", "g",
	"ı", "i", "I", "i",
	"İ", "i",
	"ö", "o", "Ö", "o",
	"ş", "s", "Ş", "s",
	"ü", "u", "Ü", "u",
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases s and folds Turkish characters to their ASCII forms.
// Any remaining combining marks (from OCR mixing scripts) are stripped.
// Fold is idempotent: Fold(Fold(s)) == Fold(s).
func Fold(s string) string {
	s = turkishFold.Replace(s)
	s = strings.ToLower(s)
	if stripped, _, err := transform.String(stripMarks, s); err == nil {
		s = stripped
	}
	return s
}

// FoldFields folds s and splits it into whitespace-separated words.
func FoldFields(s string) []string {
	return strings.Fields(Fold(s))
}
