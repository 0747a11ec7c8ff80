package match

import (
	"strings"

	"github.com/klinikops/sgk-docflow/internal/textnorm"
)

// homoglyphFold undoes the digit/letter confusions tesseract produces on
// low-contrast captures. Applied only to name material, never to IDs.
var homoglyphFold = strings.NewReplacer(
	"0", "o",
	"1", "i",
	"5", "s",
	"8", "b",
	"6", "g",
)

// institutionalKeywords reject organizational text as a name candidate. A
// document addressed to "Sosyal Güvenlik Kurumu" must never become a patient
// called that. Entries are in folded form.
var institutionalKeywords = []string{
	"sosyal guvenlik",
	"kurum",
	"hastane",
	"poliklinik",
	"klinik",
	"eczane",
	"mudurlug",
	"bakanlig",
	"belediye",
	"sirket",
	"ltd",
	"a.s.",
	"merkezi",
	"saglik ocagi",
	"universite",
}

// NormalizeName folds case, Turkish characters, and OCR homoglyph digits,
// collapsing interior whitespace. Idempotent.
func NormalizeName(s string) string {
	s = textnorm.Fold(s)
	s = homoglyphFold.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// IsInstitutional reports whether s contains organizational/clinical
// vocabulary and therefore cannot be a person's name.
func IsInstitutional(s string) bool {
	folded := textnorm.Fold(s)
	for _, kw := range institutionalKeywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}

// normalizeDigits strips everything but ASCII digits; used for national IDs.
func normalizeDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
