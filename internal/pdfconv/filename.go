package pdfconv

import (
	"fmt"
	"strings"
	"time"

	"github.com/klinikops/sgk-docflow/constants"
	"github.com/klinikops/sgk-docflow/internal/textnorm"
)

// Suffix markers let operators triage by filename alone without opening the
// file.
const (
	suffixVerify    = "_VERIFY"    // medium-confidence match, confirm before billing
	suffixManual    = "_MANUAL"    // low-confidence hint only
	suffixCheck     = "_CHECK"     // surname-shortcut match
	suffixUnmatched = "_UNMATCHED" // quarantined
)

// BuildFilename generates the deterministic stored filename:
// <PatientName>_<DocType>_<yyyymmdd_hhmmss><suffix>.pdf
func BuildFilename(patientName string, docType constants.DocumentType, level constants.MatchLevel, matched bool, t time.Time) string {
	name := sanitizeForFilename(patientName)
	if name == "" {
		name = "Bilinmeyen"
	}

	suffix := ""
	switch {
	case !matched && level == constants.MatchLow:
		suffix = suffixManual
	case !matched:
		suffix = suffixUnmatched
	case level == constants.MatchMedium:
		suffix = suffixVerify
	case level == constants.MatchKeyword:
		suffix = suffixCheck
	}

	return fmt.Sprintf("%s_%s_%s%s.pdf", name, strings.ToLower(string(docType)), t.Format("20060102_150405"), suffix)
}

// sanitizeForFilename folds Turkish characters and keeps only word-safe runes
// so filenames survive every filesystem an operator might export to.
func sanitizeForFilename(s string) string {
	folded := textnorm.Fold(s)
	var b strings.Builder
	upperNext := true
	pendingSep := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep {
				b.WriteRune('_')
				pendingSep = false
			}
			if upperNext && r >= 'a' && r <= 'z' {
				b.WriteRune(r - 'a' + 'A')
			} else {
				b.WriteRune(r)
			}
			upperNext = false
		case r == ' ', r == '-', r == '_':
			if b.Len() > 0 {
				pendingSep = true
			}
			upperNext = true
		}
	}
	return b.String()
}
