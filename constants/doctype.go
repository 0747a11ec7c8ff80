package constants

import (
	"strings"
)

// DocumentType is the canonical category assigned to a captured SGK document.
type DocumentType string

const (
	Prescription           DocumentType = "Prescription"
	BatteryPrescription    DocumentType = "BatteryPrescription"
	DevicePrescription     DocumentType = "DevicePrescription"
	Audiogram              DocumentType = "Audiogram"
	EligibilityCertificate DocumentType = "EligibilityCertificate"
	ExamReport             DocumentType = "ExamReport"
	OtherDocument          DocumentType = "Other"
)

var allDocumentTypes = []DocumentType{
	Prescription,
	BatteryPrescription,
	DevicePrescription,
	Audiogram,
	EligibilityCertificate,
	ExamReport,
	OtherDocument,
}

func DocumentTypesAsStrings() []string {
	result := make([]string, len(allDocumentTypes))
	for i, dt := range allDocumentTypes {
		result[i] = string(dt)
	}
	return result
}

// CanonicalDocumentType maps free-form labels (Turkish or English) onto the
// canonical type set. Returns OtherDocument, false when the label is unknown.
func CanonicalDocumentType(input string) (DocumentType, bool) {
	if input == "" {
		return OtherDocument, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	synonyms := map[string]DocumentType{
		"recete":         Prescription,
		"reçete":         Prescription,
		"pil recetesi":   BatteryPrescription,
		"pil reçetesi":   BatteryPrescription,
		"cihaz recetesi": DevicePrescription,
		"odyogram":       Audiogram,
		"isitme testi":   Audiogram,
		"saglik kurulu":  EligibilityCertificate,
		"kurul raporu":   EligibilityCertificate,
		"muayene":        ExamReport,
	}

	if dt, ok := synonyms[normalized]; ok {
		return dt, true
	}

	for _, dt := range allDocumentTypes {
		if normalized == strings.ToLower(string(dt)) {
			return dt, true
		}
	}

	return OtherDocument, false
}
