package classify

import "github.com/klinikops/sgk-docflow/constants"

// rule is one ordered classification rule over folded text. Phrases must all
// be present; rules earlier in the list and with more specific vocabulary win.
type rule struct {
	docType    constants.DocumentType
	phrases    []string
	confidence float32
}

// Rules are checked in order; the first hit is authoritative, so specific
// multi-token vocabulary must precede generic single tokens ("pil recetesi"
// before "recete").
var rules = []rule{
	{constants.BatteryPrescription, []string{"pil recetesi"}, 0.95},
	{constants.BatteryPrescription, []string{"pil", "recete"}, 0.9},
	{constants.DevicePrescription, []string{"cihaz recetesi"}, 0.95},
	{constants.DevicePrescription, []string{"isitme cihazi", "recete"}, 0.9},
	{constants.DevicePrescription, []string{"cihaz", "recete"}, 0.85},
	{constants.Audiogram, []string{"odyogram"}, 0.9},
	{constants.Audiogram, []string{"isitme testi"}, 0.9},
	{constants.Audiogram, []string{"odyometri"}, 0.85},
	{constants.EligibilityCertificate, []string{"saglik kurulu raporu"}, 0.95},
	{constants.EligibilityCertificate, []string{"saglik kurulu"}, 0.85},
	{constants.EligibilityCertificate, []string{"kurul raporu"}, 0.85},
	{constants.ExamReport, []string{"muayene"}, 0.75},
	{constants.Prescription, []string{"e-recete"}, 0.85},
	{constants.Prescription, []string{"recete"}, 0.8},
}

// filenameRules apply to the folded original filename when the text produced
// nothing; they carry the generic-inference confidence tier.
var filenameRules = []rule{
	{constants.BatteryPrescription, []string{"pil"}, 0.75},
	{constants.Audiogram, []string{"odyogram"}, 0.75},
	{constants.EligibilityCertificate, []string{"rapor"}, 0.7},
	{constants.Prescription, []string{"recete"}, 0.7},
}
