package entity

import "github.com/klinikops/sgk-docflow/constants"

// Classification is the document-type assignment for a capture.
type Classification struct {
	Type       constants.DocumentType `json:"type"`
	Confidence float32                `json:"confidence"`
	Method     string                 `json:"method"`
}
