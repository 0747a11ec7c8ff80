package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/klinikops/sgk-docflow/constants"
)

// Document is the terminal record of a pipeline run. PatientID == nil means
// the document sits in quarantine awaiting manual assignment.
type Document struct {
	ID                   uuid.UUID                `json:"id"`
	PatientID            *uuid.UUID               `json:"patient_id,omitempty"`
	Filename             string                   `json:"filename"`
	DocType              constants.DocumentType   `json:"doc_type"`
	ClassConfidence      float32                  `json:"class_confidence"`
	ClassMethod          string                   `json:"class_method"`
	MatchLevel           constants.MatchLevel     `json:"match_level"`
	MatchConfidence      float32                  `json:"match_confidence"`
	MatchMethod          string                   `json:"match_method"`
	RequiresConfirmation bool                     `json:"requires_confirmation"`
	Payload              []byte                   `json:"-"`
	OriginalSize         int                      `json:"original_size"`
	CompressedSize       int                      `json:"compressed_size"`
	EmergencyCompression bool                     `json:"emergency_compression"`
	Fingerprint          string                   `json:"fingerprint"`
	OCRTextPrefix        string                   `json:"ocr_text_prefix"`
	UploadedAt           time.Time                `json:"uploaded_at"`
	UpdatedAt            time.Time                `json:"updated_at"`
	WorkflowStatus       constants.WorkflowStatus `json:"workflow_status"`
}

// Quarantined reports whether the document has no resolved patient.
func (d *Document) Quarantined() bool {
	return d.PatientID == nil
}

// AuditEntry records one workflow status transition on a stored document.
type AuditEntry struct {
	ID         uuid.UUID                `json:"id"`
	DocumentID uuid.UUID                `json:"document_id"`
	FromStatus constants.WorkflowStatus `json:"from_status"`
	ToStatus   constants.WorkflowStatus `json:"to_status"`
	Note       string                   `json:"note,omitempty"`
	CreatedAt  time.Time                `json:"created_at"`
}
