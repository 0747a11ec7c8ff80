package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/klinikops/sgk-docflow/constants"
	"github.com/klinikops/sgk-docflow/internal/common"
	"github.com/klinikops/sgk-docflow/internal/entity"
)

// fingerprintTextRunes is how much leading OCR text participates in the
// duplicate fingerprint.
const fingerprintTextRunes = 120

// Fingerprint derives the duplicate-detection key from filename, a truncated
// OCR text prefix, and the resolved patient name.
func Fingerprint(filename, ocrText, patientName string) string {
	prefix := OCRPrefix(ocrText)
	h := sha256.Sum256([]byte(filename + "\x00" + prefix + "\x00" + strings.ToLower(strings.TrimSpace(patientName))))
	return hex.EncodeToString(h[:])
}

// OCRPrefix returns the normalized leading slice of OCR text used in
// fingerprints and stored for later duplicate checks.
func OCRPrefix(ocrText string) string {
	fields := strings.Fields(ocrText)
	joined := strings.Join(fields, " ")
	runes := []rune(joined)
	if len(runes) > fingerprintTextRunes {
		runes = runes[:fingerprintTextRunes]
	}
	return string(runes)
}

// DocumentRepository owns PersistedDocumentRecord state: the global list, the
// per-patient index, and the bounded quarantine bucket.
type DocumentRepository interface {
	// Upsert is idempotent: a record sharing an ID or fingerprint is
	// updated in place. The bool result reports whether an existing
	// record was overwritten.
	Upsert(ctx context.Context, doc *entity.Document) (*entity.Document, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	ListAll(ctx context.Context) ([]*entity.Document, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*entity.Document, error)
	ListQuarantined(ctx context.Context) ([]*entity.Document, error)
	// Reassign moves a quarantined record into a patient's index in
	// place, without creating a second copy.
	Reassign(ctx context.Context, docID, patientID uuid.UUID) error
}

type documentRepository struct {
	db                 *sql.DB
	quarantineCapacity int
	logger             *slog.Logger
}

func NewDocumentRepository(db *sql.DB, quarantineCapacity int, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	if quarantineCapacity <= 0 {
		quarantineCapacity = 50
	}
	return &documentRepository{db: db, quarantineCapacity: quarantineCapacity, logger: logger}
}

const documentCols = `id, patient_id, filename, doc_type, class_confidence, class_method,
	match_level, match_confidence, match_method, requires_confirmation,
	payload, original_size, compressed_size, emergency_compression,
	fingerprint, ocr_text_prefix, uploaded_at, updated_at, workflow_status`

func (r *documentRepository) Upsert(ctx context.Context, doc *entity.Document) (*entity.Document, bool, error) {
	if doc.Filename == "" {
		return nil, false, common.NewAppError("PERSIST_ERROR", "document filename is required", common.ErrInvalidInput)
	}
	if doc.Fingerprint == "" {
		return nil, false, common.NewAppError("PERSIST_ERROR", "document fingerprint is required", common.ErrInvalidInput)
	}

	now := time.Now().UTC()
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = now
	}
	doc.UpdatedAt = now
	if doc.WorkflowStatus == "" {
		doc.WorkflowStatus = constants.WorkflowInquiryStarted
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, wrapStoreErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	// update-in-place any record sharing an identifier or fingerprint
	var existingID string
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM documents WHERE id = ? OR fingerprint = ?",
		doc.ID.String(), doc.Fingerprint,
	).Scan(&existingID)
	updated := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, false, wrapStoreErr(err)
	}

	if updated {
		if parsed, perr := uuid.Parse(existingID); perr == nil {
			doc.ID = parsed
		}
		_, err = tx.ExecContext(ctx, `
UPDATE documents SET
	patient_id = ?, filename = ?, doc_type = ?, class_confidence = ?, class_method = ?,
	match_level = ?, match_confidence = ?, match_method = ?, requires_confirmation = ?,
	payload = ?, original_size = ?, compressed_size = ?, emergency_compression = ?,
	fingerprint = ?, ocr_text_prefix = ?, updated_at = ?
WHERE id = ?`,
			nullableID(doc.PatientID), doc.Filename, string(doc.DocType), doc.ClassConfidence, doc.ClassMethod,
			string(doc.MatchLevel), doc.MatchConfidence, doc.MatchMethod, doc.RequiresConfirmation,
			doc.Payload, doc.OriginalSize, doc.CompressedSize, doc.EmergencyCompression,
			doc.Fingerprint, doc.OCRTextPrefix, doc.UpdatedAt.Format(time.RFC3339),
			doc.ID.String(),
		)
	} else {
		_, err = tx.ExecContext(ctx, `
INSERT INTO documents (`+documentCols+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			doc.ID.String(), nullableID(doc.PatientID), doc.Filename, string(doc.DocType),
			doc.ClassConfidence, doc.ClassMethod,
			string(doc.MatchLevel), doc.MatchConfidence, doc.MatchMethod, doc.RequiresConfirmation,
			doc.Payload, doc.OriginalSize, doc.CompressedSize, doc.EmergencyCompression,
			doc.Fingerprint, doc.OCRTextPrefix,
			doc.UploadedAt.Format(time.RFC3339), doc.UpdatedAt.Format(time.RFC3339),
			string(doc.WorkflowStatus),
		)
	}
	if err != nil {
		return nil, false, wrapStoreErr(err)
	}

	if doc.Quarantined() {
		if err := r.evictQuarantineOverflow(ctx, tx); err != nil {
			return nil, false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, wrapStoreErr(err)
	}

	r.logger.Info("document persisted",
		"document_id", doc.ID,
		"filename", doc.Filename,
		"quarantined", doc.Quarantined(),
		"updated_existing", updated,
	)
	return doc, updated, nil
}

// evictQuarantineOverflow drops the oldest quarantined records beyond the
// configured capacity. Quarantine is a bounded triage buffer, not an archive.
func (r *documentRepository) evictQuarantineOverflow(ctx context.Context, tx *sql.Tx) error {
	res, err := tx.ExecContext(ctx, `
DELETE FROM documents WHERE id IN (
	SELECT id FROM documents
	WHERE patient_id IS NULL
	ORDER BY uploaded_at DESC, id
	LIMIT -1 OFFSET ?
)`, r.quarantineCapacity)
	if err != nil {
		return wrapStoreErr(err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		r.logger.Warn("evicted oldest quarantined documents", "count", n, "capacity", r.quarantineCapacity)
	}
	return nil
}

func (r *documentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+documentCols+" FROM documents WHERE id = ?", id.String())
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return doc, nil
}

func (r *documentRepository) ListAll(ctx context.Context) ([]*entity.Document, error) {
	return r.list(ctx, "SELECT "+documentCols+" FROM documents ORDER BY uploaded_at DESC")
}

func (r *documentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*entity.Document, error) {
	return r.list(ctx, "SELECT "+documentCols+" FROM documents WHERE patient_id = ? ORDER BY uploaded_at DESC", patientID.String())
}

func (r *documentRepository) ListQuarantined(ctx context.Context) ([]*entity.Document, error) {
	return r.list(ctx, "SELECT "+documentCols+" FROM documents WHERE patient_id IS NULL ORDER BY uploaded_at DESC")
}

func (r *documentRepository) Reassign(ctx context.Context, docID, patientID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE documents SET patient_id = ?, updated_at = ? WHERE id = ?",
		patientID.String(), time.Now().UTC().Format(time.RFC3339), docID.String(),
	)
	if err != nil {
		return wrapStoreErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapStoreErr(err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	r.logger.Info("document reassigned", "document_id", docID, "patient_id", patientID)
	return nil
}

func (r *documentRepository) list(ctx context.Context, query string, args ...any) ([]*entity.Document, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer rows.Close()

	var out []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, wrapStoreErr(err)
		}
		out = append(out, doc)
	}
	return out, wrapStoreErr(rows.Err())
}

func nullableID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func scanDocument(row rowScanner) (*entity.Document, error) {
	var d entity.Document
	var id string
	var patientID sql.NullString
	var docType, level, status string
	var uploaded, updated string
	err := row.Scan(
		&id, &patientID, &d.Filename, &docType, &d.ClassConfidence, &d.ClassMethod,
		&level, &d.MatchConfidence, &d.MatchMethod, &d.RequiresConfirmation,
		&d.Payload, &d.OriginalSize, &d.CompressedSize, &d.EmergencyCompression,
		&d.Fingerprint, &d.OCRTextPrefix, &uploaded, &updated, &status,
	)
	if err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	d.ID = parsed
	if patientID.Valid {
		if pid, err := uuid.Parse(patientID.String); err == nil {
			d.PatientID = &pid
		}
	}
	d.DocType = constants.DocumentType(docType)
	d.MatchLevel = constants.MatchLevel(level)
	d.WorkflowStatus = constants.WorkflowStatus(status)
	if t, err := time.Parse(time.RFC3339, uploaded); err == nil {
		d.UploadedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updated); err == nil {
		d.UpdatedAt = t
	}
	return &d, nil
}
