package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/klinikops/sgk-docflow/constants"
	"github.com/klinikops/sgk-docflow/internal/common"
	"github.com/klinikops/sgk-docflow/internal/entity"
)

// WorkflowRepository advances a document through the SGK claim workflow and
// keeps the audit trail of every transition.
type WorkflowRepository interface {
	// Advance moves the document to the target status. Transitions only
	// move forward through the workflow; regressions are rejected.
	Advance(ctx context.Context, docID uuid.UUID, to constants.WorkflowStatus, note string) (*entity.AuditEntry, error)
	History(ctx context.Context, docID uuid.UUID) ([]*entity.AuditEntry, error)
}

type workflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) WorkflowRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &workflowRepository{db: db, logger: logger}
}

func (r *workflowRepository) Advance(ctx context.Context, docID uuid.UUID, to constants.WorkflowStatus, note string) (*entity.AuditEntry, error) {
	if !constants.ValidWorkflowStatus(to) {
		return nil, common.NewAppError("WORKFLOW_ERROR", fmt.Sprintf("unknown workflow status %q", to), common.ErrInvalidInput)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	var current string
	err = tx.QueryRowContext(ctx, "SELECT workflow_status FROM documents WHERE id = ?", docID.String()).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	from := constants.WorkflowStatus(current)
	if !constants.CanTransition(from, to) {
		return nil, common.NewAppError("WORKFLOW_ERROR",
			fmt.Sprintf("cannot transition document from %q to %q", from, to), common.ErrInvalidInput)
	}

	now := time.Now().UTC()
	entry := &entity.AuditEntry{
		ID:         uuid.New(),
		DocumentID: docID,
		FromStatus: from,
		ToStatus:   to,
		Note:       note,
		CreatedAt:  now,
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE documents SET workflow_status = ?, updated_at = ? WHERE id = ?",
		string(to), now.Format(time.RFC3339), docID.String(),
	); err != nil {
		return nil, wrapStoreErr(err)
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO document_audit (id, document_id, from_status, to_status, note, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID.String(), docID.String(), string(from), string(to), note, now.Format(time.RFC3339),
	); err != nil {
		return nil, wrapStoreErr(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, wrapStoreErr(err)
	}

	r.logger.Info("workflow advanced", "document_id", docID, "from", from, "to", to)
	return entry, nil
}

func (r *workflowRepository) History(ctx context.Context, docID uuid.UUID) ([]*entity.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, document_id, from_status, to_status, note, created_at
FROM document_audit WHERE document_id = ? ORDER BY created_at, id`, docID.String())
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer rows.Close()

	var out []*entity.AuditEntry
	for rows.Next() {
		var e entity.AuditEntry
		var id, document, from, to, created string
		if err := rows.Scan(&id, &document, &from, &to, &e.Note, &created); err != nil {
			return nil, wrapStoreErr(err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, wrapStoreErr(err)
		}
		if e.DocumentID, err = uuid.Parse(document); err != nil {
			return nil, wrapStoreErr(err)
		}
		e.FromStatus = constants.WorkflowStatus(from)
		e.ToStatus = constants.WorkflowStatus(to)
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			e.CreatedAt = t
		}
		out = append(out, &e)
	}
	return out, wrapStoreErr(rows.Err())
}
