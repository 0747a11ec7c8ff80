package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/klinikops/sgk-docflow/internal/common"
)

const schemaVersion = 1

// Open opens (or creates) the embedded store with WAL mode and the schema
// initialized. Use ":memory:" for tests.
func Open(ctx context.Context, path string, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("opening document store", "path", path)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Error("failed to open document store", "error", err)
		return nil, err
	}
	// a single writer matches the single-user capture context, and keeps
	// :memory: databases coherent
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(ctx, db); err != nil {
		_ = db.Close()
		logger.Error("failed to initialize schema", "error", err)
		return nil, err
	}

	logger.Info("document store ready")
	return db, nil
}

// Close closes the store gracefully.
func Close(db *sql.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Error("failed to close document store", "error", err)
	}
}

// HealthCheck pings the store, bounded by timeout when positive.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return db.PingContext(ctx)
}

// initSchema creates tables if they don't exist.
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS schema_info (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS patients (
	id TEXT PRIMARY KEY,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	national_id TEXT,
	birth_date TEXT,
	phone TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_patients_national_id
	ON patients(national_id) WHERE national_id != '';

CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	patient_id TEXT REFERENCES patients(id),
	filename TEXT NOT NULL,
	doc_type TEXT NOT NULL,
	class_confidence REAL NOT NULL DEFAULT 0,
	class_method TEXT NOT NULL DEFAULT '',
	match_level TEXT NOT NULL DEFAULT 'none',
	match_confidence REAL NOT NULL DEFAULT 0,
	match_method TEXT NOT NULL DEFAULT '',
	requires_confirmation INTEGER NOT NULL DEFAULT 0,
	payload BLOB,
	original_size INTEGER NOT NULL DEFAULT 0,
	compressed_size INTEGER NOT NULL DEFAULT 0,
	emergency_compression INTEGER NOT NULL DEFAULT 0,
	fingerprint TEXT NOT NULL UNIQUE,
	ocr_text_prefix TEXT NOT NULL DEFAULT '',
	uploaded_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	workflow_status TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_patient ON documents(patient_id);

CREATE TABLE IF NOT EXISTS document_audit (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	from_status TEXT NOT NULL,
	to_status TEXT NOT NULL,
	note TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return err
	}

	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_info").Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		if _, err := db.ExecContext(ctx, "INSERT INTO schema_info (version) VALUES (?)", schemaVersion); err != nil {
			return err
		}
	}
	return nil
}

// wrapStoreErr maps driver errors onto the app error taxonomy so callers can
// distinguish "free up space" from generic failures.
func wrapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "database or disk is full") {
		return common.NewAppError("STORE_FULL", "document store is out of space", common.ErrQuotaExceeded)
	}
	return common.NewAppError("STORE_ERROR", "document store operation failed", common.WrapError(err, "sqlite"))
}
