package ingest

import (
	"context"

	"github.com/klinikops/sgk-docflow/internal/entity"
)

// FileResult is the per-file outcome of a directory ingest. Err is a string
// so results stay serializable for batch reports.
type FileResult struct {
	SourcePath string
	Upload     *entity.RawUpload
	Err        string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

// Loader turns filesystem paths into pipeline-ready uploads.
type Loader interface {
	// FromPath loads a single capture into memory and stamps its hash.
	FromPath(ctx context.Context, path string) (*entity.RawUpload, error)
	// FromDirectory loads every allowed file under root.
	FromDirectory(ctx context.Context, root string, skipHidden bool) ([]FileResult, DirStats, error)
}
