package async

import (
	"context"
	"time"

	"github.com/klinikops/sgk-docflow/internal/entity"
)

// Job is one capture waiting to run through the pipeline.
type Job struct {
	Upload      *entity.RawUpload
	SourcePath  string
	SubmittedAt time.Time
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
