package match

import (
	"context"

	"github.com/klinikops/sgk-docflow/internal/entity"
)

// Directory is the read model for the known patient population. The engine
// never reaches into ambient state; the snapshot is always fetched through
// this interface.
type Directory interface {
	Snapshot(ctx context.Context) ([]*entity.Patient, error)
	GetByNationalID(ctx context.Context, nationalID string) (*entity.Patient, error)
}

// RemoteSearcher is the optional network collaborator. Calls are best-effort
// and timeout-guarded by the engine; failures never block resolution.
type RemoteSearcher interface {
	SearchByNationalID(ctx context.Context, nationalID string) ([]*entity.Patient, error)
	SearchByName(ctx context.Context, name string) ([]*entity.Patient, error)
}
