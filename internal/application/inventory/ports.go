package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/boxtrack/internal/domain/entity"
)

// DocumentClient acceso al documento remoto que necesita el Store.
// Lo implementa *docstore.Client.
type DocumentClient interface {
	ReadVersioned(ctx context.Context, h entity.DocumentHandle) (entity.Inventory, string, error)
	WriteVersioned(ctx context.Context, h entity.DocumentHandle, doc entity.Inventory) (entity.Inventory, string, error)
	WriteIfMatch(ctx context.Context, h entity.DocumentHandle, doc entity.Inventory, version string) (string, error)
}

// MetricsRecorder recibe la duración y el resultado de cada operación remota.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}
