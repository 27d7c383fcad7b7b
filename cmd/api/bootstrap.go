package main

import (
	"context"
	"fmt"

	"github.com/jhoicas/boxtrack/internal/application/inventory"
	"github.com/jhoicas/boxtrack/internal/domain/entity"
	"github.com/jhoicas/boxtrack/internal/domain/repository"
	"github.com/jhoicas/boxtrack/internal/infrastructure/docstore"
	"github.com/jhoicas/boxtrack/internal/infrastructure/metrics"
	"github.com/jhoicas/boxtrack/pkg/config"
	"github.com/jhoicas/boxtrack/pkg/logger"
)

// backendOpener construye el DocumentBackend; en producción es docstore.OpenBackend.
type backendOpener func(ctx context.Context, cfg config.RemoteConfig) (repository.DocumentBackend, error)

// services dependencias del inventario ya sincronizadas con el remoto.
// close libera el backend (pool de PostgreSQL) y debe llamarse una sola vez.
type services struct {
	store    *inventory.Store
	handle   entity.DocumentHandle
	recorder *metrics.Recorder
	close    func()
}

// bootstrap abre el backend y hace la lectura inicial. Si algo falla el backend
// queda cerrado antes de devolver el error.
func bootstrap(ctx context.Context, cfg *config.Config, log *logger.Logger, token string, open backendOpener) (*services, error) {
	backend, err := open(ctx, cfg.Remote)
	if err != nil {
		return nil, fmt.Errorf("backend del documento remoto: %w", err)
	}
	closeBackend := func() {}
	if closer, ok := backend.(interface{ Close() }); ok {
		closeBackend = closer.Close
	}

	handle := entity.DocumentHandle{Resource: cfg.Remote.Resource, Token: token}
	client := docstore.NewClient(backend)
	recorder := metrics.NewRecorder()
	store := inventory.NewStore(client,
		inventory.WithLogger(log.Component("inventory")),
		inventory.WithMetrics(recorder),
		inventory.WithStrictSync(cfg.Sync.Mode == config.SyncStrict),
	)

	// Un push sin pull previo publicaría un inventario vacío: sin lectura inicial no se arranca.
	if err := initialPull(ctx, cfg.Remote.Driver, client, store, handle); err != nil {
		closeBackend()
		return nil, err
	}
	return &services{store: store, handle: handle, recorder: recorder, close: closeBackend}, nil
}

func initialPull(ctx context.Context, driver string, client *docstore.Client, store *inventory.Store, handle entity.DocumentHandle) error {
	err := store.Pull(ctx, handle)
	if err == nil {
		return nil
	}
	if driver != config.DriverMemory {
		return fmt.Errorf("lectura inicial del inventario %s: %w", handle.Resource, err)
	}
	if _, err := client.Init(ctx, handle); err != nil {
		return fmt.Errorf("crear documento en memoria: %w", err)
	}
	if err := store.Pull(ctx, handle); err != nil {
		return fmt.Errorf("lectura inicial del inventario: %w", err)
	}
	return nil
}
