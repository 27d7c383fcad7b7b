package docstore

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jhoicas/boxtrack/internal/domain/repository"
	"github.com/jhoicas/boxtrack/internal/infrastructure/github"
	"github.com/jhoicas/boxtrack/internal/infrastructure/postgres"
	"github.com/jhoicas/boxtrack/internal/infrastructure/s3doc"
	"github.com/jhoicas/boxtrack/pkg/config"
)

// OpenBackend construye el DocumentBackend indicado por cfg.Driver.
// Con postgres el backend devuelto implementa Close y el llamador debe cerrarlo.
func OpenBackend(ctx context.Context, cfg config.RemoteConfig) (repository.DocumentBackend, error) {
	switch cfg.Driver {
	case config.DriverGitHub, "":
		return github.NewContentsBackend(&http.Client{Timeout: cfg.Timeout}), nil
	case config.DriverS3:
		return s3doc.New(ctx, s3doc.Config{
			Bucket:     cfg.S3Bucket,
			Region:     cfg.S3Region,
			Endpoint:   cfg.S3Endpoint,
			PathStyle:  cfg.S3PathStyle,
			HTTPClient: &http.Client{Timeout: cfg.Timeout},
		})
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("docstore: %w", err)
		}
		backend := postgres.NewDocumentBackend(pool)
		if err := backend.EnsureSchema(ctx); err != nil {
			backend.Close()
			return nil, fmt.Errorf("docstore: %w", err)
		}
		return backend, nil
	case config.DriverMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("docstore: driver desconocido %q", cfg.Driver)
	}
}
