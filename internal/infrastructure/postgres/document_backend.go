package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/boxtrack/internal/domain"
	"github.com/jhoicas/boxtrack/internal/domain/entity"
	"github.com/jhoicas/boxtrack/internal/domain/repository"
)

var _ repository.DocumentBackend = (*DocumentBackend)(nil)

// Schema tabla de documentos; una fila por recurso.
const Schema = `CREATE TABLE IF NOT EXISTS boxtrack_documents (
	resource   TEXT PRIMARY KEY,
	content    BYTEA NOT NULL,
	version    TEXT NOT NULL,
	note       TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const (
	selectDocument = `SELECT content, version FROM boxtrack_documents WHERE resource = $1`
	selectVersion  = `SELECT version FROM boxtrack_documents WHERE resource = $1`
	insertDocument = `INSERT INTO boxtrack_documents (resource, content, version, note) VALUES ($1, $2, $3, $4)`
	updateDocument = `UPDATE boxtrack_documents SET content = $2, version = $3, note = $4, updated_at = now()
		WHERE resource = $1 AND version = $5`
)

// DB subconjunto de pgxpool.Pool / pgx.Tx que usa el backend.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DocumentBackend guarda el documento en PostgreSQL. El token de versión es un uuid
// que cambia en cada escritura; la comparación la hace el UPDATE condicional.
// El handle solo aporta Resource: la credencial va en el DSN del pool.
type DocumentBackend struct {
	db DB
}

// NewDocumentBackend construye el backend sobre db.
func NewDocumentBackend(db DB) *DocumentBackend {
	return &DocumentBackend{db: db}
}

// EnsureSchema crea la tabla si no existe.
func (b *DocumentBackend) EnsureSchema(ctx context.Context) error {
	if _, err := b.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("postgres: crear tabla: %w", err)
	}
	return nil
}

// Close cierra el pool si db lo permite.
func (b *DocumentBackend) Close() {
	if c, ok := b.db.(interface{ Close() }); ok {
		c.Close()
	}
}

// FetchVersion lee el contenido y la versión de h.Resource.
func (b *DocumentBackend) FetchVersion(ctx context.Context, h entity.DocumentHandle) ([]byte, string, error) {
	var (
		content []byte
		version string
	)
	err := b.db.QueryRow(ctx, selectDocument, h.Resource).Scan(&content, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", fmt.Errorf("%w: %s no existe", domain.ErrRead, h.Resource)
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %w", domain.ErrRead, h.Resource, err)
	}
	return content, version, nil
}

// WriteVersion inserta (version vacía) o actualiza solo si la versión coincide.
func (b *DocumentBackend) WriteVersion(ctx context.Context, h entity.DocumentHandle, content []byte, version, note string) (string, error) {
	next := uuid.NewString()

	if version == "" {
		_, err := b.db.Exec(ctx, insertDocument, h.Resource, content, next, note)
		if err != nil {
			if isUniqueViolation(err) {
				return "", b.conflict(ctx, h.Resource, version)
			}
			return "", fmt.Errorf("%w: %s: %w", domain.ErrWrite, h.Resource, err)
		}
		return next, nil
	}

	tag, err := b.db.Exec(ctx, updateDocument, h.Resource, content, next, note, version)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrWrite, h.Resource, err)
	}
	if tag.RowsAffected() == 0 {
		return "", b.conflict(ctx, h.Resource, version)
	}
	return next, nil
}

func (b *DocumentBackend) conflict(ctx context.Context, resource, expected string) error {
	var current string
	_ = b.db.QueryRow(ctx, selectVersion, resource).Scan(&current)
	return &domain.ConflictError{Resource: resource, ExpectedVersion: expected, CurrentVersion: current}
}
