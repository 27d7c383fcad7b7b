package repository

import (
	"context"

	"github.com/jhoicas/boxtrack/internal/domain/entity"
)

// DocumentBackend define el puerto hacia el host remoto que guarda el documento de inventario.
// content son los bytes del documento ya decodificados del transporte propio del host.
type DocumentBackend interface {
	// FetchVersion devuelve el contenido actual y su token de versión (hash asignado por el remoto).
	// Falla con domain.ErrRead si el recurso no es accesible o la credencial es rechazada.
	FetchVersion(ctx context.Context, h entity.DocumentHandle) (content []byte, version string, err error)
	// WriteVersion escribe content solo si version coincide con la versión actual del remoto.
	// La comparación la hace el remoto de forma atómica. Un token obsoleto produce
	// *domain.ConflictError; otros rechazos domain.ErrWrite.
	WriteVersion(ctx context.Context, h entity.DocumentHandle, content []byte, version, note string) (newVersion string, err error)
}
