package docstore

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/jhoicas/boxtrack/internal/domain"
	"github.com/jhoicas/boxtrack/internal/domain/entity"
	"github.com/jhoicas/boxtrack/internal/domain/repository"
)

var _ repository.DocumentBackend = (*MemoryBackend)(nil)

// MemoryBackend host de documentos en memoria con la misma semántica de versión que el
// contents API: el token es el SHA-1 de blob git del contenido y la comparación es atómica.
// Se usa en tests y con REMOTE_DRIVER=memory.
type MemoryBackend struct {
	mu        sync.Mutex
	docs      map[string]memDoc
	notes     map[string][]string
	token     string // si no está vacío, credencial exigida
	failWrite error  // error a devolver en la próxima escritura
	failRead  error  // error a devolver en la próxima lectura
}

type memDoc struct {
	content []byte
	version string
}

// NewMemoryBackend construye un host vacío.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		docs:  make(map[string]memDoc),
		notes: make(map[string][]string),
	}
}

// RequireToken hace que el host rechace handles con otra credencial.
func (m *MemoryBackend) RequireToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

// Seed guarda content sin comprobar versión y devuelve el token asignado.
func (m *MemoryBackend) Seed(resource string, content []byte) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc := memDoc{content: append([]byte(nil), content...), version: BlobSHA(content)}
	m.docs[resource] = doc
	return doc.version
}

// Content devuelve el contenido actual de resource (nil si no existe).
func (m *MemoryBackend) Content(resource string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[resource]
	if !ok {
		return nil
	}
	return append([]byte(nil), doc.content...)
}

// Notes devuelve los mensajes de las escrituras aceptadas sobre resource.
func (m *MemoryBackend) Notes(resource string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.notes[resource]...)
}

// FailNextWrite hace fallar la próxima escritura con err (envuelto en domain.ErrWrite).
func (m *MemoryBackend) FailNextWrite(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrite = err
}

// FailNextRead hace fallar la próxima lectura con err (envuelto en domain.ErrRead).
func (m *MemoryBackend) FailNextRead(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failRead = err
}

// FetchVersion devuelve el contenido y token actuales.
func (m *MemoryBackend) FetchVersion(_ context.Context, h entity.DocumentHandle) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failRead; err != nil {
		m.failRead = nil
		return nil, "", fmt.Errorf("%w: %v", domain.ErrRead, err)
	}
	if m.token != "" && h.Token != m.token {
		return nil, "", fmt.Errorf("%w: %s: credencial rechazada", domain.ErrRead, h.Resource)
	}
	doc, ok := m.docs[h.Resource]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s no existe", domain.ErrRead, h.Resource)
	}
	return append([]byte(nil), doc.content...), doc.version, nil
}

// WriteVersion acepta la escritura solo si version coincide con la actual
// (version vacía = crear un recurso inexistente).
func (m *MemoryBackend) WriteVersion(_ context.Context, h entity.DocumentHandle, content []byte, version, note string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failWrite; err != nil {
		m.failWrite = nil
		return "", fmt.Errorf("%w: %v", domain.ErrWrite, err)
	}
	if m.token != "" && h.Token != m.token {
		return "", fmt.Errorf("%w: %s: credencial rechazada", domain.ErrWrite, h.Resource)
	}
	current, exists := m.docs[h.Resource]
	if (!exists && version != "") || (exists && current.version != version) {
		return "", &domain.ConflictError{
			Resource:        h.Resource,
			ExpectedVersion: version,
			CurrentVersion:  current.version,
		}
	}
	doc := memDoc{content: append([]byte(nil), content...), version: BlobSHA(content)}
	m.docs[h.Resource] = doc
	m.notes[h.Resource] = append(m.notes[h.Resource], note)
	return doc.version, nil
}

// BlobSHA calcula el hash de blob git (el mismo que informa GitHub como sha de un archivo).
func BlobSHA(content []byte) string {
	hash := sha1.New()
	fmt.Fprintf(hash, "blob %d\x00", len(content))
	hash.Write(content)
	return hex.EncodeToString(hash.Sum(nil))
}
