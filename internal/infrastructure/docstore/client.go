// Package docstore implementa el cliente del documento remoto de inventario: lectura y
// escritura condicional de un único documento JSON a través de un DocumentBackend.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/boxtrack/internal/domain"
	"github.com/jhoicas/boxtrack/internal/domain/entity"
	"github.com/jhoicas/boxtrack/internal/domain/repository"
)

// Client lee y escribe el documento de inventario. No guarda estado del documento:
// cada operación consulta al backend.
type Client struct {
	backend repository.DocumentBackend
	now     func() time.Time
}

// Option configura el Client.
type Option func(*Client)

// WithClock reemplaza el reloj usado para el mensaje de cada escritura.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient construye el cliente sobre un backend.
func NewClient(backend repository.DocumentBackend, opts ...Option) *Client {
	c := &Client{backend: backend, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type operatorKey struct{}

// WithOperator asocia al contexto el operador que origina la escritura; queda en el mensaje.
func WithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, operatorKey{}, operator)
}

func operatorFrom(ctx context.Context) string {
	op, _ := ctx.Value(operatorKey{}).(string)
	return op
}

// FetchVersion devuelve el contenido crudo actual y su token de versión.
func (c *Client) FetchVersion(ctx context.Context, h entity.DocumentHandle) ([]byte, string, error) {
	return c.backend.FetchVersion(ctx, h)
}

// WriteVersion escribe content solo si version coincide con la del remoto.
func (c *Client) WriteVersion(ctx context.Context, h entity.DocumentHandle, content []byte, version, note string) (string, error) {
	return c.backend.WriteVersion(ctx, h, content, version, note)
}

// Read lee y decodifica el documento.
func (c *Client) Read(ctx context.Context, h entity.DocumentHandle) (entity.Inventory, error) {
	doc, _, err := c.ReadVersioned(ctx, h)
	return doc, err
}

// ReadVersioned lee y decodifica el documento devolviendo también su token de versión.
func (c *Client) ReadVersioned(ctx context.Context, h entity.DocumentHandle) (entity.Inventory, string, error) {
	content, version, err := c.backend.FetchVersion(ctx, h)
	if err != nil {
		return nil, "", err
	}
	doc, err := Decode(content)
	if err != nil {
		return nil, "", err
	}
	return doc, version, nil
}

// Write serializa doc, relee el token actual e inmediatamente escribe con él.
// Entre la relectura y la escritura hay una ventana de carrera real: si otro cliente
// escribe después de la relectura el remoto rechaza; si escribió antes, se sobrescribe.
func (c *Client) Write(ctx context.Context, h entity.DocumentHandle, doc entity.Inventory) (entity.Inventory, error) {
	doc, _, err := c.WriteVersioned(ctx, h, doc)
	return doc, err
}

// WriteVersioned igual que Write, devolviendo el nuevo token de versión.
// El documento devuelto es el persistido: lastModified en UTC con precisión de milisegundos.
func (c *Client) WriteVersioned(ctx context.Context, h entity.DocumentHandle, doc entity.Inventory) (entity.Inventory, string, error) {
	content, err := Encode(doc)
	if err != nil {
		return nil, "", err
	}
	_, version, err := c.backend.FetchVersion(ctx, h)
	if err != nil {
		return nil, "", err
	}
	newVersion, err := c.backend.WriteVersion(ctx, h, content, version, c.note(ctx))
	if err != nil {
		return nil, "", err
	}
	written, err := Decode(content)
	if err != nil {
		return nil, "", err
	}
	return written, newVersion, nil
}

// WriteIfMatch escribe doc con un token obtenido antes por el llamador, sin releer.
// Si otro cliente escribió entretanto el remoto rechaza con *domain.ConflictError.
func (c *Client) WriteIfMatch(ctx context.Context, h entity.DocumentHandle, doc entity.Inventory, version string) (string, error) {
	content, err := Encode(doc)
	if err != nil {
		return "", err
	}
	return c.backend.WriteVersion(ctx, h, content, version, c.note(ctx))
}

// Patch compone Read, transform y Write. La ventana de carrera cubre toda la secuencia.
func (c *Client) Patch(
	ctx context.Context,
	h entity.DocumentHandle,
	transform func(entity.Inventory) (entity.Inventory, error),
) (entity.Inventory, error) {
	current, err := c.Read(ctx, h)
	if err != nil {
		return nil, err
	}
	patched, err := transform(current)
	if err != nil {
		return nil, err
	}
	return c.Write(ctx, h, patched)
}

// Init crea el documento vacío. Falla con conflicto si el recurso ya existe.
func (c *Client) Init(ctx context.Context, h entity.DocumentHandle) (string, error) {
	content, err := Encode(entity.Inventory{})
	if err != nil {
		return "", err
	}
	return c.backend.WriteVersion(ctx, h, content, "", c.note(ctx))
}

func (c *Client) note(ctx context.Context) string {
	note := "[boxtrack] " + c.now().UTC().Format(entity.TimestampLayout)
	if op := operatorFrom(ctx); op != "" {
		note += " por " + op
	}
	return note
}

// Encode valida el documento y lo serializa con sangría de dos espacios (diffs legibles
// en el repositorio). Un documento que Decode rechazaría nunca llega al remoto.
func Encode(doc entity.Inventory) ([]byte, error) {
	if doc == nil {
		doc = entity.Inventory{}
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidItem, err)
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("docstore: serializar documento: %w", err)
	}
	return out, nil
}

// Decode interpreta el contenido como documento de inventario y verifica sus invariantes.
// Cualquier fallo es domain.ErrDecode.
func Decode(content []byte) (entity.Inventory, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: documento vacío", domain.ErrDecode)
	}
	var doc entity.Inventory
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrDecode, strings.TrimPrefix(err.Error(), "json: "))
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: se esperaba un objeto JSON", domain.ErrDecode)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	return doc, nil
}
