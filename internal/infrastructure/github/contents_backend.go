// Package github implementa el DocumentBackend sobre el contents API de GitHub:
// el documento es un archivo del repositorio y su sha de blob es el token de versión.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/boxtrack/internal/domain"
	"github.com/jhoicas/boxtrack/internal/domain/entity"
	"github.com/jhoicas/boxtrack/internal/domain/repository"
)

// Verificar en tiempo de compilación que ContentsBackend implementa DocumentBackend.
var _ repository.DocumentBackend = (*ContentsBackend)(nil)

const (
	apiVersion   = "2022-11-28"
	acceptHeader = "application/vnd.github+json"
	maxBodyBytes = 10 << 20
)

// ContentsBackend lee y escribe un archivo vía GET/PUT /repos/{owner}/{repo}/contents/{path}.
// handle.Resource es la URL completa del archivo.
type ContentsBackend struct {
	httpClient *http.Client
}

// NewContentsBackend construye el adaptador. Con httpClient nil se usa uno con timeout de 15 s.
func NewContentsBackend(httpClient *http.Client) *ContentsBackend {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &ContentsBackend{httpClient: httpClient}
}

// ── Protocolo del contents API ───────────────────────────────────────────────

type contentsResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	SHA      string `json:"sha"`
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
}

type putResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

// APIError respuesta no-2xx del API de GitHub.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: HTTP %d: %s", e.StatusCode, e.Message)
}

// ── Implementación del puerto ─────────────────────────────────────────────────

// FetchVersion obtiene el archivo y decodifica su contenido base64.
func (b *ContentsBackend) FetchVersion(ctx context.Context, h entity.DocumentHandle) ([]byte, string, error) {
	body, err := b.do(ctx, http.MethodGet, h, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %w", domain.ErrRead, h.Resource, err)
	}
	var resp contentsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, "", fmt.Errorf("%w: respuesta del contents API: %v", domain.ErrDecode, err)
	}
	if resp.Encoding != "" && resp.Encoding != "base64" {
		return nil, "", fmt.Errorf("%w: codificación %q no soportada (¿archivo demasiado grande?)", domain.ErrDecode, resp.Encoding)
	}
	content, err := DecodeContent(resp.Content)
	if err != nil {
		return nil, "", err
	}
	return content, resp.SHA, nil
}

// WriteVersion hace PUT con el sha esperado; GitHub rechaza si el archivo cambió.
func (b *ContentsBackend) WriteVersion(ctx context.Context, h entity.DocumentHandle, content []byte, version, note string) (string, error) {
	payload := putRequest{
		Message: note,
		Content: EncodeContent(content),
		SHA:     version,
	}
	body, err := b.do(ctx, http.MethodPut, h, payload)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && isStaleSHA(apiErr) {
			return "", &domain.ConflictError{Resource: h.Resource, ExpectedVersion: version}
		}
		return "", fmt.Errorf("%w: %s: %w", domain.ErrWrite, h.Resource, err)
	}
	var resp putResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: respuesta del PUT: %v", domain.ErrWrite, err)
	}
	return resp.Content.SHA, nil
}

// do ejecuta la petición autenticada y devuelve el cuerpo; no-2xx produce *APIError.
func (b *ContentsBackend) do(ctx context.Context, method string, h entity.DocumentHandle, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("serializar request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, h.Resource, reader)
	if err != nil {
		return nil, fmt.Errorf("crear HTTP request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if h.Token != "" {
		req.Header.Set("Authorization", "token "+h.Token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range h.Headers {
		req.Header.Set(k, v)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("leer respuesta: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseAPIError(resp.StatusCode, body)
	}
	return body, nil
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var wire struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &wire) == nil && wire.Message != "" {
		apiErr.Message = wire.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

// isStaleSHA indica si el rechazo se debe a que el sha enviado ya no es el del archivo.
// GitHub responde 409 ("does not match"), 412, o 422 cuando falta el sha de un archivo existente.
func isStaleSHA(err *APIError) bool {
	switch err.StatusCode {
	case http.StatusConflict, http.StatusPreconditionFailed:
		return true
	case http.StatusUnprocessableEntity:
		return strings.Contains(strings.ToLower(err.Message), "sha")
	}
	return false
}

// EncodeContent codifica el documento en base64 (transporte del contents API).
func EncodeContent(content []byte) string {
	return base64.StdEncoding.EncodeToString(content)
}

// DecodeContent decodifica el base64 de GitHub, que llega partido en líneas de 60 caracteres.
func DecodeContent(encoded string) ([]byte, error) {
	cleaned := strings.NewReplacer("\n", "", "\r", "").Replace(encoded)
	out, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("%w: base64 inválido: %v", domain.ErrDecode, err)
	}
	return out, nil
}
