// Package githubtest ofrece un servidor falso del contents API de GitHub para tests.
// Aplica la comparación de sha igual que GitHub, así que reproduce conflictos reales.
package githubtest

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// ContentsPrefix prefijo de ruta de los archivos servidos.
const ContentsPrefix = "/repos/ptec/inventory-db/contents/"

// Server contents API en memoria.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	token    string
	files    map[string]file
	messages []string
	gets     int
	puts     int
}

type file struct {
	content []byte
	sha     string
}

// NewServer arranca el servidor; si token no está vacío exige "token <token>".
// Se cierra automáticamente al terminar el test.
func NewServer(t testing.TB, token string) *Server {
	t.Helper()
	s := &Server{token: token, files: make(map[string]file)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// FileURL URL del contents API para path.
func (s *Server) FileURL(path string) string {
	return s.Server.URL + ContentsPrefix + path
}

// Seed guarda un archivo sin comprobar sha y devuelve el sha asignado.
func (s *Server) Seed(path string, content []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := file{content: append([]byte(nil), content...), sha: blobSHA(content)}
	s.files[path] = f
	return f.sha
}

// File devuelve el contenido actual de path.
func (s *Server) File(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[path]
	return append([]byte(nil), f.content...), ok
}

// SHA devuelve el sha actual de path ("" si no existe).
func (s *Server) SHA(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files[path].sha
}

// Messages mensajes de commit de los PUT aceptados.
func (s *Server) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

// Requests número de GET y PUT recibidos.
func (s *Server) Requests() (gets, puts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets, s.puts
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if s.token != "" && r.Header.Get("Authorization") != "token "+s.token {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
		return
	}
	if !strings.HasPrefix(r.URL.Path, ContentsPrefix) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	path := strings.TrimPrefix(r.URL.Path, ContentsPrefix)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		s.gets++
		f, ok := s.files[path]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"type":     "file",
			"path":     path,
			"encoding": "base64",
			"content":  wrap(base64.StdEncoding.EncodeToString(f.content), 60),
			"sha":      f.sha,
		})
	case http.MethodPut:
		s.puts++
		var req struct {
			Message string `json:"message"`
			Content string `json:"content"`
			SHA     string `json:"sha"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Problems parsing JSON"})
			return
		}
		current, exists := s.files[path]
		switch {
		case exists && req.SHA == "":
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Invalid request.\n\n\"sha\" wasn't supplied."})
			return
		case exists && req.SHA != current.sha:
			writeJSON(w, http.StatusConflict, map[string]string{"message": fmt.Sprintf("%s does not match %s", path, req.SHA)})
			return
		case !exists && req.SHA != "":
			writeJSON(w, http.StatusConflict, map[string]string{"message": fmt.Sprintf("%s does not match %s", path, req.SHA)})
			return
		}
		content, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "content is not valid Base64"})
			return
		}
		f := file{content: content, sha: blobSHA(content)}
		s.files[path] = f
		s.messages = append(s.messages, req.Message)
		status := http.StatusOK
		if !exists {
			status = http.StatusCreated
		}
		writeJSON(w, status, map[string]any{
			"content": map[string]string{"path": path, "sha": f.sha},
			"commit":  map[string]string{"message": req.Message},
		})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "Method Not Allowed"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func wrap(s string, width int) string {
	var b strings.Builder
	for len(s) > width {
		b.WriteString(s[:width])
		b.WriteByte('\n')
		s = s[width:]
	}
	b.WriteString(s)
	b.WriteByte('\n')
	return b.String()
}

func blobSHA(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
