// Package credential guarda localmente la credencial del documento remoto entre sesiones.
package credential

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const tokenKey = "token"

// Store persiste una única credencial en un archivo YAML.
type Store struct {
	path string
}

// DefaultPath devuelve <config del usuario>/boxtrack/credentials.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("credential: directorio de configuración: %w", err)
	}
	return filepath.Join(dir, "boxtrack", "credentials.yaml"), nil
}

// New construye el store. Con path vacío se usa DefaultPath; sin extensión se agrega .yaml.
func New(path string) (*Store, error) {
	if path == "" {
		def, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = def
	}
	if filepath.Ext(path) == "" {
		path += ".yaml"
	}
	return &Store{path: path}, nil
}

// Path ruta del archivo.
func (s *Store) Path() string { return s.path }

// Load devuelve la credencial guardada, o "" si aún no existe el archivo.
func (s *Store) Load() (string, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	v := viper.New()
	v.SetConfigFile(s.path)
	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("credential: leer %s: %w", s.path, err)
	}
	return strings.TrimSpace(v.GetString(tokenKey)), nil
}

// Save guarda la credencial (se sobrescribe la anterior). El contenido se escribe en un
// temporal con permisos 0600 que luego reemplaza al archivo.
func (s *Store) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("credential: token vacío")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("credential: crear directorio: %w", err)
	}
	// os.CreateTemp crea con 0600; viper reescribe el archivo existente sin tocar sus permisos.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*"+filepath.Ext(s.path))
	if err != nil {
		return fmt.Errorf("credential: crear temporal: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("credential: crear temporal: %w", err)
	}
	v := viper.New()
	v.Set(tokenKey, token)
	if err := v.WriteConfigAs(tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("credential: escribir %s: %w", s.path, err)
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("credential: permisos %s: %w", s.path, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("credential: escribir %s: %w", s.path, err)
	}
	return nil
}

// Clear borra la credencial guardada. No falla si no existía.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("credential: borrar %s: %w", s.path, err)
	}
	return nil
}

// Resolve devuelve explicit si no está vacío; si no, la credencial guardada.
func (s *Store) Resolve(explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit, nil
	}
	return s.Load()
}
