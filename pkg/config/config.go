package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App     AppConfig
	HTTP    HTTPConfig
	Remote  RemoteConfig
	Sync    SyncConfig
	Receipt ReceiptConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env              string // development, staging, production
	Name             string
	LogLevel         string
	CredentialsFile  string // archivo local donde se guarda la credencial del remoto
	DefaultItemCount int    // cantidad inicial sugerida al crear items
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host          string
	Port          int
	JWTSecret     string // vacío = API abierta (modo kiosco local)
	JWTIssuer     string
	JWTExpMinutes int
	Operators     map[string]string // operador -> hash bcrypt (HTTP_OPERATORS="rita:$2a$...,tom:$2a$...")
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Drivers del documento remoto.
const (
	DriverGitHub   = "github"
	DriverS3       = "s3"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// RemoteConfig ubicación y credencial del documento remoto.
type RemoteConfig struct {
	Driver   string // github (por defecto), s3, postgres, memory
	Resource string // URL del contents API, clave del objeto en S3 o de la fila en PostgreSQL
	Token    string // credencial bearer; si está vacía se usa la guardada localmente
	Timeout  time.Duration

	S3Bucket    string
	S3Region    string
	S3Endpoint  string // opcional (MinIO)
	S3PathStyle bool

	DatabaseURL string // DSN de PostgreSQL
}

// Modos de sincronización.
const (
	SyncOverwrite = "overwrite" // relee el token al escribir: último en escribir gana
	SyncStrict    = "strict"    // escribe con el token de la última lectura: conflicto si cambió
)

// SyncConfig política de escritura del documento.
type SyncConfig struct {
	Mode string
}

// ReceiptConfig datos del comprobante PDF.
type ReceiptConfig struct {
	Title     string
	UnitPrice string // decimal en texto, ej. "1.00"
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, REMOTE_RESOURCE, REMOTE_TOKEN, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:              getString(v, "APP_ENV", "development"),
			Name:             getString(v, "APP_NAME", "boxtrack"),
			LogLevel:         getString(v, "LOG_LEVEL", "info"),
			CredentialsFile:  getString(v, "CREDENTIALS_FILE", ""),
			DefaultItemCount: getInt(v, "DEFAULT_ITEM_COUNT", 60),
		},
		HTTP: HTTPConfig{
			Host:          getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:          getInt(v, "HTTP_PORT", 8080),
			JWTSecret:     getString(v, "HTTP_JWT_SECRET", ""),
			JWTIssuer:     getString(v, "HTTP_JWT_ISSUER", "boxtrack"),
			JWTExpMinutes: getInt(v, "HTTP_JWT_EXPIRATION", 720),
			Operators:     parseOperators(getString(v, "HTTP_OPERATORS", "")),
		},
		Remote: RemoteConfig{
			Driver:      strings.ToLower(getString(v, "REMOTE_DRIVER", DriverGitHub)),
			Resource:    getString(v, "REMOTE_RESOURCE", ""),
			Token:       getString(v, "REMOTE_TOKEN", ""),
			Timeout:     time.Duration(getInt(v, "REMOTE_TIMEOUT", 15)) * time.Second,
			S3Bucket:    getString(v, "REMOTE_S3_BUCKET", ""),
			S3Region:    getString(v, "REMOTE_S3_REGION", "us-east-1"),
			S3Endpoint:  getString(v, "REMOTE_S3_ENDPOINT", ""),
			S3PathStyle: getBool(v, "REMOTE_S3_PATH_STYLE", false),
			DatabaseURL: getString(v, "REMOTE_DATABASE_URL", ""),
		},
		Sync: SyncConfig{
			Mode: strings.ToLower(getString(v, "SYNC_MODE", SyncOverwrite)),
		},
		Receipt: ReceiptConfig{
			Title:     getString(v, "RECEIPT_TITLE", "World's Finest Chocolate Fundraiser"),
			UnitPrice: getString(v, "RECEIPT_UNIT_PRICE", "1.00"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate revisa combinaciones inválidas que de otro modo fallarían tarde.
func (c *Config) Validate() error {
	switch c.Remote.Driver {
	case DriverGitHub, DriverMemory:
	case DriverS3:
		if c.Remote.S3Bucket == "" {
			return fmt.Errorf("config: REMOTE_S3_BUCKET requerido con REMOTE_DRIVER=s3")
		}
	case DriverPostgres:
		if c.Remote.DatabaseURL == "" {
			return fmt.Errorf("config: REMOTE_DATABASE_URL requerido con REMOTE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("config: REMOTE_DRIVER desconocido %q", c.Remote.Driver)
	}
	if c.Sync.Mode != SyncOverwrite && c.Sync.Mode != SyncStrict {
		return fmt.Errorf("config: SYNC_MODE desconocido %q", c.Sync.Mode)
	}
	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("config: REMOTE_TIMEOUT debe ser positivo")
	}
	if len(c.HTTP.Operators) > 0 && c.HTTP.JWTSecret == "" {
		return fmt.Errorf("config: HTTP_OPERATORS requiere HTTP_JWT_SECRET")
	}
	if c.App.DefaultItemCount < 1 {
		return fmt.Errorf("config: DEFAULT_ITEM_COUNT debe ser >= 1")
	}
	return nil
}

// parseOperators lee "nombre:hash" separados por coma; entradas sin ":" se ignoran.
func parseOperators(raw string) map[string]string {
	ops := make(map[string]string)
	for _, entry := range strings.Split(raw, ",") {
		name, hash, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok || name == "" || hash == "" {
			continue
		}
		ops[name] = hash
	}
	return ops
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}
