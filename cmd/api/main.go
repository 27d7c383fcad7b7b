package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/boxtrack/internal/application/auth"
	"github.com/jhoicas/boxtrack/internal/application/receipt"
	"github.com/jhoicas/boxtrack/internal/infrastructure/docstore"
	infrapdf "github.com/jhoicas/boxtrack/internal/infrastructure/pdf"
	httpRouter "github.com/jhoicas/boxtrack/internal/interfaces/http"
	"github.com/jhoicas/boxtrack/pkg/config"
	"github.com/jhoicas/boxtrack/pkg/credential"
	"github.com/jhoicas/boxtrack/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("arranque de la aplicación")
	}
}

// run devuelve los errores de arranque en lugar de terminar el proceso para que
// los defer (cierre del backend) se ejecuten siempre.
func run(cfg *config.Config, log *logger.Logger) error {
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("driver", cfg.Remote.Driver).
		Str("sync", cfg.Sync.Mode).
		Msg("iniciando aplicación")

	creds, err := credential.New(cfg.App.CredentialsFile)
	if err != nil {
		return fmt.Errorf("almacén de credenciales: %w", err)
	}
	token, err := creds.Resolve(cfg.Remote.Token)
	if err != nil {
		return fmt.Errorf("leer credencial guardada: %w", err)
	}
	if token == "" && cfg.Remote.Driver == config.DriverGitHub {
		log.Warn().Str("path", creds.Path()).Msg("sin credencial: REMOTE_TOKEN vacío y nada guardado")
	}

	svc, err := bootstrap(context.Background(), cfg, log, token, docstore.OpenBackend)
	if err != nil {
		return err
	}
	defer svc.close()
	store, handle, recorder := svc.store, svc.handle, svc.recorder

	receiptUC, err := receipt.NewUseCase(store, infrapdf.NewReceiptGenerator(), cfg.Receipt.Title, cfg.Receipt.UnitPrice)
	if err != nil {
		return fmt.Errorf("comprobantes: %w", err)
	}

	var authUC *auth.AuthUseCase
	if cfg.HTTP.JWTSecret != "" {
		authUC = auth.NewAuthUseCase(cfg.HTTP.Operators, auth.JWTConfig{
			Secret:     cfg.HTTP.JWTSecret,
			ExpMinutes: cfg.HTTP.JWTExpMinutes,
			Issuer:     cfg.HTTP.JWTIssuer,
		})
	} else {
		log.Warn().Msg("HTTP_JWT_SECRET vacío: API abierta sin autenticación")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.Remote.Timeout + 10*time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Boxtrack API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": cfg.App.Name,
			"items":   store.Len(),
			"version": store.Version(),
		})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Store:            store,
		Receipts:         receiptUC,
		Auth:             authUC,
		Handle:           handle,
		DefaultItemCount: cfg.App.DefaultItemCount,
		JWTSecret:        cfg.HTTP.JWTSecret,
		JWTIssuer:        cfg.HTTP.JWTIssuer,
		Log:              log,
		Metrics:          recorder.Handler(),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
	return nil
}
