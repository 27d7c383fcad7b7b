package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/boxtrack/internal/application/auth"
	"github.com/jhoicas/boxtrack/internal/application/inventory"
	"github.com/jhoicas/boxtrack/internal/application/receipt"
	"github.com/jhoicas/boxtrack/internal/domain/entity"
	"github.com/jhoicas/boxtrack/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Store            *inventory.Store
	Receipts         *receipt.UseCase  // nil = sin comprobantes
	Auth             *auth.AuthUseCase // nil = sin login
	Handle           entity.DocumentHandle
	DefaultItemCount int
	JWTSecret        string // vacío = API abierta
	JWTIssuer        string
	Log              *logger.Logger
	Metrics          http.Handler // nil = sin /metrics
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	app.Use(RequestLogger(log.Component("http")))

	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	// Login (público); se registra antes del middleware del grupo.
	if deps.Auth != nil {
		authHandler := NewAuthHandler(deps.Auth)
		app.Post("/api/auth/login", authHandler.Login)
	}

	api := app.Group("/api")
	if deps.JWTSecret != "" {
		api.Use(AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	}

	// Items
	items := api.Group("/items")
	itemHandler := NewItemHandler(deps.Store, deps.Handle, deps.DefaultItemCount)
	items.Get("/", itemHandler.List)
	items.Post("/", itemHandler.Create)
	items.Get("/:id", itemHandler.Get)
	items.Delete("/:id", itemHandler.Delete)
	items.Post("/:id/checkout", itemHandler.CheckOut)
	items.Post("/:id/checkin", itemHandler.CheckIn)
	items.Post("/:id/missing", itemHandler.MarkMissing)
	items.Put("/:id/count", itemHandler.UpdateCount)

	// Sincronización
	syncGroup := api.Group("/sync")
	syncHandler := NewSyncHandler(deps.Store, deps.Handle)
	syncGroup.Post("/pull", syncHandler.Pull)
	syncGroup.Post("/push", syncHandler.Push)

	// Dashboard
	dashboardHandler := NewDashboardHandler(deps.Store)
	api.Get("/dashboard/summary", dashboardHandler.GetSummary)

	// Comprobantes
	if deps.Receipts != nil {
		receiptHandler := NewReceiptHandler(deps.Receipts)
		items.Get("/:id/receipt", receiptHandler.GetByItem)
		api.Get("/receipts", receiptHandler.List)
	}
}
