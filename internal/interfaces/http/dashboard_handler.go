package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/boxtrack/internal/application/dto"
	"github.com/jhoicas/boxtrack/internal/application/inventory"
)

// DashboardHandler maneja los endpoints del tablero.
type DashboardHandler struct {
	store *inventory.Store
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(store *inventory.Store) *DashboardHandler {
	return &DashboardHandler{store: store}
}

// GetSummary devuelve los totales de cajas y unidades por estado.
// GET /api/dashboard/summary
//
// Respuesta: DashboardSummaryDTO (sold, checked_in, checked_out, missing, total,
// attention). Se calcula sobre el estado local; no consulta el remoto.
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	return c.JSON(dto.NewDashboardSummaryDTO(h.store.Summary(), h.store.Version()))
}
