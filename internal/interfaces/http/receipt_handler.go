package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/boxtrack/internal/application/dto"
	"github.com/jhoicas/boxtrack/internal/application/receipt"
)

// ReceiptHandler descarga comprobantes PDF de entrega.
type ReceiptHandler struct {
	uc *receipt.UseCase
}

// NewReceiptHandler construye el handler.
func NewReceiptHandler(uc *receipt.UseCase) *ReceiptHandler {
	return &ReceiptHandler{uc: uc}
}

// GetByItem godoc
// @Summary      Comprobante PDF de un item
// @Tags         receipts
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "Id del item"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/receipt [get]
func (h *ReceiptHandler) GetByItem(c *fiber.Ctx) error {
	return h.send(c, c.Params("id"))
}

// List godoc
// @Summary      Comprobantes PDF de varios items (una página por item)
// @Tags         receipts
// @Security     Bearer
// @Produce      application/pdf
// @Param        ids  query  string  true  "Ids separados por coma"
// @Success      200  {file}    binary
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/receipts [get]
func (h *ReceiptHandler) List(c *fiber.Ctx) error {
	var ids []string
	for _, id := range strings.Split(c.Query("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "ids requerido"})
	}
	return h.send(c, ids...)
}

func (h *ReceiptHandler) send(c *fiber.Ctx, ids ...string) error {
	pdf, filename, err := h.uc.Download(c.UserContext(), ids...)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(pdf)
}
