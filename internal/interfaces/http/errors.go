package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/boxtrack/internal/application/dto"
	"github.com/jhoicas/boxtrack/internal/domain"
)

// errorStatus traduce un error de dominio a código HTTP y código de error de la API.
// ErrVersionConflict va antes que ErrWrite porque un ConflictError cumple ambos.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrDuplicateID):
		return fiber.StatusConflict, "DUPLICATE_ID"
	case errors.Is(err, domain.ErrAlreadyCheckedOut):
		return fiber.StatusConflict, "ALREADY_CHECKED_OUT"
	case errors.Is(err, domain.ErrAlreadyCheckedIn):
		return fiber.StatusConflict, "ALREADY_CHECKED_IN"
	case errors.Is(err, domain.ErrMissingItem):
		return fiber.StatusConflict, "MISSING_ITEM"
	case errors.Is(err, domain.ErrEmptyItem):
		return fiber.StatusConflict, "EMPTY_ITEM"
	case errors.Is(err, domain.ErrBorrowerConflict):
		return fiber.StatusConflict, "BORROWER_CONFLICT"
	case errors.Is(err, domain.ErrInvalidCount):
		return fiber.StatusBadRequest, "INVALID_COUNT"
	case errors.Is(err, domain.ErrInvalidItem):
		return fiber.StatusBadRequest, "INVALID_ITEM"
	case errors.Is(err, domain.ErrVersionConflict):
		return fiber.StatusConflict, "VERSION_CONFLICT"
	case errors.Is(err, domain.ErrDecode):
		return fiber.StatusBadGateway, "REMOTE_DECODE"
	case errors.Is(err, domain.ErrRead):
		return fiber.StatusBadGateway, "REMOTE_READ"
	case errors.Is(err, domain.ErrWrite):
		return fiber.StatusBadGateway, "REMOTE_WRITE"
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

func writeError(c *fiber.Ctx, err error) error {
	status, code := errorStatus(err)
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

// writeSyncError responde a una mutación aplicada localmente cuya publicación falló.
// La mutación sigue en memoria hasta el próximo push exitoso o un pull.
func writeSyncError(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrVersionConflict) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "VERSION_CONFLICT",
			Message: "el documento remoto cambió; el cambio quedó solo en local, haga pull y repita: " + err.Error(),
		})
	}
	return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
		Code:    "SYNC_FAILED",
		Message: "el cambio quedó solo en local: " + err.Error(),
	})
}

func badBody(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: msg})
}
