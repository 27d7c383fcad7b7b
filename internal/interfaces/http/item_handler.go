package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/boxtrack/internal/application/dto"
	"github.com/jhoicas/boxtrack/internal/application/inventory"
	"github.com/jhoicas/boxtrack/internal/domain/entity"
	"github.com/jhoicas/boxtrack/internal/infrastructure/docstore"
)

// ItemHandler maneja las peticiones HTTP sobre items. Cada mutación se aplica en el Store
// y luego se publica; si la publicación falla la mutación queda aplicada en local.
type ItemHandler struct {
	store        *inventory.Store
	handle       entity.DocumentHandle
	defaultCount int
}

// NewItemHandler construye el handler.
func NewItemHandler(store *inventory.Store, handle entity.DocumentHandle, defaultCount int) *ItemHandler {
	return &ItemHandler{store: store, handle: handle, defaultCount: defaultCount}
}

// syncContext contexto de la escritura remota con el operador de la petición.
func syncContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if op := GetOperator(c); op != "" {
		ctx = docstore.WithOperator(ctx, op)
	}
	return ctx
}

// respondSynced publica el estado y responde con el item id.
func (h *ItemHandler) respondSynced(c *fiber.Ctx, status int, id string) error {
	if err := h.store.Sync(syncContext(c), h.handle); err != nil {
		return writeSyncError(c, err)
	}
	it, err := h.store.Get(id)
	if err != nil {
		return c.SendStatus(status)
	}
	return c.Status(status).JSON(dto.NewItemDTO(id, it))
}

// List godoc
// @Summary      Listar items
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        q       query  string  false  "Búsqueda por id o portador (sin distinguir mayúsculas)"
// @Param        filter  query  string  false  "Expresión booleana, ej. status == \"checked-out\""
// @Param        limit   query  int     false  "Tamaño de página (50 por defecto)"
// @Param        offset  query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.ItemListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/items [get]
func (h *ItemHandler) List(c *fiber.Ctx) error {
	var q dto.ItemListQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}

	records := h.store.Search(q.Q)
	if q.Filter != "" {
		f, err := inventory.CompileFilter(q.Filter)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_FILTER", Message: err.Error()})
		}
		kept := records[:0]
		for _, r := range records {
			ok, err := f.Match(r.ID, r.Item)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_FILTER", Message: err.Error()})
			}
			if ok {
				kept = append(kept, r)
			}
		}
		records = kept
	}

	page, meta := dto.Paginate(records, q.PageRequest)
	return c.JSON(dto.ItemListResponse{
		Items:   dto.NewItemDTOs(page),
		Page:    meta,
		Version: h.store.Version(),
	})
}

// Get godoc
// @Summary      Obtener item
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "Id del item"
// @Success      200  {object}  dto.ItemDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id} [get]
func (h *ItemHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	it, err := h.store.Get(id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewItemDTO(id, it))
}

// Create godoc
// @Summary      Crear item
// @Description  Crea el item en estado checked-in con currentCount = initialCount y publica el documento.
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateItemRequest  true  "id y cantidad inicial"
// @Success      201  {object}  dto.ItemDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/items [post]
func (h *ItemHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, "cuerpo inválido")
	}
	count := in.Count
	if count == 0 {
		count = h.defaultCount
	}
	if err := h.store.Create(in.ID, entity.NewItem(count)); err != nil {
		return writeError(c, err)
	}
	return h.respondSynced(c, fiber.StatusCreated, in.ID)
}

// Delete godoc
// @Summary      Eliminar item
// @Tags         items
// @Security     Bearer
// @Param        id   path  string  true  "Id del item"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/items/{id} [delete]
func (h *ItemHandler) Delete(c *fiber.Ctx) error {
	if err := h.store.Delete(c.Params("id")); err != nil {
		return writeError(c, err)
	}
	if err := h.store.Sync(syncContext(c), h.handle); err != nil {
		return writeSyncError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CheckOut godoc
// @Summary      Prestar item
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "Id del item"
// @Param        body  body  dto.CheckOutRequest  true  "portador"
// @Success      200  {object}  dto.ItemDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/checkout [post]
func (h *ItemHandler) CheckOut(c *fiber.Ctx) error {
	var in dto.CheckOutRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, "cuerpo inválido")
	}
	id := c.Params("id")
	if err := h.store.CheckOut(id, in.Borrower); err != nil {
		return writeError(c, err)
	}
	return h.respondSynced(c, fiber.StatusOK, id)
}

// CheckIn godoc
// @Summary      Devolver item
// @Description  count es la cantidad que queda en el item; no puede superar la actual.
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string            true  "Id del item"
// @Param        body  body  dto.CountRequest  true  "cantidad restante"
// @Success      200  {object}  dto.ItemDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/checkin [post]
func (h *ItemHandler) CheckIn(c *fiber.Ctx) error {
	var in dto.CountRequest
	if err := c.BodyParser(&in); err != nil || in.Count == nil {
		return badBody(c, "count requerido")
	}
	id := c.Params("id")
	if err := h.store.CheckIn(id, *in.Count); err != nil {
		return writeError(c, err)
	}
	return h.respondSynced(c, fiber.StatusOK, id)
}

// MarkMissing godoc
// @Summary      Marcar item como perdido
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "Id del item"
// @Success      200  {object}  dto.ItemDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/missing [post]
func (h *ItemHandler) MarkMissing(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.store.MarkMissing(id); err != nil {
		return writeError(c, err)
	}
	return h.respondSynced(c, fiber.StatusOK, id)
}

// UpdateCount godoc
// @Summary      Corregir cantidad
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string            true  "Id del item"
// @Param        body  body  dto.CountRequest  true  "cantidad entre 0 e initialCount"
// @Success      200  {object}  dto.ItemDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/count [put]
func (h *ItemHandler) UpdateCount(c *fiber.Ctx) error {
	var in dto.CountRequest
	if err := c.BodyParser(&in); err != nil || in.Count == nil {
		return badBody(c, "count requerido")
	}
	id := c.Params("id")
	if err := h.store.UpdateCount(id, *in.Count); err != nil {
		return writeError(c, err)
	}
	return h.respondSynced(c, fiber.StatusOK, id)
}
