package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/boxtrack/internal/application/dto"
	"github.com/jhoicas/boxtrack/internal/application/inventory"
	"github.com/jhoicas/boxtrack/internal/domain/entity"
)

// SyncHandler expone pull y push del documento remoto.
type SyncHandler struct {
	store  *inventory.Store
	handle entity.DocumentHandle
}

// NewSyncHandler construye el handler.
func NewSyncHandler(store *inventory.Store, handle entity.DocumentHandle) *SyncHandler {
	return &SyncHandler{store: store, handle: handle}
}

func (h *SyncHandler) respond(c *fiber.Ctx) error {
	return c.JSON(dto.SyncResponse{Version: h.store.Version(), Items: h.store.Len()})
}

// Pull godoc
// @Summary      Descartar el estado local y leer el documento remoto
// @Tags         sync
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SyncResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/sync/pull [post]
func (h *SyncHandler) Pull(c *fiber.Ctx) error {
	if err := h.store.Pull(c.UserContext(), h.handle); err != nil {
		return writeError(c, err)
	}
	return h.respond(c)
}

// Push godoc
// @Summary      Publicar el estado local
// @Description  Con force=true sobrescribe aunque el remoto haya cambiado; si no, aplica el modo de sincronización configurado.
// @Tags         sync
// @Security     Bearer
// @Produce      json
// @Param        force  query  bool  false  "último en escribir gana"
// @Success      200  {object}  dto.SyncResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/sync/push [post]
func (h *SyncHandler) Push(c *fiber.Ctx) error {
	ctx := syncContext(c)
	var err error
	if c.QueryBool("force") {
		err = h.store.Push(ctx, h.handle)
	} else {
		err = h.store.Sync(ctx, h.handle)
	}
	if err != nil {
		return writeError(c, err)
	}
	return h.respond(c)
}
