package dto

import (
	"github.com/jhoicas/boxtrack/internal/application/inventory"
	"github.com/jhoicas/boxtrack/internal/domain/entity"
)

// ItemDTO item en respuestas de la API.
type ItemDTO struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Label        string `json:"label"` // completed / incomplete / estado
	BorrowedBy   string `json:"borrowed_by,omitempty"`
	ReturnedBy   string `json:"returned_by,omitempty"`
	InitialCount int    `json:"initial_count"`
	CurrentCount int    `json:"current_count"`
	LastModified string `json:"last_modified,omitempty"`
}

// NewItemDTO convierte un registro del inventario.
func NewItemDTO(id string, it entity.Item) ItemDTO {
	out := ItemDTO{
		ID:           id,
		Status:       string(it.Status),
		Label:        it.Label(),
		BorrowedBy:   it.BorrowedBy,
		ReturnedBy:   it.ReturnedBy,
		InitialCount: it.InitialCount,
		CurrentCount: it.CurrentCount,
	}
	if !it.LastModified.IsZero() {
		out.LastModified = it.LastModified.UTC().Format(entity.TimestampLayout)
	}
	return out
}

// NewItemDTOs convierte una lista de registros.
func NewItemDTOs(records []inventory.Record) []ItemDTO {
	out := make([]ItemDTO, 0, len(records))
	for _, r := range records {
		out = append(out, NewItemDTO(r.ID, r.Item))
	}
	return out
}

// ItemListResponse respuesta de GET /api/items.
type ItemListResponse struct {
	Items   []ItemDTO    `json:"items"`
	Page    PageResponse `json:"page"`
	Version string       `json:"version,omitempty"`
}

// ItemListQuery parámetros de GET /api/items.
type ItemListQuery struct {
	PageRequest
	Q      string `query:"q"`      // búsqueda por id o portador
	Filter string `query:"filter"` // expresión, ej. status == "checked-out"
}

// CreateItemRequest body para POST /api/items. Count cero usa la cantidad por defecto.
type CreateItemRequest struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

// CheckOutRequest body para POST /api/items/:id/checkout.
type CheckOutRequest struct {
	Borrower string `json:"borrower"`
}

// CountRequest body para check-in y corrección de cantidad.
type CountRequest struct {
	Count *int `json:"count"`
}

// SyncResponse resultado de pull/push.
type SyncResponse struct {
	Version string `json:"version"`
	Items   int    `json:"items"`
}
