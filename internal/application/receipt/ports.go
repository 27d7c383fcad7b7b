package receipt

import (
	"context"

	"github.com/jhoicas/boxtrack/internal/domain/entity"
)

// ItemSource lectura de items; la implementa *inventory.Store.
type ItemSource interface {
	Get(id string) (entity.Item, error)
}

// Generator renderiza comprobantes como PDF, uno por página.
type Generator interface {
	GenerateReceiptsPDF(ctx context.Context, receipts []Receipt) ([]byte, error)
}
