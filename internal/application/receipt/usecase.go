// Package receipt arma los comprobantes de devolución de items y los entrega en PDF.
package receipt

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/boxtrack/internal/domain"
	"github.com/jhoicas/boxtrack/internal/domain/entity"
)

// Receipt datos de un comprobante. Los saldos son cantidades por precio unitario.
type Receipt struct {
	Title          string
	ItemID         string
	StatusLabel    string
	ReturnedBy     string
	ReturnedOn     time.Time
	InitialCount   int
	CurrentCount   int
	UnitPrice      decimal.Decimal
	InitialBalance decimal.Decimal
	Paid           decimal.Decimal
	CurrentBalance decimal.Decimal
}

// Build calcula el comprobante de un item.
func Build(title string, unitPrice decimal.Decimal, id string, it entity.Item) Receipt {
	return Receipt{
		Title:          title,
		ItemID:         id,
		StatusLabel:    it.Label(),
		ReturnedBy:     it.Holder(),
		ReturnedOn:     it.LastModified,
		InitialCount:   it.InitialCount,
		CurrentCount:   it.CurrentCount,
		UnitPrice:      unitPrice,
		InitialBalance: unitPrice.Mul(decimal.NewFromInt(int64(it.InitialCount))),
		Paid:           unitPrice.Mul(decimal.NewFromInt(int64(it.Consumed()))),
		CurrentBalance: unitPrice.Mul(decimal.NewFromInt(int64(it.CurrentCount))),
	}
}

// UseCase genera comprobantes PDF desde el estado local del inventario.
type UseCase struct {
	items     ItemSource
	generator Generator
	title     string
	unitPrice decimal.Decimal
}

// NewUseCase construye el caso de uso. unitPrice es decimal en texto (ej. "1.00").
func NewUseCase(items ItemSource, generator Generator, title, unitPrice string) (*UseCase, error) {
	price, err := decimal.NewFromString(unitPrice)
	if err != nil {
		return nil, fmt.Errorf("receipt: precio unitario %q: %w", unitPrice, err)
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("receipt: precio unitario negativo %s", price)
	}
	return &UseCase{items: items, generator: generator, title: title, unitPrice: price}, nil
}

// Receipt devuelve los datos del comprobante de id.
func (uc *UseCase) Receipt(id string) (Receipt, error) {
	it, err := uc.items.Get(id)
	if err != nil {
		return Receipt{}, err
	}
	return Build(uc.title, uc.unitPrice, id, it), nil
}

// Download genera el PDF con un comprobante por id, en el orden recibido.
//
// Retorna:
//   - (pdfBytes, filename, nil) si todo sale bien.
//   - domain.ErrNotFound        si algún id no existe.
//   - domain.ErrInvalidItem     si no se pidió ningún id.
func (uc *UseCase) Download(ctx context.Context, ids ...string) (pdfBytes []byte, filename string, err error) {
	if len(ids) == 0 {
		return nil, "", fmt.Errorf("%w: sin items para el comprobante", domain.ErrInvalidItem)
	}
	receipts := make([]Receipt, 0, len(ids))
	for _, id := range ids {
		r, err := uc.Receipt(id)
		if err != nil {
			return nil, "", err
		}
		receipts = append(receipts, r)
	}

	pdfBytes, err = uc.generator.GenerateReceiptsPDF(ctx, receipts)
	if err != nil {
		return nil, "", fmt.Errorf("receipt: generación fallida: %w", err)
	}

	filename = fmt.Sprintf("comprobante_%s.pdf", ids[0])
	if len(ids) > 1 {
		filename = fmt.Sprintf("comprobantes_%d.pdf", len(ids))
	}
	return pdfBytes, filename, nil
}
