// Package pdf implementa la representación impresa de los comprobantes de devolución.
//
// Layout de cada página A5 (un comprobante por página):
//
//	┌───────────────────────────────────────────┐
//	│  TÍTULO de la organización (recuadro)      │
//	│  Item <id>                      <estado>   │
//	│  ───────────────────────────────────────  │
//	│  Returned By     │ persona                 │
//	│  Returned On     │ fecha                   │
//	│  Initial Balance │ $                       │
//	│  Paid            │ $                       │
//	│  Current Balance │ $                       │
//	└───────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/page"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/boxtrack/internal/application/receipt"
	"github.com/jhoicas/boxtrack/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWarning = &props.Color{Red: 191, Green: 120, Blue: 0}
	colorError   = &props.Color{Red: 190, Green: 30, Blue: 45}
	colorSuccess = &props.Color{Red: 20, Green: 130, Blue: 60}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// ReceiptGenerator implementa receipt.Generator usando Maroto v2.
type ReceiptGenerator struct{}

var _ receipt.Generator = (*ReceiptGenerator)(nil)

// NewReceiptGenerator construye el generador.
func NewReceiptGenerator() *ReceiptGenerator { return &ReceiptGenerator{} }

// GenerateReceiptsPDF genera el PDF y devuelve sus bytes.
func (g *ReceiptGenerator) GenerateReceiptsPDF(_ context.Context, receipts []receipt.Receipt) ([]byte, error) {
	if len(receipts) == 0 {
		return nil, fmt.Errorf("pdf: sin comprobantes")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A5).
		WithLeftMargin(12).WithRightMargin(12).
		WithTopMargin(12).WithBottomMargin(12).
		WithDefaultFont(&props.Font{Family: "courier", Size: 10}).
		WithTitle("Comprobantes de devolución", true).
		WithAuthor(receipts[0].Title, true).
		Build()

	m := maroto.New(cfg)
	for _, r := range receipts {
		p := page.New()
		p.Add(titleRow(r.Title))
		p.Add(row.New(3))
		p.Add(itemRow(r))
		p.Add(line.NewRow(2, props.Line{Color: colorGray, Thickness: 0.3}))
		p.Add(detailRows(r)...)
		m.AddPages(p)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func titleRow(title string) core.Row {
	return row.New(12).Add(
		col.New(12).Add(text.New(title, props.Text{
			Style: fontstyle.Bold, Size: 11, Align: align.Center,
			Color: colorPrimary, Top: 3,
		})),
	).WithStyle(&props.Cell{BorderType: border.Full, BorderColor: colorPrimary, BorderThickness: 0.4})
}

func itemRow(r receipt.Receipt) core.Row {
	return row.New(9).Add(
		col.New(7).Add(text.New("Box "+r.ItemID, props.Text{
			Style: fontstyle.Bold, Size: 11, Top: 2,
		})),
		col.New(5).Add(text.New(r.StatusLabel, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: labelColor(r.StatusLabel), Top: 2,
		})),
	)
}

func detailRows(r receipt.Receipt) []core.Row {
	returnedOn := "-"
	if !r.ReturnedOn.IsZero() {
		returnedOn = r.ReturnedOn.UTC().Format("2006-01-02 15:04 UTC")
	}
	pair := func(label, value string) core.Row {
		return row.New(7).Add(
			col.New(5).Add(text.New(label, props.Text{Size: 9, Top: 1, Color: colorGray})),
			col.New(7).Add(text.New(value, props.Text{Size: 10, Top: 1, Align: align.Right})),
		)
	}
	return []core.Row{
		pair("Returned By", nonEmpty(r.ReturnedBy, "-")),
		pair("Returned On", returnedOn),
		pair("Initial Balance", formatMoney(r.InitialBalance)),
		pair("Paid", formatMoney(r.Paid)),
		pair("Current Balance", formatMoney(r.CurrentBalance)),
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func labelColor(label string) *props.Color {
	switch label {
	case string(entity.StatusMissing):
		return colorError
	case entity.LabelIncomplete, string(entity.StatusCheckedOut):
		return colorWarning
	case string(entity.StatusCheckedIn):
		return colorSuccess
	}
	return colorPrimary
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney formatea con dos decimales y comas de miles.
// Ej: 1234.5 → "$1,234.50", -3 → "-$3.00"
func formatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c)
	}
	return sign + "$" + string(buf) + "." + frac
}
