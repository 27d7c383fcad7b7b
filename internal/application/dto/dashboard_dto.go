package dto

import "github.com/jhoicas/boxtrack/internal/application/inventory"

// DashboardSummaryDTO respuesta de GET /api/dashboard/summary.
// Items son cajas; Units son unidades (barras) dentro de ellas.
type DashboardSummaryDTO struct {
	Sold       TallyDTO  `json:"sold"`
	CheckedIn  TallyDTO  `json:"checked_in"`
	CheckedOut TallyDTO  `json:"checked_out"`
	Missing    TallyDTO  `json:"missing"`
	Total      TallyDTO  `json:"total"`
	Attention  []ItemDTO `json:"attention"` // prestados o devueltos con consumo parcial
	Version    string    `json:"version,omitempty"`
}

// TallyDTO cajas y unidades de una categoría.
type TallyDTO struct {
	Items int `json:"items"`
	Units int `json:"units"`
}

// NewDashboardSummaryDTO convierte el resumen del Store.
func NewDashboardSummaryDTO(s inventory.Summary, version string) DashboardSummaryDTO {
	tally := func(t inventory.Tally) TallyDTO { return TallyDTO{Items: t.Items, Units: t.Units} }
	return DashboardSummaryDTO{
		Sold:       tally(s.Sold),
		CheckedIn:  tally(s.CheckedIn),
		CheckedOut: tally(s.CheckedOut),
		Missing:    tally(s.Missing),
		Total:      tally(s.Total),
		Attention:  NewItemDTOs(s.Attention),
		Version:    version,
	}
}
