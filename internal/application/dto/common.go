package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// DefaultPage aplica valores por defecto y límites.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Limit > 500 {
		p.Limit = 500
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// Paginate recorta items según la página y devuelve los metadatos.
func Paginate[T any](items []T, p PageRequest) ([]T, PageResponse) {
	p.DefaultPage()
	total := len(items)
	start := min(p.Offset, total)
	end := min(start+p.Limit, total)
	return items[start:end], PageResponse{Limit: p.Limit, Offset: p.Offset, Total: total}
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
