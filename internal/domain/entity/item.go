package entity

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// ItemStatus estado del ciclo de vida de un item (conjunto cerrado).
type ItemStatus string

// Estados posibles de un item.
const (
	StatusCheckedIn  ItemStatus = "checked-in"  // disponible en bodega
	StatusCheckedOut ItemStatus = "checked-out" // prestado a una persona
	StatusMissing    ItemStatus = "missing"     // perdido (estado final)
)

// Valid indica si s pertenece al conjunto cerrado de estados.
func (s ItemStatus) Valid() bool {
	switch s {
	case StatusCheckedIn, StatusCheckedOut, StatusMissing:
		return true
	}
	return false
}

// UnmarshalJSON rechaza estados desconocidos.
func (s *ItemStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	st := ItemStatus(raw)
	if !st.Valid() {
		return fmt.Errorf("estado desconocido %q", raw)
	}
	*s = st
	return nil
}

// TimestampLayout formato ISO-8601 con milisegundos usado al persistir lastModified.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Item representa una unidad física del inventario (ej. una caja de la campaña).
// Se identifica por la clave del mapa Inventory, no por un campo propio.
type Item struct {
	Status       ItemStatus
	InitialCount int
	CurrentCount int
	BorrowedBy   string // no vacío solo mientras Status == checked-out
	ReturnedBy   string // último portador registrado al devolver
	LastModified time.Time
}

// NewItem construye un item según la convención de creación: checked-in y completo.
func NewItem(count int) Item {
	return Item{
		Status:       StatusCheckedIn,
		InitialCount: count,
		CurrentCount: count,
	}
}

// Validate verifica los invariantes de estado y cantidades de un registro.
// La coherencia de borrowedBy la garantizan las operaciones del store; documentos
// antiguos pueden traer un portador en items perdidos y se aceptan al leer.
func (it Item) Validate() error {
	if !it.Status.Valid() {
		return fmt.Errorf("estado desconocido %q", it.Status)
	}
	if it.InitialCount < 1 {
		return fmt.Errorf("initialCount debe ser >= 1 (es %d)", it.InitialCount)
	}
	if it.CurrentCount < 0 || it.CurrentCount > it.InitialCount {
		return fmt.Errorf("currentCount %d fuera de rango [0, %d]", it.CurrentCount, it.InitialCount)
	}
	return nil
}

// Consumed cantidad consumida desde la creación.
func (it Item) Consumed() int { return it.InitialCount - it.CurrentCount }

// Etiquetas de presentación de un item devuelto.
const (
	LabelCompleted  = "completed"
	LabelIncomplete = "incomplete"
)

// Label etiqueta visible del estado: un item devuelto vacío está "completed" y uno
// devuelto con consumo parcial "incomplete"; en otro caso, el estado.
func (it Item) Label() string {
	if it.Status == StatusCheckedIn {
		switch {
		case it.CurrentCount <= 0:
			return LabelCompleted
		case it.CurrentCount < it.InitialCount:
			return LabelIncomplete
		}
	}
	return string(it.Status)
}

// Holder última persona asociada al item: quien lo devolvió o, si no, quien lo tiene.
func (it Item) Holder() string {
	if it.ReturnedBy != "" {
		return it.ReturnedBy
	}
	return it.BorrowedBy
}

// itemWire forma persistida del item. borrowedBy/returnedBy se escriben como null cuando están vacíos.
type itemWire struct {
	Status       ItemStatus `json:"status"`
	BorrowedBy   *string    `json:"borrowedBy"`
	ReturnedBy   *string    `json:"returnedBy,omitempty"`
	InitialCount int        `json:"initialCount"`
	CurrentCount int        `json:"currentCount"`
	LastModified string     `json:"lastModified"`
}

// MarshalJSON escribe el registro con el formato del documento remoto.
func (it Item) MarshalJSON() ([]byte, error) {
	w := itemWire{
		Status:       it.Status,
		BorrowedBy:   nullable(it.BorrowedBy),
		ReturnedBy:   nullable(it.ReturnedBy),
		InitialCount: it.InitialCount,
		CurrentCount: it.CurrentCount,
	}
	if !it.LastModified.IsZero() {
		w.LastModified = it.LastModified.UTC().Format(TimestampLayout)
	}
	return json.Marshal(w)
}

// UnmarshalJSON lee el registro; null y "" equivalen a vacío.
func (it *Item) UnmarshalJSON(data []byte) error {
	var w itemWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var ts time.Time
	if w.LastModified != "" {
		parsed, err := time.Parse(time.RFC3339Nano, w.LastModified)
		if err != nil {
			return fmt.Errorf("lastModified: %w", err)
		}
		ts = parsed.UTC()
	}
	*it = Item{
		Status:       w.Status,
		InitialCount: w.InitialCount,
		CurrentCount: w.CurrentCount,
		BorrowedBy:   deref(w.BorrowedBy),
		ReturnedBy:   deref(w.ReturnedBy),
		LastModified: ts,
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Inventory es el documento completo: id del item -> registro.
// Este mapa ES todo el estado persistido; no hay índices ni bitácora.
type Inventory map[string]Item

// Clone devuelve una copia independiente (Item no contiene referencias).
func (inv Inventory) Clone() Inventory {
	out := make(Inventory, len(inv))
	for id, it := range inv {
		out[id] = it
	}
	return out
}

// IDs devuelve los ids ordenados.
func (inv Inventory) IDs() []string {
	ids := make([]string, 0, len(inv))
	for id := range inv {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validate verifica los invariantes de todos los registros (en orden de id para errores estables).
func (inv Inventory) Validate() error {
	for _, id := range inv.IDs() {
		if id == "" {
			return fmt.Errorf("id vacío")
		}
		if err := inv[id].Validate(); err != nil {
			return fmt.Errorf("item %q: %w", id, err)
		}
	}
	return nil
}

// DocumentHandle identifica el recurso remoto junto con la credencial y cabeceras
// necesarias para leerlo y escribirlo. No tiene estado mutable.
type DocumentHandle struct {
	Resource string            // URL (GitHub), clave de objeto (S3) o clave en memoria
	Token    string            // credencial bearer
	Headers  map[string]string // cabeceras adicionales
}

// WithToken devuelve una copia del handle con otra credencial.
func (h DocumentHandle) WithToken(token string) DocumentHandle {
	out := h
	out.Token = token
	if h.Headers != nil {
		out.Headers = make(map[string]string, len(h.Headers))
		for k, v := range h.Headers {
			out.Headers[k] = v
		}
	}
	return out
}
