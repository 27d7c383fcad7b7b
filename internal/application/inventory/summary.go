package inventory

import "github.com/jhoicas/boxtrack/internal/domain/entity"

// Tally cantidad de items (cajas) y de unidades (barras) en una categoría.
type Tally struct {
	Items int
	Units int
}

// Summary contadores del tablero.
type Summary struct {
	Sold       Tally // devueltos vacíos; Units = unidades consumidas de todo el inventario
	CheckedIn  Tally // disponibles con unidades restantes
	CheckedOut Tally
	Missing    Tally
	Total      Tally // Units = suma de initialCount

	// Attention items prestados o devueltos con consumo parcial, ordenados por id.
	Attention []Record
}

// Summary calcula los contadores del tablero sobre el estado local.
func (s *Store) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum Summary
	for _, id := range s.items.IDs() {
		it := s.items[id]
		sum.Total.Items++
		sum.Total.Units += it.InitialCount
		sum.Sold.Units += it.Consumed()

		switch it.Status {
		case entity.StatusCheckedIn:
			if it.CurrentCount == 0 {
				sum.Sold.Items++
			} else {
				sum.CheckedIn.Items++
				sum.CheckedIn.Units += it.CurrentCount
			}
			if it.CurrentCount > 0 && it.CurrentCount < it.InitialCount {
				sum.Attention = append(sum.Attention, Record{ID: id, Item: it})
			}
		case entity.StatusCheckedOut:
			sum.CheckedOut.Items++
			sum.CheckedOut.Units += it.CurrentCount
			sum.Attention = append(sum.Attention, Record{ID: id, Item: it})
		case entity.StatusMissing:
			sum.Missing.Items++
			sum.Missing.Units += it.CurrentCount
		}
	}
	return sum
}
