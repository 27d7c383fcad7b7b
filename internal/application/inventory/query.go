package inventory

import (
	"fmt"
	"strings"

	exprlang "github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"golang.org/x/text/cases"

	"github.com/jhoicas/boxtrack/internal/domain/entity"
)

// Record item junto con su id, para listados.
type Record struct {
	ID   string
	Item entity.Item
}

// Search devuelve, ordenados por id, los items cuyo id o portador contienen query
// sin distinguir mayúsculas. Query vacía devuelve todo.
func (s *Store) Search(query string) []Record {
	folder := cases.Fold()
	needle := folder.String(strings.TrimSpace(query))

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, 0, len(s.items))
	for _, id := range s.items.IDs() {
		it := s.items[id]
		if needle == "" ||
			strings.Contains(folder.String(id), needle) ||
			strings.Contains(folder.String(it.BorrowedBy), needle) {
			out = append(out, Record{ID: id, Item: it})
		}
	}
	return out
}

// ItemFilter expresión booleana compilada sobre los campos de un item.
// Variables: id, status, borrowedBy, returnedBy, initialCount, currentCount, consumed.
type ItemFilter struct {
	source  string
	program *vm.Program
}

// CompileFilter compila source; ej. `status == "checked-in" && currentCount < initialCount`.
func CompileFilter(source string) (*ItemFilter, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("filtro vacío")
	}
	program, err := exprlang.Compile(source, exprlang.Env(filterEnv("", entity.Item{})), exprlang.AsBool())
	if err != nil {
		return nil, fmt.Errorf("filtro %q: %w", source, err)
	}
	return &ItemFilter{source: source, program: program}, nil
}

// Match evalúa el filtro sobre un item.
func (f *ItemFilter) Match(id string, it entity.Item) (bool, error) {
	out, err := exprlang.Run(f.program, filterEnv(id, it))
	if err != nil {
		return false, fmt.Errorf("filtro %q sobre %q: %w", f.source, id, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

func filterEnv(id string, it entity.Item) map[string]any {
	return map[string]any{
		"id":           id,
		"status":       string(it.Status),
		"borrowedBy":   it.BorrowedBy,
		"returnedBy":   it.ReturnedBy,
		"initialCount": it.InitialCount,
		"currentCount": it.CurrentCount,
		"consumed":     it.Consumed(),
	}
}

// Filter devuelve, ordenados por id, los items que cumplen la expresión.
func (s *Store) Filter(source string) ([]Record, error) {
	f, err := CompileFilter(source)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Record
	for _, id := range s.items.IDs() {
		it := s.items[id]
		ok, err := f.Match(id, it)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, Record{ID: id, Item: it})
		}
	}
	return out, nil
}
