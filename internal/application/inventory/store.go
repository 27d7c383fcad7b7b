package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/boxtrack/internal/domain"
	"github.com/jhoicas/boxtrack/internal/domain/entity"
	"github.com/jhoicas/boxtrack/pkg/logger"
)

// Store es la vista autoritativa en memoria del documento de inventario.
// Toda lectura pasa por los accesores y toda mutación por las operaciones validadas;
// cada operación aplica el registro completo o falla con un único error sin tocar el estado.
//
// La validación se hace contra la última copia obtenida con Pull. El Store no garantiza
// que esa copia siga vigente: Push sobrescribe el documento completo (último en escribir gana)
// y PushIfUnchanged es la variante que rechaza si otro cliente escribió entretanto.
type Store struct {
	mu        sync.Mutex
	items     entity.Inventory
	borrowers map[string]map[string]struct{} // portador -> ids con borrowedBy = portador
	version   string                         // token de la última lectura o escritura exitosa

	client  DocumentClient
	now     func() time.Time
	log     *logger.Logger
	metrics MetricsRecorder
	strict  bool
}

// Option configura el Store.
type Option func(*Store)

// WithClock reemplaza el reloj que sella lastModified.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger asigna el logger del Store.
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics asigna el receptor de métricas de las operaciones remotas.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Store) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithStrictSync hace que Sync use PushIfUnchanged en lugar de Push.
func WithStrictSync(strict bool) Option {
	return func(s *Store) { s.strict = strict }
}

// NewStore crea un Store vacío sobre el cliente del documento.
func NewStore(client DocumentClient, opts ...Option) *Store {
	s := &Store{
		items:     entity.Inventory{},
		borrowers: make(map[string]map[string]struct{}),
		client:    client,
		now:       time.Now,
		log:       logger.Nop(),
		metrics:   noopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ── Accesores ─────────────────────────────────────────────────────────────────

// Get devuelve una copia del registro.
func (s *Store) Get(id string) (entity.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return entity.Item{}, fmt.Errorf("item %q: %w", id, domain.ErrNotFound)
	}
	return it, nil
}

// Items devuelve una copia del inventario completo.
func (s *Store) Items() entity.Inventory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Clone()
}

// IDs devuelve los ids ordenados.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.IDs()
}

// Len número de items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Version token de la última sincronización exitosa ("" si nunca se sincronizó).
func (s *Store) Version() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Holder devuelve el item que tiene asignado borrower, si lo hay.
func (s *Store) Holder(borrower string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.holderLocked(borrower)
}

// ── Mutaciones ────────────────────────────────────────────────────────────────

// Create inserta item tal cual (la convención es checked-in con currentCount = initialCount)
// y sella lastModified.
func (s *Store) Create(id string, item entity.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		return s.reject("create", id, fmt.Errorf("%w: id vacío", domain.ErrInvalidItem))
	}
	if _, exists := s.items[id]; exists {
		return s.reject("create", id, domain.ErrDuplicateID)
	}
	if err := item.Validate(); err != nil {
		return s.reject("create", id, fmt.Errorf("%w: %v", domain.ErrInvalidItem, err))
	}
	if item.BorrowedBy != "" {
		if item.Status != entity.StatusCheckedOut {
			return s.reject("create", id, fmt.Errorf("%w: borrowedBy solo aplica a items prestados", domain.ErrInvalidItem))
		}
		if holder, ok := s.holderLocked(item.BorrowedBy); ok {
			return s.reject("create", id, fmt.Errorf("%w: %q ya tiene %q", domain.ErrBorrowerConflict, item.BorrowedBy, holder))
		}
	}

	item.LastModified = s.stamp()
	s.commit(id, item)
	s.log.Debug().Str("op", "create").Str("item", id).Int("count", item.InitialCount).Msg("item creado")
	return nil
}

// Delete elimina el registro sin revisar su estado.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return s.reject("delete", id, domain.ErrNotFound)
	}
	s.unindex(id, it.BorrowedBy)
	delete(s.items, id)
	s.log.Debug().Str("op", "delete").Str("item", id).Str("status", string(it.Status)).Msg("item eliminado")
	return nil
}

// CheckOut presta el item a borrower. Un portador solo puede tener un item a la vez.
func (s *Store) CheckOut(id, borrower string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return s.reject("checkout", id, domain.ErrNotFound)
	}
	switch {
	case it.Status == entity.StatusCheckedOut:
		return s.reject("checkout", id, domain.ErrAlreadyCheckedOut)
	case it.Status == entity.StatusMissing:
		return s.reject("checkout", id, domain.ErrMissingItem)
	case it.CurrentCount <= 0:
		return s.reject("checkout", id, domain.ErrEmptyItem)
	}
	if borrower == "" {
		return s.reject("checkout", id, fmt.Errorf("%w: portador vacío", domain.ErrInvalidItem))
	}
	if holder, held := s.holderLocked(borrower); held {
		return s.reject("checkout", id, fmt.Errorf("%w: %q ya tiene %q", domain.ErrBorrowerConflict, borrower, holder))
	}

	it.Status = entity.StatusCheckedOut
	it.BorrowedBy = borrower
	it.LastModified = s.stamp()
	s.commit(id, it)
	s.log.Debug().Str("op", "checkout").Str("item", id).Str("borrower", borrower).Msg("item prestado")
	return nil
}

// CheckIn devuelve el item con newCount unidades restantes. Solo puede reducir o mantener la cantidad.
func (s *Store) CheckIn(id string, newCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return s.reject("checkin", id, domain.ErrNotFound)
	}
	if newCount > it.CurrentCount || newCount < 0 {
		return s.reject("checkin", id, fmt.Errorf("%w: %d fuera de [0, %d]", domain.ErrInvalidCount, newCount, it.CurrentCount))
	}
	switch it.Status {
	case entity.StatusCheckedIn:
		return s.reject("checkin", id, domain.ErrAlreadyCheckedIn)
	case entity.StatusMissing:
		return s.reject("checkin", id, domain.ErrMissingItem)
	}

	s.unindex(id, it.BorrowedBy)
	if it.BorrowedBy != "" {
		it.ReturnedBy = it.BorrowedBy
	}
	it.Status = entity.StatusCheckedIn
	it.CurrentCount = newCount
	it.BorrowedBy = ""
	it.LastModified = s.stamp()
	s.commit(id, it)
	s.log.Debug().Str("op", "checkin").Str("item", id).Int("count", newCount).Str("returned_by", it.ReturnedBy).Msg("item devuelto")
	return nil
}

// MarkMissing marca el item como perdido sin revisar su estado previo.
// Si estaba prestado, el portador pasa a returnedBy y queda libre para otro préstamo.
func (s *Store) MarkMissing(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return s.reject("missing", id, domain.ErrNotFound)
	}
	s.unindex(id, it.BorrowedBy)
	if it.BorrowedBy != "" {
		it.ReturnedBy = it.BorrowedBy
		it.BorrowedBy = ""
	}
	it.Status = entity.StatusMissing
	it.LastModified = s.stamp()
	s.commit(id, it)
	s.log.Debug().Str("op", "missing").Str("item", id).Msg("item marcado como perdido")
	return nil
}

// UpdateCount corrige la cantidad restante sin cambiar el estado.
func (s *Store) UpdateCount(id string, newCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return s.reject("update-count", id, domain.ErrNotFound)
	}
	if newCount < 0 || newCount > it.InitialCount {
		return s.reject("update-count", id, fmt.Errorf("%w: %d fuera de [0, %d]", domain.ErrInvalidCount, newCount, it.InitialCount))
	}
	it.CurrentCount = newCount
	it.LastModified = s.stamp()
	s.commit(id, it)
	s.log.Debug().Str("op", "update-count").Str("item", id).Int("count", newCount).Msg("cantidad actualizada")
	return nil
}

// ── Sincronización ────────────────────────────────────────────────────────────

// Pull reemplaza el estado local con el documento remoto. Los cambios locales no
// publicados se descartan.
func (s *Store) Pull(ctx context.Context, h entity.DocumentHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	syncID := uuid.New().String()
	start := time.Now()
	doc, version, err := s.client.ReadVersioned(ctx, h)
	s.metrics.Observe(ctx, "pull", err == nil, time.Since(start))
	if err != nil {
		s.log.Error().Err(err).Str("sync_id", syncID).Str("resource", h.Resource).Msg("pull fallido")
		return fmt.Errorf("pull: %w", err)
	}

	s.items = doc
	s.reindex()
	s.version = version
	s.log.Info().Str("sync_id", syncID).Str("version", version).Int("items", len(doc)).Msg("inventario descargado")
	return nil
}

// Push escribe el inventario completo releyendo el token actual: si otro cliente escribió
// después del último Pull, sus cambios se sobrescriben. En error el estado local no se revierte.
func (s *Store) Push(ctx context.Context, h entity.DocumentHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	syncID := uuid.New().String()
	start := time.Now()
	_, version, err := s.client.WriteVersioned(ctx, h, s.items.Clone())
	s.metrics.Observe(ctx, "push", err == nil, time.Since(start))
	if err != nil {
		s.log.Error().Err(err).Str("sync_id", syncID).Str("resource", h.Resource).Msg("push fallido")
		return fmt.Errorf("push: %w", err)
	}

	if s.version != "" && version != "" {
		s.log.Debug().Str("sync_id", syncID).Str("from", s.version).Str("to", version).Msg("versión remota reemplazada")
	}
	s.version = version
	s.log.Info().Str("sync_id", syncID).Str("version", version).Int("items", len(s.items)).Msg("inventario publicado")
	return nil
}

// PushIfUnchanged escribe el inventario solo si el remoto sigue en la versión de la última
// sincronización; si otro cliente escribió devuelve domain.ErrVersionConflict y el llamador
// decide si hace Pull y repite. Sin sincronización previa solo puede crear el documento.
func (s *Store) PushIfUnchanged(ctx context.Context, h entity.DocumentHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	syncID := uuid.New().String()
	start := time.Now()
	version, err := s.client.WriteIfMatch(ctx, h, s.items.Clone(), s.version)
	s.metrics.Observe(ctx, "push_if_unchanged", err == nil, time.Since(start))
	if err != nil {
		ev := s.log.Error()
		if errors.Is(err, domain.ErrVersionConflict) {
			ev = s.log.Warn()
		}
		ev.Err(err).Str("sync_id", syncID).Str("expected", s.version).Msg("push condicional rechazado")
		return fmt.Errorf("push: %w", err)
	}

	s.version = version
	s.log.Info().Str("sync_id", syncID).Str("version", version).Int("items", len(s.items)).Msg("inventario publicado")
	return nil
}

// Sync publica el estado local con la política configurada.
func (s *Store) Sync(ctx context.Context, h entity.DocumentHandle) error {
	if s.strict {
		return s.PushIfUnchanged(ctx, h)
	}
	return s.Push(ctx, h)
}

// Strict indica si Sync usa escritura condicional.
func (s *Store) Strict() bool { return s.strict }

// ── Internos (con s.mu tomado) ────────────────────────────────────────────────

func (s *Store) stamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *Store) reject(op, id string, err error) error {
	s.log.Warn().Str("op", op).Str("item", id).Err(err).Msg("operación rechazada")
	return fmt.Errorf("%s %q: %w", op, id, err)
}

func (s *Store) commit(id string, it entity.Item) {
	s.items[id] = it
	if it.BorrowedBy != "" {
		s.index(id, it.BorrowedBy)
	}
}

func (s *Store) holderLocked(borrower string) (string, bool) {
	ids := s.borrowers[borrower]
	if len(ids) == 0 {
		return "", false
	}
	held := make([]string, 0, len(ids))
	for id := range ids {
		held = append(held, id)
	}
	sort.Strings(held)
	return held[0], true
}

func (s *Store) index(id, borrower string) {
	ids, ok := s.borrowers[borrower]
	if !ok {
		ids = make(map[string]struct{})
		s.borrowers[borrower] = ids
	}
	ids[id] = struct{}{}
}

func (s *Store) unindex(id, borrower string) {
	if borrower == "" {
		return
	}
	ids := s.borrowers[borrower]
	delete(ids, id)
	if len(ids) == 0 {
		delete(s.borrowers, borrower)
	}
}

// reindex reconstruye el índice de portadores; documentos antiguos pueden traer
// borrowedBy en items perdidos y también cuentan como asignados.
func (s *Store) reindex() {
	s.borrowers = make(map[string]map[string]struct{})
	for id, it := range s.items {
		if it.BorrowedBy != "" {
			s.index(id, it.BorrowedBy)
		}
	}
}
