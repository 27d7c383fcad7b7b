package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/boxtrack/internal/application/auth"
	"github.com/jhoicas/boxtrack/internal/application/dto"
	"github.com/jhoicas/boxtrack/internal/application/inventory"
	"github.com/jhoicas/boxtrack/internal/application/receipt"
	"github.com/jhoicas/boxtrack/internal/domain/entity"
	"github.com/jhoicas/boxtrack/internal/infrastructure/docstore"
	"github.com/jhoicas/boxtrack/internal/infrastructure/metrics"
	"github.com/jhoicas/boxtrack/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/boxtrack/internal/interfaces/http"
)

const (
	docResource  = "ptec/db.json"
	testPassword = "chocolate1"
)

type testEnv struct {
	app     *fiber.App
	store   *inventory.Store
	backend *docstore.MemoryBackend
}

// newTestEnv levanta la API completa sobre un documento en memoria ya leído.
func newTestEnv(t *testing.T, jwtSecret string, opts ...inventory.Option) *testEnv {
	t.Helper()
	backend := docstore.NewMemoryBackend()
	backend.Seed(docResource, []byte(`{}`))
	recorder := metrics.NewRecorder()
	opts = append([]inventory.Option{inventory.WithMetrics(recorder)}, opts...)
	store := inventory.NewStore(docstore.NewClient(backend), opts...)
	handle := entity.DocumentHandle{Resource: docResource, Token: "tok"}
	require.NoError(t, store.Pull(context.Background(), handle))

	receipts, err := receipt.NewUseCase(store, pdf.NewReceiptGenerator(), "Fundraiser", "1.00")
	require.NoError(t, err)

	var authUC *auth.AuthUseCase
	if jwtSecret != "" {
		hash, err := auth.HashPassword(testPassword)
		require.NoError(t, err)
		authUC = auth.NewAuthUseCase(map[string]string{testOperator: hash}, auth.JWTConfig{
			Secret: jwtSecret, ExpMinutes: testExpMin, Issuer: testIssuer,
		})
	}

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Store:            store,
		Receipts:         receipts,
		Auth:             authUC,
		Handle:           handle,
		DefaultItemCount: 60,
		JWTSecret:        jwtSecret,
		JWTIssuer:        testIssuer,
		Metrics:          recorder.Handler(),
	})
	return &testEnv{app: app, store: store, backend: backend}
}

func (e *testEnv) do(t *testing.T, method, target string, body any, auth string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func expectError(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	assert.Equal(t, status, resp.StatusCode)
	body := decodeBody[dto.ErrorResponse](t, resp)
	assert.Equal(t, code, body.Code, body.Message)
}

func (e *testEnv) create(t *testing.T, id string, count int) dto.ItemDTO {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/items", dto.CreateItemRequest{ID: id, Count: count}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[dto.ItemDTO](t, resp)
}

func count(n int) dto.CountRequest { return dto.CountRequest{Count: &n} }

// ── Items ─────────────────────────────────────────────────────────────────────

func TestItems_CreatePublicaDocumento(t *testing.T) {
	env := newTestEnv(t, "")

	item := env.create(t, "B01", 0)
	assert.Equal(t, "B01", item.ID)
	assert.Equal(t, "checked-in", item.Status)
	assert.Equal(t, 60, item.InitialCount)
	assert.Equal(t, 60, item.CurrentCount)
	assert.NotEmpty(t, item.LastModified)

	remote, err := docstore.Decode(env.backend.Content(docResource))
	require.NoError(t, err)
	require.Contains(t, remote, "B01")
	assert.Equal(t, 60, remote["B01"].InitialCount)
}

func TestItems_CreateErrores(t *testing.T) {
	env := newTestEnv(t, "")
	env.create(t, "B01", 10)

	expectError(t, env.do(t, http.MethodPost, "/api/items", dto.CreateItemRequest{ID: "B01", Count: 5}, ""),
		http.StatusConflict, "DUPLICATE_ID")
	expectError(t, env.do(t, http.MethodPost, "/api/items", dto.CreateItemRequest{ID: "", Count: 5}, ""),
		http.StatusBadRequest, "INVALID_ITEM")
	expectError(t, env.do(t, http.MethodPost, "/api/items", dto.CreateItemRequest{ID: "B02", Count: -3}, ""),
		http.StatusBadRequest, "INVALID_ITEM")
}

func TestItems_CicloPrestamoYDevolucion(t *testing.T) {
	env := newTestEnv(t, "")
	env.create(t, "B01", 60)
	env.create(t, "B02", 60)

	resp := env.do(t, http.MethodPost, "/api/items/B01/checkout", dto.CheckOutRequest{Borrower: "alice"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeBody[dto.ItemDTO](t, resp)
	assert.Equal(t, "checked-out", out.Status)
	assert.Equal(t, "alice", out.BorrowedBy)

	expectError(t, env.do(t, http.MethodPost, "/api/items/B01/checkout", dto.CheckOutRequest{Borrower: "bob"}, ""),
		http.StatusConflict, "ALREADY_CHECKED_OUT")
	expectError(t, env.do(t, http.MethodPost, "/api/items/B02/checkout", dto.CheckOutRequest{Borrower: "alice"}, ""),
		http.StatusConflict, "BORROWER_CONFLICT")
	expectError(t, env.do(t, http.MethodPost, "/api/items/B01/checkin", count(61), ""),
		http.StatusBadRequest, "INVALID_COUNT")
	expectError(t, env.do(t, http.MethodPost, "/api/items/B01/checkin", map[string]any{}, ""),
		http.StatusBadRequest, "INVALID_BODY")

	resp = env.do(t, http.MethodPost, "/api/items/B01/checkin", count(40), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	in := decodeBody[dto.ItemDTO](t, resp)
	assert.Equal(t, "checked-in", in.Status)
	assert.Equal(t, "incomplete", in.Label)
	assert.Equal(t, "alice", in.ReturnedBy)
	assert.Empty(t, in.BorrowedBy)
	assert.Equal(t, 40, in.CurrentCount)

	expectError(t, env.do(t, http.MethodPost, "/api/items/B01/checkin", count(40), ""),
		http.StatusConflict, "ALREADY_CHECKED_IN")

	// alice quedó libre para otro préstamo
	resp = env.do(t, http.MethodPost, "/api/items/B02/checkout", dto.CheckOutRequest{Borrower: "alice"}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestItems_PerdidoNoSePuedeDevolver(t *testing.T) {
	env := newTestEnv(t, "")
	env.create(t, "B01", 60)

	resp := env.do(t, http.MethodPost, "/api/items/B01/missing", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "missing", decodeBody[dto.ItemDTO](t, resp).Status)

	expectError(t, env.do(t, http.MethodPost, "/api/items/B01/checkin", count(10), ""),
		http.StatusConflict, "MISSING_ITEM")
	expectError(t, env.do(t, http.MethodPost, "/api/items/B01/checkout", dto.CheckOutRequest{Borrower: "x"}, ""),
		http.StatusConflict, "MISSING_ITEM")
}

func TestItems_UpdateCount(t *testing.T) {
	env := newTestEnv(t, "")
	env.create(t, "B01", 60)

	resp := env.do(t, http.MethodPut, "/api/items/B01/count", count(0), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeBody[dto.ItemDTO](t, resp)
	assert.Equal(t, 0, out.CurrentCount)
	assert.Equal(t, "completed", out.Label)

	expectError(t, env.do(t, http.MethodPut, "/api/items/B01/count", count(61), ""),
		http.StatusBadRequest, "INVALID_COUNT")
	expectError(t, env.do(t, http.MethodPost, "/api/items/B01/checkout", dto.CheckOutRequest{Borrower: "x"}, ""),
		http.StatusConflict, "EMPTY_ITEM")
}

func TestItems_GetYDelete(t *testing.T) {
	env := newTestEnv(t, "")
	env.create(t, "B01", 60)

	resp := env.do(t, http.MethodGet, "/api/items/B01", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "B01", decodeBody[dto.ItemDTO](t, resp).ID)

	resp = env.do(t, http.MethodDelete, "/api/items/B01", nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	expectError(t, env.do(t, http.MethodDelete, "/api/items/B01", nil, ""), http.StatusNotFound, "NOT_FOUND")
	expectError(t, env.do(t, http.MethodGet, "/api/items/B01", nil, ""), http.StatusNotFound, "NOT_FOUND")

	remote, err := docstore.Decode(env.backend.Content(docResource))
	require.NoError(t, err)
	assert.Empty(t, remote)
}

func TestItems_ListBusquedaFiltroYPagina(t *testing.T) {
	env := newTestEnv(t, "")
	env.create(t, "B01", 60)
	env.create(t, "B02", 60)
	env.create(t, "C01", 60)
	resp := env.do(t, http.MethodPost, "/api/items/B02/checkout", dto.CheckOutRequest{Borrower: "Alice"}, "")
	resp.Body.Close()

	list := decodeBody[dto.ItemListResponse](t, env.do(t, http.MethodGet, "/api/items", nil, ""))
	assert.Len(t, list.Items, 3)
	assert.Equal(t, 3, list.Page.Total)
	assert.Equal(t, env.store.Version(), list.Version)

	list = decodeBody[dto.ItemListResponse](t, env.do(t, http.MethodGet, "/api/items?q=alice", nil, ""))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "B02", list.Items[0].ID)

	q := url.Values{"filter": {`status == "checked-in" && id startsWith "B"`}}
	list = decodeBody[dto.ItemListResponse](t, env.do(t, http.MethodGet, "/api/items?"+q.Encode(), nil, ""))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "B01", list.Items[0].ID)

	list = decodeBody[dto.ItemListResponse](t, env.do(t, http.MethodGet, "/api/items?limit=2&offset=2", nil, ""))
	require.Len(t, list.Items, 1)
	assert.Equal(t, 3, list.Page.Total)

	bad := url.Values{"filter": {"status =="}}
	expectError(t, env.do(t, http.MethodGet, "/api/items?"+bad.Encode(), nil, ""), http.StatusBadRequest, "INVALID_FILTER")
}

// ── Sincronización ────────────────────────────────────────────────────────────

func TestItems_FalloDePublicacionConservaCambioLocal(t *testing.T) {
	env := newTestEnv(t, "")
	env.create(t, "B01", 60)
	env.backend.FailNextWrite(errors.New("host caído"))

	expectError(t, env.do(t, http.MethodPost, "/api/items/B01/checkout", dto.CheckOutRequest{Borrower: "alice"}, ""),
		http.StatusBadGateway, "SYNC_FAILED")

	it, err := env.store.Get("B01")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCheckedOut, it.Status)

	remote, err := docstore.Decode(env.backend.Content(docResource))
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCheckedIn, remote["B01"].Status)

	resp := env.do(t, http.MethodPost, "/api/sync/push", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	remote, err = docstore.Decode(env.backend.Content(docResource))
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCheckedOut, remote["B01"].Status)
}

func TestItems_ModoEstrictoDetectaCambioRemoto(t *testing.T) {
	env := newTestEnv(t, "", inventory.WithStrictSync(true))
	env.backend.Seed(docResource, []byte(`{"Z9": {"status": "checked-in", "borrowedBy": null, "initialCount": 5, "currentCount": 5, "lastModified": "2025-09-01T15:00:00.000Z"}}`))

	resp := env.do(t, http.MethodPost, "/api/items", dto.CreateItemRequest{ID: "B01", Count: 5}, "")
	expectError(t, resp, http.StatusConflict, "VERSION_CONFLICT")

	// el cambio local sigue pendiente; force publica igual
	resp = env.do(t, http.MethodPost, "/api/sync/push?force=true", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	remote, err := docstore.Decode(env.backend.Content(docResource))
	require.NoError(t, err)
	assert.Contains(t, remote, "B01")
	assert.NotContains(t, remote, "Z9")
}

func TestSync_PullReemplazaEstadoLocal(t *testing.T) {
	env := newTestEnv(t, "")
	env.create(t, "B01", 60)
	version := env.backend.Seed(docResource, []byte(`{"C07": {"status": "checked-out", "borrowedBy": "dora", "initialCount": 60, "currentCount": 60, "lastModified": "2025-09-01T15:00:00.000Z"}}`))

	resp := env.do(t, http.MethodPost, "/api/sync/pull", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeBody[dto.SyncResponse](t, resp)
	assert.Equal(t, version, out.Version)
	assert.Equal(t, 1, out.Items)

	_, err := env.store.Get("B01")
	assert.Error(t, err)
	expectError(t, env.do(t, http.MethodPost, "/api/items/C07/checkout", dto.CheckOutRequest{Borrower: "eva"}, ""),
		http.StatusConflict, "ALREADY_CHECKED_OUT")
}

func TestSync_PullFallido(t *testing.T) {
	env := newTestEnv(t, "")
	env.backend.FailNextRead(errors.New("sin red"))

	expectError(t, env.do(t, http.MethodPost, "/api/sync/pull", nil, ""), http.StatusBadGateway, "REMOTE_READ")
}

// ── Dashboard, comprobantes y métricas ────────────────────────────────────────

func TestDashboard_Summary(t *testing.T) {
	env := newTestEnv(t, "")
	env.create(t, "B01", 60)
	env.create(t, "B02", 60)
	resp := env.do(t, http.MethodPost, "/api/items/B02/checkout", dto.CheckOutRequest{Borrower: "alice"}, "")
	resp.Body.Close()

	sum := decodeBody[dto.DashboardSummaryDTO](t, env.do(t, http.MethodGet, "/api/dashboard/summary", nil, ""))
	assert.Equal(t, dto.TallyDTO{Items: 1, Units: 60}, sum.CheckedIn)
	assert.Equal(t, dto.TallyDTO{Items: 1, Units: 60}, sum.CheckedOut)
	assert.Equal(t, 2, sum.Total.Items)
	require.Len(t, sum.Attention, 1)
	assert.Equal(t, "B02", sum.Attention[0].ID)
}

func TestReceipts_PDF(t *testing.T) {
	env := newTestEnv(t, "")
	env.create(t, "B01", 60)
	env.create(t, "B02", 60)

	resp := env.do(t, http.MethodGet, "/api/items/B01/receipt", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "comprobante_B01.pdf")
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF-")))

	resp = env.do(t, http.MethodGet, "/api/receipts?ids=B01,B02", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "comprobantes_2.pdf")
	resp.Body.Close()

	expectError(t, env.do(t, http.MethodGet, "/api/items/NOPE/receipt", nil, ""), http.StatusNotFound, "NOT_FOUND")
	expectError(t, env.do(t, http.MethodGet, "/api/receipts?ids=,", nil, ""), http.StatusBadRequest, "INVALID_QUERY")
}

func TestMetrics_ExponeOperacionesRemotas(t *testing.T) {
	env := newTestEnv(t, "")
	env.create(t, "B01", 60)

	resp := env.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), `boxtrack_remote_operations_total{operation="pull",result="success"} 1`)
	assert.Contains(t, string(body), `boxtrack_remote_operations_total{operation="push",result="success"} 1`)
}

// ── Autenticación ─────────────────────────────────────────────────────────────

func TestRouter_ConSecretoExigeTokenYRegistraOperador(t *testing.T) {
	env := newTestEnv(t, testJWTSecret)

	expectError(t, env.do(t, http.MethodGet, "/api/items", nil, ""), http.StatusUnauthorized, "MISSING_TOKEN")

	resp := env.do(t, http.MethodPost, "/api/items", dto.CreateItemRequest{ID: "B01", Count: 5}, bearer(t, testOperator))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	notes := env.backend.Notes(docResource)
	require.NotEmpty(t, notes)
	assert.Contains(t, notes[len(notes)-1], "por "+testOperator)
}

func TestRouter_LoginEmiteTokenUsable(t *testing.T) {
	env := newTestEnv(t, testJWTSecret)

	expectError(t, env.do(t, http.MethodPost, "/api/auth/login", dto.LoginRequest{Operator: testOperator, Password: "mala-clave"}, ""),
		http.StatusUnauthorized, "UNAUTHORIZED")
	expectError(t, env.do(t, http.MethodPost, "/api/auth/login", dto.LoginRequest{Operator: testOperator}, ""),
		http.StatusBadRequest, "VALIDATION")

	resp := env.do(t, http.MethodPost, "/api/auth/login", dto.LoginRequest{Operator: testOperator, Password: testPassword}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decodeBody[dto.LoginResponse](t, resp)
	assert.Equal(t, testOperator, login.Operator)

	resp = env.do(t, http.MethodGet, "/api/items", nil, "Bearer "+login.Token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
