package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/boxtrack/internal/application/inventory"
	"github.com/jhoicas/boxtrack/internal/domain"
	"github.com/jhoicas/boxtrack/internal/domain/entity"
	"github.com/jhoicas/boxtrack/internal/infrastructure/docstore"
	"github.com/jhoicas/boxtrack/internal/infrastructure/github"
	"github.com/jhoicas/boxtrack/internal/infrastructure/github/githubtest"
)

const ghToken = "ghp_kiosk"

// twoClients prepara dos Stores independientes contra el mismo archivo del contents API falso,
// ambos con X001 (60 unidades) descargado en la misma versión.
func twoClients(t *testing.T, opts ...inventory.Option) (a, b *inventory.Store, srv *githubtest.Server, h entity.DocumentHandle) {
	t.Helper()
	srv = githubtest.NewServer(t, ghToken)
	seed, err := docstore.Encode(entity.Inventory{"X001": entity.NewItem(60)})
	require.NoError(t, err)
	srv.Seed("db.json", seed)

	h = entity.DocumentHandle{Resource: srv.FileURL("db.json"), Token: ghToken}
	newClient := func() *docstore.Client {
		return docstore.NewClient(github.NewContentsBackend(srv.Client()))
	}
	a = inventory.NewStore(newClient(), opts...)
	b = inventory.NewStore(newClient(), opts...)

	ctx := context.Background()
	require.NoError(t, a.Pull(ctx, h))
	require.NoError(t, b.Pull(ctx, h))
	require.Equal(t, a.Version(), b.Version())
	return a, b, srv, h
}

func remoteDoc(t *testing.T, srv *githubtest.Server) entity.Inventory {
	t.Helper()
	content, ok := srv.File("db.json")
	require.True(t, ok)
	doc, err := docstore.Decode(content)
	require.NoError(t, err)
	return doc
}

func TestDosClientes_UltimoEnEscribirGana(t *testing.T) {
	a, b, srv, h := twoClients(t)
	ctx := context.Background()

	require.NoError(t, a.CheckOut("X001", "alice"))
	require.NoError(t, a.Push(ctx, h))
	assert.Equal(t, "alice", remoteDoc(t, srv)["X001"].BorrowedBy)

	// B no conoce el cambio de A: valida contra su copia y publica sin conflicto.
	require.NoError(t, b.CheckOut("X001", "bob"))
	require.NoError(t, b.Push(ctx, h))

	doc := remoteDoc(t, srv)
	assert.Equal(t, entity.StatusCheckedOut, doc["X001"].Status)
	assert.Equal(t, "bob", doc["X001"].BorrowedBy, "el cambio de A se perdió")
	assert.Len(t, srv.Messages(), 2)

	_, puts := srv.Requests()
	assert.Equal(t, 2, puts)
}

func TestDosClientes_PushIfUnchangedDetectaConflicto(t *testing.T) {
	a, b, srv, h := twoClients(t)
	ctx := context.Background()

	require.NoError(t, a.CheckOut("X001", "alice"))
	require.NoError(t, a.PushIfUnchanged(ctx, h))

	require.NoError(t, b.CheckOut("X001", "bob"))
	err := b.PushIfUnchanged(ctx, h)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
	assert.ErrorIs(t, err, domain.ErrWrite)

	var conflict *domain.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "alice", remoteDoc(t, srv)["X001"].BorrowedBy)

	// B descarta su cambio, relee y ve el préstamo de A.
	require.NoError(t, b.Pull(ctx, h))
	assert.ErrorIs(t, b.CheckOut("X001", "bob"), domain.ErrAlreadyCheckedOut)
}

func TestDosClientes_SyncEstricto(t *testing.T) {
	a, b, _, h := twoClients(t, inventory.WithStrictSync(true))
	ctx := context.Background()

	require.NoError(t, a.MarkMissing("X001"))
	require.NoError(t, a.Sync(ctx, h))

	require.NoError(t, b.UpdateCount("X001", 30))
	assert.ErrorIs(t, b.Sync(ctx, h), domain.ErrVersionConflict)
	it, err := b.Get("X001")
	require.NoError(t, err)
	assert.Equal(t, 30, it.CurrentCount, "el rechazo no revierte el estado local")
}

func TestCredencialRechazada(t *testing.T) {
	_, b, _, h := twoClients(t)

	err := b.Pull(context.Background(), h.WithToken("revocado"))
	assert.ErrorIs(t, err, domain.ErrRead)

	err = b.Push(context.Background(), h.WithToken("revocado"))
	assert.ErrorIs(t, err, domain.ErrRead, "push relee el token antes de escribir")
}
