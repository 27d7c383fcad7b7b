package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/boxtrack/internal/application/inventory"
	"github.com/jhoicas/boxtrack/internal/domain/entity"
	"github.com/jhoicas/boxtrack/internal/infrastructure/docstore"
)

func TestItemIDs(t *testing.T) {
	assert.Equal(t, []string{"B08", "B09", "B10"}, itemIDs("B", 8, 10, 2))
	assert.Equal(t, []string{"7"}, itemIDs("", 7, 7, 0))
	assert.Equal(t, []string{"C0100"}, itemIDs("C", 100, 100, 4))
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"--prefix", "B", "--to", "5", "--count", "30", "--dry-run"})
	require.NoError(t, err)
	assert.Equal(t, "B", opts.prefix)
	assert.Equal(t, 1, opts.from)
	assert.Equal(t, 5, opts.to)
	assert.Equal(t, 30, opts.count)
	assert.True(t, opts.dryRun)

	_, err = parseFlags([]string{"--from", "5", "--to", "1"})
	assert.Error(t, err)
	_, err = parseFlags([]string{"--to", "3", "--save-token"})
	assert.Error(t, err)
	_, err = parseFlags([]string{"--bogus"})
	assert.Error(t, err)
}

func TestSeed_OmiteExistentes(t *testing.T) {
	store := inventory.NewStore(docstore.NewClient(docstore.NewMemoryBackend()))
	require.NoError(t, store.Create("B02", entity.NewItem(10)))

	created, skipped, err := seed(store, itemIDs("B", 1, 3, 2), 60)
	require.NoError(t, err)
	assert.Equal(t, []string{"B01", "B03"}, created)
	assert.Equal(t, []string{"B02"}, skipped)

	it, err := store.Get("B02")
	require.NoError(t, err)
	assert.Equal(t, 10, it.InitialCount)
}

func TestSeed_CantidadInvalida(t *testing.T) {
	store := inventory.NewStore(docstore.NewClient(docstore.NewMemoryBackend()))
	_, _, err := seed(store, []string{"B01"}, 0)
	assert.Error(t, err)
}
