package catalog

import (
	"testing"

	memoryStorage "github.com/gofiber/storage/memory/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arkana/internal/domain"
)

func newTestService(t *testing.T) (*Service, *StorageStore) {
	t.Helper()
	st := NewStorageStore(memoryStorage.New())
	return NewService(st), st
}

func TestService_CreatePersistsSeededCategory(t *testing.T) {
	svc, st := newTestService(t)

	cat, err := svc.Create("Bodas 2025!")
	require.NoError(t, err)
	assert.Equal(t, "bodas2025", cat.Key)

	loaded := st.Load()
	got, ok := loaded.Get("bodas2025")
	require.True(t, ok)
	assert.Equal(t, NewCategory("bodas2025"), got)
	require.Len(t, got.Tiers, 1)
	assert.Equal(t, "Básico", got.Tiers[0].Name)
	assert.Equal(t, []string{"Nueva característica"}, got.Tiers[0].Features)
	assert.Equal(t, "bodas2025", loaded.Keys()[loaded.Len()-1])
}

func TestService_CreateRejectsEmptyAndDuplicateKeys(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create("¡!")
	assert.ErrorIs(t, err, domain.ErrInvalidCategoryKey)

	before, _ := svc.Category("book")
	_, err = svc.Create("BOOK")
	assert.ErrorIs(t, err, domain.ErrCategoryExists)
	after, _ := svc.Category("book")
	assert.Equal(t, before, after)
}

func TestService_DeleteLastCategoryIsRejected(t *testing.T) {
	st := NewStorageStore(memoryStorage.New())
	require.NoError(t, st.Save(domain.NewCatalog(domain.Category{Key: "solo", Title: "Solo"})))
	svc := NewService(st)
	before := svc.Snapshot()

	assert.ErrorIs(t, svc.Delete("solo"), domain.ErrLastCategory)
	assert.Equal(t, before, svc.Snapshot())
	assert.Equal(t, before, st.Load())
}

func TestService_DeleteRemovesAndPersists(t *testing.T) {
	svc, st := newTestService(t)

	require.NoError(t, svc.Delete("redes"))
	assert.False(t, svc.Snapshot().Has("redes"))
	assert.Equal(t, []string{"book", "producto", "eventos"}, st.Load().Keys())

	assert.ErrorIs(t, svc.Delete("redes"), domain.ErrCategoryNotFound)
}

func TestService_FailedSaveLeavesCatalogUnchanged(t *testing.T) {
	svc := NewService(NewStorageStore(failingStorage{memoryStorage.New()}))
	before := svc.Snapshot()

	assert.Error(t, svc.Delete("book"))
	_, err := svc.Create("nueva")
	assert.Error(t, err)
	assert.Equal(t, before, svc.Snapshot())
}

func TestService_ResetRestoresDefaults(t *testing.T) {
	svc, st := newTestService(t)
	require.NoError(t, svc.Delete("book"))

	first, err := svc.Reset()
	require.NoError(t, err)
	second, err := svc.Reset()
	require.NoError(t, err)

	assert.Equal(t, Default(), first)
	assert.Equal(t, first, second)
	assert.Equal(t, Default(), svc.Snapshot())
	assert.Equal(t, Default(), st.Load())
}

func TestService_SnapshotIsACopy(t *testing.T) {
	svc, _ := newTestService(t)
	snap := svc.Snapshot()
	snap.Delete("book")
	assert.True(t, svc.Snapshot().Has("book"))
}
