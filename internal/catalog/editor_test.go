package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arkana/internal/domain"
)

func newTestEditor(t *testing.T) (*Editor, *Service, *StorageStore) {
	t.Helper()
	svc, st := newTestService(t)
	return NewEditor(svc), svc, st
}

func TestEditor_OperationsNeedADraft(t *testing.T) {
	ed, _, _ := newTestEditor(t)

	assert.ErrorIs(t, ed.SetTitle("x"), domain.ErrNoDraft)
	assert.ErrorIs(t, ed.AddTier(), domain.ErrNoDraft)
	_, err := ed.Commit()
	assert.ErrorIs(t, err, domain.ErrNoDraft)
	_, ok := ed.Draft()
	assert.False(t, ok)
}

func TestEditor_StartEditUnknownKey(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	assert.ErrorIs(t, ed.StartEdit("nope"), domain.ErrCategoryNotFound)
}

func TestEditor_DraftIsIsolatedUntilCommit(t *testing.T) {
	ed, svc, st := newTestEditor(t)
	require.NoError(t, ed.StartEdit("book"))

	require.NoError(t, ed.SetTitle("Retratos"))
	require.NoError(t, ed.SetBlurb("Nuevo texto"))
	require.NoError(t, ed.UpdateTierField(0, FieldPrice, "$130.000"))

	live, _ := svc.Category("book")
	assert.Equal(t, "Book de fotos (retrato)", live.Title)

	saved, err := ed.Commit()
	require.NoError(t, err)
	assert.Equal(t, "Retratos", saved.Title)

	_, ok := ed.Draft()
	assert.False(t, ok)
	persisted, _ := st.Load().Get("book")
	assert.Equal(t, "Retratos", persisted.Title)
	assert.Equal(t, "Nuevo texto", persisted.Blurb)
	assert.Equal(t, "$130.000", persisted.Tiers[0].Price)
	assert.Equal(t, "book", st.Load().First())
}

func TestEditor_CancelDiscardsDraft(t *testing.T) {
	ed, svc, _ := newTestEditor(t)
	require.NoError(t, ed.StartEdit("eventos"))
	require.NoError(t, ed.RemoveTier(0))
	ed.Cancel()

	_, ok := ed.Draft()
	assert.False(t, ok)
	live, _ := svc.Category("eventos")
	assert.Len(t, live.Tiers, 3)
}

func TestEditor_AddAndRemoveTiers(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	require.NoError(t, ed.StartEdit("book"))

	require.NoError(t, ed.AddTier())
	d, _ := ed.Draft()
	require.Len(t, d.Tiers, 4)
	assert.Equal(t, domain.Tier{Name: "Nuevo Plan", Price: "$0", Features: []string{"Nueva característica"}}, d.Tiers[3])

	require.NoError(t, ed.RemoveTier(99))
	require.NoError(t, ed.RemoveTier(-1))
	d, _ = ed.Draft()
	assert.Len(t, d.Tiers, 4)

	require.NoError(t, ed.RemoveTier(0))
	d, _ = ed.Draft()
	require.Len(t, d.Tiers, 3)
	assert.Equal(t, "Intermedio", d.Tiers[0].Name)
}

func TestEditor_UpdateTierField(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	require.NoError(t, ed.StartEdit("redes"))

	require.NoError(t, ed.UpdateTierField(1, FieldName, "Plus"))
	require.NoError(t, ed.UpdateTierField(1, FieldPriceNote, ""))
	assert.ErrorIs(t, ed.UpdateTierField(1, "color", "rojo"), domain.ErrUnknownTierField)
	assert.ErrorIs(t, ed.UpdateTierField(7, FieldName, "x"), domain.ErrTierNotFound)

	saved, err := ed.Commit()
	require.NoError(t, err)
	assert.Equal(t, "Plus", saved.Tiers[1].Name)
	assert.Empty(t, saved.Tiers[1].PriceNote)
	assert.Equal(t, "$340.000", saved.Tiers[1].DisplayPrice())
}

func TestEditor_FeatureLifecycle(t *testing.T) {
	ed, _, _ := newTestEditor(t)
	cat, err := ed.CreateCategory("solo")
	require.NoError(t, err)
	require.NoError(t, ed.StartEdit(cat.Key))

	require.NoError(t, ed.UpdateFeature(0, 0, "Algo"))
	require.NoError(t, ed.RemoveFeature(0, 0))
	d, _ := ed.Draft()
	assert.Empty(t, d.Tiers[0].Features)

	require.NoError(t, ed.RemoveFeature(0, 3))
	require.NoError(t, ed.AddFeature(0))
	d, _ = ed.Draft()
	assert.Equal(t, []string{"Nueva característica"}, d.Tiers[0].Features)

	assert.ErrorIs(t, ed.UpdateFeature(0, 5, "x"), domain.ErrTierNotFound)
	assert.ErrorIs(t, ed.AddFeature(4), domain.ErrTierNotFound)
}

func TestEditor_DeleteCategoryDropsItsDraft(t *testing.T) {
	ed, svc, _ := newTestEditor(t)
	require.NoError(t, ed.StartEdit("producto"))

	require.NoError(t, ed.DeleteCategory("producto"))
	_, ok := ed.Draft()
	assert.False(t, ok)
	assert.False(t, svc.Snapshot().Has("producto"))
}

func TestDrafts_ArePerClient(t *testing.T) {
	svc, _ := newTestService(t)
	drafts := NewDrafts(svc)

	a := drafts.For("a")
	assert.Same(t, a, drafts.For("a"))
	require.NoError(t, a.StartEdit("book"))

	_, ok := drafts.For("b").Draft()
	assert.False(t, ok)

	drafts.Drop("a")
	_, ok = drafts.For("a").Draft()
	assert.False(t, ok)
}
