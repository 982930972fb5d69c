package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/audiobook-library/internal/model"
)

func TestCatalogHidesUnpublishedFromNonAdmins(t *testing.T) {
	f := newFixture(t)
	pub := f.store.AddBook("Dune", true, t0)
	hidden := f.store.AddBook("Draft", false, t0.Add(time.Hour))

	_, err := f.catalog.GetByID(ctx, hidden.ID, Viewer{})
	assert.ErrorIs(t, err, ErrBookNotFound)
	_, err = f.catalog.GetByID(ctx, hidden.ID, Viewer{Entitled: true})
	assert.ErrorIs(t, err, ErrBookNotFound)

	b, err := f.catalog.GetByID(ctx, hidden.ID, Viewer{Admin: true})
	require.NoError(t, err)
	assert.Equal(t, hidden.ID, b.ID)

	page := model.PageRequest{Page: 1, Limit: 20}
	list, err := f.catalog.List(ctx, "", Viewer{}, page)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, pub.ID, list.Items[0].ID)

	list, err = f.catalog.List(ctx, "", Viewer{Admin: true}, page)
	require.NoError(t, err)
	assert.EqualValues(t, 2, list.Total)
	assert.Equal(t, hidden.ID, list.Items[0].ID, "most recently updated first")

	res, err := f.catalog.Search(ctx, "dra", Viewer{}, page)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestCatalogSearch(t *testing.T) {
	f := newFixture(t)
	f.store.AddBook("Dune", true, t0)
	f.store.AddBook("Foundation", true, t0)
	page := model.PageRequest{Page: 1, Limit: 20}

	for _, term := range []string{"", " ", "d", " u "} {
		_, err := f.catalog.Search(ctx, term, Viewer{}, page)
		assert.ErrorIs(t, err, ErrQueryTooShort, "%q", term)
	}

	res, err := f.catalog.Search(ctx, "DUN", Viewer{}, page)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Dune", res.Items[0].Title)

	res, err = f.catalog.Search(ctx, "author of", Viewer{}, page)
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)
}

func TestCatalogCategoryTrendingAndNew(t *testing.T) {
	f := newFixture(t)
	old := f.store.AddBook("Old", true, t0)
	mid := f.store.AddBook("Mid", true, t0.Add(time.Hour))
	newest := f.store.AddBook("New", true, t0.Add(2*time.Hour))
	f.store.AddBook("Hidden", false, t0.Add(3*time.Hour))

	midRating, oldRating := 4.5, 4.9
	_, err := f.admin.UpdateBook(ctx, old.ID, BookInput{Rating: &oldRating})
	require.NoError(t, err)
	_, err = f.admin.UpdateBook(ctx, mid.ID, BookInput{Rating: &midRating})
	require.NoError(t, err)

	trending, err := f.catalog.Trending(ctx, 5)
	require.NoError(t, err)
	require.Len(t, trending, 3)
	assert.Equal(t, []string{old.ID, mid.ID, newest.ID}, []string{trending[0].ID, trending[1].ID, trending[2].ID})

	fresh, err := f.catalog.NewReleases(ctx, 2)
	require.NoError(t, err)
	require.Len(t, fresh, 2)
	assert.Equal(t, newest.ID, fresh[0].ID)
	assert.Equal(t, mid.ID, fresh[1].ID)

	fiction, err := f.catalog.List(ctx, "Fiction", Viewer{}, model.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, fiction.Total)
	none, err := f.catalog.List(ctx, "Poetry", Viewer{}, model.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, none.Items)
}

func TestViewerRestrictsAudio(t *testing.T) {
	f := newFixture(t)
	b := f.store.AddBook("Dune", true, t0)

	anon := Viewer{}.View(b)
	assert.Nil(t, anon.AudioFile)
	assert.NotNil(t, anon.PreviewFile)
	assert.False(t, anon.HasFullAccess)

	for _, v := range []Viewer{{Admin: true}, {Entitled: true}} {
		full := v.View(b)
		require.NotNil(t, full.AudioFile)
		assert.Equal(t, *b.AudioFile, *full.AudioFile)
		assert.True(t, full.HasFullAccess)
	}
}
