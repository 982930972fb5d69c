package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/audiobook-library/internal/model"
)

func TestLibraryRoundTrip(t *testing.T) {
	f := newFixture(t)
	u := f.store.AddUser("a@x.com", model.RoleUser, t0)
	b := f.store.AddBook("Dune", true, t0)

	ok, err := f.library.Check(ctx, u.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.library.Add(ctx, u, b.ID))
	ok, err = f.library.Check(ctx, u.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.ErrorIs(t, f.library.Add(ctx, u, b.ID), ErrAlreadyInLibrary)

	require.NoError(t, f.library.Remove(ctx, u.ID, b.ID))
	ok, err = f.library.Check(ctx, u.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, f.library.Remove(ctx, u.ID, b.ID), ErrNotInLibrary)
}

func TestLibraryAddUnknownOrHiddenBook(t *testing.T) {
	f := newFixture(t)
	u := f.store.AddUser("a@x.com", model.RoleUser, t0)
	hidden := f.store.AddBook("Draft", false, t0)

	assert.ErrorIs(t, f.library.Add(ctx, u, "missing"), ErrBookNotFound)
	assert.ErrorIs(t, f.library.Add(ctx, u, hidden.ID), ErrBookNotFound)
}

func TestLibraryListOrderAndPaging(t *testing.T) {
	f := newFixture(t)
	u := f.store.AddUser("a@x.com", model.RoleUser, t0)
	var ids []string
	for _, title := range []string{"A", "B", "C", "D", "E"} {
		b := f.store.AddBook(title, true, t0)
		require.NoError(t, f.library.Add(ctx, u, b.ID))
		ids = append(ids, b.ID)
		f.advance(time.Minute)
	}

	seen := map[string]bool{}
	var order []string
	for page := 1; page <= 3; page++ {
		p, err := f.library.List(ctx, u, model.PageRequest{Page: page, Limit: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 5, p.Total)
		for _, lb := range p.Items {
			assert.False(t, seen[lb.ID], "book %s on two pages", lb.ID)
			seen[lb.ID] = true
			order = append(order, lb.ID)
		}
	}
	assert.Equal(t, []string{ids[4], ids[3], ids[2], ids[1], ids[0]}, order)
}
