package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/audiobook-library/internal/model"
)

func strp(s string) *string { return &s }

func TestAdminCreateBook(t *testing.T) {
	f := newFixture(t)

	_, err := f.admin.CreateBook(ctx, BookInput{Title: strp("T"), Author: strp("A")})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "description", ve.Field)

	bad := 7.0
	_, err = f.admin.CreateBook(ctx, BookInput{Title: strp("T"), Author: strp("A"), Description: strp("D"), Rating: &bad})
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "rating", ve.Field)

	b, err := f.admin.CreateBook(ctx, BookInput{Title: strp(" T "), Author: strp("A"), Description: strp("D"), Category: strp("")})
	require.NoError(t, err)
	assert.Equal(t, "T", b.Title)
	assert.Equal(t, "0h 0m", b.Duration)
	assert.True(t, b.IsPublished)
	assert.Nil(t, b.Category)
	assert.Equal(t, t0, b.CreatedAt)

	stored, err := f.catalog.GetByID(ctx, b.ID, Viewer{})
	require.NoError(t, err)
	assert.Equal(t, b.ID, stored.ID)
}

func TestAdminUpdateBook(t *testing.T) {
	f := newFixture(t)
	b := f.store.AddBook("Dune", true, t0)
	unpublish := false

	got, err := f.admin.UpdateBook(ctx, b.ID, BookInput{IsPublished: &unpublish, Narrator: strp("Scott")})
	require.NoError(t, err)
	assert.False(t, got.IsPublished)
	assert.Equal(t, "Dune", got.Title)
	require.NotNil(t, got.Narrator)
	assert.Equal(t, "Scott", *got.Narrator)

	_, err = f.catalog.GetByID(ctx, b.ID, Viewer{})
	assert.ErrorIs(t, err, ErrBookNotFound)

	_, err = f.admin.UpdateBook(ctx, "missing", BookInput{})
	assert.ErrorIs(t, err, ErrBookNotFound)
	_, err = f.admin.UpdateBook(ctx, b.ID, BookInput{Title: strp("  ")})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "title", ve.Field)
}

func TestAdminDeleteBook(t *testing.T) {
	f := newFixture(t)
	u := f.store.AddUser("a@x.com", model.RoleUser, t0)
	saved := f.store.AddBook("Saved", true, t0)
	free := f.store.AddBook("Free", true, t0)
	require.NoError(t, f.library.Add(ctx, u, saved.ID))

	assert.ErrorIs(t, f.admin.DeleteBook(ctx, saved.ID), ErrBookReferenced)
	require.NoError(t, f.admin.DeleteBook(ctx, free.ID))
	assert.ErrorIs(t, f.admin.DeleteBook(ctx, free.ID), ErrBookNotFound)
}

func TestAdminStatisticsAndUsers(t *testing.T) {
	f := newFixture(t)
	u := f.store.AddUser("a@x.com", model.RoleUser, t0)
	f.store.AddUser("b@x.com", model.RoleUser, t0)
	b := f.store.AddBook("Dune", true, t0)
	f.store.AddBook("Draft", false, t0)
	require.NoError(t, f.library.Add(ctx, u, b.ID))
	_, err := f.ent.Subscribe(ctx, u.ID, "MONTHLY")
	require.NoError(t, err)

	st, err := f.admin.Statistics(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, st.TotalBooks)
	assert.EqualValues(t, 2, st.TotalUsers)
	assert.EqualValues(t, 1, st.TotalActiveSubscriptions)
	assert.Len(t, st.RecentBooks, 2)
	assert.Len(t, st.RecentUsers, 2)

	users, err := f.admin.ListUsers(ctx, model.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, users.Total)
	for _, s := range users.Items {
		if s.ID == u.ID {
			assert.EqualValues(t, 1, s.LibraryCount)
			assert.EqualValues(t, 1, s.ActiveSubscriptionCount)
		} else {
			assert.Zero(t, s.LibraryCount)
		}
	}
}
