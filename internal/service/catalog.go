package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/iliyamo/audiobook-library/internal/model"
	"github.com/iliyamo/audiobook-library/internal/repository"
)

const minSearchLen = 2

// CatalogService is the read side of the book catalog.  Unpublished books
// exist only for admins; everyone else gets ErrBookNotFound or an omission.
type CatalogService struct {
	books BookStore
}

func NewCatalogService(books BookStore) *CatalogService { return &CatalogService{books: books} }

// Viewer is who is reading the catalog.  The zero value is an anonymous
// caller.
type Viewer struct {
	Admin    bool
	Entitled bool
}

// BookView is a book as served to a particular viewer.
type BookView struct {
	model.Book
	HasFullAccess bool `json:"hasFullAccess"`
}

// View restricts b for v.  Admins and entitled users get the audio
// reference, others only the preview.
func (v Viewer) View(b model.Book) BookView {
	if v.Admin || v.Entitled {
		return BookView{Book: b, HasFullAccess: true}
	}
	return BookView{Book: b.Restricted()}
}

// List returns a page of books, most recently updated first.
func (s *CatalogService) List(ctx context.Context, category string, v Viewer, page model.PageRequest) (model.Page[model.Book], error) {
	f := repository.BookFilter{Category: strings.TrimSpace(category), PublishedOnly: !v.Admin}
	return s.books.List(ctx, f, repository.SortRecentlyUpdated, page)
}

// Search matches term as a case-insensitive substring of title, author,
// category or description.
func (s *CatalogService) Search(ctx context.Context, term string, v Viewer, page model.PageRequest) (model.Page[model.Book], error) {
	term = strings.TrimSpace(term)
	if utf8.RuneCountInString(term) < minSearchLen {
		return model.Page[model.Book]{}, ErrQueryTooShort
	}
	return s.books.Search(ctx, term, !v.Admin, page)
}

// GetByID returns the book if v may see it.
func (s *CatalogService) GetByID(ctx context.Context, id string, v Viewer) (model.Book, error) {
	return visibleBook(ctx, s.books, id, v.Admin)
}

// Trending returns the best rated published books.
func (s *CatalogService) Trending(ctx context.Context, limit int) ([]model.Book, error) {
	return s.books.Top(ctx, repository.BookFilter{PublishedOnly: true}, repository.SortTopRated, limit)
}

// NewReleases returns the most recently created published books.
func (s *CatalogService) NewReleases(ctx context.Context, limit int) ([]model.Book, error) {
	return s.books.Top(ctx, repository.BookFilter{PublishedOnly: true}, repository.SortNewest, limit)
}
