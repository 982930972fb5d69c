package service

import (
	"context"
	"errors"

	"github.com/iliyamo/audiobook-library/internal/model"
	"github.com/iliyamo/audiobook-library/internal/repository"
)

// LibraryService manages each user's saved-book set.  Membership is
// independent of entitlement.
type LibraryService struct {
	entries LibraryStore
	books   BookReader
	clock   Clock
}

func NewLibraryService(entries LibraryStore, books BookReader, clock Clock) *LibraryService {
	return &LibraryService{entries: entries, books: books, clock: clock}
}

// Add saves bookID to the user's library.  The existence probe gives a
// clean error in the common case; the unique key catches the race.
func (s *LibraryService) Add(ctx context.Context, u model.User, bookID string) error {
	if _, err := visibleBook(ctx, s.books, bookID, u.IsAdmin()); err != nil {
		return err
	}
	exists, err := s.entries.Exists(ctx, u.ID, bookID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyInLibrary
	}
	err = s.entries.Add(ctx, model.LibraryEntry{UserID: u.ID, BookID: bookID, AddedAt: s.clock.now()})
	if errors.Is(err, repository.ErrDuplicate) {
		return ErrAlreadyInLibrary
	}
	return err
}

// Remove deletes bookID from the user's library.
func (s *LibraryService) Remove(ctx context.Context, userID, bookID string) error {
	err := s.entries.Remove(ctx, userID, bookID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotInLibrary
	}
	return err
}

// Check reports membership.  Absence is false, not an error.
func (s *LibraryService) Check(ctx context.Context, userID, bookID string) (bool, error) {
	return s.entries.Exists(ctx, userID, bookID)
}

// List returns a page of the user's saved books, most recently added
// first.  Non-admins do not see books that were unpublished after saving.
func (s *LibraryService) List(ctx context.Context, u model.User, page model.PageRequest) (model.Page[model.LibraryBook], error) {
	return s.entries.ListBooks(ctx, u.ID, !u.IsAdmin(), page)
}
