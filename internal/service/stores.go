package service

import (
	"context"
	"time"

	"github.com/iliyamo/audiobook-library/internal/model"
	"github.com/iliyamo/audiobook-library/internal/repository"
)

// The interfaces below are the slices of the repositories each service
// depends on.  *repository.UserRepo, *repository.BookRepo and friends
// satisfy them; tests use the in-memory fakes in internal/testutil.

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
}

type UserDirectory interface {
	Count(ctx context.Context) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]model.User, error)
	ListSummaries(ctx context.Context, page model.PageRequest, now time.Time) (model.Page[model.UserSummary], error)
}

type BookReader interface {
	GetByID(ctx context.Context, id string) (model.Book, error)
}

type BookStore interface {
	BookReader
	Create(ctx context.Context, b *model.Book) error
	Update(ctx context.Context, b *model.Book) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f repository.BookFilter, sort repository.BookSort, page model.PageRequest) (model.Page[model.Book], error)
	Search(ctx context.Context, term string, publishedOnly bool, page model.PageRequest) (model.Page[model.Book], error)
	Top(ctx context.Context, f repository.BookFilter, sort repository.BookSort, limit int) ([]model.Book, error)
	Count(ctx context.Context, f repository.BookFilter) (int64, error)
}

type SubscriptionStore interface {
	FindActive(ctx context.Context, userID string, now time.Time) (model.Subscription, error)
	Replace(ctx context.Context, s *model.Subscription) error
	CancelActive(ctx context.Context, userID, subscriptionID string, at time.Time) error
	ListByUser(ctx context.Context, userID string) ([]model.Subscription, error)
	CountActive(ctx context.Context, now time.Time) (int64, error)
}

type LibraryStore interface {
	Add(ctx context.Context, e model.LibraryEntry) error
	Remove(ctx context.Context, userID, bookID string) error
	Exists(ctx context.Context, userID, bookID string) (bool, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	ListBooks(ctx context.Context, userID string, publishedOnly bool, page model.PageRequest) (model.Page[model.LibraryBook], error)
}

// TokenRevoker is the session deny-list.  *repository.RevocationStore
// implements it.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Clock returns the current time.  Services take one so that tests can
// pin "now".
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC().Truncate(time.Second)
	}
	return c().UTC().Truncate(time.Second)
}
