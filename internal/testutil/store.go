// Package testutil holds in-memory stand-ins for the MySQL repositories,
// the Redis revocation list and the event publisher.  They honor the same
// contracts, including sentinel errors and orderings, so services and
// handlers can be tested without a database.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/audiobook-library/internal/model"
	"github.com/iliyamo/audiobook-library/internal/queue"
	"github.com/iliyamo/audiobook-library/internal/repository"
)

// state is the shared "database" behind the fakes.
type state struct {
	mu      sync.Mutex
	users   map[string]model.User
	books   map[string]model.Book
	subs    []model.Subscription
	library map[[2]string]time.Time
	revoked map[string]time.Time
	events  []queue.SubscriptionEvent
}

// Store bundles one fake per repository over shared state, so that for
// example deleting a book sees the library entries added through Library.
type Store struct {
	Users         *Users
	Books         *Books
	Subscriptions *Subscriptions
	Library       *Library
	Revocations   *Revocations
	Events        *Events
	st            *state
}

func NewStore() *Store {
	st := &state{
		users:   map[string]model.User{},
		books:   map[string]model.Book{},
		library: map[[2]string]time.Time{},
		revoked: map[string]time.Time{},
	}
	return &Store{
		Users:         &Users{st},
		Books:         &Books{st},
		Subscriptions: &Subscriptions{st},
		Library:       &Library{st},
		Revocations:   &Revocations{st},
		Events:        &Events{st},
		st:            st,
	}
}

// Users fakes repository.UserRepo.
type Users struct{ st *state }

func (f *Users) Create(ctx context.Context, u *model.User) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	u.Email = repository.NormalizeEmail(u.Email)
	for _, x := range f.st.users {
		if x.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	f.st.users[u.ID] = *u
	return nil
}

func (f *Users) GetByEmail(ctx context.Context, email string) (model.User, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	email = repository.NormalizeEmail(email)
	for _, u := range f.st.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *Users) GetByID(ctx context.Context, id string) (model.User, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	u, ok := f.st.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

// SetRole changes a stored role the way an operator would in the database.
func (f *Users) SetRole(id string, r model.Role) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	u := f.st.users[id]
	u.Role = r
	f.st.users[id] = u
}

// Delete drops a user row.
func (f *Users) Delete(id string) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	delete(f.st.users, id)
}

func (f *Users) Count(ctx context.Context) (int64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	return int64(len(f.st.users)), nil
}

func (f *Users) ListRecent(ctx context.Context, limit int) ([]model.User, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	out := f.sorted()
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *Users) ListSummaries(ctx context.Context, page model.PageRequest, now time.Time) (model.Page[model.UserSummary], error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	all := f.sorted()
	res := model.Page[model.UserSummary]{Total: int64(len(all)), Items: []model.UserSummary{}}
	for _, u := range paginate(all, page) {
		sum := model.UserSummary{User: u}
		for k := range f.st.library {
			if k[0] == u.ID {
				sum.LibraryCount++
			}
		}
		for _, s := range f.st.subs {
			if s.UserID == u.ID && s.ActiveAt(now) {
				sum.ActiveSubscriptionCount++
			}
		}
		res.Items = append(res.Items, sum)
	}
	return res, nil
}

func (f *Users) sorted() []model.User {
	out := make([]model.User, 0, len(f.st.users))
	for _, u := range f.st.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Revocations fakes repository.RevocationStore.
type Revocations struct{ st *state }

func (f *Revocations) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.st.revoked[jti] = expiresAt
	return nil
}

func (f *Revocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	_, ok := f.st.revoked[jti]
	return ok, nil
}

// Events records published subscription events.
type Events struct{ st *state }

func (f *Events) Publish(ctx context.Context, ev queue.SubscriptionEvent) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.st.events = append(f.st.events, ev)
	return nil
}

// All returns a copy of the events published so far.
func (f *Events) All() []queue.SubscriptionEvent {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	return append([]queue.SubscriptionEvent(nil), f.st.events...)
}

func paginate[T any](all []T, page model.PageRequest) []T {
	start := page.Offset()
	if start < 0 || start >= len(all) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
