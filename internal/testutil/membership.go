package testutil

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/audiobook-library/internal/model"
	"github.com/iliyamo/audiobook-library/internal/repository"
)

// Subscriptions fakes repository.SubscriptionRepo.  Replace holds the
// store mutex for the whole cancel-then-insert, standing in for the row lock.
type Subscriptions struct{ st *state }

func (f *Subscriptions) FindActive(ctx context.Context, userID string, now time.Time) (model.Subscription, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var best *model.Subscription
	for i := range f.st.subs {
		s := &f.st.subs[i]
		if s.UserID == userID && s.ActiveAt(now) && (best == nil || s.EndDate.After(best.EndDate)) {
			best = s
		}
	}
	if best == nil {
		return model.Subscription{}, repository.ErrNotFound
	}
	return *best, nil
}

func (f *Subscriptions) Replace(ctx context.Context, s *model.Subscription) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if _, ok := f.st.users[s.UserID]; !ok {
		return repository.ErrNotFound
	}
	for i := range f.st.subs {
		if f.st.subs[i].UserID == s.UserID && f.st.subs[i].Status == model.SubscriptionActive {
			f.st.subs[i].Status = model.SubscriptionCancelled
			f.st.subs[i].UpdatedAt = s.CreatedAt
		}
	}
	f.st.subs = append(f.st.subs, *s)
	return nil
}

func (f *Subscriptions) CancelActive(ctx context.Context, userID, subscriptionID string, at time.Time) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for i := range f.st.subs {
		s := &f.st.subs[i]
		if s.ID == subscriptionID && s.UserID == userID && s.Status == model.SubscriptionActive {
			s.Status = model.SubscriptionCancelled
			s.UpdatedAt = at
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *Subscriptions) ListByUser(ctx context.Context, userID string) ([]model.Subscription, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	out := []model.Subscription{}
	for i := len(f.st.subs) - 1; i >= 0; i-- {
		if f.st.subs[i].UserID == userID {
			out = append(out, f.st.subs[i])
		}
	}
	return out, nil
}

func (f *Subscriptions) CountActive(ctx context.Context, now time.Time) (int64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var n int64
	for _, s := range f.st.subs {
		if s.ActiveAt(now) {
			n++
		}
	}
	return n, nil
}

// Insert stores s as is, bypassing Replace.  Tests use it to set up
// states Replace would never produce, such as two ACTIVE rows.
func (f *Subscriptions) Insert(s model.Subscription) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.st.subs = append(f.st.subs, s)
}

// ActiveCount returns how many rows of userID have status ACTIVE,
// ignoring end dates.
func (f *Subscriptions) ActiveCount(userID string) int {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	n := 0
	for _, s := range f.st.subs {
		if s.UserID == userID && s.Status == model.SubscriptionActive {
			n++
		}
	}
	return n
}

// Library fakes repository.LibraryRepo.
type Library struct{ st *state }

func (f *Library) Add(ctx context.Context, e model.LibraryEntry) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	k := [2]string{e.UserID, e.BookID}
	if _, ok := f.st.library[k]; ok {
		return repository.ErrDuplicate
	}
	f.st.library[k] = e.AddedAt
	return nil
}

func (f *Library) Remove(ctx context.Context, userID, bookID string) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	k := [2]string{userID, bookID}
	if _, ok := f.st.library[k]; !ok {
		return repository.ErrNotFound
	}
	delete(f.st.library, k)
	return nil
}

func (f *Library) Exists(ctx context.Context, userID, bookID string) (bool, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	_, ok := f.st.library[[2]string{userID, bookID}]
	return ok, nil
}

func (f *Library) CountByUser(ctx context.Context, userID string) (int64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var n int64
	for k := range f.st.library {
		if k[0] == userID {
			n++
		}
	}
	return n, nil
}

func (f *Library) ListBooks(ctx context.Context, userID string, publishedOnly bool, page model.PageRequest) (model.Page[model.LibraryBook], error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	all := []model.LibraryBook{}
	for k, at := range f.st.library {
		if k[0] != userID {
			continue
		}
		b, ok := f.st.books[k[1]]
		if !ok || (publishedOnly && !b.IsPublished) {
			continue
		}
		all = append(all, model.LibraryBook{Book: b, AddedAt: at})
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].AddedAt.Equal(all[j].AddedAt) {
			return all[i].AddedAt.After(all[j].AddedAt)
		}
		return all[i].ID > all[j].ID
	})
	return model.Page[model.LibraryBook]{Items: paginate(all, page), Total: int64(len(all))}, nil
}
