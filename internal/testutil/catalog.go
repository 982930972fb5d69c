package testutil

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/audiobook-library/internal/model"
	"github.com/iliyamo/audiobook-library/internal/repository"
)

// Books fakes repository.BookRepo.
type Books struct{ st *state }

func (f *Books) Create(ctx context.Context, b *model.Book) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.st.books[b.ID] = *b
	return nil
}

func (f *Books) Update(ctx context.Context, b *model.Book) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if _, ok := f.st.books[b.ID]; !ok {
		return repository.ErrNotFound
	}
	f.st.books[b.ID] = *b
	return nil
}

func (f *Books) Delete(ctx context.Context, id string) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if _, ok := f.st.books[id]; !ok {
		return repository.ErrNotFound
	}
	for k := range f.st.library {
		if k[1] == id {
			return repository.ErrConflict
		}
	}
	delete(f.st.books, id)
	return nil
}

func (f *Books) GetByID(ctx context.Context, id string) (model.Book, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	b, ok := f.st.books[id]
	if !ok {
		return model.Book{}, repository.ErrNotFound
	}
	return b, nil
}

func (f *Books) List(ctx context.Context, flt repository.BookFilter, s repository.BookSort, page model.PageRequest) (model.Page[model.Book], error) {
	all := f.filter(flt, func(model.Book) bool { return true }, s)
	return model.Page[model.Book]{Items: paginate(all, page), Total: int64(len(all))}, nil
}

func (f *Books) Search(ctx context.Context, term string, publishedOnly bool, page model.PageRequest) (model.Page[model.Book], error) {
	match := func(b model.Book) bool {
		cat := ""
		if b.Category != nil {
			cat = *b.Category
		}
		return containsFold(b.Title, term) || containsFold(b.Author, term) ||
			containsFold(cat, term) || containsFold(b.Description, term)
	}
	all := f.filter(repository.BookFilter{PublishedOnly: publishedOnly}, match, repository.SortRecentlyUpdated)
	return model.Page[model.Book]{Items: paginate(all, page), Total: int64(len(all))}, nil
}

func (f *Books) Top(ctx context.Context, flt repository.BookFilter, s repository.BookSort, limit int) ([]model.Book, error) {
	all := f.filter(flt, func(model.Book) bool { return true }, s)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *Books) Count(ctx context.Context, flt repository.BookFilter) (int64, error) {
	return int64(len(f.filter(flt, func(model.Book) bool { return true }, repository.SortNewest))), nil
}

func (f *Books) filter(flt repository.BookFilter, match func(model.Book) bool, s repository.BookSort) []model.Book {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	out := []model.Book{}
	for _, b := range f.st.books {
		if flt.PublishedOnly && !b.IsPublished {
			continue
		}
		if flt.Category != "" && (b.Category == nil || *b.Category != flt.Category) {
			continue
		}
		if match(b) {
			out = append(out, b)
		}
	}
	sortBooks(out, s)
	return out
}

func sortBooks(out []model.Book, s repository.BookSort) {
	newer := func(a, b time.Time) (bool, bool) { return a.After(b), !a.Equal(b) }
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch s {
		case repository.SortTopRated:
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
			if a.Reviews != b.Reviews {
				return a.Reviews > b.Reviews
			}
			if less, differ := newer(a.CreatedAt, b.CreatedAt); differ {
				return less
			}
		case repository.SortNewest:
			if less, differ := newer(a.CreatedAt, b.CreatedAt); differ {
				return less
			}
		default:
			if less, differ := newer(a.UpdatedAt, b.UpdatedAt); differ {
				return less
			}
		}
		return a.ID > b.ID
	})
}
