package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/audiobook-library/internal/model"
	"github.com/iliyamo/audiobook-library/internal/repository"
)

const recentLimit = 5

// AdminService backs the /admin routes: catalog management, statistics
// and the user list.  Callers must already hold the ADMIN role.  No
// operation here changes a user's role.
type AdminService struct {
	books BookStore
	users UserDirectory
	subs  SubscriptionStore
	clock Clock
}

func NewAdminService(books BookStore, users UserDirectory, subs SubscriptionStore, clock Clock) *AdminService {
	return &AdminService{books: books, users: users, subs: subs, clock: clock}
}

// BookInput is the admin payload for creating or patching a book.  Nil
// fields are left unchanged on update and defaulted on create.
type BookInput struct {
	Title          *string  `json:"title"`
	Author         *string  `json:"author"`
	CoverImage     *string  `json:"coverImage"`
	Duration       *string  `json:"duration"`
	Rating         *float64 `json:"rating"`
	Category       *string  `json:"category"`
	Description    *string  `json:"description"`
	ReleaseDate    *string  `json:"releaseDate"`
	Narrator       *string  `json:"narrator"`
	AdditionalText *string  `json:"additionalText"`
	Reviews        *int     `json:"reviews"`
	AudioFile      *string  `json:"audioFile"`
	PreviewFile    *string  `json:"previewFile"`
	IsPublished    *bool    `json:"isPublished"`
}

// Statistics is the admin dashboard summary.
type Statistics struct {
	TotalBooks               int64        `json:"totalBooks"`
	TotalUsers               int64        `json:"totalUsers"`
	TotalActiveSubscriptions int64        `json:"totalActiveSubscriptions"`
	RecentBooks              []model.Book `json:"recentBooks"`
	RecentUsers              []model.User `json:"recentUsers"`
}

// ListBooks returns every book, published or not, most recently updated first.
func (s *AdminService) ListBooks(ctx context.Context, page model.PageRequest) (model.Page[model.Book], error) {
	return s.books.List(ctx, repository.BookFilter{}, repository.SortRecentlyUpdated, page)
}

// CreateBook adds a book.  Title, author and description are required.
func (s *AdminService) CreateBook(ctx context.Context, in BookInput) (model.Book, error) {
	for _, f := range []struct {
		name string
		val  *string
	}{{"title", in.Title}, {"author", in.Author}, {"description", in.Description}} {
		if f.val == nil || strings.TrimSpace(*f.val) == "" {
			return model.Book{}, invalid(f.name, "is required")
		}
	}
	now := s.clock.now()
	b := model.Book{
		ID:          uuid.NewString(),
		Duration:    "0h 0m",
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := in.apply(&b); err != nil {
		return model.Book{}, err
	}
	if err := s.books.Create(ctx, &b); err != nil {
		return model.Book{}, err
	}
	return b, nil
}

// UpdateBook applies the non-nil fields of in to the book.
func (s *AdminService) UpdateBook(ctx context.Context, id string, in BookInput) (model.Book, error) {
	b, err := s.books.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Book{}, ErrBookNotFound
	}
	if err != nil {
		return model.Book{}, err
	}
	for _, f := range []struct {
		name string
		val  *string
	}{{"title", in.Title}, {"author", in.Author}, {"description", in.Description}} {
		if f.val != nil && strings.TrimSpace(*f.val) == "" {
			return model.Book{}, invalid(f.name, "must not be empty")
		}
	}
	if err := in.apply(&b); err != nil {
		return model.Book{}, err
	}
	b.UpdatedAt = s.clock.now()
	if err := s.books.Update(ctx, &b); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Book{}, ErrBookNotFound
		}
		return model.Book{}, err
	}
	return b, nil
}

// DeleteBook removes a book no library references.  Books that users have
// saved are refused with ErrBookReferenced; unpublish them instead.
func (s *AdminService) DeleteBook(ctx context.Context, id string) error {
	err := s.books.Delete(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrBookNotFound
	case errors.Is(err, repository.ErrConflict):
		return ErrBookReferenced
	}
	return err
}

// Statistics returns catalog and user totals plus the newest entries.
func (s *AdminService) Statistics(ctx context.Context) (Statistics, error) {
	var st Statistics
	var err error
	if st.TotalBooks, err = s.books.Count(ctx, repository.BookFilter{}); err != nil {
		return st, err
	}
	if st.TotalUsers, err = s.users.Count(ctx); err != nil {
		return st, err
	}
	if st.TotalActiveSubscriptions, err = s.subs.CountActive(ctx, s.clock.now()); err != nil {
		return st, err
	}
	if st.RecentBooks, err = s.books.Top(ctx, repository.BookFilter{}, repository.SortNewest, recentLimit); err != nil {
		return st, err
	}
	if st.RecentUsers, err = s.users.ListRecent(ctx, recentLimit); err != nil {
		return st, err
	}
	return st, nil
}

// ListUsers returns a page of users with their library and subscription counts.
func (s *AdminService) ListUsers(ctx context.Context, page model.PageRequest) (model.Page[model.UserSummary], error) {
	return s.users.ListSummaries(ctx, page, s.clock.now())
}

func (in BookInput) apply(b *model.Book) error {
	if in.Rating != nil && (*in.Rating < 0 || *in.Rating > 5) {
		return invalid("rating", "must be between 0 and 5")
	}
	if in.Reviews != nil && *in.Reviews < 0 {
		return invalid("reviews", "must not be negative")
	}
	setString(&b.Title, in.Title)
	setString(&b.Author, in.Author)
	setString(&b.CoverImage, in.CoverImage)
	setString(&b.Duration, in.Duration)
	setString(&b.Description, in.Description)
	setOptional(&b.Category, in.Category)
	setOptional(&b.ReleaseDate, in.ReleaseDate)
	setOptional(&b.Narrator, in.Narrator)
	setOptional(&b.AdditionalText, in.AdditionalText)
	setOptional(&b.AudioFile, in.AudioFile)
	setOptional(&b.PreviewFile, in.PreviewFile)
	if in.Rating != nil {
		b.Rating = *in.Rating
	}
	if in.Reviews != nil {
		b.Reviews = *in.Reviews
	}
	if in.IsPublished != nil {
		b.IsPublished = *in.IsPublished
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// setOptional stores v, mapping an explicit empty string to NULL.
func setOptional(dst **string, v *string) {
	if v == nil {
		return
	}
	if s := strings.TrimSpace(*v); s != "" {
		*dst = &s
	} else {
		*dst = nil
	}
}
