package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/audiobook-library/internal/model"
)

// BookRepo provides CRUD and query operations over the `books` table.
type BookRepo struct {
	db *sql.DB
}

// NewBookRepo returns a new BookRepo bound to the given database.
func NewBookRepo(db *sql.DB) *BookRepo { return &BookRepo{db: db} }

const bookColumns = `b.id, b.title, b.author, b.cover_image, b.duration, b.rating, b.category,
	b.description, b.release_date, b.narrator, b.additional_text, b.reviews, b.is_published,
	b.audio_file, b.preview_file, b.created_at, b.updated_at`

// BookFilter restricts a catalog listing.  An empty Category means any
// category.  PublishedOnly hides unpublished books.
type BookFilter struct {
	Category      string
	PublishedOnly bool
}

// BookSort names one of the fixed orderings used by the catalog.
type BookSort int

const (
	// SortRecentlyUpdated orders by updated_at, newest first.
	SortRecentlyUpdated BookSort = iota
	// SortNewest orders by created_at, newest first.
	SortNewest
	// SortTopRated orders by rating, then review count, then recency.
	SortTopRated
)

func (s BookSort) clause() string {
	switch s {
	case SortNewest:
		return "b.created_at DESC, b.id DESC"
	case SortTopRated:
		return "b.rating DESC, b.reviews DESC, b.created_at DESC, b.id DESC"
	default:
		return "b.updated_at DESC, b.id DESC"
	}
}

// Create inserts b.  ID and timestamps must already be set.
func (r *BookRepo) Create(ctx context.Context, b *model.Book) error {
	const q = `INSERT INTO books (id, title, author, cover_image, duration, rating, category,
		description, release_date, narrator, additional_text, reviews, is_published,
		audio_file, preview_file, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	_, err := r.db.ExecContext(ctx, q,
		b.ID, b.Title, b.Author, b.CoverImage, b.Duration, b.Rating, b.Category,
		b.Description, b.ReleaseDate, b.Narrator, b.AdditionalText, b.Reviews, b.IsPublished,
		b.AudioFile, b.PreviewFile, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

// Update overwrites every mutable column of b.  ErrNotFound is returned
// when no book has b.ID.
func (r *BookRepo) Update(ctx context.Context, b *model.Book) error {
	const q = `UPDATE books SET title=?, author=?, cover_image=?, duration=?, rating=?, category=?,
		description=?, release_date=?, narrator=?, additional_text=?, reviews=?, is_published=?,
		audio_file=?, preview_file=?, updated_at=?
		WHERE id=?`
	res, err := r.db.ExecContext(ctx, q,
		b.Title, b.Author, b.CoverImage, b.Duration, b.Rating, b.Category,
		b.Description, b.ReleaseDate, b.Narrator, b.AdditionalText, b.Reviews, b.IsPublished,
		b.AudioFile, b.PreviewFile, b.UpdatedAt, b.ID)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	// MySQL reports 0 affected rows when nothing changed, so existence is
	// checked separately rather than trusting RowsAffected.
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, b.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a book that no library entry references.  The check
// and the delete run in one transaction with the referencing rows
// locked, so a concurrent add cannot slip in between.
func (r *BookRepo) Delete(ctx context.Context, id string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var one int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM books WHERE id = ? FOR UPDATE`, id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		var refs int64
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM library_entries WHERE book_id = ? FOR UPDATE`, id).Scan(&refs); err != nil {
			return err
		}
		if refs > 0 {
			return ErrConflict
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id); err != nil {
			return err
		}
		return nil
	})
}

// GetByID returns the book regardless of its publication flag.
// Visibility is decided by the caller.
func (r *BookRepo) GetByID(ctx context.Context, id string) (model.Book, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books b WHERE b.id = ?`, id)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Book{}, ErrNotFound
	}
	return b, err
}

// List returns a page of books matching f in the given order.
func (r *BookRepo) List(ctx context.Context, f BookFilter, sort BookSort, page model.PageRequest) (model.Page[model.Book], error) {
	where, args := f.where()
	return r.page(ctx, where, args, sort, page)
}

// Search returns books whose title, author, category or description
// contains term, case-insensitively.
func (r *BookRepo) Search(ctx context.Context, term string, publishedOnly bool, page model.PageRequest) (model.Page[model.Book], error) {
	where, args := BookFilter{PublishedOnly: publishedOnly}.where()
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	where = append(where, `(LOWER(b.title) LIKE ? OR LOWER(b.author) LIKE ?
		OR LOWER(COALESCE(b.category, '')) LIKE ? OR LOWER(b.description) LIKE ?)`)
	args = append(args, pattern, pattern, pattern, pattern)
	return r.page(ctx, where, args, SortRecentlyUpdated, page)
}

// Top returns up to limit books matching f in the given order, without
// a count query.
func (r *BookRepo) Top(ctx context.Context, f BookFilter, sort BookSort, limit int) ([]model.Book, error) {
	where, args := f.where()
	q := `SELECT ` + bookColumns + ` FROM books b WHERE ` + joinWhere(where) +
		` ORDER BY ` + sort.clause() + ` LIMIT ?`
	return r.query(ctx, q, append(args, limit)...)
}

// Count returns the number of books matching f.
func (r *BookRepo) Count(ctx context.Context, f BookFilter) (int64, error) {
	where, args := f.where()
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books b WHERE `+joinWhere(where), args...).Scan(&n)
	return n, err
}

func (r *BookRepo) page(ctx context.Context, where []string, args []any, sort BookSort, page model.PageRequest) (model.Page[model.Book], error) {
	var res model.Page[model.Book]
	cond := joinWhere(where)
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books b WHERE `+cond, args...).Scan(&res.Total); err != nil {
		return res, err
	}
	q := `SELECT ` + bookColumns + ` FROM books b WHERE ` + cond +
		` ORDER BY ` + sort.clause() + ` LIMIT ? OFFSET ?`
	items, err := r.query(ctx, q, append(append([]any{}, args...), page.Limit, page.Offset())...)
	if err != nil {
		return res, err
	}
	res.Items = items
	return res, nil
}

func (r *BookRepo) query(ctx context.Context, q string, args ...any) ([]model.Book, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (f BookFilter) where() ([]string, []any) {
	where := []string{}
	args := []any{}
	if f.PublishedOnly {
		where = append(where, "b.is_published = TRUE")
	}
	if f.Category != "" {
		where = append(where, "b.category = ?")
		args = append(args, f.Category)
	}
	return where, args
}

func joinWhere(where []string) string {
	if len(where) == 0 {
		return "1=1"
	}
	return strings.Join(where, " AND ")
}

// escapeLike escapes the LIKE wildcards so that user input only ever
// matches literally.  MySQL's default LIKE escape character is '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func scanBook(row rowScanner) (model.Book, error) {
	var b model.Book
	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.CoverImage, &b.Duration, &b.Rating, &b.Category,
		&b.Description, &b.ReleaseDate, &b.Narrator, &b.AdditionalText, &b.Reviews, &b.IsPublished,
		&b.AudioFile, &b.PreviewFile, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}
