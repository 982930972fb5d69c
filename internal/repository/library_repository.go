package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/audiobook-library/internal/model"
)

// LibraryRepo stores the per-user saved-book set.  The table has a
// primary key on (user_id, book_id), so a pair can exist only once.
type LibraryRepo struct {
	db *sql.DB
}

// NewLibraryRepo returns a new LibraryRepo bound to the given database.
func NewLibraryRepo(db *sql.DB) *LibraryRepo { return &LibraryRepo{db: db} }

// Add inserts the (userID, bookID) pair.  ErrDuplicate is returned when
// the pair already exists.
func (r *LibraryRepo) Add(ctx context.Context, e model.LibraryEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO library_entries (user_id, book_id, added_at) VALUES (?, ?, ?)`,
		e.UserID, e.BookID, e.AddedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert library entry: %w", err)
	}
	return nil
}

// Remove deletes the pair.  ErrNotFound is returned when it was absent.
func (r *LibraryRepo) Remove(ctx context.Context, userID, bookID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM library_entries WHERE user_id = ? AND book_id = ?`, userID, bookID)
	if err != nil {
		return fmt.Errorf("delete library entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Exists reports whether the pair is present.
func (r *LibraryRepo) Exists(ctx context.Context, userID, bookID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM library_entries WHERE user_id = ? AND book_id = ? LIMIT 1`, userID, bookID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CountByUser returns the size of the user's library.
func (r *LibraryRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM library_entries WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

// ListBooks returns a page of the user's saved books, most recently
// added first.  book_id breaks ties so that pages never overlap.  With
// publishedOnly set, entries whose book has since been unpublished are
// left out of both the page and the total.
func (r *LibraryRepo) ListBooks(ctx context.Context, userID string, publishedOnly bool, page model.PageRequest) (model.Page[model.LibraryBook], error) {
	var res model.Page[model.LibraryBook]
	cond := "l.user_id = ?"
	if publishedOnly {
		cond += " AND b.is_published = TRUE"
	}
	from := ` FROM library_entries l JOIN books b ON b.id = l.book_id WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+from, userID).Scan(&res.Total); err != nil {
		return res, err
	}
	q := `SELECT ` + bookColumns + `, l.added_at` + from +
		` ORDER BY l.added_at DESC, l.book_id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, userID, page.Limit, page.Offset())
	if err != nil {
		return res, err
	}
	defer rows.Close()
	res.Items = make([]model.LibraryBook, 0, page.Limit)
	for rows.Next() {
		var lb model.LibraryBook
		b := &lb.Book
		if err := rows.Scan(
			&b.ID, &b.Title, &b.Author, &b.CoverImage, &b.Duration, &b.Rating, &b.Category,
			&b.Description, &b.ReleaseDate, &b.Narrator, &b.AdditionalText, &b.Reviews, &b.IsPublished,
			&b.AudioFile, &b.PreviewFile, &b.CreatedAt, &b.UpdatedAt, &lb.AddedAt,
		); err != nil {
			return res, err
		}
		res.Items = append(res.Items, lb)
	}
	return res, rows.Err()
}
