package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/audiobook-library/internal/model"
)

const userColumns = "id,email,password_hash,username,role,created_at"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts u.  The email is normalized before insert and written
// back to u.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, username, role, created_at) VALUES (?,?,?,?,?,?)",
		u.ID, u.Email, u.PasswordHash, u.Username, string(u.Role), u.CreatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", NormalizeEmail(email))
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// Count returns the number of registered users.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

// ListRecent returns the newest users first.
func (r *UserRepo) ListRecent(ctx context.Context, limit int) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ListSummaries returns a page of users, newest first, each with its
// library size and the number of subscriptions that grant access at now.
func (r *UserRepo) ListSummaries(ctx context.Context, page model.PageRequest, now time.Time) (model.Page[model.UserSummary], error) {
	var res model.Page[model.UserSummary]
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&res.Total); err != nil {
		return res, err
	}
	const q = `SELECT u.id, u.email, u.password_hash, u.username, u.role, u.created_at,
		(SELECT COUNT(*) FROM library_entries l WHERE l.user_id = u.id) AS library_count,
		(SELECT COUNT(*) FROM subscriptions s
		  WHERE s.user_id = u.id AND s.status = 'ACTIVE' AND s.end_date >= ?) AS active_count
		FROM users u
		ORDER BY u.created_at DESC, u.id DESC
		LIMIT ? OFFSET ?`
	rows, err := r.DB.QueryContext(ctx, q, now, page.Limit, page.Offset())
	if err != nil {
		return res, err
	}
	defer rows.Close()
	res.Items = make([]model.UserSummary, 0, page.Limit)
	for rows.Next() {
		var s model.UserSummary
		var role string
		if err := rows.Scan(&s.ID, &s.Email, &s.PasswordHash, &s.Username, &role, &s.CreatedAt,
			&s.LibraryCount, &s.ActiveSubscriptionCount); err != nil {
			return res, err
		}
		s.Role = model.Role(role)
		res.Items = append(res.Items, s)
	}
	return res, rows.Err()
}

// NormalizeEmail trims and lower-cases an address so that comparisons
// are case-insensitive regardless of the column collation.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var u model.User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Username, &role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	u.Role = model.Role(role)
	return u, nil
}
