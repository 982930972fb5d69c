package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/audiobook-library/internal/model"
)

// SubscriptionRepo persists subscriptions.  Rows are never deleted:
// cancellation is a status change that keeps end_date for history.
type SubscriptionRepo struct {
	db *sql.DB
}

// NewSubscriptionRepo returns a new SubscriptionRepo bound to the given database.
func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo { return &SubscriptionRepo{db: db} }

const subscriptionColumns = "id, user_id, plan_type, start_date, end_date, status, created_at, updated_at"

// FindActive returns the subscription of userID that grants access at
// now: status ACTIVE and end_date not yet passed.  When several rows
// qualify the one with the latest end_date wins.  ErrNotFound is
// returned when there is none.
func (r *SubscriptionRepo) FindActive(ctx context.Context, userID string, now time.Time) (model.Subscription, error) {
	const q = `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = ? AND status = 'ACTIVE' AND end_date >= ?
		ORDER BY end_date DESC
		LIMIT 1`
	s, err := scanSubscription(r.db.QueryRowContext(ctx, q, userID, now))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Subscription{}, ErrNotFound
	}
	return s, err
}

// Replace makes s the only ACTIVE subscription of s.UserID.  Inside one
// transaction it locks the owning user row, cancels every ACTIVE
// subscription of that user and inserts s.  The row lock serializes
// concurrent Replace calls for the same user; other users are not
// blocked.  ErrNotFound is returned when the user does not exist.
func (r *SubscriptionRepo) Replace(ctx context.Context, s *model.Subscription) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var id string
		if err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = ? FOR UPDATE`, s.UserID).Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE subscriptions SET status = 'CANCELLED', updated_at = ? WHERE user_id = ? AND status = 'ACTIVE'`,
			s.CreatedAt, s.UserID); err != nil {
			return fmt.Errorf("cancel active subscriptions: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO subscriptions (`+subscriptionColumns+`) VALUES (?,?,?,?,?,?,?,?)`,
			s.ID, s.UserID, string(s.PlanType), s.StartDate, s.EndDate, string(s.Status), s.CreatedAt, s.UpdatedAt); err != nil {
			return fmt.Errorf("insert subscription: %w", err)
		}
		return nil
	})
}

// CancelActive sets the status of an ACTIVE subscription owned by userID
// to CANCELLED.  end_date is left untouched.  ErrNotFound is returned
// when no ACTIVE subscription with that id belongs to the user.
func (r *SubscriptionRepo) CancelActive(ctx context.Context, userID, subscriptionID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET status = 'CANCELLED', updated_at = ?
		 WHERE id = ? AND user_id = ? AND status = 'ACTIVE'`,
		at, subscriptionID, userID)
	if err != nil {
		return fmt.Errorf("cancel subscription: %w", err)
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

// ListByUser returns every subscription of userID, newest first.
func (r *SubscriptionRepo) ListByUser(ctx context.Context, userID string) ([]model.Subscription, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Subscription{}
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountActive returns the number of subscriptions granting access at now.
func (r *SubscriptionRepo) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE status = 'ACTIVE' AND end_date >= ?`, now).Scan(&n)
	return n, err
}

func scanSubscription(row rowScanner) (model.Subscription, error) {
	var s model.Subscription
	var plan, status string
	if err := row.Scan(&s.ID, &s.UserID, &plan, &s.StartDate, &s.EndDate, &status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return model.Subscription{}, err
	}
	s.PlanType = model.PlanType(plan)
	s.Status = model.SubscriptionStatus(status)
	return s, nil
}
