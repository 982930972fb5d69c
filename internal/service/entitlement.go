package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/audiobook-library/internal/model"
	"github.com/iliyamo/audiobook-library/internal/queue"
	"github.com/iliyamo/audiobook-library/internal/repository"
)

// EntitlementService decides whether a user currently has paid access and
// manages the subscription lifecycle.  Entitlement is always computed
// from status and end date against the clock; a stored ACTIVE status
// alone never grants access.
type EntitlementService struct {
	subs   SubscriptionStore
	books  BookReader
	events EventPublisher
	clock  Clock
	log    *slog.Logger
}

// NewEntitlementService wires an EntitlementService.  A nil events
// publisher drops events.
func NewEntitlementService(subs SubscriptionStore, books BookReader, events EventPublisher, clock Clock, log *slog.Logger) *EntitlementService {
	if events == nil {
		events = NopPublisher{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &EntitlementService{subs: subs, books: books, events: events, clock: clock, log: log}
}

// AccessDecision answers "may this user play this book".  Access is all or
// nothing per subscription, so RequiresSubscription is always true today.
type AccessDecision struct {
	HasAccess            bool `json:"hasAccess"`
	RequiresSubscription bool `json:"requiresSubscription"`
}

// GetActiveSubscription returns the subscription granting access now, or
// nil when there is none.
func (s *EntitlementService) GetActiveSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	now := s.clock.now()
	sub, err := s.subs.FindActive(ctx, userID, now)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !sub.ActiveAt(now) {
		return nil, nil
	}
	return &sub, nil
}

// HasActiveSubscription is the boolean form of GetActiveSubscription.
func (s *EntitlementService) HasActiveSubscription(ctx context.Context, userID string) (bool, error) {
	sub, err := s.GetActiveSubscription(ctx, userID)
	return sub != nil, err
}

// Subscribe starts a new subscription window at now and cancels every
// ACTIVE one the user held, in a single transaction.  Calling it twice
// leaves exactly one ACTIVE row whose window starts at the second call.
func (s *EntitlementService) Subscribe(ctx context.Context, userID, planType string) (model.Subscription, error) {
	plan := model.PlanType(strings.ToUpper(strings.TrimSpace(planType)))
	if !plan.Valid() {
		return model.Subscription{}, ErrInvalidPlan
	}
	now := s.clock.now()
	sub := model.Subscription{
		ID:        uuid.NewString(),
		UserID:    userID,
		PlanType:  plan,
		StartDate: now,
		EndDate:   plan.EndDate(now),
		Status:    model.SubscriptionActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.subs.Replace(ctx, &sub); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Subscription{}, ErrNotFound
		}
		return model.Subscription{}, err
	}
	s.publish(ctx, queue.SubscriptionEvent{
		Type:           queue.EventSubscribed,
		SubscriptionID: sub.ID,
		UserID:         userID,
		PlanType:       string(plan),
		StartDate:      sub.StartDate,
		EndDate:        sub.EndDate,
		OccurredAt:     now,
	})
	return sub, nil
}

// Cancel ends an ACTIVE subscription owned by userID.  The end date is kept
// so the history still shows the paid window.
func (s *EntitlementService) Cancel(ctx context.Context, userID, subscriptionID string) error {
	now := s.clock.now()
	if err := s.subs.CancelActive(ctx, userID, subscriptionID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.publish(ctx, queue.SubscriptionEvent{
		Type:           queue.EventCancelled,
		SubscriptionID: subscriptionID,
		UserID:         userID,
		OccurredAt:     now,
	})
	return nil
}

// History lists every subscription of the user, newest first.
func (s *EntitlementService) History(ctx context.Context, userID string) ([]model.Subscription, error) {
	return s.subs.ListByUser(ctx, userID)
}

// CheckAccess reports whether u may play bookID.  A book the caller may
// not see is reported as ErrBookNotFound rather than as a denial.
func (s *EntitlementService) CheckAccess(ctx context.Context, u model.User, bookID string) (AccessDecision, error) {
	if _, err := visibleBook(ctx, s.books, bookID, u.IsAdmin()); err != nil {
		return AccessDecision{}, err
	}
	ok, err := s.HasActiveSubscription(ctx, u.ID)
	if err != nil {
		return AccessDecision{}, err
	}
	return AccessDecision{HasAccess: ok, RequiresSubscription: true}, nil
}

func (s *EntitlementService) publish(ctx context.Context, ev queue.SubscriptionEvent) {
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("subscription event not published", "type", ev.Type, "subscription_id", ev.SubscriptionID, "err", err)
	}
}

// visibleBook loads a book and hides unpublished ones from non-admins.
func visibleBook(ctx context.Context, books BookReader, id string, admin bool) (model.Book, error) {
	b, err := books.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Book{}, ErrBookNotFound
	}
	if err != nil {
		return model.Book{}, err
	}
	if !b.IsPublished && !admin {
		return model.Book{}, ErrBookNotFound
	}
	return b, nil
}
