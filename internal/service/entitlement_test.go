package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/audiobook-library/internal/model"
	"github.com/iliyamo/audiobook-library/internal/queue"
)

func TestSubscribeComputesWindow(t *testing.T) {
	tests := []struct {
		plan string
		want time.Time
	}{
		{"MONTHLY", t0.AddDate(0, 1, 0)},
		{"annual", t0.AddDate(1, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.plan, func(t *testing.T) {
			f := newFixture(t)
			u := f.store.AddUser("a@x.com", model.RoleUser, t0)
			sub, err := f.ent.Subscribe(ctx, u.ID, tt.plan)
			require.NoError(t, err)
			assert.Equal(t, t0, sub.StartDate)
			assert.Equal(t, tt.want, sub.EndDate)
			assert.Equal(t, model.SubscriptionActive, sub.Status)
		})
	}
}

func TestSubscribeRejectsUnknownPlan(t *testing.T) {
	f := newFixture(t)
	u := f.store.AddUser("a@x.com", model.RoleUser, t0)
	for _, plan := range []string{"", "WEEKLY", "LIFETIME"} {
		_, err := f.ent.Subscribe(ctx, u.ID, plan)
		assert.ErrorIs(t, err, ErrInvalidPlan, plan)
	}
	assert.Empty(t, f.store.Events.All())
}

func TestSubscribeTwiceLeavesOneActive(t *testing.T) {
	f := newFixture(t)
	u := f.store.AddUser("a@x.com", model.RoleUser, t0)

	first, err := f.ent.Subscribe(ctx, u.ID, "MONTHLY")
	require.NoError(t, err)
	f.advance(10 * time.Minute)
	second, err := f.ent.Subscribe(ctx, u.ID, "MONTHLY")
	require.NoError(t, err)

	assert.Equal(t, 1, f.store.Subscriptions.ActiveCount(u.ID))
	active, err := f.ent.GetActiveSubscription(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.ID)
	assert.Equal(t, t0.Add(10*time.Minute).AddDate(0, 1, 0), active.EndDate)

	history, err := f.ent.History(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)
	assert.Equal(t, model.SubscriptionCancelled, history[1].Status)
	assert.Equal(t, first.EndDate, history[1].EndDate)

	events := f.store.Events.All()
	require.Len(t, events, 2)
	assert.Equal(t, queue.EventSubscribed, events[1].Type)
}

func TestConcurrentSubscribeKeepsExactlyOneActive(t *testing.T) {
	f := newFixture(t)
	u := f.store.AddUser("a@x.com", model.RoleUser, t0)
	_, err := f.ent.Subscribe(ctx, u.ID, "MONTHLY")
	require.NoError(t, err)

	const writers = 16
	done := make(chan struct{})
	var readers sync.WaitGroup
	readers.Add(1)
	go func() {
		defer readers.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			active, err := f.ent.GetActiveSubscription(ctx, u.ID)
			assert.NoError(t, err)
			assert.NotNil(t, active)
			assert.Equal(t, 1, f.store.Subscriptions.ActiveCount(u.ID))
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ent.Subscribe(ctx, u.ID, "MONTHLY")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	close(done)
	readers.Wait()

	history, err := f.ent.History(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, history, writers+1)
	active := 0
	for _, s := range history {
		if s.Status == model.SubscriptionActive {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestSubscribeUnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.ent.Subscribe(ctx, "ghost", "MONTHLY")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEntitlementNeedsStatusAndDate(t *testing.T) {
	f := newFixture(t)
	u := f.store.AddUser("a@x.com", model.RoleUser, t0)

	// ACTIVE by status but already over.
	f.store.Subscriptions.Insert(model.Subscription{
		ID: "old", UserID: u.ID, PlanType: model.PlanMonthly, Status: model.SubscriptionActive,
		StartDate: t0.AddDate(0, -2, 0), EndDate: t0.AddDate(0, -1, 0),
	})
	ok, err := f.ent.HasActiveSubscription(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	sub, err := f.ent.Subscribe(ctx, u.ID, "MONTHLY")
	require.NoError(t, err)
	ok, err = f.ent.HasActiveSubscription(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Still entitled on the last instant of the window, not after it.
	f.advance(sub.EndDate.Sub(t0))
	ok, _ = f.ent.HasActiveSubscription(ctx, u.ID)
	assert.True(t, ok)
	f.advance(time.Second)
	ok, _ = f.ent.HasActiveSubscription(ctx, u.ID)
	assert.False(t, ok)
}

func TestGetActivePrefersLatestEndDate(t *testing.T) {
	f := newFixture(t)
	u := f.store.AddUser("a@x.com", model.RoleUser, t0)
	for id, end := range map[string]time.Time{"short": t0.AddDate(0, 1, 0), "long": t0.AddDate(1, 0, 0)} {
		f.store.Subscriptions.Insert(model.Subscription{
			ID: id, UserID: u.ID, Status: model.SubscriptionActive, StartDate: t0, EndDate: end,
		})
	}
	sub, err := f.ent.GetActiveSubscription(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "long", sub.ID)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	u := f.store.AddUser("a@x.com", model.RoleUser, t0)
	other := f.store.AddUser("b@x.com", model.RoleUser, t0)
	sub, err := f.ent.Subscribe(ctx, u.ID, "ANNUAL")
	require.NoError(t, err)

	assert.ErrorIs(t, f.ent.Cancel(ctx, other.ID, sub.ID), ErrNotFound)
	require.NoError(t, f.ent.Cancel(ctx, u.ID, sub.ID))
	assert.ErrorIs(t, f.ent.Cancel(ctx, u.ID, sub.ID), ErrNotFound)

	ok, err := f.ent.HasActiveSubscription(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	history, err := f.ent.History(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, sub.EndDate, history[0].EndDate)

	events := f.store.Events.All()
	require.Len(t, events, 2)
	assert.Equal(t, queue.EventCancelled, events[1].Type)
}

func TestCheckAccess(t *testing.T) {
	f := newFixture(t)
	u := f.store.AddUser("a@x.com", model.RoleUser, t0)
	admin := f.store.AddUser("admin@x.com", model.RoleAdmin, t0)
	pub := f.store.AddBook("Dune", true, t0)
	hidden := f.store.AddBook("Draft", false, t0)

	d, err := f.ent.CheckAccess(ctx, u, pub.ID)
	require.NoError(t, err)
	assert.Equal(t, AccessDecision{HasAccess: false, RequiresSubscription: true}, d)

	_, err = f.ent.CheckAccess(ctx, u, hidden.ID)
	assert.ErrorIs(t, err, ErrBookNotFound)
	_, err = f.ent.CheckAccess(ctx, u, "missing")
	assert.ErrorIs(t, err, ErrBookNotFound)

	d, err = f.ent.CheckAccess(ctx, admin, hidden.ID)
	require.NoError(t, err)
	assert.False(t, d.HasAccess)

	_, err = f.ent.Subscribe(ctx, u.ID, "MONTHLY")
	require.NoError(t, err)
	d, err = f.ent.CheckAccess(ctx, u, pub.ID)
	require.NoError(t, err)
	assert.True(t, d.HasAccess)
}
