package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/audiobook-library/internal/model"
	"github.com/iliyamo/audiobook-library/internal/queue"
)

var errBrokerDown = errors.New("connection refused")

func TestPublishersDoNotQueueBehindSlowDial(t *testing.T) {
	const slow = 200 * time.Millisecond
	p := NewAMQPPublisher("amqp://broker")
	p.dial = func(string, time.Duration) (*amqp.Connection, error) {
		time.Sleep(slow)
		return nil, errBrokerDown
	}

	const callers = 5
	errs := make([]error, callers)
	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = p.Publish(context.Background(), queue.SubscriptionEvent{Type: queue.EventSubscribed})
		}(i)
	}
	wg.Wait()

	// One dial at a time would take callers*slow.
	assert.Less(t, time.Since(start), time.Duration(callers-2)*slow)
	for _, err := range errs {
		assert.ErrorIs(t, err, errBrokerDown)
		assert.Contains(t, err.Error(), "rabbitmq: dial")
	}
}

func TestDialTimeoutFollowsCallerDeadline(t *testing.T) {
	p := NewAMQPPublisher("amqp://broker")
	var got time.Duration
	p.dial = func(_ string, timeout time.Duration) (*amqp.Connection, error) {
		got = timeout
		return nil, errBrokerDown
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.Error(t, p.Publish(ctx, queue.SubscriptionEvent{}))
	assert.Greater(t, got, time.Duration(0))
	assert.LessOrEqual(t, got, time.Second)

	require.Error(t, p.Publish(context.Background(), queue.SubscriptionEvent{}))
	assert.Equal(t, defaultDialTimeout, got)
}

func TestExpiredContextSkipsDial(t *testing.T) {
	p := NewAMQPPublisher("amqp://broker")
	called := false
	p.dial = func(string, time.Duration) (*amqp.Connection, error) {
		called = true
		return nil, errBrokerDown
	}
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	err := p.Publish(ctx, queue.SubscriptionEvent{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, queue.SubscriptionEvent) error {
	return errors.New("rabbitmq: dial: connection refused")
}

func TestPublishFailureIsLoggedOnceAndNotFatal(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	ent := NewEntitlementService(f.store.Subscriptions, f.store.Books, failingPublisher{}, Clock(func() time.Time { return t0 }), log)
	u := f.store.AddUser("u@x.com", model.RoleUser, t0)

	_, err := ent.Subscribe(ctx, u.ID, "MONTHLY")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(buf.String(), "subscription event not published"))
	assert.Equal(t, 1, f.store.Subscriptions.ActiveCount(u.ID))
}
