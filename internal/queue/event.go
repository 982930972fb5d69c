// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

import "time"

// SubscriptionQueue is the durable queue carrying subscription lifecycle events.
const SubscriptionQueue = "subscription.events"

// EventType names a subscription lifecycle transition.
type EventType string

const (
	EventSubscribed EventType = "subscription.created"
	EventCancelled  EventType = "subscription.cancelled"
)

// SubscriptionEvent is published after a subscribe or cancel commits.  It
// carries enough for downstream consumers to audit or notify without
// querying the primary database.
type SubscriptionEvent struct {
	Type           EventType `json:"type"`
	SubscriptionID string    `json:"subscription_id"`
	UserID         string    `json:"user_id"`
	PlanType       string    `json:"plan_type,omitempty"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	OccurredAt     time.Time `json:"occurred_at"`
}
