package model

import "time"

// PlanType is the billing period of a subscription.
type PlanType string

const (
	PlanMonthly PlanType = "MONTHLY"
	PlanAnnual  PlanType = "ANNUAL"
)

// Valid reports whether p is a known plan.
func (p PlanType) Valid() bool { return p == PlanMonthly || p == PlanAnnual }

// EndDate returns the end of a period of plan p that starts at start.
// Month and year are added with calendar arithmetic, so Jan 31 + 1 month
// normalizes into March like the time package does.
func (p PlanType) EndDate(start time.Time) time.Time {
	if p == PlanAnnual {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

// SubscriptionStatus is the stored lifecycle state.  Expiry by time is
// not a status: see Subscription.ActiveAt.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
)

// Subscription records one paid access window for a user.
//
// Fields:
//	ID        - UUID primary key.
//	UserID    - owning user.
//	PlanType  - MONTHLY or ANNUAL.
//	StartDate - start of the window.
//	EndDate   - end of the window, derived from PlanType at creation.
//	Status    - ACTIVE or CANCELLED.  Cancelling never touches EndDate.
type Subscription struct {
	ID        string             `json:"id"`
	UserID    string             `json:"userId"`
	PlanType  PlanType           `json:"planType"`
	StartDate time.Time          `json:"startDate"`
	EndDate   time.Time          `json:"endDate"`
	Status    SubscriptionStatus `json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// ActiveAt reports whether the subscription grants access at now: the
// status must be ACTIVE and the window must not have ended.
func (s Subscription) ActiveAt(now time.Time) bool {
	return s.Status == SubscriptionActive && !s.EndDate.Before(now)
}
