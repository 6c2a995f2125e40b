package billing

import (
	"context"
	"errors"
	"time"
)

var ErrCardDeclined = errors.New("card declined")

// Subscription is the provider-side view of a subscription, mirrored into
// the local store after every provider call.
type Subscription struct {
	ID                string
	PlanID            string
	CurrentPeriodEnd  time.Time
	CancelAtPeriodEnd bool
	EndedAt           *time.Time
	AmountCents       int64
}

// Provider is the billing backend behind the account surface. Every call
// crosses the network and is attempted exactly once per request.
type Provider interface {
	CreateCustomer(ctx context.Context, email string) (string, error)
	// CreateSubscription attaches the card token to the customer and opens
	// a subscription on the given plan.
	CreateSubscription(ctx context.Context, customerID, planID, token string) (*Subscription, error)
	// UpdateSubscription moves the subscription to a new plan with
	// proration and an immediate charge.
	UpdateSubscription(ctx context.Context, subscriptionID, planID string) (*Subscription, error)
	// CancelSubscription ends the subscription, immediately or at the end
	// of the paid period.
	CancelSubscription(ctx context.Context, subscriptionID string, atPeriodEnd bool) (*Subscription, error)
	CreateInvoice(ctx context.Context, customerID string) error
}
