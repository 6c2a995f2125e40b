package subscription

import "time"

// Customer is the billing-provider counterpart of a user. One per user,
// created at registration.
type Customer struct {
	ID         int       `db:"id" json:"id"`
	UserID     int       `db:"user_id" json:"user_id"`
	ProviderID string    `db:"provider_id" json:"provider_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Plan is a local mirror of the provider's plan catalog. Read-only from
// this surface.
type Plan struct {
	ID          int       `db:"id" json:"id"`
	ProviderID  string    `db:"provider_id" json:"provider_id"`
	Name        string    `db:"name" json:"name"`
	AmountCents int64     `db:"amount_cents" json:"amount_cents"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Subscription mirrors a provider subscription. Never hard-deleted; a
// subscription is active exactly while ended_at is null.
type Subscription struct {
	ID                int        `db:"id" json:"id"`
	CustomerID        int        `db:"customer_id" json:"customer_id"`
	ProviderID        string     `db:"provider_id" json:"provider_id"`
	PlanID            int        `db:"plan_id" json:"plan_id"`
	AmountCents       int64      `db:"amount_cents" json:"amount_cents"`
	CurrentPeriodEnd  time.Time  `db:"current_period_end" json:"current_period_end"`
	CancelAtPeriodEnd bool       `db:"cancel_at_period_end" json:"cancel_at_period_end"`
	EndedAt           *time.Time `db:"ended_at" json:"ended_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// Row is a subscription joined with its plan name for display.
type Row struct {
	Subscription
	PlanName string `db:"plan_name"`
}

// Display is the projection shown on the account page.
type Display struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	AmountCents int64     `json:"price"`
	Ends        time.Time `json:"ends"`
	AutoRenew   bool      `json:"auto_renew"`
}

func (r Row) Display() Display {
	return Display{
		ID:          r.ProviderID,
		Name:        r.PlanName,
		AmountCents: r.AmountCents,
		Ends:        r.CurrentPeriodEnd,
		AutoRenew:   !r.CancelAtPeriodEnd,
	}
}

// DisplayList projects subscriptions in listing order.
func DisplayList(rows []Row) []Display {
	out := make([]Display, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Display())
	}
	return out
}

// UnclaimedSubscription is a provisioned subscription waiting for a
// matching user to register and claim it.
type UnclaimedSubscription struct {
	ID        int       `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	PlanID    int       `db:"plan_id" json:"plan_id"`
	Claimed   bool      `db:"claimed" json:"claimed"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// UnclaimedRow is an unclaimed subscription joined with its plan name, as
// exported to CSV.
type UnclaimedRow struct {
	Email    string `db:"email"`
	PlanName string `db:"plan_name"`
	Claimed  bool   `db:"claimed"`
}

type AddSubscriptionForm struct {
	Plan  string `form:"plan" binding:"required"`
	Token string `form:"token" binding:"required"`
}

type ChangePlanForm struct {
	Plan string `form:"plan" binding:"required"`
}
