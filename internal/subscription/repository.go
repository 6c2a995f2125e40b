package subscription

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mjoneill88/greentogo/internal/billing"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateCustomer(ctx context.Context, userID int, providerID string) (*Customer, error) {
	customer := &Customer{}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO customers (user_id, provider_id)
		VALUES ($1, $2)
		RETURNING id, user_id, provider_id, created_at
	`, userID, providerID).StructScan(customer)

	return customer, err
}

func (r *Repository) FindCustomerByUserID(ctx context.Context, userID int) (*Customer, error) {
	customer := &Customer{}
	err := r.db.GetContext(ctx, customer, `
		SELECT id, user_id, provider_id, created_at
		FROM customers
		WHERE user_id = $1
	`, userID)

	return customer, err
}

func (r *Repository) ListPlans(ctx context.Context) ([]Plan, error) {
	plans := []Plan{}
	err := r.db.SelectContext(ctx, &plans, `
		SELECT id, provider_id, name, amount_cents, created_at
		FROM plans
		ORDER BY amount_cents
	`)
	return plans, err
}

func (r *Repository) FindPlanByProviderID(ctx context.Context, providerID string) (*Plan, error) {
	plan := &Plan{}
	err := r.db.GetContext(ctx, plan, `
		SELECT id, provider_id, name, amount_cents, created_at
		FROM plans
		WHERE provider_id = $1
	`, providerID)

	return plan, err
}

// CreateFromProvider mirrors a freshly created provider subscription.
func (r *Repository) CreateFromProvider(ctx context.Context, customerID, planID int, ps *billing.Subscription) (*Subscription, error) {
	sub := &Subscription{}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO subscriptions (customer_id, provider_id, plan_id, amount_cents, current_period_end, cancel_at_period_end, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, customer_id, provider_id, plan_id, amount_cents, current_period_end, cancel_at_period_end, ended_at, created_at, updated_at
	`, customerID, ps.ID, planID, ps.AmountCents, ps.CurrentPeriodEnd, ps.CancelAtPeriodEnd, ps.EndedAt).StructScan(sub)

	return sub, err
}

// ListActiveByCustomer returns the customer's active subscriptions, most
// time remaining first.
func (r *Repository) ListActiveByCustomer(ctx context.Context, customerID int) ([]Row, error) {
	rows := []Row{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT s.id, s.customer_id, s.provider_id, s.plan_id, s.amount_cents,
		       s.current_period_end, s.cancel_at_period_end, s.ended_at,
		       s.created_at, s.updated_at, p.name AS plan_name
		FROM subscriptions s
		JOIN plans p ON p.id = s.plan_id
		WHERE s.customer_id = $1
		  AND s.ended_at IS NULL
		ORDER BY s.current_period_end DESC
	`, customerID)
	return rows, err
}

// FindByCustomerAndProviderID scopes the lookup by owning customer so a
// guessed identifier belonging to another customer comes back as no rows.
func (r *Repository) FindByCustomerAndProviderID(ctx context.Context, customerID int, providerID string) (*Row, error) {
	row := &Row{}
	err := r.db.GetContext(ctx, row, `
		SELECT s.id, s.customer_id, s.provider_id, s.plan_id, s.amount_cents,
		       s.current_period_end, s.cancel_at_period_end, s.ended_at,
		       s.created_at, s.updated_at, p.name AS plan_name
		FROM subscriptions s
		JOIN plans p ON p.id = s.plan_id
		WHERE s.customer_id = $1
		  AND s.provider_id = $2
	`, customerID, providerID)

	return row, err
}

// UpdateFromProvider re-mirrors a subscription after a provider-side
// mutation.
func (r *Repository) UpdateFromProvider(ctx context.Context, id, planID int, ps *billing.Subscription) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET plan_id = $1,
		    amount_cents = $2,
		    current_period_end = $3,
		    cancel_at_period_end = $4,
		    ended_at = $5,
		    updated_at = NOW()
		WHERE id = $6
	`, planID, ps.AmountCents, ps.CurrentPeriodEnd, ps.CancelAtPeriodEnd, ps.EndedAt, id)
	return err
}

// MarkEnded soft-ends a subscription locally.
func (r *Repository) MarkEnded(ctx context.Context, id int, endedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET ended_at = $1,
		    updated_at = NOW()
		WHERE id = $2
	`, endedAt, id)
	return err
}

// ListUnclaimed returns every unclaimed-subscription row in stored order.
func (r *Repository) ListUnclaimed(ctx context.Context) ([]UnclaimedRow, error) {
	rows := []UnclaimedRow{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT u.email, p.name AS plan_name, u.claimed
		FROM unclaimed_subscriptions u
		JOIN plans p ON p.id = u.plan_id
		ORDER BY u.id
	`)
	return rows, err
}

func (r *Repository) FindUnclaimedByEmail(ctx context.Context, email string) (*UnclaimedSubscription, error) {
	unsub := &UnclaimedSubscription{}
	err := r.db.GetContext(ctx, unsub, `
		SELECT id, email, plan_id, claimed, created_at
		FROM unclaimed_subscriptions
		WHERE email = $1
		  AND claimed = FALSE
		ORDER BY id
		LIMIT 1
	`, email)

	return unsub, err
}

func (r *Repository) MarkClaimed(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE unclaimed_subscriptions
		SET claimed = TRUE
		WHERE id = $1
	`, id)
	return err
}

func (r *Repository) FindPlanByID(ctx context.Context, id int) (*Plan, error) {
	plan := &Plan{}
	err := r.db.GetContext(ctx, plan, `
		SELECT id, provider_id, name, amount_cents, created_at
		FROM plans
		WHERE id = $1
	`, id)

	return plan, err
}
