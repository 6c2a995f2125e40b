package billing

import (
	"context"
	"errors"
	"time"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeProvider implements Provider against the Stripe API.
type StripeProvider struct {
	api *client.API
}

func NewStripeProvider(secretKey string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api}
}

func (p *StripeProvider) CreateCustomer(ctx context.Context, email string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	params.Context = ctx

	cust, err := p.api.Customers.New(params)
	if err != nil {
		return "", err
	}
	return cust.ID, nil
}

func (p *StripeProvider) CreateSubscription(ctx context.Context, customerID, planID, token string) (*Subscription, error) {
	if token != "" {
		custParams := &stripe.CustomerParams{
			Source: stripe.String(token),
		}
		custParams.Context = ctx
		if _, err := p.api.Customers.Update(customerID, custParams); err != nil {
			return nil, err
		}
	}

	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(planID)},
		},
	}
	params.Context = ctx

	sub, err := p.api.Subscriptions.New(params)
	if err != nil {
		return nil, err
	}
	return fromStripeSubscription(sub), nil
}

func (p *StripeProvider) UpdateSubscription(ctx context.Context, subscriptionID, planID string) (*Subscription, error) {
	getParams := &stripe.SubscriptionParams{}
	getParams.Context = ctx

	current, err := p.api.Subscriptions.Get(subscriptionID, getParams)
	if err != nil {
		return nil, err
	}
	if len(current.Items.Data) == 0 {
		return nil, errors.New("subscription has no items")
	}

	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(current.Items.Data[0].ID),
				Price: stripe.String(planID),
			},
		},
		ProrationBehavior: stripe.String("always_invoice"),
	}
	params.Context = ctx

	sub, err := p.api.Subscriptions.Update(subscriptionID, params)
	if err != nil {
		return nil, err
	}
	return fromStripeSubscription(sub), nil
}

func (p *StripeProvider) CancelSubscription(ctx context.Context, subscriptionID string, atPeriodEnd bool) (*Subscription, error) {
	if atPeriodEnd {
		params := &stripe.SubscriptionParams{
			CancelAtPeriodEnd: stripe.Bool(true),
		}
		params.Context = ctx

		sub, err := p.api.Subscriptions.Update(subscriptionID, params)
		if err != nil {
			return nil, err
		}
		return fromStripeSubscription(sub), nil
	}

	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx

	sub, err := p.api.Subscriptions.Cancel(subscriptionID, params)
	if err != nil {
		return nil, err
	}
	return fromStripeSubscription(sub), nil
}

func (p *StripeProvider) CreateInvoice(ctx context.Context, customerID string) error {
	params := &stripe.InvoiceParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx

	_, err := p.api.Invoices.New(params)
	return err
}

func fromStripeSubscription(sub *stripe.Subscription) *Subscription {
	out := &Subscription{
		ID:                sub.ID,
		CurrentPeriodEnd:  time.Unix(sub.CurrentPeriodEnd, 0),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}

	if sub.EndedAt > 0 {
		endedAt := time.Unix(sub.EndedAt, 0)
		out.EndedAt = &endedAt
	}

	if sub.Items != nil {
		for _, item := range sub.Items.Data {
			if item.Price == nil {
				continue
			}
			if out.PlanID == "" {
				out.PlanID = item.Price.ID
			}
			out.AmountCents += item.Price.UnitAmount * item.Quantity
		}
	}

	return out
}

// UserMessage extracts the human-readable message from a provider error so
// handlers can surface payment failures on the form instead of a generic
// error page.
func UserMessage(err error) string {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return stripeErr.Msg
	}
	return "We could not process your payment. Please try again."
}
