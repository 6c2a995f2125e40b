package subscription

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/mjoneill88/greentogo/internal/auth"
	"github.com/mjoneill88/greentogo/internal/billing"
	"github.com/mjoneill88/greentogo/internal/email"
	"github.com/mjoneill88/greentogo/internal/flash"
	"github.com/mjoneill88/greentogo/internal/logger"
	"github.com/mjoneill88/greentogo/internal/metrics"
)

type Handler struct {
	repo      *Repository
	provider  billing.Provider
	email     *email.Service
	stripeKey string
}

// NewHandler wires the subscription surface. stripeKey is the publishable
// key surfaced to the add-subscription page for client-side tokenization.
func NewHandler(db *sqlx.DB, provider billing.Provider, emailService *email.Service, stripeKey string) *Handler {
	return &Handler{
		repo:      NewRepository(db),
		provider:  provider,
		email:     emailService,
		stripeKey: stripeKey,
	}
}

// customer resolves the authenticated user's billing customer. A user
// without a customer record has nothing on the account surface.
func (h *Handler) customer(c *gin.Context) (*Customer, bool) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return nil, false
	}

	customer, err := h.repo.FindCustomerByUserID(c.Request.Context(), userID)
	if err != nil {
		notFound(c)
		return nil, false
	}
	return customer, true
}

// lookup resolves a subscription by provider identifier, scoped to the
// customer. Identifiers belonging to another customer come back not-found.
func (h *Handler) lookup(c *gin.Context, customer *Customer) (*Row, bool) {
	row, err := h.repo.FindByCustomerAndProviderID(c.Request.Context(), customer.ID, c.Param("subID"))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Errorf("Subscription lookup failed: %v", err)
		}
		notFound(c)
		return nil, false
	}
	return row, true
}

func notFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "not_found.html", gin.H{})
	c.Abort()
}

// Detail renders a single subscription, scoped to the owning customer.
func (h *Handler) Detail(c *gin.Context) {
	customer, ok := h.customer(c)
	if !ok {
		return
	}

	row, ok := h.lookup(c, customer)
	if !ok {
		return
	}

	c.HTML(http.StatusOK, "subscription.html", gin.H{
		"Subscription": row.Display(),
	})
}

// AddForm renders the new-subscription page with the plan catalog and the
// publishable key for card tokenization.
func (h *Handler) AddForm(c *gin.Context) {
	if _, ok := h.customer(c); !ok {
		return
	}

	h.renderAddForm(c, http.StatusOK, "")
}

func (h *Handler) renderAddForm(c *gin.Context, status int, formError string) {
	plans, err := h.repo.ListPlans(c.Request.Context())
	if err != nil {
		logger.Errorf("Failed to load plans: %v", err)
		plans = nil
	}

	userEmail, _ := auth.GetUserEmail(c)

	c.HTML(status, "add_subscription.html", gin.H{
		"Plans":     plans,
		"Email":     userEmail,
		"StripeKey": h.stripeKey,
		"Error":     formError,
	})
}

// Add creates a provider subscription for the selected plan and card
// token. Provider failures come back as a form error on the same page.
func (h *Handler) Add(c *gin.Context) {
	customer, ok := h.customer(c)
	if !ok {
		return
	}

	var form AddSubscriptionForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderAddForm(c, http.StatusOK, "Please choose a plan and enter your payment details.")
		return
	}

	ctx := c.Request.Context()

	plan, err := h.repo.FindPlanByProviderID(ctx, form.Plan)
	if err != nil {
		h.renderAddForm(c, http.StatusOK, "The selected plan is not available.")
		return
	}

	ps, err := h.provider.CreateSubscription(ctx, customer.ProviderID, plan.ProviderID, form.Token)
	if err != nil {
		logger.Errorf("Provider subscription create failed for customer %d: %v", customer.ID, err)
		h.renderAddForm(c, http.StatusOK, billing.UserMessage(err))
		return
	}

	if _, err := h.repo.CreateFromProvider(ctx, customer.ID, plan.ID, ps); err != nil {
		logger.Errorf("Failed to mirror subscription %s: %v", ps.ID, err)
	}

	metrics.RecordSubscription(plan.Name)

	if userEmail, ok := auth.GetUserEmail(c); ok {
		_ = h.email.SendSubscriptionConfirmation(ctx, userEmail, userEmail, plan.Name, ps.CurrentPeriodEnd)
	}

	flash.Set(c, "You have added a subscription to the plan "+plan.Name+".")
	c.Redirect(http.StatusFound, "/account")
}

// ChangeForm renders the plan-change page for a subscription.
func (h *Handler) ChangeForm(c *gin.Context) {
	customer, ok := h.customer(c)
	if !ok {
		return
	}

	row, ok := h.lookup(c, customer)
	if !ok {
		return
	}

	h.renderChangeForm(c, row, "")
}

func (h *Handler) renderChangeForm(c *gin.Context, row *Row, formError string) {
	plans, err := h.repo.ListPlans(c.Request.Context())
	if err != nil {
		logger.Errorf("Failed to load plans: %v", err)
		plans = nil
	}

	c.HTML(http.StatusOK, "change_subscription.html", gin.H{
		"Subscription": row.Display(),
		"Plans":        plans,
		"Error":        formError,
	})
}

// Change moves a subscription to a new plan with proration and an
// immediate charge, then issues the invoice as a follow-up provider call.
// If the invoice call fails after the update succeeded, the plan has
// changed with no invoice issued; that window is surfaced, not hidden.
func (h *Handler) Change(c *gin.Context) {
	customer, ok := h.customer(c)
	if !ok {
		return
	}

	row, ok := h.lookup(c, customer)
	if !ok {
		return
	}

	var form ChangePlanForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderChangeForm(c, row, "Please choose a plan.")
		return
	}

	ctx := c.Request.Context()

	plan, err := h.repo.FindPlanByProviderID(ctx, form.Plan)
	if err != nil {
		h.renderChangeForm(c, row, "The selected plan is not available.")
		return
	}

	ps, err := h.provider.UpdateSubscription(ctx, row.ProviderID, plan.ProviderID)
	if err != nil {
		logger.Errorf("Provider subscription update failed for %s: %v", row.ProviderID, err)
		h.renderChangeForm(c, row, billing.UserMessage(err))
		return
	}

	if err := h.repo.UpdateFromProvider(ctx, row.ID, plan.ID, ps); err != nil {
		logger.Errorf("Failed to mirror subscription update %s: %v", row.ProviderID, err)
	}

	if err := h.provider.CreateInvoice(ctx, customer.ProviderID); err != nil {
		logger.Errorf("Invoice creation failed for customer %d after plan change: %v", customer.ID, err)
		h.renderChangeForm(c, row, "Your plan was changed but we could not issue the invoice. Please contact support.")
		return
	}

	metrics.RecordPlanChange(plan.Name)

	flash.Set(c, "Your plan has been updated to "+plan.Name+".")
	c.Redirect(http.StatusFound, "/account")
}

// CancelForm renders the cancellation confirmation page. GET never
// mutates; only the POST cancels.
func (h *Handler) CancelForm(c *gin.Context) {
	customer, ok := h.customer(c)
	if !ok {
		return
	}

	row, ok := h.lookup(c, customer)
	if !ok {
		return
	}

	c.HTML(http.StatusOK, "cancel_subscription.html", gin.H{
		"Subscription": row.Display(),
	})
}

// Cancel ends the subscription immediately, not at period end.
func (h *Handler) Cancel(c *gin.Context) {
	customer, ok := h.customer(c)
	if !ok {
		return
	}

	row, ok := h.lookup(c, customer)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	ps, err := h.provider.CancelSubscription(ctx, row.ProviderID, false)
	if err != nil {
		logger.Errorf("Provider subscription cancel failed for %s: %v", row.ProviderID, err)
		c.HTML(http.StatusOK, "cancel_subscription.html", gin.H{
			"Subscription": row.Display(),
			"Error":        billing.UserMessage(err),
		})
		return
	}

	endedAt := time.Now()
	if ps != nil && ps.EndedAt != nil {
		endedAt = *ps.EndedAt
	}
	if err := h.repo.MarkEnded(ctx, row.ID, endedAt); err != nil {
		logger.Errorf("Failed to mark subscription %s ended: %v", row.ProviderID, err)
	}

	metrics.RecordSubscriptionCancellation()

	if userEmail, ok := auth.GetUserEmail(c); ok {
		_ = h.email.SendCancellationNotice(ctx, userEmail, userEmail, row.PlanName)
	}

	flash.Set(c, "Your subscription has been cancelled.")
	c.Redirect(http.StatusFound, "/account")
}
