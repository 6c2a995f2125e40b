package user

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/mjoneill88/greentogo/internal/auth"
	"github.com/mjoneill88/greentogo/internal/billing"
	"github.com/mjoneill88/greentogo/internal/flash"
	"github.com/mjoneill88/greentogo/internal/logger"
	"github.com/mjoneill88/greentogo/internal/subscription"
)

type Handler struct {
	repo          *Repository
	subs          *subscription.Repository
	provider      billing.Provider
	sessionSecret string
}

func NewHandler(db *sqlx.DB, provider billing.Provider, sessionSecret string) *Handler {
	return &Handler{
		repo:          NewRepository(db),
		subs:          subscription.NewRepository(db),
		provider:      provider,
		sessionSecret: sessionSecret,
	}
}

// Index is the landing page for logged-out visitors.
func (h *Handler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{})
}

func (h *Handler) LoginForm(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

func (h *Handler) Login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusOK, "login.html", gin.H{
			"Error": "Please enter your email address and password.",
			"Email": c.PostForm("email"),
		})
		return
	}

	user, err := h.repo.FindByEmail(c.Request.Context(), form.Email)
	if err != nil || !auth.CheckPassword(user.PasswordHash, form.Password) {
		c.HTML(http.StatusOK, "login.html", gin.H{
			"Error": "Invalid email or password.",
			"Email": form.Email,
		})
		return
	}

	h.startSession(c, user)
	c.Redirect(http.StatusFound, "/account")
}

func (h *Handler) Logout(c *gin.Context) {
	auth.ClearSessionCookie(c)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) RegisterForm(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", gin.H{})
}

// Register creates the user, its billing customer, and claims any
// pre-provisioned subscription waiting on the email address.
func (h *Handler) Register(c *gin.Context) {
	var form RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusOK, "register.html", gin.H{
			"Error": "Please enter a valid email address and a password of at least 8 characters.",
			"Name":  c.PostForm("name"),
			"Email": c.PostForm("email"),
		})
		return
	}

	ctx := c.Request.Context()

	exists, err := h.repo.EmailExists(ctx, form.Email)
	if err != nil {
		logger.Errorf("Email lookup failed: %v", err)
		c.HTML(http.StatusOK, "register.html", gin.H{"Error": "Something went wrong. Please try again."})
		return
	}
	if exists {
		c.HTML(http.StatusOK, "register.html", gin.H{
			"Error": "That email address is already registered.",
			"Name":  form.Name,
			"Email": form.Email,
		})
		return
	}

	passwordHash, err := auth.HashPassword(form.Password)
	if err != nil {
		logger.Errorf("Password hashing failed: %v", err)
		c.HTML(http.StatusOK, "register.html", gin.H{"Error": "Something went wrong. Please try again."})
		return
	}

	user, err := h.repo.Create(ctx, form.Name, form.Email, passwordHash, auth.RoleMember)
	if err != nil {
		logger.Errorf("User create failed: %v", err)
		c.HTML(http.StatusOK, "register.html", gin.H{"Error": "Something went wrong. Please try again."})
		return
	}

	providerID, err := h.provider.CreateCustomer(ctx, user.Email)
	if err != nil {
		logger.Errorf("Provider customer create failed for user %d: %v", user.ID, err)
	} else {
		customer, err := h.subs.CreateCustomer(ctx, user.ID, providerID)
		if err != nil {
			logger.Errorf("Customer create failed for user %d: %v", user.ID, err)
		} else {
			h.claimUnclaimed(c, user, customer)
		}
	}

	h.startSession(c, user)
	flash.Set(c, "Welcome to GreenToGo!")
	c.Redirect(http.StatusFound, "/account")
}

// claimUnclaimed consumes a pre-provisioned subscription matching the new
// user's email. A provider failure here loses the claim attempt but never
// the registration; the row stays unclaimed for a later retry.
func (h *Handler) claimUnclaimed(c *gin.Context, user *User, customer *subscription.Customer) {
	ctx := c.Request.Context()

	unsub, err := h.subs.FindUnclaimedByEmail(ctx, user.Email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Errorf("Unclaimed lookup failed for %s: %v", user.Email, err)
		}
		return
	}

	plan, err := h.subs.FindPlanByID(ctx, unsub.PlanID)
	if err != nil {
		logger.Errorf("Plan lookup failed for unclaimed subscription %d: %v", unsub.ID, err)
		return
	}

	ps, err := h.provider.CreateSubscription(ctx, customer.ProviderID, plan.ProviderID, "")
	if err != nil {
		logger.Errorf("Provider subscription create failed while claiming for %s: %v", user.Email, err)
		return
	}

	if _, err := h.subs.CreateFromProvider(ctx, customer.ID, plan.ID, ps); err != nil {
		logger.Errorf("Failed to mirror claimed subscription %s: %v", ps.ID, err)
		return
	}

	if err := h.subs.MarkClaimed(ctx, unsub.ID); err != nil {
		logger.Errorf("Failed to mark unclaimed subscription %d claimed: %v", unsub.ID, err)
		return
	}

	logger.Infof("Unclaimed subscription %d claimed by user %d", unsub.ID, user.ID)
}

func (h *Handler) startSession(c *gin.Context, user *User) {
	token, err := auth.GenerateSessionToken(user.ID, user.Email, user.Role, h.sessionSecret)
	if err != nil {
		logger.Errorf("Session token generation failed for user %d: %v", user.ID, err)
		return
	}
	auth.SetSessionCookie(c, token)
}

// Account renders the profile form pre-filled from the authenticated
// identity, alongside the customer's active subscriptions.
func (h *Handler) Account(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	h.renderAccount(c, user.Name, user.Email, "")
}

// UpdateAccount persists a valid profile submission and redirects so a
// refresh never repeats the write. Invalid submissions re-render the form
// with the posted values preserved.
func (h *Handler) UpdateAccount(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var form ProfileForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderAccount(c, c.PostForm("name"), c.PostForm("email"), "Please enter your name and a valid email address.")
		return
	}

	updated, err := h.repo.UpdateProfile(c.Request.Context(), user.ID, form.Name, form.Email)
	if err != nil {
		logger.Errorf("Profile update failed for user %d: %v", user.ID, err)
		h.renderAccount(c, form.Name, form.Email, "We could not save your changes. Please try again.")
		return
	}

	// The session carries the email; refresh it so the claim stays true.
	h.startSession(c, updated)

	flash.Set(c, "You have updated your user information.")
	c.Redirect(http.StatusFound, "/account")
}

func (h *Handler) renderAccount(c *gin.Context, name, email, formError string) {
	subscriptions := []subscription.Display{}

	customer, err := h.subs.FindCustomerByUserID(c.Request.Context(), mustUserID(c))
	if err == nil {
		rows, err := h.subs.ListActiveByCustomer(c.Request.Context(), customer.ID)
		if err != nil {
			logger.Errorf("Subscription listing failed for customer %d: %v", customer.ID, err)
		} else {
			subscriptions = subscription.DisplayList(rows)
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		logger.Errorf("Customer lookup failed: %v", err)
	}

	notice, _ := flash.Pop(c)

	c.HTML(http.StatusOK, "account.html", gin.H{
		"Name":          name,
		"Email":         email,
		"Error":         formError,
		"Notice":        notice,
		"Subscriptions": subscriptions,
	})
}

func (h *Handler) ChangePasswordForm(c *gin.Context) {
	c.HTML(http.StatusOK, "change_password.html", gin.H{})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var form PasswordForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusOK, "change_password.html", gin.H{
			"Error": "Passwords must match and be at least 8 characters.",
		})
		return
	}

	passwordHash, err := auth.HashPassword(form.NewPassword1)
	if err != nil {
		logger.Errorf("Password hashing failed for user %d: %v", user.ID, err)
		c.HTML(http.StatusOK, "change_password.html", gin.H{
			"Error": "Something went wrong. Please try again.",
		})
		return
	}

	if err := h.repo.UpdatePassword(c.Request.Context(), user.ID, passwordHash); err != nil {
		logger.Errorf("Password update failed for user %d: %v", user.ID, err)
		c.HTML(http.StatusOK, "change_password.html", gin.H{
			"Error": "Something went wrong. Please try again.",
		})
		return
	}

	flash.Set(c, "Your password has been changed.")
	c.Redirect(http.StatusFound, "/account")
}

func (h *Handler) currentUser(c *gin.Context) (*User, bool) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return nil, false
	}

	user, err := h.repo.FindByID(c.Request.Context(), userID)
	if err != nil {
		auth.ClearSessionCookie(c)
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return nil, false
	}

	return user, true
}

func mustUserID(c *gin.Context) int {
	id, _ := auth.GetUserID(c)
	return id
}
