package location

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/mjoneill88/greentogo/internal/logger"
	"github.com/mjoneill88/greentogo/internal/metrics"
)

const defaultActivityDays = 30

type Handler struct {
	repo *Repository
}

func NewHandler(db *sqlx.DB) *Handler {
	return &Handler{repo: NewRepository(db)}
}

// StockReport renders current stock per location, grouped by kind, with
// the chart payload embedded as JSON.
func (h *Handler) StockReport(c *gin.Context) {
	ctx := c.Request.Context()

	checkout, err := h.repo.ListByKind(ctx, KindCheckout)
	if err != nil {
		logger.Errorf("Failed to load checkout locations: %v", err)
		c.String(http.StatusInternalServerError, "report failed")
		return
	}

	checkin, err := h.repo.ListByKind(ctx, KindCheckin)
	if err != nil {
		logger.Errorf("Failed to load checkin locations: %v", err)
		c.String(http.StatusInternalServerError, "report failed")
		return
	}

	payload := map[string]Series{
		"checkout": seriesFor(checkout),
		"checkin":  seriesFor(checkin),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		c.String(http.StatusInternalServerError, "report failed")
		return
	}

	c.HTML(http.StatusOK, "stock_report.html", gin.H{
		"DataJSON": template.JS(data),
	})
}

func seriesFor(locations []LocationStock) Series {
	s := Series{Names: []string{}, Count: []int{}}
	for _, loc := range locations {
		s.Names = append(s.Names, loc.Name)
		s.Count = append(s.Count, loc.CurrentStock)
	}
	return s
}

// ActivityReport renders aggregated activity for a trailing day window,
// default 30 days.
func (h *Handler) ActivityReport(c *gin.Context) {
	days := defaultActivityDays
	if raw := c.Param("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.HTML(http.StatusNotFound, "not_found.html", gin.H{})
			return
		}
		days = parsed
	}

	buckets, err := h.repo.ActivityData(c.Request.Context(), days)
	if err != nil {
		logger.Errorf("Failed to load activity data: %v", err)
		c.String(http.StatusInternalServerError, "report failed")
		return
	}

	data, err := json.Marshal(buckets)
	if err != nil {
		c.String(http.StatusInternalServerError, "report failed")
		return
	}

	c.HTML(http.StatusOK, "activity_report.html", gin.H{
		"Days":     days,
		"DataJSON": template.JS(data),
	})
}

// RestockLocations lists all checkout locations for restocking.
func (h *Handler) RestockLocations(c *gin.Context) {
	h.renderListing(c, KindCheckout, "restock_locations.html")
}

// EmptyLocations lists all checkin locations for emptying.
func (h *Handler) EmptyLocations(c *gin.Context) {
	h.renderListing(c, KindCheckin, "empty_locations.html")
}

func (h *Handler) renderListing(c *gin.Context, kind, tmpl string) {
	locations, err := h.repo.ListByKind(c.Request.Context(), kind)
	if err != nil {
		logger.Errorf("Failed to load %s locations: %v", kind, err)
		c.String(http.StatusInternalServerError, "listing failed")
		return
	}

	c.HTML(http.StatusOK, tmpl, gin.H{
		"Locations": locations,
	})
}

// RestockLocation records a stock count for a checkout location. POST only.
func (h *Handler) RestockLocation(c *gin.Context) {
	h.setStockCount(c, "/ops/restock-locations")
}

// EmptyLocation records a stock count for a checkin location. POST only.
func (h *Handler) EmptyLocation(c *gin.Context) {
	h.setStockCount(c, "/ops/empty-locations")
}

// setStockCount parses the submitted count and appends it when it is a
// non-negative base-10 integer. Malformed or negative input is silently
// discarded; the operator is redirected back to the listing either way.
func (h *Handler) setStockCount(c *gin.Context, redirectTo string) {
	locationID, err := strconv.Atoi(c.Param("locationID"))
	if err != nil {
		c.HTML(http.StatusNotFound, "not_found.html", gin.H{})
		return
	}

	location, err := h.repo.FindByID(c.Request.Context(), locationID)
	if err != nil {
		c.HTML(http.StatusNotFound, "not_found.html", gin.H{})
		return
	}

	count, err := strconv.Atoi(c.PostForm("stock_count"))
	if err != nil || count < 0 {
		logger.Debugf("Discarding stock count %q for location %d", c.PostForm("stock_count"), location.ID)
		c.Redirect(http.StatusFound, redirectTo)
		return
	}

	if _, err := h.repo.AddStockCount(c.Request.Context(), location.ID, count); err != nil {
		logger.Errorf("Failed to record stock count for location %d: %v", location.ID, err)
		c.Redirect(http.StatusFound, redirectTo)
		return
	}

	metrics.RecordStockCount(location.Kind)
	c.Redirect(http.StatusFound, redirectTo)
}
