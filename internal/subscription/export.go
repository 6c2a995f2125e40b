package subscription

import (
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mjoneill88/greentogo/internal/logger"
	"github.com/mjoneill88/greentogo/internal/metrics"
)

// UnclaimedCSV streams every unclaimed-subscription row as a CSV
// attachment. Full-table export in stored order, no filtering.
func (h *Handler) UnclaimedCSV(c *gin.Context) {
	rows, err := h.repo.ListUnclaimed(c.Request.Context())
	if err != nil {
		logger.Errorf("Failed to load unclaimed subscriptions: %v", err)
		c.String(http.StatusInternalServerError, "export failed")
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="unclaimed_subscriptions.csv"`)

	writer := csv.NewWriter(c.Writer)
	if err := writer.Write([]string{"Email address", "Subscription plan", "Claimed"}); err != nil {
		logger.Errorf("CSV write failed: %v", err)
		return
	}

	for _, row := range rows {
		record := []string{row.Email, row.PlanName, strconv.FormatBool(row.Claimed)}
		if err := writer.Write(record); err != nil {
			logger.Errorf("CSV write failed: %v", err)
			return
		}
	}

	writer.Flush()
	metrics.RecordUnclaimedExport()
}
