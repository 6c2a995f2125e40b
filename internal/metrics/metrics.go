package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greentogo_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "greentogo_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	SubscriptionsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greentogo_subscriptions_created_total",
			Help: "Total number of subscriptions created",
		},
		[]string{"plan"},
	)

	SubscriptionsCancelledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "greentogo_subscriptions_cancelled_total",
			Help: "Total number of subscriptions cancelled",
		},
	)

	SubscriptionPlanChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greentogo_subscription_plan_changes_total",
			Help: "Total number of subscription plan changes",
		},
		[]string{"plan"},
	)

	StockCountsRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greentogo_stock_counts_recorded_total",
			Help: "Total number of stock counts recorded",
		},
		[]string{"kind"},
	)

	UnclaimedExportsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "greentogo_unclaimed_exports_total",
			Help: "Total number of unclaimed subscription CSV exports",
		},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greentogo_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordSubscription(plan string) {
	SubscriptionsCreatedTotal.WithLabelValues(plan).Inc()
}

func RecordSubscriptionCancellation() {
	SubscriptionsCancelledTotal.Inc()
}

func RecordPlanChange(plan string) {
	SubscriptionPlanChangesTotal.WithLabelValues(plan).Inc()
}

func RecordStockCount(kind string) {
	StockCountsRecordedTotal.WithLabelValues(kind).Inc()
}

func RecordUnclaimedExport() {
	UnclaimedExportsTotal.Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}
