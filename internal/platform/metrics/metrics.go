package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	CasesCreated           prometheus.Counter
	ReportsCreated         prometheus.Counter
	DuplicateCasesRemoved  prometheus.Counter
	NotificationsDelivered prometheus.Counter
	NotificationFailures   prometheus.Counter
	AuditAppendFailures    prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		CasesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "assurance_cases_created_total",
			Help: "Total number of investigation cases created",
		}),
		ReportsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "assurance_reports_created_total",
			Help: "Total number of reports created",
		}),
		DuplicateCasesRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "assurance_duplicate_cases_removed_total",
			Help: "Total number of cases removed by the duplicate cleanup",
		}),
		NotificationsDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "assurance_notifications_delivered_total",
			Help: "Total number of notification rows created by fan-out",
		}),
		NotificationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "assurance_notification_failures_total",
			Help: "Total number of per-recipient notification delivery failures",
		}),
		AuditAppendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "assurance_audit_append_failures_total",
			Help: "Total number of swallowed audit append failures",
		}),
	}
}
