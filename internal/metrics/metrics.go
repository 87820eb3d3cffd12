// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gymdesk"

var (
	// NotificationsCreated counts notification records written, by fan-out mode.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_created_total",
		Help:      "Notification records written, by mode (single, broadcast, reminder).",
	}, []string{"mode"})

	// NotificationFailures counts per-recipient writes that failed inside a batch.
	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Per-recipient notification writes that failed, by mode.",
	}, []string{"mode"})

	ConnectivityRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "connectivity_rejections_total",
		Help:      "Workflows aborted by the connectivity guard, by reason.",
	}, []string{"reason"})

	AuditWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_write_failures_total",
		Help:      "Audit log entries that could not be written.",
	})

	WorkflowErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "workflow_errors_total",
		Help:      "Workflow failures returned to callers, by error kind.",
	}, []string{"kind"})

	DeliveryTasks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "delivery_tasks_total",
		Help:      "Email delivery tasks, by result (enqueued, sent, skipped, failed).",
	}, []string{"result"})

	SSEClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sse_clients",
		Help:      "Connected server-sent event clients.",
	})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_requests_total",
		Help:      "Auth requests rejected by the per-client rate limiter, by route.",
	}, []string{"route"})

	ReminderRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reminder_runs_total",
		Help:      "Monthly reminder scheduler decisions, by outcome.",
	}, []string{"outcome"})
)
