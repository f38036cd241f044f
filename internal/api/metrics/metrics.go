// Package metrics defines and registers all custom Prometheus metrics for the
// identity service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation and exposed by the router on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts completed auth flows.
// Labels:
//   - flow: "signup", "confirm", "login", "password_reset_request", "password_change"
//   - outcome: "success" or the domain error code (e.g. "wrong_credentials")
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of auth flow attempts, by flow and outcome.",
	},
	[]string{"flow", "outcome"},
)

// SessionResolutionsTotal counts bearer token checks made by the auth middleware.
// Label:
//   - result: "hit", "miss" or "error"
var SessionResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_resolutions_total",
		Help:      "Total number of session token resolutions, by result.",
	},
	[]string{"result"},
)

// RoleChangesTotal counts successful role ledger mutations.
// Label:
//   - operation: "add", "remove" or "set_company"
var RoleChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_changes_total",
		Help:      "Total number of role ledger mutations, by operation.",
	},
	[]string{"operation"},
)

// ── Mail metrics ──────────────────────────────────────────────────────────────

// MailSentTotal counts messages handed to the broker.
// Label:
//   - kind: "confirmation" or "password_reset"
var MailSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_sent_total",
		Help:      "Total number of mail messages published to the broker.",
	},
	[]string{"kind"},
)

// MailErrorsTotal counts messages that could not be published.
// Label:
//   - kind: "confirmation" or "password_reset"
var MailErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_errors_total",
		Help:      "Total number of mail messages that failed to publish.",
	},
	[]string{"kind"},
)

// MailQueueDepth tracks the current number of messages waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var MailQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mail_queue_depth",
		Help:      "Current number of messages pending in each mail dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// MailPublishDuration measures how long a single publish takes.
var MailPublishDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "mail_publish_duration_seconds",
		Help:      "Duration of a mail publish from dequeue to broker acknowledgement.",
		Buckets:   prometheus.DefBuckets,
	},
)
