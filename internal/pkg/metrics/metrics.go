// Package metrics defines and registers all custom Prometheus metrics for the
// blog API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics register with the default Prometheus registry on package load and
// are served on /metrics next to the echoprometheus request metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "blog"

// ── Authentication metrics ───────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// SessionResolutionsTotal counts bearer token resolutions.
// Label:
//   - result: "ok", "invalid_token", "missing_claim", "account_not_found" or "error"
var SessionResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_resolutions_total",
		Help:      "Total number of bearer token resolutions, by result.",
	},
	[]string{"result"},
)

// GateDenialsTotal counts requests refused by an authorization check.
// Label:
//   - check: "active", "verified" or "superuser"
var GateDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_denials_total",
		Help:      "Total number of requests denied by an authorization check.",
	},
	[]string{"check"},
)

// PasswordHashDuration measures hashing cost.
// Label:
//   - op: "hash" or "verify"
var PasswordHashDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "password_hash_duration_seconds",
		Help:      "Duration of password hash and verify operations.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2},
	},
	[]string{"op"},
)

// PasswordRehashesTotal counts legacy or outdated hashes upgraded on login.
var PasswordRehashesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_rehashes_total",
		Help:      "Total number of password hashes upgraded after login.",
	},
)

// ── Account and post metrics ─────────────────────────────────────────────────

// AccountsRegisteredTotal counts successful registrations.
var AccountsRegisteredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accounts_registered_total",
		Help:      "Total number of accounts registered.",
	},
)

// PostsCreatedTotal counts newly created posts.
// Label:
//   - replay: "true" when an idempotency key returned an existing post
var PostsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "posts_created_total",
		Help:      "Total number of post creation requests served, by idempotent replay.",
	},
	[]string{"replay"},
)

// ── Notification metrics ─────────────────────────────────────────────────────

// NotificationsSentTotal counts delivery attempts.
// Labels:
//   - kind: notification kind (e.g. "verify_account")
//   - result: "sent", "error" or "dropped" (queue full)
var NotificationsSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Total number of notification deliveries, by kind and result.",
	},
	[]string{"kind", "result"},
)

// NotificationsQueueDepth tracks pending notifications per worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notifications_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
