// Package metrics defines and registers the custom Prometheus metrics of the
// RealtyHub access gateway. It is the single source of truth for metric names,
// labels and help strings.
//
// Metrics register with the default registry on import via promauto; the
// echoprometheus handler on /metrics exposes them next to the HTTP metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "realtyhub"

// ── Rate limiting ─────────────────────────────────────────────────────────────

// RateLimitDecisionsTotal counts limiter decisions.
// Labels:
//   - action: the rate-limit bucket (login, register, passwordReset, api)
//   - result: "allowed" or "denied"
var RateLimitDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_decisions_total",
		Help:      "Total number of rate limit decisions, by action and result.",
	},
	[]string{"action", "result"},
)

// RateLimitStoreErrorsTotal counts counter-store failures. The limiter fails
// open on these, so a rising value means limits are not being enforced.
var RateLimitStoreErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_store_errors_total",
		Help:      "Total number of counter store errors (requests allowed without a decision).",
	},
)

// ── Request pipeline ──────────────────────────────────────────────────────────

// PipelineRejectionsTotal counts requests that ended in REJECTED.
// Labels:
//   - stage: last stage reached before rejection (e.g. "RECEIVED", "AUTHENTICATED")
//   - reason: "rate_limited", "csrf", "unauthenticated", "forbidden", "tier", "invalid_payload"
var PipelineRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pipeline_rejections_total",
		Help:      "Total number of requests rejected by the access pipeline, by stage and reason.",
	},
	[]string{"stage", "reason"},
)

// PipelineDispatchedTotal counts requests handed to a handler.
// Label:
//   - route: the matched route path
var PipelineDispatchedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pipeline_dispatched_total",
		Help:      "Total number of requests that passed every pipeline stage.",
	},
	[]string{"route"},
)

// ── Audit trail ───────────────────────────────────────────────────────────────

// AuditEntriesTotal counts audit entries by outcome.
// Label:
//   - result: "persisted", "dropped" (queue full) or "failed" (store error)
var AuditEntriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_entries_total",
		Help:      "Total number of audit entries, by outcome.",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks entries waiting in each audit worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit entries pending in each worker channel.",
	},
	[]string{"worker_id"},
)

// ── Credentials ───────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts credential exchanges.
// Labels:
//   - kind: "login", "register" or "refresh"
//   - result: "success" or "failure"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of login, registration and refresh attempts, by result.",
	},
	[]string{"kind", "result"},
)
