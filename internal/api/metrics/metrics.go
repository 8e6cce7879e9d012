// Package metrics defines and registers all custom Prometheus metrics for the
// Fisher accounts service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// init via promauto; /metrics exposes them through echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "accounts"

// Result label values.
const (
	ResultOK       = "ok"
	ResultInvalid  = "invalid"
	ResultNotFound = "not_found"
	ResultError    = "error"

	ResultPersisted = "persisted"
	ResultDropped   = "dropped"
	ResultFailed    = "failed"
)

// ── Account operations ────────────────────────────────────────────────────────

// OperationsTotal counts account service calls.
// Labels:
//   - op: operation name (e.g. "register", "authenticate", "elevate_role")
//   - result: "ok", "invalid", "not_found" or "error"
var OperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Total number of account operations, by operation and result.",
	},
	[]string{"op", "result"},
)

// OperationDuration measures account service call latency, hashing included.
var OperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Duration of account operations.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op"},
)

// RegisteredTotal counts successful registrations.
// Label:
//   - role: role assigned at registration ("FISHER" or "ADMIN")
var RegisteredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registered_total",
		Help:      "Total number of accounts registered, by initial role.",
	},
	[]string{"role"},
)

// ── Audit trail ───────────────────────────────────────────────────────────────

// AuditEventsTotal counts audit events by outcome.
// Labels:
//   - type: account event type (e.g. "renamed")
//   - result: "persisted", "failed" or "dropped"
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of account audit events, by type and outcome.",
	},
	[]string{"type", "result"},
)

// AuditQueueDepth tracks pending audit events per dispatcher worker.
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
