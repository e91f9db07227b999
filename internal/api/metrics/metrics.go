// Package metrics defines and registers all custom Prometheus metrics for the
// credential vault API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vault"

// ── Authentication metrics ────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts by outcome.
// Label:
//   - result: "success", "invalid_credentials", "rate_limited" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RateGateBlocksTotal counts attempts rejected by the rate gate.
var RateGateBlocksTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_gate_blocks_total",
		Help:      "Total number of login attempts rejected by the rate gate.",
	},
)

// ── Vault metrics ─────────────────────────────────────────────────────────────

// VaultMutationsTotal counts successful entry mutations.
// Label:
//   - action: "create_password", "update_password" or "delete_password"
var VaultMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vault_mutations_total",
		Help:      "Total number of successful vault mutations, by action.",
	},
	[]string{"action"},
)

// EntryStrength observes the strength score of every stored payload.
var EntryStrength = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "entry_strength",
		Help:      "Strength scores of written vault entries.",
		Buckets:   []float64{10, 20, 30, 39, 50, 60, 70, 80, 90, 100},
	},
)

// ── Alert metrics ─────────────────────────────────────────────────────────────

// AlertsRaisedTotal counts newly created security alerts.
// Label:
//   - kind: "weak_password" or "reused_password"
var AlertsRaisedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alerts_raised_total",
		Help:      "Total number of security alerts raised, by kind.",
	},
	[]string{"kind"},
)

// AlertsResolvedTotal counts alerts resolved by their owners.
var AlertsResolvedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alerts_resolved_total",
		Help:      "Total number of security alerts resolved.",
	},
)

// ScanQueueDepth tracks the number of vault scans waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var ScanQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scan_queue_depth",
		Help:      "Current number of vault scans pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
