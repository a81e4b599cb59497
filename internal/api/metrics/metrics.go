// Package metrics defines and registers all custom Prometheus metrics for the
// Epic Events CRM API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation; Recorder adapts them to the core observer ports.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/epicevents/crm/internal/core/domain"
)

const namespace = "crm"

// ── Core metrics ──────────────────────────────────────────────────────────────

// MutationsTotal counts core operations by outcome.
// Labels:
//   - kind: the entity kind (user, client, contract, event)
//   - action: create, update, delete, list or retrieve
//   - outcome: success, forbidden, rejected, conflict, ...
var MutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mutations_total",
		Help:      "Total number of core operations, by entity kind, action and outcome.",
	},
	[]string{"kind", "action", "outcome"},
)

// MutationDuration measures a core operation from authorization to commit.
var MutationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "mutation_duration_seconds",
		Help:      "Duration of core operations.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"kind", "action"},
)

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: success, unauthenticated, rate_limited, ...
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks the entries waiting in each audit worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit entries pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// HTTPRequestsTotal counts served requests by route template and status code.
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests, by method, route and status.",
	},
	[]string{"method", "route", "status"},
)

// HTTPRequestDuration measures request latency by route template.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// Recorder feeds the core observer ports into the collectors above.
type Recorder struct{}

func (Recorder) ObserveMutation(kind domain.EntityKind, action domain.Action, outcome domain.Outcome, elapsed time.Duration) {
	MutationsTotal.WithLabelValues(string(kind), string(action), string(outcome)).Inc()
	MutationDuration.WithLabelValues(string(kind), string(action)).Observe(elapsed.Seconds())
}

func (Recorder) ObserveLogin(outcome domain.Outcome) {
	LoginAttemptsTotal.WithLabelValues(string(outcome)).Inc()
}

func (Recorder) ObserveAuditDepth(workerID, depth int) {
	AuditQueueDepth.WithLabelValues(strconv.Itoa(workerID)).Set(float64(depth))
}
