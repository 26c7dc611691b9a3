// Package metrics defines and registers all custom Prometheus metrics for the
// platform API. It is the single source of truth for metric names, labels,
// and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "platform"

// AuthzDecisionsTotal counts authorization decisions made at the route gate.
// Labels:
//   - capability: the required capability in "resource:action" form
//   - result: "allow" or "deny"
var AuthzDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authz_decisions_total",
		Help:      "Total number of authorization decisions, by capability and result.",
	},
	[]string{"capability", "result"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "not_active", or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RefreshesTotal counts refresh token redemptions.
// Label:
//   - result: "success", "reused", "expired", or "error"
var RefreshesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refreshes_total",
		Help:      "Total number of refresh token redemptions, by result.",
	},
	[]string{"result"},
)

// SessionFamiliesRevokedTotal counts session families revoked because a
// refresh token was presented more than once.
var SessionFamiliesRevokedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_families_revoked_total",
		Help:      "Total number of session families revoked after refresh token reuse.",
	},
)

// CapabilityCacheTotal counts capability cache lookups.
// Label:
//   - result: "hit" or "miss"
var CapabilityCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "capability_cache_total",
		Help:      "Total number of capability cache lookups, by result (hit/miss).",
	},
	[]string{"result"},
)
