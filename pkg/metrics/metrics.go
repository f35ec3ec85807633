// Package metrics exposes Prometheus instrumentation for the API.
//
// Collectors are registered on the default registry and served by
// promhttp at /metrics. Outcome labels use the canonical error-code
// names from pkg/storage so dashboards line up with the error taxonomy.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SharesCreated counts successfully created share links.
	SharesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "drivestore",
		Subsystem: "share",
		Name:      "created_total",
		Help:      "Number of share links created.",
	})

	// ShareRedemptions counts redemption attempts by outcome
	// (success, not_found, expired, access_limit_reached,
	// password_required, invalid_password, forbidden, internal).
	ShareRedemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "drivestore",
		Subsystem: "share",
		Name:      "redemptions_total",
		Help:      "Number of share redemption attempts by outcome.",
	}, []string{"outcome"})

	// FileOperations counts file lifecycle operations by kind and outcome.
	FileOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "drivestore",
		Subsystem: "file",
		Name:      "operations_total",
		Help:      "Number of file operations by kind and outcome.",
	}, []string{"operation", "outcome"})

	// BestEffortFailures counts swallowed failures of advisory updates
	// (share counters, last-accessed stamps). A rising rate means the
	// metadata store is unhealthy even though requests still succeed.
	BestEffortFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "drivestore",
		Subsystem: "store",
		Name:      "best_effort_failures_total",
		Help:      "Number of swallowed best-effort metadata update failures.",
	})
)
