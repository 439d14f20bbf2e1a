// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_resolutions_total",
			Help: "Total number of resolution requests by final outcome",
		},
		[]string{"domain", "outcome"},
	)

	ResolutionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_resolution_errors_total",
			Help: "Total number of failed resolution requests",
		},
		[]string{"domain", "error_code"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resolver_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"stage"},
	)

	StageBudgetExceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_stage_budget_exceeded_total",
			Help: "Times a stage ran past its advisory timing budget",
		},
		[]string{"stage"},
	)

	ClarificationsOpened = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_clarifications_opened_total",
			Help: "Pending disambiguations created, by reason code",
		},
		[]string{"domain", "reason"},
	)

	ClarificationsClosed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_clarifications_closed_total",
			Help: "Pending disambiguations resolved or abandoned",
		},
		[]string{"domain", "result"},
	)

	MatcherCacheBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_matcher_cache_builds_total",
			Help: "Matcher constructions, by cache hit or miss",
		},
		[]string{"domain", "result"},
	)

	AliasCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_alias_cache_hits_total",
			Help: "Tenant alias cache lookups by result",
		},
		[]string{"result"},
	)

	ActiveResolutions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "resolver_active_resolutions",
			Help: "Resolution requests currently in flight",
		},
		[]string{"domain"},
	)
)
