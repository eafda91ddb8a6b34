package builder

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	placementsTotal     *prometheus.CounterVec
	conflictsResolved   prometheus.Counter
	candidateRejections prometheus.Counter
	phaseDuration       *prometheus.HistogramVec
	unfilledDates       prometheus.Gauge
	buildsTotal         prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, prometheus.Counter, prometheus.Counter, *prometheus.HistogramVec, prometheus.Gauge, prometheus.Counter) {
	placements := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_placements_total",
			Help: "Number of events placed on the master schedule",
		},
		[]string{"method"},
	)
	conflicts := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "schedule_conflicts_resolved_total",
			Help: "Number of multi-candidate dates resolved to a placement",
		},
	)
	rejections := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "schedule_candidate_rejections_total",
			Help: "Number of candidate dates dropped by the filter chain during quota fill",
		},
	)
	phases := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "schedule_build_phase_duration_seconds",
			Help:    "Duration of each build pipeline phase",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"phase"},
	)
	unfilled := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "schedule_unfilled_dates",
			Help: "Number of dates without a placement after the last build",
		},
	)
	builds := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "schedule_builds_total",
			Help: "Number of completed build pipeline runs",
		},
	)
	return placements, conflicts, rejections, phases, unfilled, builds
}

func init() {
	placementsTotal, conflictsResolved, candidateRejections, phaseDuration, unfilledDates, buildsTotal = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers builder metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(placementsTotal, conflictsResolved, candidateRejections, phaseDuration, unfilledDates, buildsTotal)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	placementsTotal, conflictsResolved, candidateRejections, phaseDuration, unfilledDates, buildsTotal = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
