package controller

import (
	"github.com/prometheus/client_golang/prometheus"
)

var iterationsTotal prometheus.Counter

// newCollectors creates new metric collectors.
func newCollectors() prometheus.Counter {
	return prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "schedule_build_iterations_total",
			Help: "Number of completed build loop iterations",
		},
	)
}

func init() {
	iterationsTotal = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers controller metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(iterationsTotal)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	iterationsTotal = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
