package file

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storeit_file_registrations_total",
		Help: "File registrations by outcome.",
	}, []string{"result"})

	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storeit_file_mutations_total",
		Help: "Successful file mutations by action.",
	}, []string{"action"})

	partialFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storeit_file_partial_failures_total",
		Help: "Cleanup steps that failed after the primary outcome was decided.",
	}, []string{"operation"})

	integrityViolationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storeit_file_integrity_violations_total",
		Help: "Records encountered without a resolvable storage reference.",
	}, []string{"operation"})
)
