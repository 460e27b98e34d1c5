package compiler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/wippyai/callspec"
	"github.com/wippyai/callspec/diag"
)

// Outcome label values.
const (
	OutcomeAssembled = "assembled"
	OutcomeRejected  = "rejected"
)

// Metrics counts compilation outcomes.
type Metrics struct {
	// Declarations counts declarations by binding kind and outcome.
	// Labels: kind (plain, getter, ...), outcome (assembled, rejected)
	Declarations *prometheus.CounterVec

	// Diagnostics counts diagnostics by error kind.
	// Labels: kind (structural_conflict, missing_receiver, ...)
	Diagnostics *prometheus.CounterVec
}

// NewMetrics registers the compiler metrics with reg. A nil reg uses the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Declarations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "callspec",
			Name:      "declarations_total",
			Help:      "Declarations compiled, by binding kind and outcome",
		}, []string{"kind", "outcome"}),
		Diagnostics: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "callspec",
			Name:      "diagnostics_total",
			Help:      "Diagnostics reported, by error kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) record(kind callspec.BindingKind, diags diag.List) {
	if m == nil {
		return
	}
	outcome := OutcomeAssembled
	if !diags.Empty() {
		outcome = OutcomeRejected
	}
	m.Declarations.WithLabelValues(kind.String(), outcome).Inc()
	for _, e := range diags {
		m.Diagnostics.WithLabelValues(string(e.Kind)).Inc()
	}
}
