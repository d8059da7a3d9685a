// Package metrics exposes Prometheus counters for authoring and form filling.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recorder collects service counters. A nil *Recorder records nothing.
type Recorder struct {
	formsSaved      *prometheus.CounterVec
	navigation      *prometheus.CounterVec
	submitted       prometheus.Counter
	persistFailures *prometheus.CounterVec
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		formsSaved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formflow_forms_saved_total",
				Help: "Form definitions written, by operation.",
			},
			[]string{"op"},
		),
		navigation: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formflow_navigation_total",
				Help: "Navigation requests in fill sessions, by direction and outcome.",
			},
			[]string{"direction", "outcome"},
		),
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "formflow_responses_submitted_total",
			Help: "Responses stored.",
		}),
		persistFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formflow_persistence_failures_total",
				Help: "Failed calls to a backing store, by operation.",
			},
			[]string{"op"},
		),
	}
	reg.MustRegister(r.formsSaved, r.navigation, r.submitted, r.persistFailures)
	return r
}

// FormSaved counts a create, update or delete.
func (r *Recorder) FormSaved(op string) {
	if r == nil {
		return
	}
	r.formsSaved.WithLabelValues(op).Inc()
}

// Navigated counts a next/back request and how it ended.
func (r *Recorder) Navigated(direction, outcome string) {
	if r == nil {
		return
	}
	r.navigation.WithLabelValues(direction, outcome).Inc()
}

// Submitted counts a stored response.
func (r *Recorder) Submitted() {
	if r == nil {
		return
	}
	r.submitted.Inc()
}

// PersistenceFailed counts a failed store call.
func (r *Recorder) PersistenceFailed(op string) {
	if r == nil {
		return
	}
	r.persistFailures.WithLabelValues(op).Inc()
}
