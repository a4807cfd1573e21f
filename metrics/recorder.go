// Package metrics exports call session lifecycle counters to Prometheus.
//
// A Recorder is installed as the controller's observer:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewRecorder(reg)
//	ctrl.SetObserver(rec)
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package metrics

import (
	"sync"

	"github.com/opd-ai/meetcall/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Recorder turns controller notifications into Prometheus metrics.
type Recorder struct {
	sessionsStarted  *prometheus.CounterVec
	sessionsEnded    *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	connectedSeconds prometheus.Histogram
	activeSessions   prometheus.Gauge
	ringtoneFailures prometheus.Counter

	mu     sync.Mutex
	active map[string]struct{}
}

// NewRecorder creates a recorder and registers its collectors with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &Recorder{
		sessionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meetcall_sessions_total",
			Help: "Total number of call sessions started",
		}, []string{"direction", "call_type"}),
		sessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meetcall_sessions_ended_total",
			Help: "Total number of call sessions ended, by reason",
		}, []string{"reason"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meetcall_phase_transitions_total",
			Help: "Total number of applied phase transitions",
		}, []string{"from", "to", "event"}),
		connectedSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "meetcall_session_connected_seconds",
			Help:    "Connected duration of ended call sessions",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "meetcall_active_sessions",
			Help: "Number of call sessions not yet ended",
		}),
		ringtoneFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meetcall_ringtone_failures_total",
			Help: "Incoming calls whose ringtone could not be played",
		}),
		active: make(map[string]struct{}),
	}

	reg.MustRegister(
		r.sessionsStarted,
		r.sessionsEnded,
		r.transitions,
		r.connectedSeconds,
		r.activeSessions,
		r.ringtoneFailures,
	)
	return r
}

// SessionStarted counts a new session and marks it active.
func (r *Recorder) SessionStarted(snap session.Snapshot) {
	r.sessionsStarted.WithLabelValues(string(snap.Call.Direction), string(snap.Call.Type)).Inc()

	r.mu.Lock()
	if _, ok := r.active[snap.Call.ID]; !ok {
		r.active[snap.Call.ID] = struct{}{}
		r.activeSessions.Inc()
	}
	r.mu.Unlock()
}

// PhaseChanged counts an applied transition.
func (r *Recorder) PhaseChanged(tr session.Transition, _ session.Snapshot) {
	r.transitions.WithLabelValues(tr.From.String(), tr.To.String(), tr.Event.String()).Inc()
}

// SessionEnded counts the end reason and, for calls that connected, observes
// the connected duration.
func (r *Recorder) SessionEnded(snap session.Snapshot) {
	r.sessionsEnded.WithLabelValues(string(snap.EndReason)).Inc()
	if !snap.ConnectedAt.IsZero() {
		r.connectedSeconds.Observe(float64(snap.ElapsedSeconds))
	}

	r.mu.Lock()
	if _, ok := r.active[snap.Call.ID]; ok {
		delete(r.active, snap.Call.ID)
		r.activeSessions.Dec()
	}
	r.mu.Unlock()
}

// RingtoneUnavailable counts a ringtone failure.
func (r *Recorder) RingtoneUnavailable(callID string, err error) {
	r.ringtoneFailures.Inc()
	logrus.WithFields(logrus.Fields{
		"function": "RingtoneUnavailable",
		"call_id":  callID,
		"error":    err.Error(),
	}).Debug("Ringtone failure recorded")
}
