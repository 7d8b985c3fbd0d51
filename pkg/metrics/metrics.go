// Package metrics provides Prometheus counters for quiz activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "certprep"

// Session modes used as label values.
const (
	ModeFull  = "full"
	ModeRetry = "retry"
)

// Recorder owns a private registry so tests and commands never collide on
// the global default registerer. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	sessionsStarted   *prometheus.CounterVec
	sessionsCompleted prometheus.Counter
	answers           *prometheus.CounterVec
	questionsLoaded   prometheus.Counter
	questionsDropped  prometheus.Counter
	writeFailures     prometheus.Counter
}

// Option applies a configuration option to the Recorder.
type Option func(*settings)

type settings struct {
	namespace string
}

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(s *settings) {
		if namespace != "" {
			s.namespace = namespace
		}
	}
}

// New registers all collectors on a fresh registry.
func New(opts ...Option) *Recorder {
	s := &settings{namespace: defaultNamespace}
	for _, opt := range opts {
		opt(s)
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		sessionsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: s.namespace,
			Name:      "sessions_started_total",
			Help:      "Quiz sessions started, by mode.",
		}, []string{"mode"}),
		sessionsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: s.namespace,
			Name:      "sessions_completed_total",
			Help:      "Quiz sessions that reached the summary.",
		}),
		answers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: s.namespace,
			Name:      "answers_total",
			Help:      "Submitted answers, by result.",
		}, []string{"result"}),
		questionsLoaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: s.namespace,
			Name:      "questions_loaded_total",
			Help:      "Questions that survived normalization.",
		}),
		questionsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: s.namespace,
			Name:      "questions_dropped_total",
			Help:      "Source records rejected by normalization.",
		}),
		writeFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: s.namespace,
			Name:      "leaderboard_write_failures_total",
			Help:      "Leaderboard writes that failed and were skipped.",
		}),
	}
}

// SessionStarted counts a new session in mode ModeFull or ModeRetry.
func (r *Recorder) SessionStarted(mode string) {
	if r == nil {
		return
	}
	r.sessionsStarted.WithLabelValues(mode).Inc()
}

// SessionCompleted counts a session that produced a summary.
func (r *Recorder) SessionCompleted() {
	if r == nil {
		return
	}
	r.sessionsCompleted.Inc()
}

// AnswerSubmitted counts one scored answer.
func (r *Recorder) AnswerSubmitted(correct bool) {
	if r == nil {
		return
	}
	result := "incorrect"
	if correct {
		result = "correct"
	}
	r.answers.WithLabelValues(result).Inc()
}

// QuestionsLoaded records the outcome of normalizing one file.
func (r *Recorder) QuestionsLoaded(kept, dropped int) {
	if r == nil {
		return
	}
	r.questionsLoaded.Add(float64(kept))
	r.questionsDropped.Add(float64(dropped))
}

// LeaderboardWriteFailed counts a skipped leaderboard write.
func (r *Recorder) LeaderboardWriteFailed() {
	if r == nil {
		return
	}
	r.writeFailures.Inc()
}

// Registry exposes the underlying registry for scraping and tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the registry for the node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
