// ABOUTME: Prometheus instrumentation for the focus session
// ABOUTME: Counters and gauges registered once and exposed to the session as hooks
package focus

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the focus engine.
type Metrics struct {
	RebuildsTotal     prometheus.Counter
	QueueItems        *prometheus.GaugeVec
	ActionsTotal      *prometheus.CounterVec
	WritesTotal       *prometheus.CounterVec
	SourceErrorsTotal *prometheus.CounterVec
	InvariantErrors   prometheus.Counter
	BriefingsTotal    *prometheus.CounterVec
	BriefingDuration  prometheus.Histogram
}

// NewMetrics registers and returns focus metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RebuildsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pagen_focus_rebuilds_total",
			Help: "Total focus queue rebuilds.",
		}),
		QueueItems: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pagen_focus_queue_items",
			Help: "Items in the focus queue by band.",
		}, []string{"band"}),
		ActionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pagen_focus_actions_total",
			Help: "Operator actions by action and item kind.",
		}, []string{"action", "kind"}),
		WritesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pagen_focus_writes_total",
			Help: "Collaborator writes by kind and result.",
		}, []string{"kind", "result"}),
		SourceErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pagen_focus_source_errors_total",
			Help: "Backlog fetch failures by source; the last snapshot is reused.",
		}, []string{"source"}),
		InvariantErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pagen_focus_invariant_errors_total",
			Help: "Suggestion key collisions detected during synthesis.",
		}),
		BriefingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pagen_focus_briefings_total",
			Help: "Briefing requests by outcome (generated, fallback).",
		}, []string{"outcome"}),
		BriefingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pagen_focus_briefing_duration_seconds",
			Help:    "Duration of briefing generation in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8), // 0.25s .. ~32s
		}),
	}

	reg.MustRegister(
		m.RebuildsTotal,
		m.QueueItems,
		m.ActionsTotal,
		m.WritesTotal,
		m.SourceErrorsTotal,
		m.InvariantErrors,
		m.BriefingsTotal,
		m.BriefingDuration,
	)

	return m
}

// Hooks returns SessionHooks that update the corresponding metrics.
func (m *Metrics) Hooks() SessionHooks {
	return SessionHooks{
		OnRebuild: func(queue []FocusItem) {
			m.RebuildsTotal.Inc()
			counts := make(map[Band]int, len(Bands))
			for _, item := range queue {
				counts[item.Band()]++
			}
			for _, b := range Bands {
				m.QueueItems.WithLabelValues(b.String()).Set(float64(counts[b]))
			}
		},
		OnAction: func(action Action, kind ItemKind) {
			m.ActionsTotal.WithLabelValues(string(action), kind.String()).Inc()
		},
		OnWrite: func(kind WriteKind, err error) {
			result := "success"
			if err != nil {
				result = "error"
			}
			m.WritesTotal.WithLabelValues(string(kind), result).Inc()
		},
		OnSourceError: func(source string, _ error) {
			m.SourceErrorsTotal.WithLabelValues(source).Inc()
		},
		OnInvariant: func(error) {
			m.InvariantErrors.Inc()
		},
		OnBriefing: func(fallback bool, seconds float64) {
			outcome := "generated"
			if fallback {
				outcome = "fallback"
			}
			m.BriefingsTotal.WithLabelValues(outcome).Inc()
			m.BriefingDuration.Observe(seconds)
		},
	}
}
