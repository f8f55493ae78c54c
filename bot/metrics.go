package bot

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline's Prometheus instrumentation. A nil *Metrics
// is valid everywhere it is accepted; callers check before recording.
type Metrics struct {
	ProjectsFetched   prometheus.Counter
	ProjectsSkipped   *prometheus.CounterVec
	ProjectsQualified prometheus.Counter
	ProjectsDeclined  prometheus.Counter
	BidsPlaced        prometheus.Counter
	BidsFailed        prometheus.Counter
	GenerationErrors  *prometheus.CounterVec
	Cycles            prometheus.Counter
}

// NewMetrics creates pipeline metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ProjectsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bidflow_projects_fetched_total",
			Help: "Projects returned by the marketplace feed.",
		}),
		ProjectsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bidflow_projects_skipped_total",
			Help: "Projects rejected by the eligibility filter, by reason.",
		}, []string{"reason"}),
		ProjectsQualified: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bidflow_projects_qualified_total",
			Help: "Projects the service-match decision accepted.",
		}),
		ProjectsDeclined: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bidflow_projects_declined_total",
			Help: "Projects the service-match decision turned down.",
		}),
		BidsPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bidflow_bids_placed_total",
			Help: "Bids accepted by the marketplace.",
		}),
		BidsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bidflow_bids_failed_total",
			Help: "Bid placements rejected by the marketplace.",
		}),
		GenerationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bidflow_generation_errors_total",
			Help: "Text generation failures, by pipeline stage.",
		}, []string{"stage"}),
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bidflow_cycles_total",
			Help: "Completed polling cycles.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.ProjectsFetched,
			m.ProjectsSkipped,
			m.ProjectsQualified,
			m.ProjectsDeclined,
			m.BidsPlaced,
			m.BidsFailed,
			m.GenerationErrors,
			m.Cycles,
		)
	}

	return m
}
