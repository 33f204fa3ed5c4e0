package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Matching provides observability for donor matching and alert delivery.
type Matching struct {
	// Candidate search latency (repository round trip)
	SearchLatency prometheus.Histogram

	// Searches that hit the deadline and were treated as empty
	SearchTimeouts prometheus.Counter

	// Candidates surviving the search filters, per run
	CandidatesFound prometheus.Histogram

	// Matches returned by urgency
	MatchesReturned *prometheus.CounterVec

	// Full run latency by kind ("initial" or "expanded")
	RunLatency *prometheus.HistogramVec

	// Notifications by delivery path and outcome
	Notifications *prometheus.CounterVec
}

// NewMatching registers the matching metrics with reg. A nil reg uses the default registerer.
func NewMatching(reg prometheus.Registerer) *Matching {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Matching{
		SearchLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bloodbridge_donor_search_duration_seconds",
			Help:    "Duration of donor candidate searches",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		SearchTimeouts: f.NewCounter(prometheus.CounterOpts{
			Name: "bloodbridge_donor_search_timeouts_total",
			Help: "Donor searches that exceeded their deadline and returned no candidates",
		}),
		CandidatesFound: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bloodbridge_donor_candidates",
			Help:    "Eligible candidates found per matching run",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		}),
		MatchesReturned: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodbridge_matches_returned_total",
			Help: "Ranked matches returned by urgency",
		}, []string{"urgency"}),
		RunLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bloodbridge_matching_run_duration_seconds",
			Help:    "Duration of a full matching run including history reads",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodbridge_donor_notifications_total",
			Help: "Donor notifications by delivery path and outcome",
		}, []string{"path", "outcome"}),
	}
}

// ObserveSearchLatency records the duration of a candidate search.
func (m *Matching) ObserveSearchLatency(d time.Duration) {
	if m != nil {
		m.SearchLatency.Observe(d.Seconds())
	}
}

// IncrementSearchTimeouts records a search that ran past its deadline.
func (m *Matching) IncrementSearchTimeouts() {
	if m != nil {
		m.SearchTimeouts.Inc()
	}
}

// ObserveCandidates records the number of eligible candidates in a run.
func (m *Matching) ObserveCandidates(n int) {
	if m != nil {
		m.CandidatesFound.Observe(float64(n))
	}
}

// AddMatches records n matches returned at urgency.
func (m *Matching) AddMatches(urgency string, n int) {
	if m != nil {
		m.MatchesReturned.WithLabelValues(urgency).Add(float64(n))
	}
}

// ObserveRunLatency records the duration of a matching run.
func (m *Matching) ObserveRunLatency(kind string, d time.Duration) {
	if m != nil {
		m.RunLatency.WithLabelValues(kind).Observe(d.Seconds())
	}
}

// IncrementNotification records one notification attempt.
func (m *Matching) IncrementNotification(path, outcome string) {
	if m != nil {
		m.Notifications.WithLabelValues(path, outcome).Inc()
	}
}
