package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics instruments full-image commits of the persistent store.
type StoreMetrics struct {
	commits    *prometheus.CounterVec
	duration   prometheus.Histogram
	imageBytes prometheus.Gauge
	corrupt    prometheus.Counter
}

var (
	defaultStoreOnce    sync.Once
	defaultStoreMetrics *StoreMetrics
)

// NewStoreMetrics registers the store collectors. A nil registerer uses the
// default Prometheus registerer.
func NewStoreMetrics(registerer prometheus.Registerer) *StoreMetrics {
	if registerer == nil {
		defaultStoreOnce.Do(func() {
			defaultStoreMetrics = buildStoreMetrics(prometheus.DefaultRegisterer)
		})
		return defaultStoreMetrics
	}
	return buildStoreMetrics(registerer)
}

func buildStoreMetrics(registerer prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zamzam_store_commits_total",
			Help: "Full-image commits by outcome.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "zamzam_store_commit_duration_seconds",
			Help:    "Time spent serialising and writing the engine image.",
			Buckets: prometheus.DefBuckets,
		}),
		imageBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "zamzam_store_image_bytes",
			Help: "Size of the last committed engine image.",
		}),
		corrupt: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zamzam_store_image_corrupt_total",
			Help: "Persisted images discarded after a failed sanity probe.",
		}),
	}
	registerer.MustRegister(m.commits, m.duration, m.imageBytes, m.corrupt)
	return m
}

// CommitTracker measures a single commit.
type CommitTracker struct {
	metrics *StoreMetrics
	start   time.Time
}

// TrackCommit starts timing a commit.
func (m *StoreMetrics) TrackCommit() *CommitTracker {
	return &CommitTracker{metrics: m, start: time.Now()}
}

// End records the outcome and returns err untouched.
func (t *CommitTracker) End(size int, err error) error {
	if t == nil || t.metrics == nil {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
	} else {
		t.metrics.imageBytes.Set(float64(size))
	}
	t.metrics.commits.WithLabelValues(status).Inc()
	t.metrics.duration.Observe(time.Since(t.start).Seconds())
	return err
}

// ImageCorrupt counts a discarded image.
func (m *StoreMetrics) ImageCorrupt() {
	if m == nil {
		return
	}
	m.corrupt.Inc()
}
