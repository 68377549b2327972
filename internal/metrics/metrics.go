// file: internal/metrics/metrics.go
// version: 2.0.0
// guid: 9f8e7d6c-5b4a-3210-9fed-cba876543210

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	lookupsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "audiobook_asin",
		Name:      "lookups_started_total",
		Help:      "Total number of ASIN lookups started",
	})
	lookupsResolved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "audiobook_asin",
		Name:      "lookups_resolved_total",
		Help:      "Total number of lookups that produced an ASIN, by source",
	}, []string{"source"})
	lookupsExhausted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "audiobook_asin",
		Name:      "lookups_exhausted_total",
		Help:      "Total number of lookups that exhausted all sources without a result",
	})
	lookupDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "audiobook_asin",
		Name:      "lookup_duration_seconds",
		Help:      "Histogram of end-to-end lookup durations in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.05, 1.6, 10), // ~50ms up to several minutes
	})

	cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "audiobook_asin",
		Name:      "cache_hits_total",
		Help:      "Total number of lookups answered from the cache",
	})
	cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "audiobook_asin",
		Name:      "cache_misses_total",
		Help:      "Total number of lookups that missed the cache",
	})

	sourceAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "audiobook_asin",
		Name:      "source_attempts_total",
		Help:      "Total number of search attempts by source and outcome",
	}, []string{"source", "outcome"})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(lookupsStarted, lookupsResolved, lookupsExhausted,
			lookupDuration, cacheHits, cacheMisses, sourceAttempts)
	})
}

// Lookup lifecycle helpers
func IncLookupStarted()            { lookupsStarted.Inc() }
func IncLookupResolved(src string) { lookupsResolved.WithLabelValues(src).Inc() }
func IncLookupExhausted()          { lookupsExhausted.Inc() }
func ObserveLookupDuration(d time.Duration) {
	lookupDuration.Observe(d.Seconds())
}

func IncCacheHit()  { cacheHits.Inc() }
func IncCacheMiss() { cacheMisses.Inc() }

// IncSourceAttempt records one attempt against a source; outcome is
// "hit", "miss", or "error".
func IncSourceAttempt(src, outcome string) {
	sourceAttempts.WithLabelValues(src, outcome).Inc()
}
