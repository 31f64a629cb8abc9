package cachemw

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReplayHits tracks crawl steps answered from the cache.
	ReplayHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crawlcache_replay_hits_total",
			Help: "Total number of crawl steps replayed from cache",
		},
	)

	// ReplayMisses tracks crawl steps that fell through to real
	// execution after a cache lookup.
	ReplayMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crawlcache_replay_misses_total",
			Help: "Total number of cache misses during replay",
		},
	)

	// ReplayedObjects tracks objects re-emitted from cache entries by kind.
	ReplayedObjects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawlcache_replayed_objects_total",
			Help: "Total number of objects re-emitted from cache entries",
		},
		[]string{"kind"}, // "request", "item"
	)

	// Captures tracks successfully persisted cache entries.
	Captures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crawlcache_captures_total",
			Help: "Total number of cache entries written",
		},
	)

	// StoreErrors tracks store operation failures by operation.
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawlcache_store_errors_total",
			Help: "Total number of store operation errors",
		},
		[]string{"operation"}, // "get", "put"
	)

	// DecodeFailures tracks stored payloads that could not be
	// reconstructed and were treated as misses.
	DecodeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crawlcache_decode_failures_total",
			Help: "Total number of cache entries that failed to decode",
		},
	)
)
