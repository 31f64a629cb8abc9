// Package metrics provides the Prometheus registry and HTTP exposition
// for crawlcache. The metrics themselves are defined in pkg/cachemw to
// keep them next to the code that drives them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the Prometheus registerer used by crawlcache. All metrics
// register automatically via promauto in their defining packages.
var Registry = prometheus.DefaultRegisterer

// Handler returns the HTTP handler exposing all registered metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Available metrics (pkg/cachemw):
//   - crawlcache_replay_hits_total (Counter): Crawl steps replayed from cache
//   - crawlcache_replay_misses_total (Counter): Cache misses during replay
//   - crawlcache_replayed_objects_total{kind} (Counter): Objects re-emitted by kind
//   - crawlcache_captures_total (Counter): Cache entries written
//   - crawlcache_store_errors_total{operation} (Counter): Store errors by operation
//   - crawlcache_decode_failures_total (Counter): Entries that failed to decode
//
// Example Prometheus queries:
//
//   # Replay hit rate
//   rate(crawlcache_replay_hits_total[5m]) /
//   (rate(crawlcache_replay_hits_total[5m]) + rate(crawlcache_replay_misses_total[5m]))
//
//   # Store error rate by operation
//   rate(crawlcache_store_errors_total[5m])
