// Package cachemw caches the objects a crawl step produces (extracted
// items and follow-up requests) in a TTL-bounded key-value store, and
// replays them on a later identical step instead of executing it again.
//
// Two stages hook the pipeline. Replay runs before a request executes:
// on a cache hit it re-emits the stored object sequence through the
// pipeline's sink, in the original order, and suppresses real
// execution. Capture brackets real execution: Begin before the spider
// callback runs, Item/Request as objects pass downstream, Done once
// the step has finished producing output.
//
//	mw := cachemw.New(cfg, spider, st, resolver, sink)
//
//	handled, err := mw.Replay(ctx, req)
//	if err != nil {
//		return err
//	}
//	if !handled {
//		capture := mw.Begin(req)
//		for obj := range execute(req) {
//			// ... emit obj to the sink, then:
//			capture.Item(obj) // or capture.Request(obj)
//		}
//		capture.Done(ctx)
//	}
//
// The cache is strictly an optimization layer. Every failure mode in
// key resolution, store round-trips, or entry decoding degrades to
// "behave as if caching were absent for this request": lookups fail
// open to real execution and write failures are logged and dropped.
//
// Follow-up requests re-submitted from a cache entry carry the Replayed
// marker; both stages treat it as caching-disabled, so replayed work
// can never recurse into replay or capture.
//
// # Metrics
//
// The package exports Prometheus metrics:
//
//   - crawlcache_replay_hits_total - Crawl steps replayed from cache
//   - crawlcache_replay_misses_total - Cache misses during replay
//   - crawlcache_replayed_objects_total{kind} - Objects re-emitted by kind
//   - crawlcache_captures_total - Cache entries written
//   - crawlcache_store_errors_total{operation} - Store operation errors
//   - crawlcache_decode_failures_total - Entries that failed to decode
package cachemw
