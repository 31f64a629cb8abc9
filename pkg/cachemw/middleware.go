package cachemw

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/crawlkit/crawlcache/pkg/codec"
	"github.com/crawlkit/crawlcache/pkg/keys"
	"github.com/crawlkit/crawlcache/pkg/pipeline"
	"github.com/crawlkit/crawlcache/pkg/store"
)

// Config holds the middleware configuration. It is immutable after
// construction.
type Config struct {
	// Enabled is the process-wide switch. When false, both stages are
	// inert and every request executes normally.
	Enabled bool

	// DefaultTTL is the fallback TTL when neither the request nor the
	// spider sets one.
	DefaultTTL time.Duration
}

// Middleware hooks the two cacheable stages of a crawl: Replay runs
// before a request executes and short-circuits it on a cache hit;
// Begin/Done bracket real execution and persist what it produced.
//
// The middleware holds no per-request state and is safe for concurrent
// use; each in-flight request owns its own Capture.
type Middleware struct {
	cfg      Config
	spider   pipeline.Spider
	store    store.Store
	resolver *keys.Resolver
	sink     pipeline.ObjectSink
	logger   zerolog.Logger
}

// New creates the middleware for one spider.
func New(cfg Config, spider pipeline.Spider, st store.Store, resolver *keys.Resolver, sink pipeline.ObjectSink) *Middleware {
	return &Middleware{
		cfg:      cfg,
		spider:   spider,
		store:    st,
		resolver: resolver,
		sink:     sink,
		logger:   log.With().Str("component", "cachemw").Str("spider", spider.Name()).Logger(),
	}
}

// cachingEnabled evaluates the enable precedence for one request:
// the global switch, the spider's declaration, the per-request metadata
// override, the never-cache marker, and the replay origin marker must
// all permit caching. Evaluated fresh per request.
func (m *Middleware) cachingEnabled(req *pipeline.Request) bool {
	if !m.cfg.Enabled {
		return false
	}
	if req.DontCache || req.Replayed {
		return false
	}
	if enabled, ok := req.CacheOverride(); ok && !enabled {
		return false
	}
	return m.spider.CacheEnabled()
}

// Replay consults the cache before req executes. On a hit it re-emits
// the stored objects through the sink in their original order and
// returns handled=true: the caller must skip real execution. On a miss,
// a disabled request, or any store or decode failure it returns
// handled=false and the caller proceeds normally.
//
// Follow-up requests are re-submitted with the Replayed marker set, so
// they can never re-enter replay or capture. A sink error during
// replay is the pipeline's own failure and is returned as-is.
func (m *Middleware) Replay(ctx context.Context, req *pipeline.Request) (handled bool, err error) {
	if !m.cachingEnabled(req) {
		return false, nil
	}

	key, err := m.resolver.Resolve(req)
	if err != nil {
		m.logger.Debug().Err(err).Str("url", req.URL).Msg("Key resolution failed, skipping replay")
		return false, nil
	}

	data, err := m.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			StoreErrors.WithLabelValues("get").Inc()
			m.logger.Warn().Err(err).Str("key", key).Msg("Store get failed, treating as miss")
		}
		ReplayMisses.Inc()
		return false, nil
	}

	objs, err := codec.Decode(data, m.spider.Schema())
	if err != nil {
		// The entry stays in place and expires via its TTL.
		DecodeFailures.Inc()
		ReplayMisses.Inc()
		m.logger.Warn().Err(err).Str("key", key).Msg("Cache entry decode failed, treating as miss")
		return false, nil
	}

	for _, obj := range objs {
		switch obj.Kind {
		case pipeline.KindItem:
			if err := m.sink.EmitItem(ctx, obj.Item); err != nil {
				return true, err
			}
		case pipeline.KindRequest:
			followUp := obj.Request.Clone()
			followUp.Replayed = true
			if err := m.sink.EmitRequest(ctx, followUp); err != nil {
				return true, err
			}
		}
		ReplayedObjects.WithLabelValues(string(obj.Kind)).Inc()
	}

	ReplayHits.Inc()
	m.logger.Debug().
		Str("key", key).
		Int("objects", len(objs)).
		Msg("Replayed crawl step from cache")
	return true, nil
}

// Begin starts observing one request's real execution. When caching is
// disabled for the request or its key cannot be resolved, the returned
// Capture is inert and every call on it is a no-op.
func (m *Middleware) Begin(req *pipeline.Request) *Capture {
	if !m.cachingEnabled(req) {
		return &Capture{}
	}

	key, err := m.resolver.Resolve(req)
	if err != nil {
		m.logger.Debug().Err(err).Str("url", req.URL).Msg("Key resolution failed, skipping capture")
		return &Capture{}
	}

	return &Capture{m: m, req: req, key: key, active: true}
}

// Capture buffers the objects one request produces during real
// execution. It is a side channel: the observed objects continue
// downstream unchanged, and nothing a Capture does is visible to the
// pipeline beyond the store write in Done.
//
// A Capture belongs to a single worker and is not safe for concurrent
// use; distinct requests get distinct Captures.
type Capture struct {
	m      *Middleware
	req    *pipeline.Request
	key    string
	objs   []pipeline.Object
	active bool
}

// Item records an extracted item passing through.
func (c *Capture) Item(item pipeline.Item) {
	if !c.active {
		return
	}
	c.objs = append(c.objs, pipeline.ItemObject(item))
}

// Request records a follow-up request passing through.
func (c *Capture) Request(req *pipeline.Request) {
	if !c.active {
		return
	}
	c.objs = append(c.objs, pipeline.RequestObject(req))
}

// Done persists the buffered objects once the request has finished
// producing output. A store failure is logged and dropped: the objects
// already went downstream, caching is best-effort.
func (c *Capture) Done(ctx context.Context) {
	if !c.active {
		return
	}

	data, err := codec.Encode(c.objs)
	if err != nil {
		c.m.logger.Warn().Err(err).Str("key", c.key).Msg("Cache entry encode failed, not cached")
		return
	}

	ttl := c.ttl()
	if err := c.m.store.Put(ctx, c.key, data, ttl); err != nil {
		StoreErrors.WithLabelValues("put").Inc()
		c.m.logger.Warn().Err(err).Str("key", c.key).Msg("Store put failed, not cached")
		return
	}

	Captures.Inc()
	c.m.logger.Debug().
		Str("key", c.key).
		Int("objects", len(c.objs)).
		Dur("ttl", ttl).
		Msg("Captured crawl step")
}

// ttl resolves the TTL for this entry: request override, then spider
// default, then global default.
func (c *Capture) ttl() time.Duration {
	if c.req.TTL != nil {
		return *c.req.TTL
	}
	if ttl := c.m.spider.DefaultTTL(); ttl != nil {
		return *ttl
	}
	return c.m.cfg.DefaultTTL
}
