package pipeline

import (
	"context"
	"time"
)

// Spider is the cache's view of the spider that owns a crawl. It is
// read-only configuration from the cache's perspective.
type Spider interface {
	// Name identifies the spider. It namespaces cache keys so two
	// spiders never share entries.
	Name() string

	// CacheEnabled reports whether the spider opts into object caching.
	CacheEnabled() bool

	// DefaultTTL is the spider-level TTL default. Nil means fall back
	// to the global default.
	DefaultTTL() *time.Duration

	// Schema returns the declared field coercions for items this
	// spider extracts.
	Schema() FieldTypes
}

// ObjectSink is the downstream pipeline as seen from the cache: items
// go to the extraction output, requests re-enter the scheduler. Replay
// emits through the same sink real execution does, so callers cannot
// tell replayed output from fresh output.
type ObjectSink interface {
	EmitItem(ctx context.Context, item Item) error
	EmitRequest(ctx context.Context, req *Request) error
}
