// Package pipeline defines the data model shared between the crawl
// pipeline and the object cache: requests, extracted items, and the
// tagged object stream a single crawl step produces.
package pipeline

import (
	"maps"
	"net/http"
	"time"
)

// MetaCacheEnabled is the request metadata key holding a per-request
// enable/disable override for object caching. The value must be a bool.
const MetaCacheEnabled = "cache_object_enabled"

// Request identifies one cacheable crawl step: a URL to process plus the
// contextual metadata the spider attached to it.
type Request struct {
	// URL is the target locator of this step.
	URL string

	// Method is the HTTP method (empty means GET).
	Method string

	// Body is the request body, if any.
	Body []byte

	// Headers are the request headers.
	Headers http.Header

	// Meta is the spider-controlled metadata bag. The cache only reads
	// it, except for the MetaCacheEnabled override key.
	Meta map[string]any

	// TTL overrides the spider-level and global cache TTL for the
	// objects this request produces. Nil means no override.
	TTL *time.Duration

	// DontCache marks the request as never-cache (used for retries).
	// It suppresses capture and replay and is never persisted.
	DontCache bool

	// Replayed marks a request that was re-submitted from a cache
	// entry. Both cache stages treat it as caching-disabled so a
	// replayed request can never re-enter replay or capture.
	Replayed bool
}

// CacheOverride reports the MetaCacheEnabled metadata override.
// ok is false when the key is absent or not a bool.
func (r *Request) CacheOverride() (enabled, ok bool) {
	v, present := r.Meta[MetaCacheEnabled]
	if !present {
		return false, false
	}
	b, isBool := v.(bool)
	if !isBool {
		return false, false
	}
	return b, true
}

// Clone returns a deep copy of the request. Header values and the
// metadata map are copied; the body is shared (requests never mutate it).
func (r *Request) Clone() *Request {
	c := *r
	if r.Headers != nil {
		c.Headers = r.Headers.Clone()
	}
	if r.Meta != nil {
		c.Meta = maps.Clone(r.Meta)
	}
	if r.TTL != nil {
		ttl := *r.TTL
		c.TTL = &ttl
	}
	return &c
}
