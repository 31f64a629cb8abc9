// Package keys derives the store key for a crawl step: spider-supplied
// override hooks with defined precedence, falling back to a
// deterministic request fingerprint.
package keys

import (
	"errors"
	"fmt"

	"github.com/crawlkit/crawlcache/pkg/pipeline"
)

// ErrKeyResolution indicates an override hook failed. The request is
// treated as non-cacheable for this pass.
var ErrKeyResolution = errors.New("key resolution failed")

// OverrideFunc computes a custom cache key for a request. Returning an
// empty key (and nil error) falls back to the default fingerprint.
type OverrideFunc func(req *pipeline.Request) (string, error)

// Overrides carries the optional spider-supplied key hooks. Legacy takes
// precedence over Current; at most one is invoked per request.
type Overrides struct {
	// Legacy is the hook registered under the legacy-compatible name.
	Legacy OverrideFunc

	// Current is the hook registered under the current name.
	Current OverrideFunc
}

// Config configures a Resolver.
type Config struct {
	// Tag is the namespace prefix shared by every key this resolver
	// produces.
	Tag string

	// SpiderName scopes keys to one spider.
	SpiderName string

	// Overrides are the optional spider key hooks.
	Overrides Overrides
}

// Resolver derives cache keys for crawl steps. It is pure over its
// inputs and safe for concurrent use.
type Resolver struct {
	cfg        Config
	spiderHash string
}

// New creates a Resolver. The spider name hash is computed once.
func New(cfg Config) *Resolver {
	return &Resolver{
		cfg:        cfg,
		spiderHash: hashString(cfg.SpiderName),
	}
}

// Resolve derives the store key for req.
//
// Precedence: the legacy override hook, then the current override hook,
// then the default fingerprint. At most one hook runs. A hook error
// aborts resolution with ErrKeyResolution; a hook returning an empty
// key falls through to the fingerprint. The final key is namespaced
// as tag:spiderhash:key.
func (r *Resolver) Resolve(req *pipeline.Request) (string, error) {
	var hook OverrideFunc
	switch {
	case r.cfg.Overrides.Legacy != nil:
		hook = r.cfg.Overrides.Legacy
	case r.cfg.Overrides.Current != nil:
		hook = r.cfg.Overrides.Current
	}

	var key string
	if hook != nil {
		k, err := hook(req)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrKeyResolution, err)
		}
		key = k
	}
	if key == "" {
		key = Fingerprint(req)
	}

	return fmt.Sprintf("%s:%s:%s", r.cfg.Tag, r.spiderHash, key), nil
}
