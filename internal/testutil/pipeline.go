package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/crawlkit/crawlcache/pkg/pipeline"
)

// StubSpider is a scripted pipeline.Spider.
type StubSpider struct {
	SpiderName string
	Enabled    bool
	TTL        *time.Duration
	Types      pipeline.FieldTypes
}

func (s *StubSpider) Name() string { return s.SpiderName }

func (s *StubSpider) CacheEnabled() bool { return s.Enabled }

func (s *StubSpider) DefaultTTL() *time.Duration { return s.TTL }

func (s *StubSpider) Schema() pipeline.FieldTypes { return s.Types }

// CollectSink records everything emitted through it, in order.
type CollectSink struct {
	mu      sync.Mutex
	Objects []pipeline.Object

	// ItemErr and RequestErr, when set, are returned by the
	// corresponding emit call.
	ItemErr    error
	RequestErr error
}

// EmitItem implements pipeline.ObjectSink.
func (s *CollectSink) EmitItem(_ context.Context, item pipeline.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ItemErr != nil {
		return s.ItemErr
	}
	s.Objects = append(s.Objects, pipeline.ItemObject(item))
	return nil
}

// EmitRequest implements pipeline.ObjectSink.
func (s *CollectSink) EmitRequest(_ context.Context, req *pipeline.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RequestErr != nil {
		return s.RequestErr
	}
	s.Objects = append(s.Objects, pipeline.RequestObject(req))
	return nil
}

// Reset clears the recorded objects.
func (s *CollectSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects = nil
}
