// Command crawlcache is a smoke tool for the object cache: it runs a
// synthetic spider through the replay and capture stages against the
// configured store, so hit/miss behavior can be observed from the shell.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/crawlkit/crawlcache/pkg/cachemw"
	"github.com/crawlkit/crawlcache/pkg/config"
	"github.com/crawlkit/crawlcache/pkg/keys"
	"github.com/crawlkit/crawlcache/pkg/logging"
	"github.com/crawlkit/crawlcache/pkg/metrics"
	"github.com/crawlkit/crawlcache/pkg/pipeline"
	"github.com/crawlkit/crawlcache/pkg/store"
)

var (
	cfgFile     string
	spiderName  string
	urls        []string
	ttlOverride time.Duration
	metricsAddr string
)

var rootCmd = &cobra.Command{
	Use:   "crawlcache",
	Short: "Exercise the crawl object cache against a live store.",
	Long: `crawlcache runs a synthetic spider through the object cache: each URL
is first offered to the replay stage, and on a miss executes a fake
crawl step whose output is captured. Run it twice to see the second
run served entirely from the store.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	rootCmd.Flags().StringVar(&spiderName, "spider", "demo", "spider name (namespaces cache keys)")
	rootCmd.Flags().StringSliceVar(&urls, "url", nil, "URL to process (repeatable)")
	rootCmd.Flags().DurationVar(&ttlOverride, "ttl", 0, "per-request TTL override (0 = use defaults)")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "expose Prometheus metrics on this address")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
		Output: os.Stderr,
	})

	if len(urls) == 0 {
		return fmt.Errorf("--url is required")
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	if metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				logger.Error().Err(err).Msg("Metrics server failed")
			}
		}()
		logger.Info().Str("addr", metricsAddr).Msg("Serving metrics")
	}

	spider := &demoSpider{name: spiderName}
	sink := &logSink{}
	resolver := keys.New(keys.Config{Tag: cfg.Tag, SpiderName: spider.Name()})
	mw := cachemw.New(
		cachemw.Config{Enabled: cfg.Enabled, DefaultTTL: cfg.DefaultTTL.Std()},
		spider, st, resolver, sink,
	)

	ctx := context.Background()
	for _, target := range urls {
		req := &pipeline.Request{URL: target}
		if ttlOverride > 0 {
			ttl := ttlOverride
			req.TTL = &ttl
		}

		handled, err := mw.Replay(ctx, req)
		if err != nil {
			return err
		}
		if handled {
			logger.Info().Str("url", target).Msg("Served from cache")
			continue
		}

		logger.Info().Str("url", target).Msg("Cache miss, executing")
		capture := mw.Begin(req)
		if err := spider.execute(ctx, req, sink, capture); err != nil {
			return err
		}
		capture.Done(ctx)
	}

	fmt.Printf("processed %d urls: %d items, %d follow-up requests\n",
		len(urls), sink.items, sink.requests)
	return nil
}

func openStore(cfg config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendRedis:
		s := store.NewRedisStore(store.RedisOptions{
			Addr:      cfg.Store.Addr,
			Password:  cfg.Store.Password,
			DB:        cfg.Store.DB,
			OpTimeout: cfg.Store.Timeout.Std(),
		})
		if err := s.Ping(context.Background()); err != nil {
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Store.Addr, err)
		}
		return s, nil
	case config.BackendLevelDB:
		return store.NewLevelStore(cfg.Store.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func closeStore(st store.Store) {
	if c, ok := st.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}

// demoSpider synthesizes deterministic output for a URL: one item plus
// one follow-up request, enough to exercise both object kinds.
type demoSpider struct {
	name string
}

func (s *demoSpider) Name() string { return s.name }

func (s *demoSpider) CacheEnabled() bool { return true }

func (s *demoSpider) DefaultTTL() *time.Duration { return nil }

func (s *demoSpider) Schema() pipeline.FieldTypes {
	return pipeline.FieldTypes{
		"url":   pipeline.FieldString,
		"title": pipeline.FieldString,
		"size":  pipeline.FieldInt,
	}
}

func (s *demoSpider) execute(ctx context.Context, req *pipeline.Request, sink pipeline.ObjectSink, capture *cachemw.Capture) error {
	item := pipeline.Item{
		"url":   req.URL,
		"title": "page at " + req.URL,
		"size":  int64(len(req.URL)),
	}
	if err := sink.EmitItem(ctx, item); err != nil {
		return err
	}
	capture.Item(item)

	followUp := &pipeline.Request{URL: req.URL + "?page=2"}
	if err := sink.EmitRequest(ctx, followUp); err != nil {
		return err
	}
	capture.Request(followUp)
	return nil
}

// logSink counts and logs what reaches the pipeline output.
type logSink struct {
	items    int
	requests int
}

func (s *logSink) EmitItem(_ context.Context, item pipeline.Item) error {
	s.items++
	fmt.Printf("item: %v\n", item)
	return nil
}

func (s *logSink) EmitRequest(_ context.Context, req *pipeline.Request) error {
	s.requests++
	fmt.Printf("request: %s (replayed=%t)\n", req.URL, req.Replayed)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
