// Package app wires configuration into a runnable crawl pipeline.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/jsonharvest/crawler/internal/api"
	"github.com/jsonharvest/crawler/internal/auth"
	"github.com/jsonharvest/crawler/internal/config"
	"github.com/jsonharvest/crawler/internal/crawler"
	"github.com/jsonharvest/crawler/internal/dedup"
	collyfetcher "github.com/jsonharvest/crawler/internal/fetcher/colly"
	"github.com/jsonharvest/crawler/internal/frontier"
	"github.com/jsonharvest/crawler/internal/input"
	"github.com/jsonharvest/crawler/internal/metrics"
	"github.com/jsonharvest/crawler/internal/query"
	"github.com/jsonharvest/crawler/internal/ratelimit"
	"github.com/jsonharvest/crawler/internal/sink"
	pubsubsink "github.com/jsonharvest/crawler/internal/sink/pubsub"
	"github.com/jsonharvest/crawler/internal/template"
	"github.com/jsonharvest/crawler/internal/worker"

	"github.com/jsonharvest/crawler/internal/clock/system"
	"github.com/jsonharvest/crawler/internal/id/uuid"
)

// App holds the assembled pipeline for one crawl run.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	front   *frontier.Frontier
	seen    *dedup.Set
	pool    *worker.Pool
	reader  *input.Reader
	server  *api.Server
	closers []io.Closer
}

// New assembles every component from the validated configuration. Any
// failure here (uncompilable template, unreachable credentials or topic,
// unopenable streams) is a startup error; nothing has started yet.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	metrics.Init()

	runID, err := uuid.NewUUIDGenerator().NewID()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	logger = logger.With(zap.String("run_id", runID))

	resultTpl, err := template.Compile(cfg.Crawl.ResultTemplate)
	if err != nil {
		return nil, fmt.Errorf("compile result template: %w", err)
	}
	var continueTpl *template.Template
	if cfg.Crawl.ContinueTemplate != "" {
		continueTpl, err = template.Compile(cfg.Crawl.ContinueTemplate)
		if err != nil {
			return nil, fmt.Errorf("compile continue template: %w", err)
		}
	}

	var tokens crawler.TokenSource
	if cfg.Auth.UseGoogleToken {
		source, err := auth.NewGoogleTokenSource(ctx, cfg.Auth.Scopes...)
		if err != nil {
			return nil, fmt.Errorf("google credentials: %w", err)
		}
		tokens = source
		logger.Info("using application default credentials", zap.Strings("scopes", cfg.Auth.Scopes))
	}

	a := &App{
		cfg:    cfg,
		logger: logger,
		front:  frontier.New(cfg.Crawl.QueueThreshold),
		seen:   dedup.New(cfg.Crawl.RemoveDuplicates),
	}

	out, err := a.buildSink(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.Input.Path != "" {
		in, err := openInput(cfg.Input.Path)
		if err != nil {
			return nil, err
		}
		if c, ok := in.(io.Closer); ok && in != os.Stdin {
			a.closers = append(a.closers, c)
		}
		a.reader = input.New(in, a.front, a.seen, logger)
	}

	headers := http.Header{}
	for key, value := range cfg.HTTP.Headers {
		headers.Set(key, value)
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.HTTPTimeout(),
	})

	a.pool = worker.New(
		a.front,
		ratelimit.New(cfg.Crawl.RateLimit),
		fetcher,
		query.New(),
		out,
		a.seen,
		tokens,
		system.New(),
		resultTpl,
		continueTpl,
		worker.Config{
			Workers:  cfg.Crawl.Concurrency,
			Headers:  headers,
			MaxDepth: cfg.Crawl.MaxDepth,
		},
		logger,
	)

	if cfg.Server.Addr != "" {
		a.server = api.New(cfg.Server.Addr, logger)
	}

	return a, nil
}

// Run seeds the frontier, starts the input reader and worker pool, and
// blocks until the frontier quiesces or ctx is canceled. It always drains
// and closes the sinks before returning.
func (a *App) Run(ctx context.Context) error {
	if a.server != nil {
		a.server.Start()
		defer func() {
			if err := a.server.Shutdown(context.Background()); err != nil {
				a.logger.Warn("server shutdown", zap.Error(err))
			}
		}()
	}

	seeded := 0
	for _, seed := range a.cfg.Crawl.SeedURLs {
		if !a.seen.TryClaim(seed) {
			metrics.IncDuplicates()
			continue
		}
		a.front.Push(crawler.Item{URL: seed})
		seeded++
	}

	readerDone := make(chan error, 1)
	if a.reader != nil {
		// The lease is taken before any worker can observe the frontier,
		// so an input-only run cannot quiesce before reading starts.
		a.front.Lease()
		go func() {
			defer a.front.Complete()
			readerDone <- a.reader.Run(ctx)
		}()
	} else {
		readerDone <- nil
	}

	a.logger.Info("starting crawl",
		zap.Int("seed_urls", seeded),
		zap.Int("concurrency", a.cfg.Crawl.Concurrency),
		zap.Float64("rate_limit", a.cfg.Crawl.RateLimit),
		zap.Bool("remove_duplicates", a.cfg.Crawl.RemoveDuplicates),
	)

	a.pool.Run(ctx)

	if err := <-readerDone; err != nil && ctx.Err() == nil {
		a.logger.Error("input reader failed", zap.Error(err))
	}

	stats := a.pool.Stats()
	a.logger.Info("crawl complete",
		zap.Int64("processed", stats.Processed),
		zap.Int64("failed", stats.Failed),
		zap.Int64("records", stats.Records),
		zap.Int64("follow_ups", stats.FollowUps),
		zap.Int64("duplicates", stats.Duplicates),
	)

	var closeErr error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && closeErr == nil {
			closeErr = err
		}
	}
	if closeErr != nil {
		return fmt.Errorf("close pipeline: %w", closeErr)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("crawl interrupted: %w", err)
	}
	return nil
}

// Stats exposes the pool totals, mainly for tests.
func (a *App) Stats() crawler.Stats {
	return a.pool.Stats()
}

func (a *App) buildSink(ctx context.Context) (crawler.Sink, error) {
	out, err := openOutput(a.cfg.Output.Path)
	if err != nil {
		return nil, err
	}
	lines := sink.NewLineSink(out)
	a.closers = append(a.closers, lines)

	if a.cfg.PubSub.ProjectID == "" {
		return lines, nil
	}

	topic, err := pubsubsink.New(ctx, a.cfg.PubSub.ProjectID, a.cfg.PubSub.Topic)
	if err != nil {
		return nil, fmt.Errorf("pubsub sink: %w", err)
	}
	a.closers = append(a.closers, topic)
	a.logger.Info("publishing records to pubsub",
		zap.String("project", a.cfg.PubSub.ProjectID),
		zap.String("topic", a.cfg.PubSub.Topic),
	)
	return sink.Fanout{lines, topic}, nil
}

func openInput(path string) (io.Reader, error) {
	if path == "-" {
		return os.Stdin, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", path, err)
	}
	return f, nil
}

func openOutput(path string) (io.Writer, error) {
	if path == "" || path == "-" {
		// Strip the Closer so draining the sink never closes stdout.
		return struct{ io.Writer }{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output %s: %w", path, err)
	}
	return f, nil
}
