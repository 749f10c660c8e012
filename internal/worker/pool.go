// Package worker implements the crawl pipeline execution loop.
package worker

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/jsonharvest/crawler/internal/crawler"
	"github.com/jsonharvest/crawler/internal/frontier"
	"github.com/jsonharvest/crawler/internal/metrics"
	"github.com/jsonharvest/crawler/internal/query"
	"github.com/jsonharvest/crawler/internal/template"
)

// Config controls Pool behavior.
type Config struct {
	Workers  int
	Headers  http.Header
	MaxDepth int
}

// Pool runs N identical workers over the frontier until it quiesces. Each
// cycle: pop an item, acquire a rate token, fetch, extract records and
// follow-ups, route them, release the item's pending-work unit. Per-item
// failures end that item's cycle only; the release runs on every path so a
// failed fetch can never stall completion detection.
type Pool struct {
	front       *frontier.Frontier
	limiter     crawler.Limiter
	fetcher     crawler.Fetcher
	eval        crawler.Evaluator
	sink        crawler.Sink
	seen        crawler.Deduper
	tokens      crawler.TokenSource
	clock       crawler.Clock
	resultTpl   *template.Template
	continueTpl *template.Template
	cfg         Config
	logger      *zap.Logger

	processed  atomic.Int64
	failed     atomic.Int64
	records    atomic.Int64
	followUps  atomic.Int64
	duplicates atomic.Int64
}

// New constructs a Pool. continueTpl and tokens may be nil.
func New(
	front *frontier.Frontier,
	limiter crawler.Limiter,
	fetcher crawler.Fetcher,
	eval crawler.Evaluator,
	sink crawler.Sink,
	seen crawler.Deduper,
	tokens crawler.TokenSource,
	clock crawler.Clock,
	resultTpl *template.Template,
	continueTpl *template.Template,
	cfg Config,
	logger *zap.Logger,
) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		front:       front,
		limiter:     limiter,
		fetcher:     fetcher,
		eval:        eval,
		sink:        sink,
		seen:        seen,
		tokens:      tokens,
		clock:       clock,
		resultTpl:   resultTpl,
		continueTpl: continueTpl,
		cfg:         cfg,
		logger:      logger,
	}
}

// Run blocks until the frontier quiesces or the context is canceled. On
// cancellation workers finish their current item and exit without picking
// up new work.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.runWorker(ctx)
		}()
	}
	wg.Wait()
}

// Stats returns a snapshot of the run totals.
func (p *Pool) Stats() crawler.Stats {
	return crawler.Stats{
		Processed:  p.processed.Load(),
		Failed:     p.failed.Load(),
		Records:    p.records.Load(),
		FollowUps:  p.followUps.Load(),
		Duplicates: p.duplicates.Load(),
	}
}

func (p *Pool) runWorker(ctx context.Context) {
	for {
		item, ok := p.front.Pop(ctx)
		if !ok {
			return
		}
		metrics.IncActiveWorkers()
		p.processItem(ctx, item)
		metrics.DecActiveWorkers()
		p.front.Complete()
	}
}

func (p *Pool) processItem(ctx context.Context, item crawler.Item) {
	if err := p.limiter.Wait(ctx); err != nil {
		// Canceled while waiting for a token; the item is abandoned.
		return
	}

	headers, err := p.requestHeaders(ctx)
	if err != nil {
		p.fail(item.URL, "auth", err)
		return
	}

	resp, err := p.fetcher.Fetch(ctx, crawler.FetchRequest{URL: item.URL, Headers: headers})
	if resp.StatusCode != 0 {
		metrics.ObserveFetch(statusClass(resp.StatusCode))
	}
	if err != nil {
		p.fail(item.URL, "fetch", err)
		return
	}

	doc, err := query.ParseDocument(resp.Body)
	if err != nil {
		p.fail(item.URL, "parse", err)
		return
	}

	result, err := p.resultTpl.Resolve(doc, p.eval)
	if err != nil {
		p.fail(item.URL, "extract", err)
		return
	}
	if result.PartialRows > 0 {
		metrics.AddPartialRows(result.PartialRows)
		p.logger.Warn("partial extraction rows",
			zap.String("url", item.URL),
			zap.Int("rows", result.PartialRows),
		)
	}

	fetchedAt := p.clock.Now()
	for _, line := range result.Records {
		record := crawler.Record{Line: line, SourceURL: item.URL, FetchedAt: fetchedAt}
		if err := p.sink.Write(ctx, record); err != nil {
			p.logger.Error("sink write failed", zap.String("url", item.URL), zap.Error(err))
			continue
		}
		p.records.Add(1)
	}
	metrics.AddRecords(len(result.Records))

	p.expandFollowUps(doc, item)

	p.processed.Add(1)
	p.logger.Debug("item processed",
		zap.String("url", item.URL),
		zap.Int("status", resp.StatusCode),
		zap.Int("records", len(result.Records)),
		zap.Duration("fetch_duration", resp.Duration),
	)
}

// expandFollowUps runs the continue template and requeues extracted URLs.
// Follow-up pushes happen before the current item's Complete, so the
// pending-work count never transiently hits zero mid-cycle.
func (p *Pool) expandFollowUps(doc any, item crawler.Item) {
	if p.continueTpl == nil {
		return
	}
	result, err := p.continueTpl.Resolve(doc, p.eval)
	if err != nil {
		p.logger.Warn("continue extraction failed", zap.String("url", item.URL), zap.Error(err))
		return
	}
	for _, next := range result.Records {
		if !crawler.ValidFollowUp(next) {
			continue
		}
		if p.cfg.MaxDepth > 0 && item.Depth+1 > p.cfg.MaxDepth {
			p.logger.Debug("follow-up beyond max depth", zap.String("url", next), zap.Int("depth", item.Depth+1))
			continue
		}
		if !p.seen.TryClaim(next) {
			metrics.IncDuplicates()
			p.duplicates.Add(1)
			continue
		}
		p.front.Push(crawler.Item{URL: next, Depth: item.Depth + 1})
		metrics.AddFollowUps(1)
		p.followUps.Add(1)
	}
}

func (p *Pool) requestHeaders(ctx context.Context) (http.Header, error) {
	headers := p.cfg.Headers.Clone()
	if headers == nil {
		headers = http.Header{}
	}
	if p.tokens != nil {
		token, err := p.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("bearer token: %w", err)
		}
		headers.Set("Authorization", "Bearer "+token)
	}
	return headers, nil
}

func (p *Pool) fail(url, reason string, err error) {
	p.failed.Add(1)
	metrics.ObserveFetchError(reason)
	p.logger.Error("item failed",
		zap.String("url", url),
		zap.String("reason", reason),
		zap.Error(err),
	)
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return fmt.Sprintf("%dxx", code/100)
}
