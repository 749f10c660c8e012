// Package input reads the optional JSONL URL stream feeding the frontier.
package input

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/ohler55/ojg/oj"
	"go.uber.org/zap"

	"github.com/jsonharvest/crawler/internal/crawler"
	"github.com/jsonharvest/crawler/internal/frontier"
	"github.com/jsonharvest/crawler/internal/metrics"
)

// Reader feeds URLs from a line stream into the frontier. Each line is a
// JSON object with a "url" field; other fields are ignored. Malformed or
// url-less lines are logged and skipped rather than failing the run.
type Reader struct {
	r      io.Reader
	front  *frontier.Frontier
	seen   crawler.Deduper
	logger *zap.Logger
}

// New constructs a Reader.
func New(r io.Reader, front *frontier.Frontier, seen crawler.Deduper, logger *zap.Logger) *Reader {
	return &Reader{r: r, front: front, seen: seen, logger: logger}
}

// Run consumes the stream until EOF or ctx ends. Admission goes through the
// frontier's threshold gate, so a full queue suspends reading instead of
// buffering the whole input in memory. The caller must hold a frontier
// lease for the duration of Run, taken before any worker starts, so the
// pipeline cannot quiesce while input remains.
func (r *Reader) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	loaded := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		url, err := parseLine(line)
		if err != nil {
			r.logger.Warn("skipping input line", zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		if url == "" {
			r.logger.Warn("input line has no url", zap.Int("line", lineNo))
			continue
		}
		if !r.seen.TryClaim(url) {
			metrics.IncDuplicates()
			continue
		}
		if err := r.front.PushWait(ctx, crawler.Item{URL: url}); err != nil {
			return fmt.Errorf("push input url: %w", err)
		}
		loaded++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	r.logger.Info("input exhausted", zap.Int("urls", loaded))
	return nil
}

func parseLine(line []byte) (string, error) {
	doc, err := oj.Parse(line)
	if err != nil {
		return "", fmt.Errorf("parse line: %w", err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return "", fmt.Errorf("line is not a JSON object")
	}
	url, _ := obj["url"].(string)
	return url, nil
}
