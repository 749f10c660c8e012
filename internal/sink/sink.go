// Package sink implements the concurrent-safe output record stream.
package sink

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ohler55/ojg/oj"

	"github.com/jsonharvest/crawler/internal/crawler"
)

// LineSink writes one record per line to an underlying stream. Writers are
// serialized under a mutex so no two records interleave within a line and
// none are lost; ordering across records from different URLs follows commit
// order, not submission order.
type LineSink struct {
	mu sync.Mutex
	w  *bufio.Writer
	c  io.Closer
}

// NewLineSink wraps w. If w is also an io.Closer, Close closes it.
func NewLineSink(w io.Writer) *LineSink {
	s := &LineSink{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

// Write appends one record line. A record that already parses as JSON
// passes through verbatim, preserving the template's literal structure;
// anything else is wrapped as {"result": "..."} so the output stream stays
// line-delimited JSON.
func (s *LineSink) Write(_ context.Context, record crawler.Record) error {
	line := normalizeLine(record.Line)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.WriteString(line); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flush record: %w", err)
	}
	return nil
}

// Close flushes buffered output and closes the underlying stream when owned.
func (s *LineSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flush sink: %w", err)
	}
	if s.c != nil {
		if err := s.c.Close(); err != nil {
			return fmt.Errorf("close sink: %w", err)
		}
	}
	return nil
}

func normalizeLine(line string) string {
	if _, err := oj.ParseString(line); err == nil {
		return line
	}
	return oj.JSON(map[string]any{"result": line})
}

// Fanout writes every record to each sink in order, accumulating errors.
type Fanout []crawler.Sink

// Write delivers the record to every sink; a failing sink does not stop the
// others.
func (f Fanout) Write(ctx context.Context, record crawler.Record) error {
	var errs []error
	for _, s := range f {
		if err := s.Write(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
