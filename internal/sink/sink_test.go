package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jsonharvest/crawler/internal/crawler"
)

// syncBuffer guards a bytes.Buffer so the test can read it safely; the
// LineSink itself serializes writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLineSink_JSONPassesThroughVerbatim(t *testing.T) {
	t.Parallel()

	var buf syncBuffer
	s := NewLineSink(&buf)

	require.NoError(t, s.Write(context.Background(), crawler.Record{Line: `{"id": 1, "name": "Item 1"}`}))
	require.NoError(t, s.Close())
	require.Equal(t, `{"id": 1, "name": "Item 1"}`+"\n", buf.String())
}

func TestLineSink_WrapsNonJSON(t *testing.T) {
	t.Parallel()

	var buf syncBuffer
	s := NewLineSink(&buf)

	require.NoError(t, s.Write(context.Background(), crawler.Record{Line: "plain text result"}))
	require.NoError(t, s.Close())
	require.Equal(t, `{"result":"plain text result"}`+"\n", buf.String())
}

func TestLineSink_ConcurrentWritersDoNotInterleave(t *testing.T) {
	t.Parallel()

	var buf syncBuffer
	s := NewLineSink(&buf)

	const writers = 8
	const perWriter = 50
	errs := make(chan error, writers*perWriter)
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				line := fmt.Sprintf(`{"writer":%d,"seq":%d}`, w, i)
				errs <- s.Write(context.Background(), crawler.Record{Line: line})
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	require.NoError(t, s.Close())

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, writers*perWriter)

	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		require.True(t, strings.HasPrefix(line, `{"writer":`), "interleaved line: %q", line)
		require.False(t, seen[line], "duplicated line: %q", line)
		seen[line] = true
	}
}

type stubSink struct {
	mu      sync.Mutex
	records []crawler.Record
	err     error
}

func (s *stubSink) Write(_ context.Context, record crawler.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}

func TestFanout_DeliversToAllSinks(t *testing.T) {
	t.Parallel()

	a := &stubSink{}
	b := &stubSink{}
	f := Fanout{a, b}

	require.NoError(t, f.Write(context.Background(), crawler.Record{Line: "x"}))
	require.Len(t, a.records, 1)
	require.Len(t, b.records, 1)
}

func TestFanout_FailingSinkDoesNotStopOthers(t *testing.T) {
	t.Parallel()

	boom := errors.New("down")
	a := &stubSink{err: boom}
	b := &stubSink{}
	f := Fanout{a, b}

	err := f.Write(context.Background(), crawler.Record{Line: "x"})
	require.ErrorIs(t, err, boom)
	require.Len(t, b.records, 1)
}
