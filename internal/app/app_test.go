package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jsonharvest/crawler/internal/config"
)

// newAPIServer serves a three-page paginated listing. Each page carries two
// items and a nextPage link, except the last.
func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		if page == "" {
			page = "1"
		}
		switch page {
		case "1", "2":
			next := "2"
			if page == "2" {
				next = "3"
			}
			fmt.Fprintf(w, `{"items":[{"id":%s1},{"id":%s2}],"next":"%s/list?page=%s"}`,
				page, page, srv.URL, next)
		case "3":
			fmt.Fprint(w, `{"items":[{"id":31},{"id":32}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func baseConfig(srv *httptest.Server, outPath string) config.Config {
	return config.Config{
		Crawl: config.CrawlConfig{
			SeedURLs:         []string{srv.URL + "/list?page=1"},
			ResultTemplate:   `{"id": ${items[*].id}}`,
			ContinueTemplate: `${next}`,
			Concurrency:      2,
			QueueThreshold:   100,
			RemoveDuplicates: true,
		},
		HTTP:   config.HTTPConfig{TimeoutSeconds: 5},
		Output: config.OutputConfig{Path: outPath},
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestRun_FollowsPaginationToCompletion(t *testing.T) {
	srv := newAPIServer(t)
	outPath := filepath.Join(t.TempDir(), "records.jsonl")

	cfg := baseConfig(srv, outPath)
	require.NoError(t, cfg.Validate())

	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, a.Run(ctx))

	stats := a.Stats()
	require.Equal(t, int64(3), stats.Processed)
	require.Equal(t, int64(2), stats.FollowUps)
	require.Equal(t, int64(6), stats.Records)

	require.ElementsMatch(t, []string{
		`{"id": 11}`, `{"id": 12}`,
		`{"id": 21}`, `{"id": 22}`,
		`{"id": 31}`, `{"id": 32}`,
	}, readLines(t, outPath))
}

func TestRun_InputStreamDrivesCrawl(t *testing.T) {
	srv := newAPIServer(t)
	dir := t.TempDir()
	outPath := filepath.Join(dir, "records.jsonl")
	inPath := filepath.Join(dir, "urls.jsonl")

	input := fmt.Sprintf("{\"url\":%q}\n{\"url\":%q}\n",
		srv.URL+"/list?page=3", srv.URL+"/list?page=3")
	require.NoError(t, os.WriteFile(inPath, []byte(input), 0o600))

	cfg := baseConfig(srv, outPath)
	cfg.Crawl.SeedURLs = nil
	cfg.Crawl.ContinueTemplate = ""
	cfg.Input.Path = inPath

	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, a.Run(ctx))

	// The duplicate line is dropped before it reaches the frontier.
	stats := a.Stats()
	require.Equal(t, int64(1), stats.Processed)
	require.ElementsMatch(t, []string{`{"id": 31}`, `{"id": 32}`}, readLines(t, outPath))
}

func TestRun_FetchFailuresAreIsolated(t *testing.T) {
	srv := newAPIServer(t)
	outPath := filepath.Join(t.TempDir(), "records.jsonl")

	cfg := baseConfig(srv, outPath)
	cfg.Crawl.ContinueTemplate = ""
	cfg.Crawl.SeedURLs = []string{
		srv.URL + "/list?page=3",
		srv.URL + "/list?page=404",
	}

	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, a.Run(ctx))

	stats := a.Stats()
	require.Equal(t, int64(1), stats.Processed)
	require.Equal(t, int64(1), stats.Failed)
	require.ElementsMatch(t, []string{`{"id": 31}`, `{"id": 32}`}, readLines(t, outPath))
}

func TestNew_RejectsBadTemplate(t *testing.T) {
	cfg := config.Config{
		Crawl: config.CrawlConfig{
			SeedURLs:       []string{"https://example.com"},
			ResultTemplate: `${}`,
			Concurrency:    1,
			QueueThreshold: 100,
		},
		HTTP:   config.HTTPConfig{TimeoutSeconds: 5},
		Output: config.OutputConfig{Path: filepath.Join(t.TempDir(), "out.jsonl")},
	}

	_, err := New(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	require.Contains(t, err.Error(), "result template")
}
