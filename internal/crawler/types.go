// Package crawler defines core types shared across subsystems.
package crawler

import (
	"net/http"
	"time"
)

// Item is one unit of frontier work: a URL awaiting a fetch and the
// follow-up depth it was discovered at (seeds are depth 0).
type Item struct {
	URL   string
	Depth int
}

// Record is one extracted output line plus the URL it came from.
type Record struct {
	Line      string    `json:"line"`
	SourceURL string    `json:"source_url"`
	FetchedAt time.Time `json:"fetched_at"`
}

// FetchRequest captures everything needed to fetch one URL.
type FetchRequest struct {
	URL     string
	Headers http.Header
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Stats accumulates run totals reported when the pipeline drains.
type Stats struct {
	Processed  int64 `json:"processed"`
	Failed     int64 `json:"failed"`
	Records    int64 `json:"records"`
	FollowUps  int64 `json:"follow_ups"`
	Duplicates int64 `json:"duplicates"`
}
