package crawler

import (
	"context"
	"time"
)

// Fetcher fetches a URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Evaluator runs one path expression against a parsed document and returns
// the matched values in document order. An expression that matches nothing
// returns an empty slice, not an error.
type Evaluator interface {
	Evaluate(doc any, expr string) ([]any, error)
}

// Sink receives extracted records. Implementations must be safe for
// concurrent writers; ordering across records is not guaranteed.
type Sink interface {
	Write(ctx context.Context, record Record) error
}

// Deduper tracks URLs already admitted to the frontier. TryClaim reports
// whether the URL was newly claimed and should be enqueued.
type Deduper interface {
	TryClaim(rawURL string) bool
}

// Limiter gates request issuance across all workers.
type Limiter interface {
	Wait(ctx context.Context) error
}

// TokenSource supplies a bearer token for outgoing requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
