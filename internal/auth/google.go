// Package auth supplies bearer tokens from Google Application Default
// Credentials.
package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleTokenSource implements crawler.TokenSource on ADC. Token refresh and
// caching are handled by the underlying oauth2 source.
type GoogleTokenSource struct {
	source oauth2.TokenSource
}

// NewGoogleTokenSource resolves Application Default Credentials for the
// given scopes. Missing credentials (for example an unset
// GOOGLE_APPLICATION_CREDENTIALS outside of GCP) fail here, at startup,
// rather than on the first request.
func NewGoogleTokenSource(ctx context.Context, scopes ...string) (*GoogleTokenSource, error) {
	creds, err := google.FindDefaultCredentials(ctx, scopes...)
	if err != nil {
		return nil, fmt.Errorf("find default credentials: %w", err)
	}
	return &GoogleTokenSource{source: creds.TokenSource}, nil
}

// NewStatic returns a token source that always yields token. Test seam.
func NewStatic(token string) *GoogleTokenSource {
	return &GoogleTokenSource{
		source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
	}
}

// Token returns a currently valid access token.
func (g *GoogleTokenSource) Token(_ context.Context) (string, error) {
	tok, err := g.source.Token()
	if err != nil {
		return "", fmt.Errorf("obtain access token: %w", err)
	}
	return tok.AccessToken, nil
}
