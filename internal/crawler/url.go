package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL standardizes a URL into the canonical form used as the dedup
// key. It lowercases the scheme and host, removes default ports and
// fragments, and sorts query parameters. Two URLs that are byte-identical
// after normalization are treated as the same resource; path case is
// preserved as given.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme == "http" && strings.HasSuffix(u.Host, ":80") {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" && strings.HasSuffix(u.Host, ":443") {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""

	// Encode re-emits query parameters with sorted keys.
	q := u.Query()
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// ValidFollowUp reports whether a continue-template value is usable as a
// frontier URL: absolute, http or https, with a host.
func ValidFollowUp(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}
