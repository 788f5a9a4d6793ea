// Package provider contains one client per upstream service, each
// normalizing its own response shape into the shared candidate and
// stream types. Field-name coercion stays inside each client so the
// common shapes remain stable.
package provider

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/doctorbhh/ragam/internal/domain"
)

var (
	// ErrNoAudioVariant means extraction succeeded but the response
	// carried no audio-only format.
	ErrNoAudioVariant = errors.New("no audio variant available")

	// ErrUpstreamUnavailable wraps network failures and non-success
	// responses from an upstream provider. The resolver treats it as
	// "no result from this provider" and moves on.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// Searcher turns a free-text query into ranked candidates. A non-success
// response or an empty result list yields an empty slice, not an error;
// absence of results is a signal to try the next provider.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]domain.SearchCandidate, error)
}

// Extractor turns a provider-native ID into a playable stream, selecting
// among encoded variants according to the requested quality.
type Extractor interface {
	Name() string
	ExtractStream(ctx context.Context, id string, quality domain.Quality) (*domain.ResolvedStream, error)
}

const defaultHTTPTimeout = 15 * time.Second

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &http.Client{Timeout: timeout}
}
