// Package resolver turns a track query into a playable, proxied audio
// URL by walking the configured providers in priority order: the active
// metadata-search provider first, then the other, with stream extraction
// falling back from the primary extraction provider to yt-dlp.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/doctorbhh/ragam/config"
	"github.com/doctorbhh/ragam/internal/domain"
	"github.com/doctorbhh/ragam/internal/match"
	"github.com/doctorbhh/ragam/internal/provider"
)

// ErrTrackNotFound means every configured provider and search attempt
// was exhausted without producing a playable stream.
var ErrTrackNotFound = errors.New("track not found")

const (
	searchLimit = 10

	// YouTube video IDs are always exactly this long.
	videoIDLength = 11
)

// SearchExtractor is a provider that can both search for candidates and
// extract a stream for one of its own candidates.
type SearchExtractor interface {
	provider.Searcher
	provider.Extractor
}

// Options carries the per-call configuration the resolver consumes but
// never owns. Passing it explicitly keeps resolution deterministic: the
// active provider and quality are inputs, not ambient state.
type Options struct {
	Provider string
	Quality  domain.Quality
}

type Resolver struct {
	saavn    SearchExtractor
	piped    SearchExtractor
	fallback provider.Extractor
}

// New wires a resolver from its three provider clients. fallback may be
// nil when no subprocess extractor is available.
func New(saavn, piped SearchExtractor, fallback provider.Extractor) *Resolver {
	return &Resolver{saavn: saavn, piped: piped, fallback: fallback}
}

// FromConfig builds a resolver with clients configured per cfg.
func FromConfig(cfg *config.Config) *Resolver {
	timeout := time.Duration(cfg.Providers.TimeoutSeconds) * time.Second
	return New(
		provider.NewSaavnClient(cfg.Providers.SaavnBaseURL, timeout),
		provider.NewPipedClient(cfg.Providers.PipedBaseURL, cfg.Providers.StreamHost, timeout),
		provider.NewYtDlpExtractor(cfg.Providers.YtDlpPath, 2*timeout),
	)
}

// ProxyURL wraps an upstream stream URL as a same-origin proxied URL.
func ProxyURL(upstream string) string {
	return "/proxy?url=" + url.QueryEscape(upstream)
}

// ResolveAudioURL resolves track to a playback URL routed through the
// streaming proxy. A track that already carries a direct URL is returned
// as-is without any network calls.
func (r *Resolver) ResolveAudioURL(ctx context.Context, track domain.TrackQuery, opts Options) (string, error) {
	if track.URL != "" {
		return track.URL, nil
	}
	stream, err := r.ResolveStream(ctx, track, opts)
	if err != nil {
		return "", err
	}
	return ProxyURL(stream.URL), nil
}

// ResolveStream resolves track to the chosen upstream stream, before
// proxy wrapping. Provider-level failures are logged and treated as "no
// result from this provider"; only full exhaustion surfaces an error.
func (r *Resolver) ResolveStream(ctx context.Context, track domain.TrackQuery, opts Options) (*domain.ResolvedStream, error) {
	// A native video ID needs no metadata search at all.
	if isVideoID(track.ID) {
		cand := &domain.SearchCandidate{ID: track.ID}
		if stream := r.extract(ctx, r.piped, cand, opts.Quality); stream != nil {
			return stream, nil
		}
		return nil, ErrTrackNotFound
	}

	if strings.TrimSpace(track.Title) == "" {
		return nil, ErrTrackNotFound
	}

	for _, se := range r.searchOrder(opts.Provider) {
		cand := r.searchCandidate(ctx, se, track)
		if cand == nil {
			continue
		}
		if stream := r.extract(ctx, se, cand, opts.Quality); stream != nil {
			return stream, nil
		}
	}
	return nil, ErrTrackNotFound
}

// Search runs a free-text search against the providers in priority
// order, returning the first non-empty result set.
func (r *Resolver) Search(ctx context.Context, query string, limit int, opts Options) []domain.SearchCandidate {
	if limit <= 0 {
		limit = searchLimit
	}
	for _, se := range r.searchOrder(opts.Provider) {
		if results := r.search(ctx, se, query, limit); len(results) > 0 {
			return results
		}
	}
	return nil
}

// searchOrder returns the searchers to try, active provider first.
func (r *Resolver) searchOrder(active string) []SearchExtractor {
	switch strings.ToLower(active) {
	case "piped", "youtube":
		return []SearchExtractor{r.piped, r.saavn}
	default:
		return []SearchExtractor{r.saavn, r.piped}
	}
}

// searchCandidate runs the two-attempt search protocol against one
// provider: the combined title+artist query first, then the title alone,
// because combined queries can over-constrain noisy catalogs. The best
// candidate is picked by title/artist overlap.
func (r *Resolver) searchCandidate(ctx context.Context, se SearchExtractor, track domain.TrackQuery) *domain.SearchCandidate {
	query := strings.TrimSpace(track.Title + " " + track.Artist)
	results := r.search(ctx, se, query, searchLimit)
	if len(results) == 0 && track.Artist != "" {
		results = r.search(ctx, se, track.Title, searchLimit)
	}
	return match.SelectBestCandidate(results, track.Title, track.Artist)
}

func (r *Resolver) search(ctx context.Context, se provider.Searcher, query string, limit int) []domain.SearchCandidate {
	results, err := se.Search(ctx, query, limit)
	if err != nil {
		slog.Warn("search provider failed", "provider", se.Name(), "query", query, "error", err)
		return nil
	}
	return results
}

// extract obtains a stream for a chosen candidate, falling back to the
// candidate's inline stream hint and, for the extraction provider, to
// the subprocess extractor. Returns nil when every path failed.
func (r *Resolver) extract(ctx context.Context, se SearchExtractor, cand *domain.SearchCandidate, quality domain.Quality) *domain.ResolvedStream {
	stream, err := se.ExtractStream(ctx, cand.ID, quality)
	if err == nil {
		return stream
	}
	slog.Warn("stream extraction failed", "provider", se.Name(), "id", cand.ID, "error", err)

	if cand.StreamHint != "" {
		return &domain.ResolvedStream{URL: cand.StreamHint}
	}
	if se == r.piped && r.fallback != nil {
		stream, err = r.fallback.ExtractStream(ctx, cand.ID, quality)
		if err != nil {
			slog.Warn("fallback extraction failed", "provider", r.fallback.Name(), "id", cand.ID, "error", err)
			return nil
		}
		return stream
	}
	return nil
}

// isVideoID reports whether id is a native video identifier for the
// extraction provider: a fixed-length base64url-alphabet string.
func isVideoID(id string) bool {
	if len(id) != videoIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
