package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/doctorbhh/ragam/internal/domain"
)

const DefaultPipedBaseURL = "https://pipedapi.kavin.rocks"

// PipedClient talks to a Piped API instance. It serves two roles: the
// secondary metadata-search provider and the primary stream-extraction
// provider (adaptive audio formats with per-bitrate URLs).
type PipedClient struct {
	baseURL    string
	streamHost string
	client     *http.Client
}

// NewPipedClient creates a client against the given instance base URL.
// streamHost, when non-empty, is substituted for the hostname of every
// returned media URL; some instances serve media from an internal host
// the public proxy cannot reach.
func NewPipedClient(baseURL, streamHost string, timeout time.Duration) *PipedClient {
	if baseURL == "" {
		baseURL = DefaultPipedBaseURL
	}
	return &PipedClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		streamHost: streamHost,
		client:     newHTTPClient(timeout),
	}
}

func (p *PipedClient) Name() string { return "piped" }

type pipedSearchItem struct {
	URL          string `json:"url"`
	Title        string `json:"title"`
	UploaderName string `json:"uploaderName"`
	UploaderURL  string `json:"uploaderUrl"`
	Duration     int    `json:"duration"`
	Thumbnail    string `json:"thumbnail"`
}

// Search queries the instance's music search. Non-success responses and
// empty item lists both return an empty slice.
func (p *PipedClient) Search(ctx context.Context, query string, limit int) ([]domain.SearchCandidate, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("filter", "music_songs")
	endpoint := fmt.Sprintf("%s/search?%s", p.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build search request: %v", ErrUpstreamUnavailable, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Debug("piped search returned non-success", "status", resp.StatusCode, "query", query)
		return nil, nil
	}

	var payload struct {
		Items []pipedSearchItem `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %v", ErrUpstreamUnavailable, err)
	}

	candidates := make([]domain.SearchCandidate, 0, len(payload.Items))
	for _, item := range payload.Items {
		id := videoIDFromPath(item.URL)
		if id == "" || item.Title == "" {
			continue
		}
		c := domain.SearchCandidate{
			ID:              id,
			Name:            item.Title,
			DurationSeconds: item.Duration,
			Thumbnail:       item.Thumbnail,
		}
		if item.UploaderName != "" {
			c.PrimaryArtists = []domain.Artist{{
				ID:   strings.TrimPrefix(item.UploaderURL, "/channel/"),
				Name: item.UploaderName,
			}}
		}
		candidates = append(candidates, c)
		if limit > 0 && len(candidates) == limit {
			break
		}
	}
	return candidates, nil
}

type pipedAudioStream struct {
	URL       string `json:"url"`
	Bitrate   int    `json:"bitrate"`
	MimeType  string `json:"mimeType"`
	VideoOnly bool   `json:"videoOnly"`
}

// ExtractStream fetches the adaptive formats for a video ID, keeps the
// audio-only ones, and picks by bitrate according to quality.
func (p *PipedClient) ExtractStream(ctx context.Context, id string, quality domain.Quality) (*domain.ResolvedStream, error) {
	endpoint := fmt.Sprintf("%s/streams/%s", p.baseURL, url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build streams request: %v", ErrUpstreamUnavailable, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: streams lookup returned status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var payload struct {
		AudioStreams []pipedAudioStream `json:"audioStreams"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode streams response: %v", ErrUpstreamUnavailable, err)
	}

	audio := make([]pipedAudioStream, 0, len(payload.AudioStreams))
	for _, s := range payload.AudioStreams {
		if s.URL == "" || s.VideoOnly {
			continue
		}
		if s.MimeType != "" && !strings.HasPrefix(s.MimeType, "audio") {
			continue
		}
		audio = append(audio, s)
	}
	if len(audio) == 0 {
		return nil, ErrNoAudioVariant
	}

	sort.SliceStable(audio, func(i, j int) bool {
		return audio[i].Bitrate > audio[j].Bitrate
	})
	chosen := audio[quality.VariantIndex(len(audio))]

	streamURL := chosen.URL
	if p.streamHost != "" {
		streamURL = rewriteHost(streamURL, p.streamHost)
	}
	return &domain.ResolvedStream{URL: streamURL, MimeType: chosen.MimeType}, nil
}

// rewriteHost substitutes the public-facing streaming host into raw,
// leaving unparseable URLs untouched.
func rewriteHost(raw, host string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	u.Host = host
	return u.String()
}

// videoIDFromPath extracts the video ID from a watch path like
// "/watch?v=dQw4w9WgXcQ" or a bare ID.
func videoIDFromPath(p string) string {
	if idx := strings.Index(p, "v="); idx >= 0 {
		id := p[idx+2:]
		if amp := strings.IndexByte(id, '&'); amp >= 0 {
			id = id[:amp]
		}
		return id
	}
	return strings.TrimPrefix(p, "/watch/")
}
