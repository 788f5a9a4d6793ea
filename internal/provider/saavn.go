package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/doctorbhh/ragam/internal/domain"
)

const DefaultSaavnBaseURL = "https://saavn.dev"

// SaavnClient is the primary metadata-search provider. Saavn-style APIs
// have shipped several response shapes over time (title under "title",
// "name" or "song"; images and download URLs as a string, a string list
// or an object list; artists flat or grouped), so parsing coerces every
// field defensively.
type SaavnClient struct {
	baseURL string
	client  *http.Client
}

// NewSaavnClient creates a client against the given API base URL,
// falling back to the public instance when empty.
func NewSaavnClient(baseURL string, timeout time.Duration) *SaavnClient {
	if baseURL == "" {
		baseURL = DefaultSaavnBaseURL
	}
	return &SaavnClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  newHTTPClient(timeout),
	}
}

func (s *SaavnClient) Name() string { return "saavn" }

type saavnEnvelope struct {
	Data struct {
		Results []json.RawMessage `json:"results"`
	} `json:"data"`
	Results []json.RawMessage `json:"results"`
}

// Search queries the songs endpoint and normalizes whatever shape comes
// back. Non-success responses and empty result lists both return an
// empty slice: no results is not an error.
func (s *SaavnClient) Search(ctx context.Context, query string, limit int) ([]domain.SearchCandidate, error) {
	params := url.Values{}
	params.Set("query", query)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	endpoint := fmt.Sprintf("%s/api/search/songs?%s", s.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build search request: %v", ErrUpstreamUnavailable, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Debug("saavn search returned non-success", "status", resp.StatusCode, "query", query)
		return nil, nil
	}

	var envelope saavnEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %v", ErrUpstreamUnavailable, err)
	}

	raws := envelope.Data.Results
	if len(raws) == 0 {
		raws = envelope.Results
	}
	candidates := make([]domain.SearchCandidate, 0, len(raws))
	for _, raw := range raws {
		if c, ok := parseSaavnSong(raw); ok {
			candidates = append(candidates, c)
		}
	}
	return candidates, nil
}

// ExtractStream fetches the song by ID and picks the download variant
// matching the requested quality.
func (s *SaavnClient) ExtractStream(ctx context.Context, id string, quality domain.Quality) (*domain.ResolvedStream, error) {
	endpoint := fmt.Sprintf("%s/api/songs/%s", s.baseURL, url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build song request: %v", ErrUpstreamUnavailable, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: song lookup returned status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: decode song response: %v", ErrUpstreamUnavailable, err)
	}

	// The song endpoint returns either a single object or a one-element list.
	raw := envelope.Data
	var list []json.RawMessage
	if json.Unmarshal(raw, &list) == nil {
		if len(list) == 0 {
			return nil, ErrNoAudioVariant
		}
		raw = list[0]
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: unexpected song payload: %v", ErrUpstreamUnavailable, err)
	}
	variants := flexVariants(fields["downloadUrl"])
	if len(variants) == 0 {
		variants = flexVariants(fields["media_url"])
	}
	if len(variants) == 0 {
		return nil, ErrNoAudioVariant
	}
	sortVariantsByBitrate(variants)
	chosen := variants[quality.VariantIndex(len(variants))]
	return &domain.ResolvedStream{URL: chosen.URL, MimeType: "audio/mp4"}, nil
}

func parseSaavnSong(raw json.RawMessage) (domain.SearchCandidate, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.SearchCandidate{}, false
	}

	c := domain.SearchCandidate{
		ID:              flexString(fields["id"]),
		Name:            firstNonEmpty(flexString(fields["name"]), flexString(fields["title"]), flexString(fields["song"])),
		DurationSeconds: flexInt(fields["duration"]),
		AlbumName:       albumName(fields["album"]),
	}
	if c.Name == "" || c.ID == "" {
		return c, false
	}

	// Newer responses group artists under artists.primary / artists.all;
	// older ones carry a flat primaryArtists string.
	if rawArtists, ok := fields["artists"]; ok {
		var grouped struct {
			Primary json.RawMessage `json:"primary"`
			All     json.RawMessage `json:"all"`
		}
		if json.Unmarshal(rawArtists, &grouped) == nil {
			c.PrimaryArtists = flexArtists(grouped.Primary)
			c.AllArtists = flexArtists(grouped.All)
		}
	}
	if len(c.PrimaryArtists) == 0 {
		c.PrimaryArtists = flexArtists(fields["primaryArtists"])
	}
	if len(c.AllArtists) == 0 {
		c.AllArtists = flexArtists(fields["featuredArtists"])
	}

	if images := flexVariants(fields["image"]); len(images) > 0 {
		c.Thumbnail = images[len(images)-1].URL
	}
	if downloads := flexVariants(fields["downloadUrl"]); len(downloads) > 0 {
		sortVariantsByBitrate(downloads)
		c.StreamHint = downloads[0].URL
	}
	return c, true
}

func albumName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj struct {
		Name string `json:"name"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return obj.Name
	}
	return ""
}

// mediaVariant is one quality-labelled URL from an array-or-scalar field.
type mediaVariant struct {
	Quality string
	URL     string
}

func (v mediaVariant) bitrate() int {
	n := 0
	for _, r := range v.Quality {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func sortVariantsByBitrate(variants []mediaVariant) {
	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].bitrate() > variants[j].bitrate()
	})
}

// flexVariants coerces a field that may be a plain string, a list of
// strings, or a list of {quality, url|link} objects.
func flexVariants(raw json.RawMessage) []mediaVariant {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if s == "" {
			return nil
		}
		return []mediaVariant{{URL: s}}
	}
	var list []json.RawMessage
	if json.Unmarshal(raw, &list) != nil {
		return nil
	}
	out := make([]mediaVariant, 0, len(list))
	for _, item := range list {
		var str string
		if json.Unmarshal(item, &str) == nil {
			if str != "" {
				out = append(out, mediaVariant{URL: str})
			}
			continue
		}
		var obj struct {
			Quality string `json:"quality"`
			URL     string `json:"url"`
			Link    string `json:"link"`
		}
		if json.Unmarshal(item, &obj) != nil {
			continue
		}
		u := obj.URL
		if u == "" {
			u = obj.Link
		}
		if u == "" {
			continue
		}
		out = append(out, mediaVariant{Quality: obj.Quality, URL: u})
	}
	return out
}

// flexArtists coerces a field that may be a comma-separated string, a
// list of names, or a list of {id, name} objects.
func flexArtists(raw json.RawMessage) []domain.Artist {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		var out []domain.Artist
		for _, part := range strings.Split(s, ",") {
			if name := strings.TrimSpace(part); name != "" {
				out = append(out, domain.Artist{Name: name})
			}
		}
		return out
	}
	var list []json.RawMessage
	if json.Unmarshal(raw, &list) != nil {
		return nil
	}
	var out []domain.Artist
	for _, item := range list {
		var str string
		if json.Unmarshal(item, &str) == nil {
			if str != "" {
				out = append(out, domain.Artist{Name: str})
			}
			continue
		}
		var obj struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		if json.Unmarshal(item, &obj) == nil && obj.Name != "" {
			out = append(out, domain.Artist{ID: obj.ID, Name: obj.Name})
		}
	}
	return out
}

// flexString coerces a value that may arrive as a string or a number.
func flexString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

// flexInt coerces a value that may arrive as a number or a numeric string.
func flexInt(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return int(f)
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
