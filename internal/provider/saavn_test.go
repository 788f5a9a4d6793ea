package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doctorbhh/ragam/internal/domain"
)

const saavnSearchResponse = `{
	"success": true,
	"data": {
		"results": [
			{
				"id": "abc123",
				"name": "Blinding Lights",
				"duration": "200",
				"album": {"name": "After Hours"},
				"artists": {
					"primary": [{"id": "459320", "name": "The Weeknd"}],
					"all": [{"id": "999", "name": "Someone Else"}]
				},
				"image": [
					{"quality": "50x50", "url": "https://img.example.com/50.jpg"},
					{"quality": "500x500", "url": "https://img.example.com/500.jpg"}
				],
				"downloadUrl": [
					{"quality": "96kbps", "url": "https://cdn.example.com/96.mp4"},
					{"quality": "320kbps", "url": "https://cdn.example.com/320.mp4"}
				]
			}
		]
	}
}`

// Older API shape: flat fields, scalar strings where newer responses use
// arrays and objects.
const saavnLegacyResponse = `{
	"results": [
		{
			"id": "xyz789",
			"song": "Starboy",
			"duration": 230,
			"album": "Starboy",
			"primaryArtists": "The Weeknd, Daft Punk",
			"image": "https://img.example.com/cover.jpg",
			"downloadUrl": "https://cdn.example.com/starboy.mp4"
		}
	]
}`

func TestSaavnSearch(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/search/songs", r.URL.Path)
		assert.Equal(t, "blinding lights", r.URL.Query().Get("query"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(saavnSearchResponse))
	}))
	defer upstream.Close()

	client := NewSaavnClient(upstream.URL, 0)
	results, err := client.Search(context.Background(), "blinding lights", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)

	c := results[0]
	assert.Equal(t, "abc123", c.ID)
	assert.Equal(t, "Blinding Lights", c.Name)
	assert.Equal(t, 200, c.DurationSeconds)
	assert.Equal(t, "After Hours", c.AlbumName)
	assert.Equal(t, []domain.Artist{{ID: "459320", Name: "The Weeknd"}}, c.PrimaryArtists)
	assert.Equal(t, []domain.Artist{{ID: "999", Name: "Someone Else"}}, c.AllArtists)
	assert.Equal(t, "https://img.example.com/500.jpg", c.Thumbnail)
	// Stream hint carries the highest-bitrate variant
	assert.Equal(t, "https://cdn.example.com/320.mp4", c.StreamHint)
}

func TestSaavnSearchLegacyShape(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(saavnLegacyResponse))
	}))
	defer upstream.Close()

	client := NewSaavnClient(upstream.URL, 0)
	results, err := client.Search(context.Background(), "starboy", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)

	c := results[0]
	assert.Equal(t, "xyz789", c.ID)
	assert.Equal(t, "Starboy", c.Name)
	assert.Equal(t, 230, c.DurationSeconds)
	assert.Equal(t, "Starboy", c.AlbumName)
	assert.Equal(t, []domain.Artist{{Name: "The Weeknd"}, {Name: "Daft Punk"}}, c.PrimaryArtists)
	assert.Equal(t, "https://img.example.com/cover.jpg", c.Thumbnail)
	assert.Equal(t, "https://cdn.example.com/starboy.mp4", c.StreamHint)
}

func TestSaavnSearchNonSuccessIsNotAnError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	client := NewSaavnClient(upstream.URL, 0)
	results, err := client.Search(context.Background(), "anything", 0)
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestSaavnSearchEmptyResults(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"results":[]}}`))
	}))
	defer upstream.Close()

	client := NewSaavnClient(upstream.URL, 0)
	results, err := client.Search(context.Background(), "anything", 0)
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestSaavnSearchUnreachable(t *testing.T) {
	client := NewSaavnClient("http://127.0.0.1:1", 0)
	_, err := client.Search(context.Background(), "anything", 0)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestSaavnExtractStream(t *testing.T) {
	const songResponse = `{
		"data": [
			{
				"id": "abc123",
				"name": "Blinding Lights",
				"downloadUrl": [
					{"quality": "12kbps", "url": "https://cdn.example.com/12.mp4"},
					{"quality": "96kbps", "url": "https://cdn.example.com/96.mp4"},
					{"quality": "160kbps", "url": "https://cdn.example.com/160.mp4"},
					{"quality": "320kbps", "url": "https://cdn.example.com/320.mp4"}
				]
			}
		]
	}`
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/songs/abc123", r.URL.Path)
		_, _ = w.Write([]byte(songResponse))
	}))
	defer upstream.Close()

	client := NewSaavnClient(upstream.URL, 0)

	testCases := []struct {
		quality  domain.Quality
		expected string
	}{
		{domain.QualityHigh, "https://cdn.example.com/320.mp4"},
		{domain.QualityLow, "https://cdn.example.com/12.mp4"},
		{domain.QualityMedium, "https://cdn.example.com/96.mp4"},
	}
	for _, tc := range testCases {
		t.Run(string(tc.quality), func(t *testing.T) {
			stream, err := client.ExtractStream(context.Background(), "abc123", tc.quality)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, stream.URL)
		})
	}
}

func TestSaavnExtractStreamNoVariants(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":"abc123","name":"No Media"}]}`))
	}))
	defer upstream.Close()

	client := NewSaavnClient(upstream.URL, 0)
	_, err := client.ExtractStream(context.Background(), "abc123", domain.QualityHigh)
	assert.ErrorIs(t, err, ErrNoAudioVariant)
}

func TestSaavnExtractStreamNonSuccess(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer upstream.Close()

	client := NewSaavnClient(upstream.URL, 0)
	_, err := client.ExtractStream(context.Background(), "missing", domain.QualityHigh)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}
