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

const pipedSearchResponse = `{
	"items": [
		{
			"url": "/watch?v=dQw4w9WgXcQ",
			"title": "Never Gonna Give You Up",
			"uploaderName": "Rick Astley",
			"uploaderUrl": "/channel/UCuAXFkgsw1L7xaCfnd5JJOw",
			"duration": 212,
			"thumbnail": "https://img.example.com/thumb.jpg"
		},
		{
			"url": "/watch?v=abcdefghijk",
			"title": "Another Song",
			"uploaderName": "Someone",
			"duration": 180
		}
	]
}`

func TestPipedSearch(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "never gonna give you up", r.URL.Query().Get("q"))
		assert.Equal(t, "music_songs", r.URL.Query().Get("filter"))
		_, _ = w.Write([]byte(pipedSearchResponse))
	}))
	defer upstream.Close()

	client := NewPipedClient(upstream.URL, "", 0)
	results, err := client.Search(context.Background(), "never gonna give you up", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)

	c := results[0]
	assert.Equal(t, "dQw4w9WgXcQ", c.ID)
	assert.Equal(t, "Never Gonna Give You Up", c.Name)
	assert.Equal(t, 212, c.DurationSeconds)
	assert.Equal(t, []domain.Artist{{ID: "UCuAXFkgsw1L7xaCfnd5JJOw", Name: "Rick Astley"}}, c.PrimaryArtists)
	assert.Empty(t, c.StreamHint)
}

func TestPipedSearchHonorsLimit(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(pipedSearchResponse))
	}))
	defer upstream.Close()

	client := NewPipedClient(upstream.URL, "", 0)
	results, err := client.Search(context.Background(), "anything", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestPipedSearchNonSuccessIsNotAnError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	client := NewPipedClient(upstream.URL, "", 0)
	results, err := client.Search(context.Background(), "anything", 0)
	assert.NoError(t, err)
	assert.Empty(t, results)
}

const pipedStreamsResponse = `{
	"audioStreams": [
		{"url": "https://internal.example.com/a64", "bitrate": 64000, "mimeType": "audio/webm"},
		{"url": "https://internal.example.com/a128", "bitrate": 128000, "mimeType": "audio/mp4"},
		{"url": "https://internal.example.com/a48", "bitrate": 48000, "mimeType": "audio/webm"},
		{"url": "https://internal.example.com/video", "bitrate": 500000, "mimeType": "video/mp4"},
		{"url": "https://internal.example.com/vonly", "bitrate": 900000, "mimeType": "audio/mp4", "videoOnly": true}
	]
}`

func TestPipedExtractStream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/streams/dQw4w9WgXcQ", r.URL.Path)
		_, _ = w.Write([]byte(pipedStreamsResponse))
	}))
	defer upstream.Close()

	client := NewPipedClient(upstream.URL, "", 0)

	testCases := []struct {
		quality  domain.Quality
		expected string
	}{
		// Audio-only variants sorted by bitrate: 128k, 64k, 48k
		{domain.QualityHigh, "https://internal.example.com/a128"},
		{domain.QualityMedium, "https://internal.example.com/a64"},
		{domain.QualityLow, "https://internal.example.com/a48"},
	}
	for _, tc := range testCases {
		t.Run(string(tc.quality), func(t *testing.T) {
			stream, err := client.ExtractStream(context.Background(), "dQw4w9WgXcQ", tc.quality)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, stream.URL)
		})
	}
}

func TestPipedExtractStreamRewritesHost(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(pipedStreamsResponse))
	}))
	defer upstream.Close()

	client := NewPipedClient(upstream.URL, "stream.public.example.com", 0)
	stream, err := client.ExtractStream(context.Background(), "dQw4w9WgXcQ", domain.QualityHigh)
	require.NoError(t, err)
	assert.Equal(t, "https://stream.public.example.com/a128", stream.URL)
	assert.Equal(t, "audio/mp4", stream.MimeType)
}

func TestPipedExtractStreamNoAudioVariant(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"audioStreams":[{"url":"https://x/video","bitrate":1,"mimeType":"video/mp4"}]}`))
	}))
	defer upstream.Close()

	client := NewPipedClient(upstream.URL, "", 0)
	_, err := client.ExtractStream(context.Background(), "dQw4w9WgXcQ", domain.QualityHigh)
	assert.ErrorIs(t, err, ErrNoAudioVariant)
}

func TestPipedExtractStreamNonSuccess(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	client := NewPipedClient(upstream.URL, "", 0)
	_, err := client.ExtractStream(context.Background(), "dQw4w9WgXcQ", domain.QualityHigh)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestVideoIDFromPath(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"/watch?v=dQw4w9WgXcQ&list=PL123", "dQw4w9WgXcQ"},
		{"/watch/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, videoIDFromPath(tc.input), tc.input)
	}
}

func TestRewriteHost(t *testing.T) {
	assert.Equal(t,
		"https://public.example.com/path?x=1",
		rewriteHost("https://internal.example.com/path?x=1", "public.example.com"))
	// Unparseable URLs pass through untouched
	assert.Equal(t, "::notaurl::", rewriteHost("::notaurl::", "public.example.com"))
}
