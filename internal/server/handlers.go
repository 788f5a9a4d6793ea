package server

import (
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/doctorbhh/ragam/internal/domain"
	"github.com/doctorbhh/ragam/internal/resolver"
)

// healthCheck handles health check requests.
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":    "ok",
		"timestamp": time.Now(),
		"service":   "ragam",
	})
}

// search handles free-text track search across the configured providers.
func (s *Server) search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(400, gin.H{"error": "missing required parameter: q"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(400, gin.H{"error": "invalid limit: " + raw})
			return
		}
		limit = n
	}

	results := s.resolver.Search(c.Request.Context(), query, limit, s.options(c))
	if results == nil {
		results = []domain.SearchCandidate{}
	}
	c.JSON(200, gin.H{"results": results})
}

// resolve turns track metadata (or a native ID, or an already-resolved
// URL) into a proxied playback URL.
func (s *Server) resolve(c *gin.Context) {
	track := domain.TrackQuery{
		Title:  c.Query("title"),
		Artist: c.Query("artist"),
		ID:     c.Query("id"),
		URL:    c.Query("url"),
	}
	if track.Title == "" && track.ID == "" && track.URL == "" {
		c.JSON(400, gin.H{"error": "missing required parameter: title"})
		return
	}

	playbackURL, err := s.resolver.ResolveAudioURL(c.Request.Context(), track, s.options(c))
	if err != nil {
		if errors.Is(err, resolver.ErrTrackNotFound) {
			c.JSON(500, gin.H{"error": "track not found"})
			return
		}
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"url": playbackURL})
}

// proxyStream relays an upstream media resource through this origin.
func (s *Server) proxyStream(c *gin.Context) {
	target := c.Query("url")
	if target == "" {
		c.JSON(400, gin.H{"error": "missing required parameter: url"})
		return
	}
	parsed, err := url.Parse(target)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		c.JSON(400, gin.H{"error": "invalid url parameter"})
		return
	}

	s.proxy.Relay(c.Writer, c.Request, target)
}

// options reads the per-request provider and quality selection, falling
// back to the configured defaults. Configuration is an input to each
// call; the server never mutates it.
func (s *Server) options(c *gin.Context) resolver.Options {
	return resolver.Options{
		Provider: c.DefaultQuery("provider", s.cfg.Providers.Search),
		Quality:  domain.ParseQuality(c.DefaultQuery("quality", s.cfg.Playback.Quality)),
	}
}
