// Package proxy relays upstream media resources through the service's
// own origin, preserving range semantics and rewriting playlist
// manifests so every segment reference keeps routing through the proxy.
package proxy

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// HLS manifests dominate this domain, so an upstream that omits
// Content-Type is assumed to serve one.
const defaultContentType = "application/vnd.apple.mpegurl"

// absoluteURL matches whitespace-delimited absolute URL tokens inside a
// manifest body.
var absoluteURL = regexp.MustCompile(`https?://\S+`)

type Proxy struct {
	client *http.Client
	path   string
}

// New creates a proxy whose outbound client waits at most headerTimeout
// for upstream response headers. No overall deadline is set: media
// bodies stream for as long as the caller keeps the connection open.
func New(headerTimeout time.Duration) *Proxy {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if headerTimeout > 0 {
		transport.ResponseHeaderTimeout = headerTimeout
	}
	return &Proxy{
		client: &http.Client{Transport: transport},
		path:   "/proxy",
	}
}

// Relay fetches target and streams it back to the caller. The incoming
// Range header is forwarded verbatim; upstream non-success statuses are
// surfaced unchanged, never masked.
func (p *Proxy) Relay(w http.ResponseWriter, r *http.Request, target string) {
	rangeHeader := r.Header.Get("Range")

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid target URL")
		return
	}
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Error("proxy fetch failed", "url", target, "error", err)
		writeError(w, http.StatusBadGateway, "upstream fetch failed")
		return
	}
	defer resp.Body.Close()

	// The proxy itself is the trust boundary; the stream must stay
	// fetchable from any origin.
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if resp.StatusCode >= http.StatusBadRequest {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(resp.StatusCode)
		fmt.Fprintf(w, "upstream returned %s", resp.Status)
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}

	if isManifest(contentType, target) {
		p.relayManifest(w, r, resp, contentType, rangeHeader)
		return
	}

	copyHeader(w, resp, "Content-Length")
	copyHeader(w, resp, "Content-Range")
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(relayStatus(resp.StatusCode, rangeHeader))

	if _, err := io.Copy(w, resp.Body); err != nil {
		// Headers are already out; all that is left is to drop the
		// connection instead of hanging.
		slog.Error("proxy stream interrupted", "url", target, "error", err)
	}
}

// relayManifest reads the playlist in full and rewrites every absolute
// URL into a proxied equivalent before sending it on. Segment and
// sub-playlist fetches must also route through the proxy or playback
// breaks on cross-origin and mixed-content rules.
func (p *Proxy) relayManifest(w http.ResponseWriter, r *http.Request, resp *http.Response, contentType, rangeHeader string) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("manifest read failed", "url", resp.Request.URL.String(), "error", err)
		writeError(w, http.StatusBadGateway, "failed to read manifest")
		return
	}

	rewritten := p.RewriteManifest(string(body), requestBase(r))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(rewritten)))
	w.WriteHeader(relayStatus(resp.StatusCode, rangeHeader))
	_, _ = io.WriteString(w, rewritten)
}

// RewriteManifest replaces every absolute URL in a playlist body with a
// same-origin proxied equivalent under base.
func (p *Proxy) RewriteManifest(body, base string) string {
	return absoluteURL.ReplaceAllStringFunc(body, func(u string) string {
		return base + p.path + "?url=" + url.QueryEscape(u)
	})
}

// relayStatus forces 206 whenever a range was requested, regardless of
// the upstream's own status; callers of seekable media expect
// partial-content semantics.
func relayStatus(upstream int, rangeHeader string) int {
	if rangeHeader != "" {
		return http.StatusPartialContent
	}
	return upstream
}

func isManifest(contentType, target string) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "mpegurl") || strings.Contains(ct, "m3u8") {
		return true
	}
	u, err := url.Parse(target)
	return err == nil && strings.HasSuffix(u.Path, ".m3u8")
}

func copyHeader(w http.ResponseWriter, resp *http.Response, key string) {
	if v := resp.Header.Get(key); v != "" {
		w.Header().Set(key, v)
	}
}

func requestBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`, msg)
}
