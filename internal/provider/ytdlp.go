package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"github.com/doctorbhh/ragam/internal/domain"
)

const defaultExtractTimeout = 30 * time.Second

// YtDlpExtractor shells out to yt-dlp as the extraction fallback, used
// only when the primary extraction provider is unreachable or returns no
// usable formats. The invocation is strictly non-interactive and asks
// for a single best-audio URL on stdout.
type YtDlpExtractor struct {
	binary  string
	timeout time.Duration
}

// NewYtDlpExtractor creates an extractor using the given binary path,
// defaulting to "yt-dlp" on PATH.
func NewYtDlpExtractor(binary string, timeout time.Duration) *YtDlpExtractor {
	if binary == "" {
		binary = "yt-dlp"
	}
	if timeout <= 0 {
		timeout = defaultExtractTimeout
	}
	return &YtDlpExtractor{binary: binary, timeout: timeout}
}

func (y *YtDlpExtractor) Name() string { return "yt-dlp" }

// extractArgs builds the non-interactive invocation for a single target.
func extractArgs(target string) []string {
	return []string{
		"--no-playlist",
		"--no-warnings",
		"--quiet",
		"--no-progress",
		"--skip-download",
		"-f", "bestaudio",
		"--get-url",
		target,
	}
}

// ExtractStream resolves id into a direct media URL. quality is accepted
// for interface parity but bestaudio already pins the variant choice.
func (y *YtDlpExtractor) ExtractStream(ctx context.Context, id string, quality domain.Quality) (*domain.ResolvedStream, error) {
	ctx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	target := id
	if !strings.Contains(target, "://") {
		target = "https://www.youtube.com/watch?v=" + url.QueryEscape(target)
	}

	cmd := exec.CommandContext(ctx, y.binary, extractArgs(target)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: yt-dlp: %v: %s", ErrUpstreamUnavailable, err, strings.TrimSpace(stderr.String()))
	}

	streamURL := lastLine(stdout.String())
	if streamURL == "" {
		return nil, ErrNoAudioVariant
	}
	if u, err := url.Parse(streamURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: unexpected yt-dlp output %q", ErrUpstreamUnavailable, streamURL)
	}
	return &domain.ResolvedStream{URL: streamURL}, nil
}

func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
