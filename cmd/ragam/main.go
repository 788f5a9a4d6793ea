// Command ragam resolves a track from the command line and downloads the
// chosen audio stream to a local file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/doctorbhh/ragam/config"
	"github.com/doctorbhh/ragam/internal/domain"
	"github.com/doctorbhh/ragam/internal/download"
	"github.com/doctorbhh/ragam/internal/resolver"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (optional)")
	title := flag.String("title", "", "Track title")
	artist := flag.String("artist", "", "Track artist")
	id := flag.String("id", "", "Provider-native track ID")
	providerName := flag.String("provider", "", "Metadata provider: saavn or piped")
	quality := flag.String("quality", "", "Audio quality: low, medium or high")
	output := flag.String("o", "", "Output file path")
	flag.Parse()

	if *title == "" && *id == "" {
		fmt.Fprintln(os.Stderr, "usage: ragam -title <title> [-artist <artist>] [-o <file>]")
		os.Exit(2)
	}

	cfg := loadConfig(*configPath)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(cfg.LogLevel)}))
	slog.SetDefault(logger)

	opts := resolver.Options{
		Provider: firstNonEmpty(*providerName, cfg.Providers.Search),
		Quality:  domain.ParseQuality(firstNonEmpty(*quality, cfg.Playback.Quality)),
	}
	track := domain.TrackQuery{Title: *title, Artist: *artist, ID: *id}

	res := resolver.FromConfig(cfg)
	stream, err := res.ResolveStream(context.Background(), track, opts)
	if err != nil {
		slog.Error("Resolution failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Resolved stream", "url", stream.URL, "mimeType", stream.MimeType)

	dest := *output
	if dest == "" {
		dest = outputName(track)
	}
	if err := download.Save(context.Background(), stream.URL, dest); err != nil {
		slog.Error("Download failed", "error", err)
		os.Exit(1)
	}
	fmt.Println(dest)
}

func loadConfig(path string) *config.Config {
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	return cfg
}

func outputName(track domain.TrackQuery) string {
	name := track.Title
	if name == "" {
		name = track.ID
	}
	if track.Artist != "" {
		name = track.Artist + " - " + name
	}
	replacer := strings.NewReplacer("/", "-", ":", "-", "\"", "'", "?", "", "\\", "-", "|", "-")
	return replacer.Replace(name) + ".m4a"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
