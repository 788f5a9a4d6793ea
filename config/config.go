package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel int `yaml:"log_level"`

	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Playback  PlaybackConfig  `yaml:"playback"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type ProvidersConfig struct {
	// Active metadata-search provider: "saavn" or "piped"
	Search string `yaml:"search"`

	// Base URLs of the upstream APIs
	SaavnBaseURL string `yaml:"saavn_base_url"`
	PipedBaseURL string `yaml:"piped_base_url"`

	// Public host substituted into extracted media URLs when the
	// instance serves media from an internal hostname
	StreamHost string `yaml:"stream_host"`

	// Path to the yt-dlp binary used as extraction fallback
	YtDlpPath string `yaml:"ytdlp_path"`

	// Timeout in seconds for outbound provider calls
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type PlaybackConfig struct {
	// Preferred audio quality: "low", "medium" or "high"
	Quality string `yaml:"quality"`
}

// Default returns a configuration with every field at its default value.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config *Config

	// Unmarshal the YAML data into the struct
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}
	if config == nil {
		config = &Config{}
	}

	config.applyDefaults()
	return config, nil
}

// applyDefaults fills in every field the file left unset.
func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Providers.Search == "" {
		c.Providers.Search = "saavn"
	}
	if c.Providers.TimeoutSeconds <= 0 {
		c.Providers.TimeoutSeconds = 15
	}
	if c.Playback.Quality == "" {
		c.Playback.Quality = "high"
	}
}
