package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig is the optional YAML layer. Durations are strings such as "20s".
type fileConfig struct {
	Extract struct {
		ArticleDomains []string `yaml:"article_domains"`
		ChromePhrases  []string `yaml:"chrome_phrases"`
	} `yaml:"extract"`
	Summary struct {
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature *float64 `yaml:"temperature"`
	} `yaml:"summary"`
	Timeouts struct {
		Fetch           string `yaml:"fetch"`
		LLM             string `yaml:"llm"`
		Transcribe      string `yaml:"transcribe"`
		YouTubeFallback string `yaml:"youtube_fallback"`
	} `yaml:"timeouts"`
	Storage struct {
		SignedURLTTL   string `yaml:"signed_url_ttl"`
		RetryAttempts  int    `yaml:"retry_attempts"`
		RetryBaseDelay string `yaml:"retry_base_delay"`
	} `yaml:"storage"`
	Cache struct {
		TranscriptTTL string `yaml:"transcript_ttl"`
	} `yaml:"cache"`
}

func loadFile(path string) (fileConfig, error) {
	var cfg fileConfig
	path = strings.TrimSpace(path)
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fileConfig{}, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}
