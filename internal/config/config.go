package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	HTTPAddr string         `json:"httpAddr" yaml:"httpAddr"`
	Auth     AuthConfig     `json:"auth" yaml:"auth"`
	Publish  PublishConfig  `json:"publish" yaml:"publish"`
	Search   SearchConfig   `json:"search" yaml:"search"`
	Presence PresenceConfig `json:"presence" yaml:"presence"`
	Cache    CacheConfig    `json:"cache" yaml:"cache"`
	Feed     FeedConfig     `json:"feed" yaml:"feed"`
}

// AuthConfig configures bearer-token verification.
type AuthConfig struct {
	// Secret is the HMAC key for signed bearer tokens. Publishing and
	// commenting require a verifiable identity, so an empty secret leaves
	// every caller unauthorized.
	Secret string `json:"secret" yaml:"secret"`
}

// PublishConfig bounds the publish pipeline's image policy.
type PublishConfig struct {
	MaxImageBytes     int      `json:"maxImageBytes" yaml:"maxImageBytes"`
	AllowedImageTypes []string `json:"allowedImageTypes" yaml:"allowedImageTypes"`
	CapabilityTTLMs   int      `json:"capabilityTtlMs" yaml:"capabilityTtlMs"`
}

// SearchConfig tunes the incremental search coordinator.
type SearchConfig struct {
	MinTermLength int `json:"minTermLength" yaml:"minTermLength"`
	DebounceMs    int `json:"debounceMs" yaml:"debounceMs"`
	Limit         int `json:"limit" yaml:"limit"`
}

// PresenceConfig tunes viewer-presence expiry.
type PresenceConfig struct {
	TTLMs   int `json:"ttlMs" yaml:"ttlMs"`
	SweepMs int `json:"sweepMs" yaml:"sweepMs"`
}

// CacheConfig tunes the cached read views.
type CacheConfig struct {
	PostListTTLMs int `json:"postListTtlMs" yaml:"postListTtlMs"`
}

// FeedConfig tunes subscription delivery.
type FeedConfig struct {
	// SubscribeBuffer is the buffered delta capacity per subscriber.
	SubscribeBuffer int `json:"subscribeBuffer" yaml:"subscribeBuffer"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		HTTPAddr: ":8080",
		Publish: PublishConfig{
			MaxImageBytes:     10 << 20,
			AllowedImageTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
			CapabilityTTLMs:   60_000,
		},
		Search: SearchConfig{
			MinTermLength: 2,
			DebounceMs:    250,
			Limit:         5,
		},
		Presence: PresenceConfig{
			TTLMs:   30_000,
			SweepMs: 10_000,
		},
		Cache: CacheConfig{
			PostListTTLMs: 60_000,
		},
		Feed: FeedConfig{
			SubscribeBuffer: 1024,
		},
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path
// is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, nil
}
