package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overlays INKLET_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("INKLET_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("INKLET_AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("INKLET_PUBLISH_MAX_IMAGE_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Publish.MaxImageBytes = n
		}
	}
	if v := os.Getenv("INKLET_PUBLISH_ALLOWED_IMAGE_TYPES"); v != "" {
		parts := strings.Split(v, ",")
		cfg.Publish.AllowedImageTypes = nil
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.Publish.AllowedImageTypes = append(cfg.Publish.AllowedImageTypes, p)
			}
		}
	}
	if v := os.Getenv("INKLET_PUBLISH_CAPABILITY_TTL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Publish.CapabilityTTLMs = n
		}
	}
	if v := os.Getenv("INKLET_SEARCH_MIN_TERM_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Search.MinTermLength = n
		}
	}
	if v := os.Getenv("INKLET_SEARCH_DEBOUNCE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Search.DebounceMs = n
		}
	}
	if v := os.Getenv("INKLET_SEARCH_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Search.Limit = n
		}
	}
	if v := os.Getenv("INKLET_PRESENCE_TTL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Presence.TTLMs = n
		}
	}
	if v := os.Getenv("INKLET_PRESENCE_SWEEP_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Presence.SweepMs = n
		}
	}
	if v := os.Getenv("INKLET_CACHE_POST_LIST_TTL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Cache.PostListTTLMs = n
		}
	}
	if v := os.Getenv("INKLET_FEED_SUB_BUF"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			if n > 65536 { // cap unbounded values
				n = 65536
			}
			cfg.Feed.SubscribeBuffer = n
		}
	}
}
