package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

type Server struct {
	Port              string `json:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec"`
}

type Google struct {
	BaseURL   string `json:"base_url"`
	UserAgent string `json:"user_agent"`
}

type Proxy struct {
	Enabled   bool     `json:"enabled"`
	Primary   string   `json:"primary"`
	Fallbacks []string `json:"fallbacks"`
	TimeoutMS int      `json:"timeout_ms"`
}

type Cache struct {
	TTLSeconds int `json:"ttl_sec"`
	MaxItems   int `json:"max_items"`
}

type Config struct {
	Server Server `json:"server"`
	Google Google `json:"google"`
	Proxy  Proxy  `json:"proxy"`
	Cache  Cache  `json:"cache"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 45},
		Google: Google{
			BaseURL:   "https://www.google.com/finance/quote/",
			UserAgent: "stockquote/1.0 (quote fetcher)",
		},
		Proxy: Proxy{
			Enabled: true,
			Primary: "https://api.allorigins.win/raw?url=",
			Fallbacks: []string{
				"https://corsproxy.io/?",
				"https://api.codetabs.com/v1/proxy?quest=",
			},
			TimeoutMS: 10000,
		},
		Cache: Cache{
			TTLSeconds: 0, // quotes are fetched fresh unless explicitly enabled
			MaxItems:   10000,
		},
	}
}

// Load reads JSON config from path. If path is empty or file does not exist,
// it returns defaults. Environment variables override select fields.
// The returned value is a snapshot; callers must not mutate it mid-request.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" { cfg.Server.Port = v }
	if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
		var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Server.RequestTimeoutSec = x }
	}
	if v := os.Getenv("GOOGLE_BASE_URL"); v != "" { cfg.Google.BaseURL = v }
	if v := os.Getenv("USER_AGENT"); v != "" { cfg.Google.UserAgent = v }
	if v := os.Getenv("PROXY_ENABLED"); v != "" {
		switch strings.ToLower(v) {
		case "1","true","yes","y": cfg.Proxy.Enabled = true
		case "0","false","no","n": cfg.Proxy.Enabled = false
		}
	}
	if v := os.Getenv("PROXY_PRIMARY"); v != "" { cfg.Proxy.Primary = v }
	if v := os.Getenv("PROXY_FALLBACKS"); v != "" { cfg.Proxy.Fallbacks = splitCSV(v) }
	if v := os.Getenv("PROXY_TIMEOUT_MS"); v != "" {
		var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Proxy.TimeoutMS = x }
	}
	if v := os.Getenv("CACHE_TTL_SEC"); v != "" {
		var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Cache.TTLSeconds = x }
	}
	if v := os.Getenv("CACHE_MAX_ITEMS"); v != "" {
		var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Cache.MaxItems = x }
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" { out = append(out, p) }
	}
	return out
}
