/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package config

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"

	"github.com/mikeb26/tkdrank/internal"
	"github.com/mikeb26/tkdrank/simplycompete"
)

type Config struct {
	Port         string `env:"PORT" default:"5001"`
	DatabasePath string `env:"DATABASE_PATH" default:"competitions.db"`

	SimplyCompeteBaseURL string `env:"SIMPLYCOMPETE_BASE_URL" default:"https://worldtkd.simplycompete.com"`
	CFClearance          string `env:"SIMPLYCOMPETE_CF_CLEARANCE"`
	CookieConsent        string `env:"SIMPLYCOMPETE_COOKIE_CONSENT" default:"yes"`
	CookiesFile          string `env:"COOKIES_FILE" default:"cookies.json"`

	WebCacheBucket string        `env:"WEBCACHE_BUCKET"`
	CacheMaxAge    time.Duration `env:"CACHE_MAX_AGE" default:"1h"`

	// SyncInterval enables periodic background syncs in the server when
	// positive.
	SyncInterval time.Duration `env:"SYNC_INTERVAL" default:"0s"`

	DiscordAppID       string `env:"DISCORD_APP_ID"`
	DiscordBotToken    string `env:"DISCORD_BOT_TOKEN"`
	DiscordPublicKey   string `env:"DISCORD_PUBLIC_KEY"`
	DiscordGuildID     string `env:"DISCORD_GUILD_ID"`
	DiscordCommandID   string `env:"DISCORD_COMMAND_ID"`
	DiscordCommandHash string `env:"DISCORD_COMMAND_HASH"`
	DiscordListenAddr  string `env:"DISCORD_LISTEN_ADDR" default:":8080"`

	// RankingSources lists "division=url" pairs separated by ';'.
	RankingSources string `env:"RANKING_SOURCES"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("config.Load: no .env file found, using environment")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if cfg.CacheMaxAge < 0 {
		return nil, fmt.Errorf("CACHE_MAX_AGE must not be negative")
	}
	if _, err := cfg.Divisions(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ValidateDiscord reports the first missing Discord setting.
func (cfg *Config) ValidateDiscord() error {
	required := []struct{ name, value string }{
		{"DISCORD_APP_ID", cfg.DiscordAppID},
		{"DISCORD_BOT_TOKEN", cfg.DiscordBotToken},
		{"DISCORD_PUBLIC_KEY", cfg.DiscordPublicKey},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}
	return nil
}

// WebCacheBucketName falls back to the default bucket when none is
// configured.
func (cfg *Config) WebCacheBucketName() string {
	if cfg.WebCacheBucket != "" {
		return cfg.WebCacheBucket
	}
	return internal.WebCacheBucket
}

// Cookies returns the SimplyCompete cookie source: the cookies file when it
// carries a clearance token, otherwise the configured values.
func (cfg *Config) Cookies() simplycompete.CookieSource {
	fallback := simplycompete.StaticCookies{
		Clearance: cfg.CFClearance,
		Consent:   cfg.CookieConsent,
	}
	if cfg.CookiesFile == "" {
		return fallback
	}
	return &simplycompete.FileCookies{Path: cfg.CookiesFile, Fallback: fallback}
}

// Divisions parses RankingSources into a division name to URL map.
func (cfg *Config) Divisions() (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range strings.Split(cfg.RankingSources, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		div, url, ok := strings.Cut(pair, "=")
		div, url = strings.TrimSpace(div), strings.TrimSpace(url)
		if !ok || div == "" || url == "" {
			return nil, fmt.Errorf("RANKING_SOURCES: malformed entry %q", pair)
		}
		out[div] = url
	}
	return out, nil
}

// HTTPClient returns the caching http client shared by the fetchers.
func (cfg *Config) HTTPClient(ctx context.Context) *http.Client {
	return internal.NewCachedHttpClient(ctx, cfg.WebCacheBucketName(),
		cfg.CacheMaxAge)
}

// SimplyCompete returns an API client configured from cfg.
func (cfg *Config) SimplyCompete(ctx context.Context) (*simplycompete.Client, error) {
	return simplycompete.NewClient(cfg.SimplyCompeteBaseURL, cfg.HTTPClient(ctx),
		cfg.Cookies())
}
