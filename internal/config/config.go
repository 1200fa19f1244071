// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

// Package config loads and validates application configuration from layered
// sources: built-in defaults, an optional YAML file, and environment
// variables, with environment taking precedence.
package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Checker    CheckerConfig    `koanf:"checker"`
	Providers  ProvidersConfig  `koanf:"providers"`
	TokenCache TokenCacheConfig `koanf:"token_cache"`
	API        APIConfig        `koanf:"api"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port    int           `koanf:"port"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	// Threads is the DuckDB worker thread count. 0 = use runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// CheckerConfig holds the batch check scheduler settings.
type CheckerConfig struct {
	// Delay is the minimum start-to-start spacing between upstream calls.
	Delay time.Duration `koanf:"delay"`
	// MaxInFlight caps concurrently outstanding upstream calls.
	MaxInFlight int `koanf:"max_in_flight"`
	// StatusPollInterval bounds how stale a cached job status view may be.
	StatusPollInterval time.Duration `koanf:"status_poll_interval"`
}

// ProvidersConfig groups per-provider upstream settings.
type ProvidersConfig struct {
	ATT      ATTConfig      `koanf:"att"`
	Frontier FrontierConfig `koanf:"frontier"`
	Metronet MetronetConfig `koanf:"metronet"`
}

// ATTConfig holds AT&T upstream settings.
type ATTConfig struct {
	Enabled   bool          `koanf:"enabled"`
	BaseURL   string        `koanf:"base_url"`
	Timeout   time.Duration `koanf:"timeout"`
	RateLimit time.Duration `koanf:"rate_limit"`
}

// FrontierConfig holds Frontier upstream settings.
type FrontierConfig struct {
	Enabled      bool          `koanf:"enabled"`
	BaseURL      string        `koanf:"base_url"`
	AuthURL      string        `koanf:"auth_url"`
	ClientID     string        `koanf:"client_id"`
	ClientSecret string        `koanf:"client_secret"`
	Timeout      time.Duration `koanf:"timeout"`
	RateLimit    time.Duration `koanf:"rate_limit"`
}

// MetronetConfig holds Metronet settings. The integration is a stub until the
// upstream API access is sorted out; only the toggle exists.
type MetronetConfig struct {
	Enabled bool `koanf:"enabled"`
}

// TokenCacheConfig holds the on-disk provider token cache settings.
type TokenCacheConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// APIConfig holds control API settings.
type APIConfig struct {
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
