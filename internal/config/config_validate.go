// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateChecker(); err != nil {
		return err
	}
	if err := c.validateProviders(); err != nil {
		return err
	}
	if err := c.validateTokenCache(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	return nil
}

func (c *Config) validateChecker() error {
	if c.Checker.Delay < 0 {
		return fmt.Errorf("CHECKER_DELAY must not be negative")
	}
	if c.Checker.MaxInFlight < 1 {
		return fmt.Errorf("CHECKER_MAX_IN_FLIGHT must be at least 1")
	}
	if c.Checker.StatusPollInterval <= 0 {
		return fmt.Errorf("CHECKER_STATUS_POLL_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) validateProviders() error {
	if err := c.validateATT(); err != nil {
		return err
	}
	return c.validateFrontier()
}

func (c *Config) validateATT() error {
	if !c.Providers.ATT.Enabled {
		return nil
	}
	if err := validateHTTPURL(c.Providers.ATT.BaseURL, "ATT_BASE_URL"); err != nil {
		return err
	}
	if c.Providers.ATT.Timeout <= 0 {
		return fmt.Errorf("ATT_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateFrontier() error {
	if !c.Providers.Frontier.Enabled {
		return nil
	}
	if err := validateHTTPURL(c.Providers.Frontier.BaseURL, "FRONTIER_BASE_URL"); err != nil {
		return err
	}
	if err := validateHTTPURL(c.Providers.Frontier.AuthURL, "FRONTIER_AUTH_URL"); err != nil {
		return err
	}
	if c.Providers.Frontier.ClientID == "" {
		return fmt.Errorf("FRONTIER_CLIENT_ID is required when FRONTIER_ENABLED=true")
	}
	if c.Providers.Frontier.ClientSecret == "" {
		return fmt.Errorf("FRONTIER_CLIENT_SECRET is required when FRONTIER_ENABLED=true")
	}
	if c.Providers.Frontier.Timeout <= 0 {
		return fmt.Errorf("FRONTIER_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateTokenCache() error {
	if c.TokenCache.Enabled && c.TokenCache.Path == "" {
		return fmt.Errorf("TOKEN_CACHE_PATH is required when TOKEN_CACHE_ENABLED=true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// validateHTTPURL checks that value is an absolute http(s) URL.
func validateHTTPURL(value, name string) error {
	if value == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s is invalid: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https scheme", name)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host", name)
	}
	return nil
}
