// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for marketchat.
//
// Configuration file location:
//   - ~/.marketchat/config.toml
//   - Built-in defaults
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/marketchat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete marketchat configuration.
type Config struct {
	Completion CompletionConfig `toml:"completion"`
	Market     MarketConfig     `toml:"market"`
	UI         UIConfig         `toml:"ui"`
	Logging    LoggingConfig    `toml:"logging"`
}

// CompletionConfig selects the streaming endpoint.
type CompletionConfig struct {
	// BaseURL of the completion service; /completion is appended.
	BaseURL string `toml:"base_url"`
	// AgentID switches to agent mode (/api/v1/agents/<id>/invoke).
	AgentID string `toml:"agent_id"`
	// APIKey is sent as a bearer token in agent mode.
	APIKey string `toml:"api_key"`
}

// MarketConfig configures the daily price lookup.
type MarketConfig struct {
	BaseURL           string `toml:"base_url"`
	APIKey            string `toml:"api_key"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
	TimeoutSecs       int    `toml:"timeout_secs"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Greeting is the first assistant message; empty disables it.
	Greeting string `toml:"greeting"`
	// Theme is a markdown style: "auto", "dark", "light", "notty"
	Theme string `toml:"theme"`
	// WordWrap fixes the render width; 0 follows the terminal.
	WordWrap       int  `toml:"word_wrap"`
	ShowTimestamps bool `toml:"show_timestamps"`
}

// LoggingConfig controls the log file.
type LoggingConfig struct {
	Level string `toml:"level"`
	// File defaults to ~/.marketchat/marketchat.log
	File string `toml:"file"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

const (
	DefaultCompletionURL     = "http://localhost:3000"
	DefaultMarketURL         = "https://www.alphavantage.co"
	DefaultRequestsPerMinute = 5
	DefaultTimeoutSecs       = 15
	DefaultGreeting          = "Hey there! Ask me about real-time events."
	DefaultTheme             = "auto"
	DefaultLogLevel          = "info"
)

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Completion: CompletionConfig{
			BaseURL: DefaultCompletionURL,
		},
		Market: MarketConfig{
			BaseURL:           DefaultMarketURL,
			RequestsPerMinute: DefaultRequestsPerMinute,
			TimeoutSecs:       DefaultTimeoutSecs,
		},
		UI: UIConfig{
			Greeting: DefaultGreeting,
			Theme:    DefaultTheme,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the marketchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".marketchat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DefaultLogPath returns the log file used when none is configured.
func DefaultLogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "marketchat.log"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.marketchat/config.toml when it exists, then .env files,
// then environment overrides.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from path. A missing file is not an
// error; defaults are used instead.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := LoadTOML(cfg, path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := loadDotEnv(filepath.Dir(path)); err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes the TOML file at path into cfg.
func LoadTOML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// loadDotEnv loads .env from the working directory and from dir. Values
// already present in the environment win.
func loadDotEnv(dir string) error {
	candidates := []string{".env"}
	if dir != "" && dir != "." {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML writes cfg to path with owner-only permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# marketchat configuration file\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// Environment variables read by ApplyEnvOverrides.
const (
	EnvCompletionURL = "MARKETCHAT_COMPLETION_URL"
	EnvAgentID       = "MARKETCHAT_AGENT_ID"
	EnvAPIKey        = "MARKETCHAT_API_KEY"
	EnvMarketURL     = "MARKETCHAT_MARKET_URL"
	EnvMarketAPIKey  = "MARKETCHAT_MARKET_API_KEY"
	EnvAlphaVantage  = "ALPHA_VANTAGE_API_KEY"
	EnvLogLevel      = "MARKETCHAT_LOG_LEVEL"
	EnvLogFile       = "MARKETCHAT_LOG_FILE"
	EnvGreeting      = "MARKETCHAT_GREETING"
)

// ApplyEnvOverrides applies MARKETCHAT_* variables on top of the file.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv(EnvCompletionURL); v != "" {
		c.Completion.BaseURL = v
	}
	if v := os.Getenv(EnvAgentID); v != "" {
		c.Completion.AgentID = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Completion.APIKey = v
	}
	if v := os.Getenv(EnvMarketURL); v != "" {
		c.Market.BaseURL = v
	}

	// The upstream variable name only fills an unset key.
	if v := os.Getenv(EnvMarketAPIKey); v != "" {
		c.Market.APIKey = v
	} else if v := os.Getenv(EnvAlphaVantage); v != "" && c.Market.APIKey == "" {
		c.Market.APIKey = v
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.Logging.File = v
	}
	// Set but empty disables the greeting.
	if v, ok := os.LookupEnv(EnvGreeting); ok {
		c.UI.Greeting = v
	}
}

// SetDefaults fills zero values that have no meaning of their own.
func (c *Config) SetDefaults() {
	if c.Completion.BaseURL == "" {
		c.Completion.BaseURL = DefaultCompletionURL
	}
	c.Completion.BaseURL = strings.TrimRight(c.Completion.BaseURL, "/")
	if c.Market.BaseURL == "" {
		c.Market.BaseURL = DefaultMarketURL
	}
	c.Market.BaseURL = strings.TrimRight(c.Market.BaseURL, "/")
	if c.Market.RequestsPerMinute == 0 {
		c.Market.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if c.Market.TimeoutSecs == 0 {
		c.Market.TimeoutSecs = DefaultTimeoutSecs
	}
	if c.UI.Theme == "" {
		c.UI.Theme = DefaultTheme
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validThemes = map[string]bool{
		"auto": true, "dark": true, "light": true, "notty": true,
		"ascii": true, "dracula": true, "pink": true, "tokyo-night": true,
	}
	validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
)

// Validate returns ValidateErrors listing every bad field, or nil.
func (c *Config) Validate() error {
	var errs ValidateErrors

	checkURL := func(field, raw string) {
		u, err := url.Parse(raw)
		switch {
		case err != nil:
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("invalid URL: %v", err)})
		case u.Scheme != "http" && u.Scheme != "https":
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("URL scheme must be http or https, got %q", u.Scheme)})
		case u.Host == "":
			errs = append(errs, ValidationError{Field: field, Message: "URL has no host"})
		}
	}
	checkURL("completion.base_url", c.Completion.BaseURL)
	checkURL("market.base_url", c.Market.BaseURL)

	if strings.ContainsAny(c.Completion.AgentID, "/?#") {
		errs = append(errs, ValidationError{Field: "completion.agent_id", Message: "must not contain '/', '?' or '#'"})
	}
	if c.Market.RequestsPerMinute <= 0 {
		errs = append(errs, ValidationError{Field: "market.requests_per_minute", Message: "must be positive"})
	}
	if c.Market.TimeoutSecs <= 0 {
		errs = append(errs, ValidationError{Field: "market.timeout_secs", Message: "must be positive"})
	}
	if !validThemes[c.UI.Theme] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light, notty", c.UI.Theme),
		})
	}
	if c.UI.WordWrap < 0 {
		errs = append(errs, ValidationError{Field: "ui.word_wrap", Message: "cannot be negative"})
	}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// GET HELPER (DOT NOTATION)
// =============================================================================

// Get retrieves a value by its TOML key, e.g. "market.base_url".
func (c *Config) Get(key string) (interface{}, error) {
	section, field, ok := strings.Cut(key, ".")
	if !ok || section == "" || field == "" {
		return nil, fmt.Errorf("key must be section.field: %q", key)
	}
	sv, found := fieldByTag(reflect.ValueOf(c).Elem(), section)
	if !found {
		return nil, fmt.Errorf("unknown section: %s", section)
	}
	fv, found := fieldByTag(sv, field)
	if !found {
		return nil, fmt.Errorf("unknown field: %s", key)
	}
	return fv.Interface(), nil
}

func fieldByTag(v reflect.Value, tag string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("toml") == tag {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// Keys returns every section.field key in declaration order.
func Keys() []string {
	var keys []string
	ct := reflect.TypeOf(Config{})
	for i := 0; i < ct.NumField(); i++ {
		section := ct.Field(i)
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, section.Tag.Get("toml")+"."+section.Type.Field(j).Tag.Get("toml"))
		}
	}
	return keys
}

// =============================================================================
// REDACTION
// =============================================================================

// secretKeys are redacted by String and Redacted.
var secretKeys = map[string]bool{
	"completion.api_key": true,
	"market.api_key":     true,
}

// IsSecret reports whether key names a credential.
func IsSecret(key string) bool {
	return secretKeys[key]
}

// MaskSecret keeps the last four characters of a long secret.
func MaskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "[REDACTED]"
	default:
		return strings.Repeat("*", 8) + s[len(s)-4:]
	}
}

// Redacted returns a copy with credentials masked.
func (c *Config) Redacted() *Config {
	safe := *c
	safe.Completion.APIKey = MaskSecret(c.Completion.APIKey)
	safe.Market.APIKey = MaskSecret(c.Market.APIKey)
	return &safe
}

// String renders the config as TOML with credentials masked.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c.Redacted()); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return buf.String()
}

// FormatValue renders a Get result for display, masking credentials.
func FormatValue(key string, v interface{}) string {
	switch val := v.(type) {
	case string:
		if IsSecret(key) {
			return MaskSecret(val)
		}
		return val
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
