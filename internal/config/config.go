// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/planforge/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete planforge configuration.
type Config struct {
	Server   ServerConfig   `toml:"server" json:"server"`
	LLM      LLMConfig      `toml:"llm" json:"llm"`
	Pipeline PipelineConfig `toml:"pipeline" json:"pipeline"`
	Storage  StorageConfig  `toml:"storage" json:"storage"`
	Log      LogConfig      `toml:"log" json:"log"`
}

// ServerConfig contains HTTP API settings.
type ServerConfig struct {
	Host  string `toml:"host" json:"host"`
	Port  int    `toml:"port" json:"port"`
	Debug bool   `toml:"debug" json:"debug"`

	// FrontendURL is always allowed by CORS in addition to AllowedOrigins.
	FrontendURL    string   `toml:"frontend_url" json:"frontend_url"`
	AllowedOrigins []string `toml:"allowed_origins" json:"allowed_origins"`

	// Per-client token bucket. RateLimitRPS 0 disables rate limiting.
	RateLimitRPS   float64 `toml:"rate_limit_rps" json:"rate_limit_rps"`
	RateLimitBurst int     `toml:"rate_limit_burst" json:"rate_limit_burst"`

	// RequestTimeoutSecs bounds one POST /projects pipeline run.
	RequestTimeoutSecs int `toml:"request_timeout_secs" json:"request_timeout_secs"`
}

// LLMConfig selects and tunes the text generation provider.
type LLMConfig struct {
	// Provider is "openai" (any OpenAI-compatible endpoint) or "ollama".
	Provider string `toml:"provider" json:"provider"`

	// OpenAI-compatible settings
	Model   string `toml:"model" json:"model"`
	BaseURL string `toml:"base_url" json:"base_url"`
	APIKey  string `toml:"api_key" json:"api_key"`

	// Ollama settings
	OllamaURL   string `toml:"ollama_url" json:"ollama_url"`
	OllamaModel string `toml:"ollama_model" json:"ollama_model"`

	Temperature float64 `toml:"temperature" json:"temperature"`
	MaxTokens   int     `toml:"max_tokens" json:"max_tokens"`
	TimeoutSecs int     `toml:"timeout_secs" json:"timeout_secs"`
	MaxRetries  int     `toml:"max_retries" json:"max_retries"`

	// Client-side throttle shared by all runs. 0 means unlimited.
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `toml:"burst" json:"burst"`
}

// PipelineConfig contains pipeline driver settings.
type PipelineConfig struct {
	// Policy is "cascade" or "short-circuit".
	Policy          string `toml:"policy" json:"policy"`
	VerifyTableRows bool   `toml:"verify_table_rows" json:"verify_table_rows"`
}

// StorageConfig contains project database settings.
type StorageConfig struct {
	Path string `toml:"path" json:"path"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `toml:"level" json:"level"`
	Format string `toml:"format" json:"format"`
	File   string `toml:"file" json:"file"`
}

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// ActiveModel returns the model of the selected provider.
func (l LLMConfig) ActiveModel() string {
	if strings.EqualFold(l.Provider, ProviderOllama) {
		return l.OllamaModel
	}
	return l.Model
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Origins returns AllowedOrigins plus FrontendURL, without duplicates.
func (s ServerConfig) Origins() []string {
	seen := make(map[string]bool)
	var origins []string
	for _, o := range append(append([]string{}, s.AllowedOrigins...), s.FrontendURL) {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		origins = append(origins, o)
	}
	return origins
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8000,
			FrontendURL: "http://localhost:3000",
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://127.0.0.1:3000",
				"http://localhost:3001",
			},
			RateLimitRPS:       2,
			RateLimitBurst:     10,
			RequestTimeoutSecs: 600,
		},

		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			Model:       "gpt-4o-mini",
			BaseURL:     "https://api.openai.com/v1",
			OllamaURL:   "http://127.0.0.1:11434",
			OllamaModel: "llama3.1:8b",
			Temperature: 0.7,
			MaxTokens:   2000,
			TimeoutSecs: 120,
			MaxRetries:  3,
			Burst:       1,
		},

		Pipeline: PipelineConfig{
			Policy:          "cascade",
			VerifyTableRows: true,
		},

		Storage: StorageConfig{
			Path: defaultStoragePath(),
		},

		Log: LogConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}

func defaultStoragePath() string {
	dir, err := ConfigDir()
	if err != nil {
		return "planforge.db"
	}
	return filepath.Join(dir, "planforge.db")
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the planforge configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".planforge"), nil
}

// ConfigPath returns the path to the default TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ensureSecurePermissions checks and fixes permissions on config files.
// Config files hold API keys and must be 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads the default config file if it exists, otherwise the built-in
// defaults. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.validate(false); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path: .json files
// are decoded as JSON, anything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	// Start from defaults so booleans absent from the file keep their default.
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.validate(false); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadTOML decodes a TOML file into cfg and back-fills missing values.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all systems
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadJSON decodes a JSON file into cfg and back-fills missing values.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	// Server
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaults.Server.Host
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if cfg.Server.FrontendURL == "" {
		cfg.Server.FrontendURL = defaults.Server.FrontendURL
	}
	if cfg.Server.AllowedOrigins == nil {
		cfg.Server.AllowedOrigins = defaults.Server.AllowedOrigins
	}
	if cfg.Server.RateLimitBurst == 0 {
		cfg.Server.RateLimitBurst = defaults.Server.RateLimitBurst
	}
	if cfg.Server.RequestTimeoutSecs == 0 {
		cfg.Server.RequestTimeoutSecs = defaults.Server.RequestTimeoutSecs
	}

	// LLM
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = defaults.LLM.Provider
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaults.LLM.Model
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = defaults.LLM.BaseURL
	}
	if cfg.LLM.OllamaURL == "" {
		cfg.LLM.OllamaURL = defaults.LLM.OllamaURL
	}
	if cfg.LLM.OllamaModel == "" {
		cfg.LLM.OllamaModel = defaults.LLM.OllamaModel
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = defaults.LLM.MaxTokens
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = defaults.LLM.TimeoutSecs
	}
	if cfg.LLM.MaxRetries == 0 {
		cfg.LLM.MaxRetries = defaults.LLM.MaxRetries
	}
	if cfg.LLM.Burst == 0 {
		cfg.LLM.Burst = defaults.LLM.Burst
	}

	// Pipeline
	if cfg.Pipeline.Policy == "" {
		cfg.Pipeline.Policy = defaults.Pipeline.Policy
	}

	// Storage
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = defaults.Storage.Path
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration atomically with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, "# planforge configuration file")
	fmt.Fprintln(&buf, "# Generated by planforge - edit with care")
	fmt.Fprintln(&buf, "#")
	fmt.Fprintln(&buf, "# Environment variables (OPENAI_API_KEY, PLANFORGE_*) override these values.")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
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
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every setting, including that the selected provider has
// the credentials it needs. Commands that call the provider run it before
// starting.
func (c *Config) Validate() error {
	return c.validate(true)
}

// ValidateSettings checks every setting except provider credentials.
func (c *Config) ValidateSettings() error {
	return c.validate(false)
}

func (c *Config) validate(requireCredentials bool) error {
	var errs ValidateErrors

	// ==========================================================================
	// Server
	// ==========================================================================

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port %d out of range 1-65535", c.Server.Port),
		})
	}
	if c.Server.RateLimitRPS < 0 {
		errs = append(errs, ValidationError{Field: "server.rate_limit_rps", Message: "must not be negative"})
	}
	if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst < 1 {
		errs = append(errs, ValidationError{Field: "server.rate_limit_burst", Message: "must be at least 1 when rate limiting is enabled"})
	}
	if c.Server.RequestTimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "server.request_timeout_secs", Message: "must not be negative"})
	}
	for _, origin := range c.Server.Origins() {
		if err := validateHTTPURL(origin); err != nil {
			errs = append(errs, ValidationError{Field: "server.allowed_origins", Message: fmt.Sprintf("%q: %v", origin, err)})
		}
	}

	// ==========================================================================
	// LLM
	// ==========================================================================

	switch strings.ToLower(c.LLM.Provider) {
	case ProviderOpenAI:
		if err := validateHTTPURL(c.LLM.BaseURL); err != nil {
			errs = append(errs, ValidationError{Field: "llm.base_url", Message: err.Error()})
		}
		if c.LLM.Model == "" {
			errs = append(errs, ValidationError{Field: "llm.model", Message: "must not be empty"})
		}
		if requireCredentials && strings.TrimSpace(c.LLM.APIKey) == "" {
			errs = append(errs, ValidationError{
				Field:   "llm.api_key",
				Message: "required for the openai provider (set OPENAI_API_KEY)",
			})
		}
	case ProviderOllama:
		if err := validateHTTPURL(c.LLM.OllamaURL); err != nil {
			errs = append(errs, ValidationError{Field: "llm.ollama_url", Message: err.Error()})
		}
		if c.LLM.OllamaModel == "" {
			errs = append(errs, ValidationError{Field: "llm.ollama_model", Message: "must not be empty"})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("invalid provider '%s', must be one of: openai, ollama", c.LLM.Provider),
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, ValidationError{Field: "llm.temperature", Message: "must be between 0 and 2"})
	}
	if c.LLM.MaxTokens < 0 {
		errs = append(errs, ValidationError{Field: "llm.max_tokens", Message: "must not be negative"})
	}
	if c.LLM.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "llm.timeout_secs", Message: "must not be negative"})
	}
	if c.LLM.RequestsPerSecond < 0 {
		errs = append(errs, ValidationError{Field: "llm.requests_per_second", Message: "must not be negative"})
	}

	// ==========================================================================
	// Pipeline and log
	// ==========================================================================

	switch strings.ToLower(c.Pipeline.Policy) {
	case "cascade", "short-circuit", "short_circuit":
	default:
		errs = append(errs, ValidationError{
			Field:   "pipeline.policy",
			Message: fmt.Sprintf("invalid policy '%s', must be one of: cascade, short-circuit", c.Pipeline.Policy),
		})
	}

	switch strings.ToUpper(c.Log.Level) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		errs = append(errs, ValidationError{Field: "log.level", Message: fmt.Sprintf("invalid level '%s'", c.Log.Level)})
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{Field: "log.format", Message: fmt.Sprintf("invalid format '%s', must be text or json", c.Log.Format)})
	}

	if c.Storage.Path == "" {
		errs = append(errs, ValidationError{Field: "storage.path", Message: "must not be empty"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must use http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - OPENAI_API_KEY: overrides llm.api_key
//   - HOST, PORT: override server.host and server.port
//   - DEBUG: "1" or "true" enables server.debug
//   - FRONTEND_URL: overrides server.frontend_url
//   - ALLOWED_ORIGINS: comma separated, overrides server.allowed_origins
//   - PLANFORGE_PROVIDER: overrides llm.provider
//   - PLANFORGE_MODEL: overrides the model of the selected provider
//   - PLANFORGE_BASE_URL: overrides llm.base_url
//   - PLANFORGE_OLLAMA_URL: overrides llm.ollama_url
//   - PLANFORGE_DB: overrides storage.path
//   - PLANFORGE_POLICY: overrides pipeline.policy
//   - PLANFORGE_LOG_LEVEL, PLANFORGE_LOG_FORMAT: override log.level and log.format
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if debug := os.Getenv("DEBUG"); debug != "" {
		c.Server.Debug = parseBool(debug)
	}
	if frontend := os.Getenv("FRONTEND_URL"); frontend != "" {
		c.Server.FrontendURL = frontend
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}

	if provider := os.Getenv("PLANFORGE_PROVIDER"); provider != "" {
		c.LLM.Provider = strings.ToLower(provider)
	}
	if model := os.Getenv("PLANFORGE_MODEL"); model != "" {
		if strings.EqualFold(c.LLM.Provider, ProviderOllama) {
			c.LLM.OllamaModel = model
		} else {
			c.LLM.Model = model
		}
	}
	if baseURL := os.Getenv("PLANFORGE_BASE_URL"); baseURL != "" {
		c.LLM.BaseURL = baseURL
	}
	if ollamaURL := os.Getenv("PLANFORGE_OLLAMA_URL"); ollamaURL != "" {
		c.LLM.OllamaURL = ollamaURL
	}

	if db := os.Getenv("PLANFORGE_DB"); db != "" {
		c.Storage.Path = db
	}
	if policy := os.Getenv("PLANFORGE_POLICY"); policy != "" {
		c.Pipeline.Policy = policy
	}
	if level := os.Getenv("PLANFORGE_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if format := os.Getenv("PLANFORGE_LOG_FORMAT"); format != "" {
		c.Log.Format = format
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "llm.model").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "llm.model").
// String values are converted to the field's type; lists are comma separated.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	parts := strings.Split(key, ".")
	if key == "" || len(parts) == 0 {
		return reflect.Value{}, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("field '%s' is a section, not a value", key)
			}
			return field, nil
		}

		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}

	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}

	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			field.SetBool(parseBool(strVal))
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				field.Set(reflect.ValueOf(splitList(strVal)))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"server.host",
		"server.port",
		"server.debug",
		"server.frontend_url",
		"server.allowed_origins",
		"server.rate_limit_rps",
		"server.rate_limit_burst",
		"server.request_timeout_secs",
		"llm.provider",
		"llm.model",
		"llm.base_url",
		"llm.api_key",
		"llm.ollama_url",
		"llm.ollama_model",
		"llm.temperature",
		"llm.max_tokens",
		"llm.timeout_secs",
		"llm.max_retries",
		"llm.requests_per_second",
		"llm.burst",
		"pipeline.policy",
		"pipeline.verify_table_rows",
		"storage.path",
		"log.level",
		"log.format",
		"log.file",
	}
}

// =============================================================================
// COPY AND DISPLAY
// =============================================================================

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Server.AllowedOrigins != nil {
		clone.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	}
	return &clone
}

// Redacted returns a copy with the API key replaced by a placeholder.
func (c *Config) Redacted() *Config {
	safe := c.Clone()
	if safe.LLM.APIKey != "" {
		safe.LLM.APIKey = "[REDACTED]"
	}
	return safe
}

// String returns the redacted config as indented JSON.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c.Redacted(), "", "  ")
	return string(data)
}
