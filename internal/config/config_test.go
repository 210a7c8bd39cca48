// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable ApplyEnvOverrides reads for the test's duration.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "HOST", "PORT", "DEBUG", "FRONTEND_URL", "ALLOWED_ORIGINS",
		"PLANFORGE_PROVIDER", "PLANFORGE_MODEL", "PLANFORGE_BASE_URL", "PLANFORGE_OLLAMA_URL",
		"PLANFORGE_DB", "PLANFORGE_POLICY", "PLANFORGE_LOG_LEVEL", "PLANFORGE_LOG_FORMAT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000", "http://localhost:3001"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.ActiveModel())
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 2000, cfg.LLM.MaxTokens)
	assert.Equal(t, "cascade", cfg.Pipeline.Policy)
	assert.True(t, strings.HasSuffix(cfg.Storage.Path, "planforge.db"))
}

func TestValidate_RequiresAPIKeyForOpenAI(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.ValidateSettings(), "loading without a key is allowed")

	err := cfg.Validate()
	require.Error(t, err)
	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, "llm.api_key", verrs[0].Field)

	cfg.LLM.APIKey = "sk-test"
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.LLM.Provider = ProviderOllama
	assert.NoError(t, cfg.Validate(), "ollama needs no key")
	assert.Equal(t, "llama3.1:8b", cfg.LLM.ActiveModel())
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKey = "sk-test"
	cfg.Server.Port = 0
	cfg.LLM.Temperature = 3
	cfg.Pipeline.Policy = "retry"
	cfg.Log.Format = "xml"
	cfg.Server.AllowedOrigins = []string{"ftp://example.com"}

	err := cfg.Validate()
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	fields := make([]string, len(verrs))
	for i, v := range verrs {
		fields[i] = v.Field
	}
	assert.ElementsMatch(t, []string{
		"server.port", "server.allowed_origins", "llm.temperature", "pipeline.policy", "log.format",
	}, fields)
	assert.Contains(t, err.Error(), "pipeline.policy: invalid policy 'retry'")
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg := Default()
	cfg.LLM.Provider = "bard"
	err := cfg.validate(false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.provider")
}

func TestOrigins_IncludesFrontendOnce(t *testing.T) {
	s := ServerConfig{
		FrontendURL:    "https://app.example.com/",
		AllowedOrigins: []string{"http://localhost:3000", " https://app.example.com ", ""},
	}
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, s.Origins())
}

func TestApplyEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "9000")
	t.Setenv("DEBUG", "true")
	t.Setenv("FRONTEND_URL", "https://plans.example.com")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("PLANFORGE_PROVIDER", "OLLAMA")
	t.Setenv("PLANFORGE_MODEL", "qwen2.5:7b")
	t.Setenv("PLANFORGE_OLLAMA_URL", "http://gpu-box:11434")
	t.Setenv("PLANFORGE_DB", "/tmp/p.db")
	t.Setenv("PLANFORGE_POLICY", "short-circuit")
	t.Setenv("PLANFORGE_LOG_LEVEL", "debug")
	t.Setenv("PLANFORGE_LOG_FORMAT", "json")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "sk-env", cfg.LLM.APIKey)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr())
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, "https://plans.example.com", cfg.Server.FrontendURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "qwen2.5:7b", cfg.LLM.OllamaModel)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model, "model override follows the selected provider")
	assert.Equal(t, "http://gpu-box:11434", cfg.LLM.OllamaURL)
	assert.Equal(t, "/tmp/p.db", cfg.Storage.Path)
	assert.Equal(t, "short-circuit", cfg.Pipeline.Policy)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestApplyEnvOverrides_BadPortIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "eighty")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestSaveAndLoadTOML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.LLM.APIKey = "sk-saved"
	cfg.LLM.Model = "gpt-4o"
	cfg.Pipeline.VerifyTableRows = false
	cfg.Server.AllowedOrigins = []string{"https://only.example.com"}
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	if os.PathSeparator == '/' {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# planforge configuration file"))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-saved", loaded.LLM.APIKey)
	assert.Equal(t, "gpt-4o", loaded.LLM.Model)
	assert.False(t, loaded.Pipeline.VerifyTableRows)
	assert.Equal(t, []string{"https://only.example.com"}, loaded.Server.AllowedOrigins)
}

func TestLoadFromPath_BackfillsMissing(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[llm]\nmodel = \"gpt-4.1\"\n\n[server]\nport = 8080\n"), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4.1", cfg.LLM.Model)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 2000, cfg.LLM.MaxTokens)
	assert.True(t, cfg.Pipeline.VerifyTableRows)
	assert.Equal(t, "INFO", cfg.Log.Level)
}

func TestLoadFromPath_JSONAndEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PLANFORGE_MODEL", "gpt-4o")
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"llm":{"model":"gpt-4o-mini","temperature":0.2}}`), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-9)
}

func TestLoadFromPath_Invalid(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[llm\nmodel="), 0600))
	_, err := LoadFromPath(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.toml")
	require.NoError(t, os.WriteFile(invalid, []byte("[pipeline]\npolicy = \"sometimes\"\n"), 0600))
	_, err = LoadFromPath(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline.policy")

	_, err = LoadFromPath(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestLoadFromPath_FixesPermissions(t *testing.T) {
	if os.PathSeparator != '/' {
		t.Skip("permission bits are not enforced on this platform")
	}
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"warn\"\n"), 0644))

	_, err := LoadFromPath(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("llm.model", "gpt-4o"))
	require.NoError(t, cfg.Set("server.port", "9001"))
	require.NoError(t, cfg.Set("llm.temperature", "0.3"))
	require.NoError(t, cfg.Set("pipeline.verify_table_rows", "false"))
	require.NoError(t, cfg.Set("server.allowed_origins", "https://a.example.com,https://b.example.com"))
	require.NoError(t, cfg.Set("server.rate_limit_rps", 4.5))

	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 9001, cfg.Server.Port)
	assert.InDelta(t, 0.3, cfg.LLM.Temperature, 1e-9)
	assert.False(t, cfg.Pipeline.VerifyTableRows)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
	assert.InDelta(t, 4.5, cfg.Server.RateLimitRPS, 1e-9)

	v, err := cfg.Get("server.frontend_url")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", v)

	_, err = cfg.Get("llm.nope")
	assert.Error(t, err)
	_, err = cfg.Get("llm")
	assert.Error(t, err)
	_, err = cfg.Get("")
	assert.Error(t, err)
	assert.Error(t, cfg.Set("server.port", "eighty"))
}

func TestGetAllKeys_Resolve(t *testing.T) {
	cfg := Default()
	for _, key := range GetAllKeys() {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}
}

func TestStringRedactsAPIKey(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKey = "sk-very-secret"

	out := cfg.String()
	assert.NotContains(t, out, "sk-very-secret")
	assert.Contains(t, out, "[REDACTED]")
	assert.Equal(t, "sk-very-secret", cfg.LLM.APIKey, "original is untouched")
}

func TestClone_DeepCopiesOrigins(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.Server.AllowedOrigins[0] = "https://changed.example.com"
	assert.Equal(t, "http://localhost:3000", cfg.Server.AllowedOrigins[0])
}
