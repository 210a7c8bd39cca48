// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestNewClientWithConfig_Defaults(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{BaseURL: "http://localhost:11434/"})
	cfg := client.config

	if cfg.BaseURL != "http://localhost:11434" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.BaseURL)
	}
	if cfg.Timeout != defaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, defaultTimeout)
	}
	if client.GetDefaultModel() != defaultModel {
		t.Errorf("DefaultModel = %q, want %q", client.GetDefaultModel(), defaultModel)
	}
}

func TestNewClientWithConfig_Nil(t *testing.T) {
	client := NewClientWithConfig(nil)
	if client.config.BaseURL != defaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", client.config.BaseURL, defaultBaseURL)
	}
}

// =============================================================================
// GENERATE TESTS
// =============================================================================

func TestGenerate_Success(t *testing.T) {
	var got GenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %q, want /api/generate", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(GenerateResponse{
			Model:        got.Model,
			Response:     "# Project Plan",
			Done:         true,
			EvalCount:    50,
			EvalDuration: int64(time.Second),
		})
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{
		BaseURL:      server.URL,
		DefaultModel: "llama3.1:8b",
		Options:      &Options{Temperature: 0.7, NumPredict: 2000},
	})

	text, err := client.Generate(context.Background(), "Plan this")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "# Project Plan" {
		t.Errorf("text = %q, want %q", text, "# Project Plan")
	}
	if got.Model != "llama3.1:8b" || got.Prompt != "Plan this" || got.Stream {
		t.Errorf("request = %+v", got)
	}
	if got.Options == nil || got.Options.NumPredict != 2000 {
		t.Errorf("options not sent: %+v", got.Options)
	}
}

func TestGenerateWithRequest_Metrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(GenerateResponse{
			Response:      "ok",
			EvalCount:     100,
			EvalDuration:  int64(2 * time.Second),
			TotalDuration: int64(3 * time.Second),
		})
	}))
	defer server.Close()

	resp, err := NewClientWithConfig(&ClientConfig{BaseURL: server.URL}).
		GenerateWithRequest(context.Background(), GenerateRequest{Model: "other", Prompt: "x"})
	if err != nil {
		t.Fatalf("GenerateWithRequest() error = %v", err)
	}
	if tps := resp.TokensPerSecond(); tps != 50 {
		t.Errorf("TokensPerSecond() = %v, want 50", tps)
	}
	if resp.TotalTime() != 3*time.Second {
		t.Errorf("TotalTime() = %v, want 3s", resp.TotalTime())
	}
}

func TestGenerate_ModelNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewClientWithConfig(&ClientConfig{BaseURL: server.URL}).Generate(context.Background(), "x")
	if !IsModelNotFound(err) {
		t.Errorf("IsModelNotFound(%v) = false, want true", err)
	}
}

func TestGenerate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(OllamaError{Error: "input exceeds the model context length"})
	}))
	defer server.Close()

	_, err := NewClientWithConfig(&ClientConfig{BaseURL: server.URL}).Generate(context.Background(), "x")
	if !errors.Is(err, ErrContextExceeded) {
		t.Errorf("err = %v, want ErrContextExceeded", err)
	}
	if err.Error() != "input exceeds the model context length" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestGenerate_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := NewClientWithConfig(&ClientConfig{BaseURL: server.URL}).Generate(context.Background(), "x")
	var clientErr *ClientError
	if !errors.As(err, &clientErr) || clientErr.Type != ErrTypeInvalidResponse {
		t.Errorf("err = %v, want ErrTypeInvalidResponse", err)
	}
}

func TestGenerate_NotRunning(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClientWithConfig(&ClientConfig{BaseURL: url}).Generate(context.Background(), "x")
	if !IsNotRunning(err) {
		t.Errorf("IsNotRunning(%v) = false, want true", err)
	}
}

func TestGenerate_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	_, err := client.Generate(context.Background(), "x")
	if !IsTimeout(err) {
		t.Errorf("IsTimeout(%v) = false, want true", err)
	}
}

// =============================================================================
// HEALTH AND MODEL TESTS
// =============================================================================

func TestCheckRunning(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Ollama is running"))
	}))
	defer server.Close()

	if err := NewClientWithConfig(&ClientConfig{BaseURL: server.URL}).CheckRunning(context.Background()); err != nil {
		t.Errorf("CheckRunning() error = %v", err)
	}
}

func TestListModelsAndModelExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %q, want /api/tags", r.URL.Path)
		}
		json.NewEncoder(w).Encode(ListModelsResponse{Models: []ModelInfo{
			{Name: "llama3.1:latest", Size: 4 * 1024 * 1024 * 1024},
			{Name: "qwen2.5:7b", Size: 512 * 1024},
		}})
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("len(models) = %d, want 2", len(models))
	}
	if size := models[0].FormatSize(); size != "4.0 GB" {
		t.Errorf("FormatSize() = %q, want 4.0 GB", size)
	}
	if size := models[1].FormatSize(); size != "512.0 KB" {
		t.Errorf("FormatSize() = %q, want 512.0 KB", size)
	}

	for model, want := range map[string]bool{"llama3.1": true, "qwen2.5:7b": true, "mistral": false} {
		got, err := client.ModelExists(context.Background(), model)
		if err != nil {
			t.Fatalf("ModelExists(%q) error = %v", model, err)
		}
		if got != want {
			t.Errorf("ModelExists(%q) = %v, want %v", model, got, want)
		}
	}
}

func TestClientError(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := &ClientError{Type: ErrTypeNotRunning, Message: "Ollama is not running", Cause: cause}

	if err.Error() != "Ollama is not running: dial tcp: refused" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	if !errors.Is(err, ErrNotRunning) {
		t.Error("errors.Is(err, ErrNotRunning) = false")
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("errors.Is(err, ErrTimeout) = true")
	}
}
