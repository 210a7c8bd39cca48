// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "sk-test-abcdefghijklmnopqrstuvwxyz0123456789"

const okBody = `{
	"id": "chatcmpl-1",
	"model": "gpt-4o-mini",
	"choices": [{
		"message": {"role": "assistant", "content": "# Project Plan"},
		"finish_reason": "stop"
	}],
	"usage": {"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30}
}`

func newTestClient(url string) *Client {
	return NewClient(Config{
		APIKey:      testKey,
		BaseURL:     url,
		Temperature: 0.7,
		MaxTokens:   2000,
		RetryDelay:  time.Millisecond,
	})
}

func TestGenerate_Success(t *testing.T) {
	var got ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer "+testKey, r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, okBody)
	}))
	defer server.Close()

	text, err := newTestClient(server.URL + "/").Generate(context.Background(), "Plan this project")
	require.NoError(t, err)

	assert.Equal(t, "# Project Plan", text)
	assert.Equal(t, DefaultModel, got.Model)
	assert.False(t, got.Stream)
	assert.Equal(t, 2000, got.MaxTokens)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.7, *got.Temperature, 1e-9)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "Plan this project", got.Messages[0].Content)
}

func TestGenerate_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"x","choices":[]}`)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Generate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestChat_NotConfigured(t *testing.T) {
	_, err := NewClient(Config{}).Chat(context.Background(), []ChatMessage{NewUserMessage("x")})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestChat_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", 401, `{"error":{"message":"Incorrect API key"}}`, ErrAuthFailed},
		{"unauthorized plain", 401, `nope`, ErrAuthFailed},
		{"quota", 429, `{"error":{"code":"insufficient_quota","message":"You exceeded your quota"}}`, ErrInsufficientCredits},
		{"payment", 402, ``, ErrInsufficientCredits},
		{"model", 404, `{"error":{"code":"model_not_found","message":"no such model"}}`, ErrModelNotFound},
		{"bad request", 400, `{"error":{"type":"invalid_request_error","message":"max_tokens too large"}}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).Chat(context.Background(), []ChatMessage{NewUserMessage("x")})
			require.Error(t, err)
			assert.Equal(t, int32(1), calls.Load(), "non-retryable errors are not retried")

			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, 400, apiErr.Status)
			assert.Equal(t, "invalid_request_error", apiErr.Code)
			assert.Contains(t, apiErr.Error(), "max_tokens too large")
		})
	}
}

func TestChat_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error":{"message":"slow down"}}`)
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			fmt.Fprint(w, okBody)
		}
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).Chat(context.Background(), []ChatMessage{NewUserMessage("x")})
	require.NoError(t, err)
	assert.Equal(t, "# Project Plan", resp.GetContent())
	assert.Equal(t, 30, resp.Usage.TotalTokens)
	assert.Equal(t, int32(3), calls.Load())
}

func TestChat_MaxRetriesExceeded(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "overloaded")
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Chat(context.Background(), []ChatMessage{NewUserMessage("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, "overloaded", apiErr.Message)
	assert.Equal(t, int32(DefaultMaxRetries), calls.Load())
}

func TestChat_ContextCanceledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: testKey, BaseURL: server.URL, RetryDelay: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Chat(ctx, []ChatMessage{NewUserMessage("x")})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGenerate_Concurrent(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, okBody)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Generate(context.Background(), "x")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(20), calls.Load())
}

func TestCalculateBackoff(t *testing.T) {
	c := NewClient(Config{})
	assert.Equal(t, retryBaseDelay, c.calculateBackoff(1))
	assert.Equal(t, 2*retryBaseDelay, c.calculateBackoff(2))
	assert.Equal(t, retryMaxDelay, c.calculateBackoff(20))
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "[not set]", MaskKey(""))
	assert.Equal(t, "[not set]", MaskKey("   "))

	masked := MaskKey(testKey)
	assert.NotContains(t, masked, "abcdef")
	assert.True(t, strings.HasPrefix(masked, "[REDACTED, length=44"))
	assert.Equal(t, masked, MaskKey(" "+testKey+" "))
	assert.Len(t, fingerprint(testKey), 8)
	assert.Equal(t, "none", fingerprint(""))
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{APIKey: "  " + testKey + "  "})
	assert.Equal(t, DefaultModel, c.model)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, DefaultMaxRetries, c.maxRetries)
	assert.True(t, c.IsConfigured())
	assert.Equal(t, testKey, c.apiKey)
}
