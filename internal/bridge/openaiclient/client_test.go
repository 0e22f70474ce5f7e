// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package openaiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlpilot/cli/internal/bridge/model"
	errs "sqlpilot/cli/internal/errors"
)

func request(stream bool) model.Request {
	return model.Request{
		Model:  "deepseek-reasoner",
		Stream: stream,
		Messages: []model.Message{
			{Role: model.RoleSystem, Content: "system"},
			{Role: model.RoleUser, Content: "count orders"},
		},
		Params: model.Params{Temperature: 0.7, MaxTokens: 2000, TopP: 0.9},
	}
}

func sseChunk(reasoning, content string) string {
	return sseChoice(reasoning, content, "")
}

// sseStop is the final chunk of a well-formed stream.
func sseStop() string {
	return sseChoice("", "", "stop")
}

func sseChoice(reasoning, content, finish string) string {
	delta := map[string]any{}
	if reasoning != "" {
		delta["reasoning_content"] = reasoning
	}
	if content != "" {
		delta["content"] = content
	}
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion.chunk",
		"created": 1,
		"model":   "deepseek-reasoner",
		"choices": []map[string]any{{"index": 0, "delta": delta, "finish_reason": finishReason(finish)}},
	})
	return fmt.Sprintf("data: %s\n\n", b)
}

func finishReason(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1", Timeout: 5 * time.Second})
}

func TestStreamSplitsChannels(t *testing.T) {
	var got map[string]any
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range []string{
			sseChunk("a", ""),
			sseChunk("b", ""),
			sseChunk("", ""),
			sseChunk("", "SELECT "),
			sseChunk("", "1"),
			sseStop(),
		} {
			_, _ = io.WriteString(w, chunk)
		}
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	})

	s, err := c.Stream(context.Background(), request(true))
	require.NoError(t, err)
	defer s.Close()

	var frags []model.Fragment
	for {
		f, err := s.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		frags = append(frags, f)
	}

	assert.Equal(t, []model.Fragment{
		{Reasoning: "a"},
		{Reasoning: "b"},
		{Content: "SELECT "},
		{Content: "1"},
	}, frags)
	assert.Equal(t, true, got["stream"])
	assert.Equal(t, "deepseek-reasoner", got["model"])
	assert.EqualValues(t, 2000, got["max_tokens"])
}

func TestZeroSamplingParamsAreSent(t *testing.T) {
	var body map[string]any
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"SELECT 1;"}}]}`)
	})

	req := request(false)
	req.Params.Temperature = 0
	req.Params.TopP = 0
	_, err := c.Complete(context.Background(), req)
	require.NoError(t, err)

	require.Contains(t, body, "temperature")
	require.Contains(t, body, "top_p")
	assert.InDelta(t, 0, body["temperature"], 1e-30)
	assert.InDelta(t, 0, body["top_p"], 1e-30)
}

func TestStalledStreamTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, sseChunk("", "SELECT"))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)
	c := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1", Timeout: 200 * time.Millisecond})

	s, err := c.Stream(context.Background(), request(true))
	require.NoError(t, err)
	defer s.Close()

	f, err := s.Recv()
	require.NoError(t, err)
	assert.Equal(t, "SELECT", f.Content)

	start := time.Now()
	_, err = s.Recv()
	assert.True(t, errs.Is(err, errs.Timeout), "got %v", err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestStreamWithoutFinishReasonIsAnError(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, sseChunk("", "SELECT"))
	})

	s, err := c.Stream(context.Background(), request(true))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Recv()
	require.NoError(t, err)
	_, err = s.Recv()
	require.Error(t, err)
	assert.False(t, errors.Is(err, io.EOF))
	assert.True(t, errs.Is(err, errs.Transport), "got %v", err)
	assert.Contains(t, err.Error(), "stream ended early")
}

func TestCompleteReturnsBothFields(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-2",
			"object": "chat.completion",
			"model":  "deepseek-reasoner",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":              "assistant",
					"content":           "SELECT 1;",
					"reasoning_content": "trivial",
				},
			}},
		})
	})

	resp, err := c.Complete(context.Background(), request(false))
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1;", resp.Content)
	assert.Equal(t, "trivial", resp.Reasoning)
}

func TestErrorsAreClassified(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   errs.Kind
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, want: errs.Auth},
		{name: "server error", status: http.StatusBadGateway, want: errs.Transport},
		{name: "gateway timeout", status: http.StatusGatewayTimeout, want: errs.Timeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"error":{"message":"nope","type":"invalid_request_error"}}`)
			})

			_, err := c.Stream(context.Background(), request(true))
			require.Error(t, err)
			kind, ok := errs.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.want, kind)

			_, err = c.Complete(context.Background(), request(false))
			assert.True(t, errs.Is(err, tt.want), "complete: %v", err)
		})
	}
}

func TestCanceledContext(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Complete(ctx, request(false))
	assert.True(t, errs.Is(err, errs.Canceled), "got %v", err)
}

func TestInvalidRequestIsRejectedLocally(t *testing.T) {
	c := New(Config{APIKey: "sk-test", BaseURL: "http://127.0.0.1:1"})
	_, err := c.Stream(context.Background(), model.Request{Model: "m"})
	assert.True(t, errs.Is(err, errs.Transport))
}
