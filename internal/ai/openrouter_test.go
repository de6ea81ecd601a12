package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenRouterGenerateRequestsJSON(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.Equal(t, "https://medrag.local", r.Header.Get("HTTP-Referer"))
		require.Equal(t, "medrag", r.Header.Get("X-Title"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": " {\"results\": [{\"index\": 1, \"score\": 8}]} "}}]}`))
	}))
	defer server.Close()

	p, err := NewProvider("openrouter", map[string]interface{}{
		"api_key":      "key",
		"base_url":     server.URL,
		"http_referer": "https://medrag.local",
		"x_title":      "medrag",
	})
	require.NoError(t, err)
	out, err := p.Generate(context.Background(), "openai/gpt-4o-mini", "score these")
	require.NoError(t, err)
	require.Equal(t, `{"results": [{"index": 1, "score": 8}]}`, out)

	require.Equal(t, "openai/gpt-4o-mini", got["model"])
	require.Equal(t, map[string]interface{}{"type": "json_object"}, got["response_format"])
	require.Equal(t, 0.0, got["temperature"])
	msgs := got["messages"].([]interface{})
	require.Len(t, msgs, 1)
	require.Equal(t, "score these", msgs[0].(map[string]interface{})["content"])

	res := ParseRelevanceScores(out)
	require.Equal(t, RelevanceResultsKey, res.Shape)
}

func TestOpenRouterJSONModeCanBeDisabled(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "[]"}}]}`))
	}))
	defer server.Close()

	p, err := NewProvider("openrouter", map[string]interface{}{
		"api_key":           "key",
		"base_url":          server.URL,
		"temperature":       0.3,
		"disable_json_mode": true,
	})
	require.NoError(t, err)
	_, err = p.Generate(context.Background(), "m", "p")
	require.NoError(t, err)
	require.NotContains(t, got, "response_format")
	require.Equal(t, 0.3, got["temperature"])
}

func TestOpenRouterGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "http status", status: http.StatusTooManyRequests, body: `{"error": {"message": "rate limited"}}`},
		{name: "error in body", status: http.StatusOK, body: `{"error": {"code": 502, "message": "upstream down"}}`},
		{name: "no choices", status: http.StatusOK, body: `{"choices": []}`},
		{name: "bad json", status: http.StatusOK, body: `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p, err := NewProvider("openrouter", map[string]interface{}{"api_key": "key", "base_url": server.URL})
			require.NoError(t, err)
			_, err = p.Generate(context.Background(), "m", "p")
			require.Error(t, err)
		})
	}
}

func TestOpenRouterUnavailable(t *testing.T) {
	p, err := NewProvider("openrouter", map[string]interface{}{"api_key": " "})
	require.NoError(t, err)
	_, err = p.Generate(context.Background(), "m", "p")
	require.ErrorIs(t, err, ErrUnavailable)
	_, err = p.Embed(context.Background(), "m", []string{"a"}, EmbedOptions{})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestGeminiWithoutKeyIsUnavailable(t *testing.T) {
	p, err := NewProvider("gemini", map[string]interface{}{})
	require.NoError(t, err)
	require.Equal(t, "gemini", p.Name())
	_, err = p.Generate(context.Background(), "gemini-2.0-flash", "p")
	require.ErrorIs(t, err, ErrUnavailable)
	_, err = p.Embed(context.Background(), "gemini-embedding-001", []string{"a"}, EmbedOptions{Dimensions: 8})
	require.ErrorIs(t, err, ErrUnavailable)
}
