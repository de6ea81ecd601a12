package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	openRouterJSONObject     = "json_object"
)

// openRouterConfig configures an openrouter instance. It only serves the
// reranker role, so JSON output is requested unless disabled.
type openRouterConfig struct {
	APIKey          string   `json:"api_key"`
	BaseURL         string   `json:"base_url"`
	Referer         string   `json:"http_referer"`
	Title           string   `json:"x_title"`
	Temperature     *float64 `json:"temperature"`
	DisableJSONMode bool     `json:"disable_json_mode"`
}

type openRouterReranker struct {
	apiKey      string
	baseURL     string
	referer     string
	title       string
	temperature *float64
	jsonMode    bool
}

type openRouterFormat struct {
	Type string `json:"type"`
}

type openRouterCompletion struct {
	Model          string            `json:"model"`
	Messages       []openRouterTurn  `json:"messages"`
	Temperature    *float64          `json:"temperature,omitempty"`
	ResponseFormat *openRouterFormat `json:"response_format,omitempty"`
}

type openRouterTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterReply struct {
	Choices []struct {
		Message openRouterTurn `json:"message"`
	} `json:"choices"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *openRouterReranker) Name() string {
	return "openrouter"
}

// Generate sends the prompt as a single user turn and returns the first
// choice. Upstream errors reported inside a 200 body are surfaced as errors.
func (p *openRouterReranker) Generate(ctx context.Context, model string, prompt string) (string, error) {
	if p.apiKey == "" {
		return "", ErrUnavailable
	}
	body := openRouterCompletion{
		Model:       model,
		Messages:    []openRouterTurn{{Role: "user", Content: prompt}},
		Temperature: p.temperature,
	}
	if p.jsonMode {
		body.ResponseFormat = &openRouterFormat{Type: openRouterJSONObject}
	}
	reply, err := p.complete(ctx, body)
	if err != nil {
		return "", err
	}
	if reply.Error != nil {
		return "", fmt.Errorf("openrouter error %d: %s", reply.Error.Code, reply.Error.Message)
	}
	if len(reply.Choices) == 0 {
		return "", fmt.Errorf("openrouter response has no choices")
	}
	return strings.TrimSpace(reply.Choices[0].Message.Content), nil
}

func (p *openRouterReranker) complete(ctx context.Context, body openRouterCompletion) (*openRouterReply, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	endpoint := strings.TrimRight(p.baseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if p.referer != "" {
		req.Header.Set("HTTP-Referer", p.referer)
	}
	if p.title != "" {
		req.Header.Set("X-Title", p.title)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("openrouter request failed: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	reply := &openRouterReply{}
	if err := json.NewDecoder(resp.Body).Decode(reply); err != nil {
		return nil, fmt.Errorf("decode openrouter response: %w", err)
	}
	return reply, nil
}

// Embed is not offered; configure openrouter only under ai.reranker.
func (p *openRouterReranker) Embed(ctx context.Context, model string, texts []string, opts EmbedOptions) ([][]float32, error) {
	return nil, ErrUnavailable
}

func createOpenRouterFactory(args interface{}) (IProvider, error) {
	cfg := &openRouterConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	temperature := cfg.Temperature
	if temperature == nil {
		zero := 0.0
		temperature = &zero
	}
	return &openRouterReranker{
		apiKey:      strings.TrimSpace(cfg.APIKey),
		baseURL:     baseURL,
		referer:     strings.TrimSpace(cfg.Referer),
		title:       strings.TrimSpace(cfg.Title),
		temperature: temperature,
		jsonMode:    !cfg.DisableJSONMode,
	}, nil
}

func init() {
	Register("openrouter", createOpenRouterFactory)
}
