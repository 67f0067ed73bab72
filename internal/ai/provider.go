// MovieApp - AI-Assisted Movie Recommendations
// Copyright 2026 P. Mahajan (pmahajan3105)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahajan3105/movieapp-sub009

// Package ai is the text-completion collaborator, an OpenAI-compatible
// chat-completions client. The recommendation engine treats its output as
// untrusted text; extraction and validation of candidate titles happen
// downstream.
package ai

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/pmahajan3105/movieapp-sub009/internal/metrics"
)

// Config holds AI provider settings.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.openai.com/v1".
	BaseURL string `koanf:"base_url"`

	// APIKey authenticates requests as a bearer token.
	APIKey string `koanf:"api_key"`

	// Model is the chat model identifier.
	Model string `koanf:"model"`

	// Timeout bounds a single completion request. Default: 60s.
	Timeout time.Duration `koanf:"timeout"`

	// Temperature controls sampling randomness. Default: 0.7.
	Temperature float64 `koanf:"temperature"`

	// MaxTokens caps the completion length. Default: 1024.
	MaxTokens int `koanf:"max_tokens"`

	// RequestsPerSecond is the client-side rate limit. Default: 2.
	RequestsPerSecond float64 `koanf:"requests_per_second"`

	// Burst is the rate limiter burst size. Default: 4.
	Burst int `koanf:"burst"`
}

// Provider calls an OpenAI-compatible chat-completions endpoint. Implements
// recommend.Completer.
type Provider struct {
	cfg     Config
	httpc   *http.Client
	limiter *rate.Limiter
}

// NewProvider creates an AI completion provider.
func NewProvider(cfg Config) *Provider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 4
	}
	return &Provider{
		cfg:     cfg,
		httpc:   &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends the prompt and returns the raw completion text. The system
// context, when non-empty, is sent as a separate system message.
func (p *Provider) Complete(ctx context.Context, prompt, context_ string) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("ai rate limit: %w", err)
	}

	start := time.Now()
	text, err := p.complete(ctx, prompt, context_)
	metrics.AIRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AIRequestErrors.Inc()
		return "", err
	}
	return text, nil
}

func (p *Provider) complete(ctx context.Context, prompt, context_ string) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if context_ != "" {
		messages = append(messages, chatMessage{Role: "system", Content: context_})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(chatRequest{
		Model:       p.cfg.Model,
		Messages:    messages,
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encode ai request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build ai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai completion: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode ai response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("ai completion: %s (%s)", parsed.Error.Message, parsed.Error.Type)
		}
		return "", fmt.Errorf("ai completion: unexpected status %d", resp.StatusCode)
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("ai completion: no choices returned")
	}
	return parsed.Choices[0].Message.Content, nil
}
