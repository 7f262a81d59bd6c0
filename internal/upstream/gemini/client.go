// Package gemini streams completions from a Gemini-style generative API and
// re-frames them as OpenAI chat deltas.
package gemini

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"chatrelay-go/internal/config"
	"chatrelay-go/internal/conversation"
	"chatrelay-go/internal/upstream"

	"golang.org/x/oauth2"
)

const providerName = "gemini"

type Client struct {
	baseURL string
	apiKey  string
	cli     *http.Client
}

// New builds a client on top of base. When no API key is configured but a
// bearer token is, requests are authorized through an oauth2 transport.
func New(cfg config.GeminiConfig, base *http.Client) *Client {
	if base == nil {
		base = http.DefaultClient
	}
	cli := base
	if cfg.APIKey == "" && cfg.BearerToken != "" {
		rt := base.Transport
		if rt == nil {
			rt = http.DefaultTransport
		}
		cli = &http.Client{
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.BearerToken, TokenType: "Bearer"}),
				Base:   rt,
			},
			Timeout: base.Timeout,
		}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultGeminiBaseURL
	}
	return &Client{baseURL: baseURL, apiKey: cfg.APIKey, cli: cli}
}

func (c *Client) Name() string { return providerName }

func (c *Client) Open(ctx context.Context, model string, turns []conversation.Turn) (upstream.Stream, error) {
	payload, err := BuildRequest(turns)
	if err != nil {
		return nil, fmt.Errorf("build gemini request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, StreamURL(c.baseURL, model), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	c.applyHeaders(req)
	resp, err := upstream.Send(c.cli, providerName, model, req)
	if err != nil {
		return nil, err
	}
	return newStream(resp.Body), nil
}

func (c *Client) applyHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		req.Header.Set("x-goog-api-key", c.apiKey)
	}
	gv := strings.TrimPrefix(runtime.Version(), "go")
	if gv == "" {
		gv = "unknown"
	}
	req.Header.Set("X-Goog-Api-Client", "gl-go/"+gv)
}
