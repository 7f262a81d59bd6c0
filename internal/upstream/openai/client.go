// Package openai forwards completions from an OpenAI-compatible endpoint.
// The upstream SSE body is already in the client's format and is relayed
// byte for byte.
package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"chatrelay-go/internal/config"
	"chatrelay-go/internal/constants"
	"chatrelay-go/internal/conversation"
	"chatrelay-go/internal/streaming"
	"chatrelay-go/internal/upstream"

	"github.com/tidwall/sjson"
)

const providerName = "openai"

type Client struct {
	baseURL     string
	apiKey      string
	maxTokens   int
	temperature float64
	cli         *http.Client
}

func New(cfg config.OpenAIConfig, cli *http.Client) *Client {
	if cli == nil {
		cli = http.DefaultClient
	}
	c := &Client{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		cli:         cli,
	}
	if c.baseURL == "" {
		c.baseURL = config.DefaultOpenAIBaseURL
	}
	if c.maxTokens <= 0 {
		c.maxTokens = constants.DefaultMaxTokens
	}
	return c
}

func (c *Client) Name() string { return providerName }

// BuildRequest 构造 chat/completions 请求体，始终开启 stream。
func (c *Client) BuildRequest(model string, turns []conversation.Turn) ([]byte, error) {
	body := []byte(`{"messages":[]}`)
	var err error
	if body, err = sjson.SetBytes(body, "model", model); err != nil {
		return nil, err
	}
	for _, t := range turns {
		msg := map[string]string{"role": string(t.Role), "content": t.Content}
		if body, err = sjson.SetBytes(body, "messages.-1", msg); err != nil {
			return nil, err
		}
	}
	if body, err = sjson.SetBytes(body, "max_tokens", c.maxTokens); err != nil {
		return nil, err
	}
	if body, err = sjson.SetBytes(body, "temperature", c.temperature); err != nil {
		return nil, err
	}
	return sjson.SetBytes(body, "stream", true)
}

func (c *Client) Open(ctx context.Context, model string, turns []conversation.Turn) (upstream.Stream, error) {
	payload, err := c.BuildRequest(model, turns)
	if err != nil {
		return nil, fmt.Errorf("build openai request: %w", err)
	}
	url := strings.TrimRight(c.baseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := upstream.Send(c.cli, providerName, model, req)
	if err != nil {
		return nil, err
	}
	return &stream{body: resp.Body}, nil
}

type stream struct {
	body io.ReadCloser
}

// Relay copies the upstream body unchanged. The returned count is the
// number of complete events that passed through.
func (s *stream) Relay(w io.Writer, flush func()) (int, error) {
	cw := streaming.NewCountingWriter(w)
	_, err := streaming.Copy(cw, flush, s.body)
	return cw.Events, err
}

func (s *stream) Close() error { return s.body.Close() }
