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

// maxResponseBytes caps how much of a provider body is read into memory.
const maxResponseBytes = 4 << 20

// OllamaProvider implements Generator against a local Ollama server.
type OllamaProvider struct {
	endpoint string
	model    string
	options  generateOptions
	client   *http.Client
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Images  []string        `json:"images,omitempty"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	MaxTokens   int     `json:"max_tokens"`
}

type generateResponse struct {
	Model    string  `json:"model"`
	Response *string `json:"response"`
	Done     bool    `json:"done"`
	Error    string  `json:"error,omitempty"`
}

// NewOllamaProvider builds a provider for cfg.Model served at cfg.BaseURL.
func NewOllamaProvider(cfg ProviderConfig) (*OllamaProvider, error) {
	cfg.Kind = KindOllama
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &OllamaProvider{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/api/generate",
		model:    cfg.Model,
		options: generateOptions{
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
			MaxTokens:   cfg.MaxTokens,
		},
		client: &http.Client{Timeout: cfg.timeout()},
	}, nil
}

func (p *OllamaProvider) Name() string { return "ollama:" + p.model }

// Generate posts a non-streaming /api/generate request and returns the
// "response" field of the reply.
func (p *OllamaProvider) Generate(ctx context.Context, prompt string, media *Media) (string, error) {
	body := generateRequest{
		Model:   p.model,
		Prompt:  prompt,
		Stream:  false,
		Options: p.options,
	}
	if media != nil && media.Data != "" {
		body.Images = []string{media.Data}
	}

	reqBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", &TransportError{Provider: p.Name(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &TransportError{Provider: p.Name(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &TransportError{Provider: p.Name(), Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Provider: p.Name(), Code: resp.StatusCode, Body: truncate(strings.TrimSpace(string(raw)), 300)}
	}

	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return "", &MalformedResponseError{Provider: p.Name(), Err: err}
	}
	if gr.Error != "" {
		return "", &MalformedResponseError{Provider: p.Name(), Err: fmt.Errorf("api error: %s", gr.Error)}
	}
	if gr.Response == nil {
		return "", &MalformedResponseError{Provider: p.Name(), Err: fmt.Errorf("missing response field (raw: %s)", truncate(string(raw), 200))}
	}
	return *gr.Response, nil
}
