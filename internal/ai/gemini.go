package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
)

// GeminiProvider implements Generator using Google's Gemini models.
type GeminiProvider struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
}

// NewGeminiProvider initializes a new Gemini client.
// cfg.APIKey should come from the environment; cfg.BaseURL optionally
// overrides the API endpoint.
func NewGeminiProvider(ctx context.Context, cfg ProviderConfig) (*GeminiProvider, error) {
	cfg.Kind = KindGemini
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(float32(cfg.Temperature))
	if cfg.TopP > 0 {
		model.SetTopP(float32(cfg.TopP))
	}
	if cfg.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(cfg.MaxTokens))
	}

	return &GeminiProvider{
		client:    client,
		model:     model,
		modelName: cfg.Model,
	}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiProvider) Close() {
	p.client.Close()
}

func (p *GeminiProvider) Name() string { return "gemini:" + p.modelName }

// Generate sends the prompt, plus the image as an inline blob when present,
// and joins the text parts of the first candidate.
func (p *GeminiProvider) Generate(ctx context.Context, prompt string, media *Media) (string, error) {
	parts := []genai.Part{genai.Text(prompt)}
	if media != nil && media.Data != "" {
		data, err := media.Bytes()
		if err != nil {
			return "", fmt.Errorf("gemini: %w", err)
		}
		parts = append(parts, genai.Blob{MIMEType: media.MIMEType, Data: data})
	}

	resp, err := p.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", p.classifyError(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &MalformedResponseError{Provider: p.Name(), Err: errors.New("empty candidates")}
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	return text.String(), nil
}

// classifyError converts SDK errors into the package error taxonomy.
func (p *GeminiProvider) classifyError(err error) error {
	return classifyGeminiError(p.Name(), err)
}

func classifyGeminiError(provider string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &TransportError{Provider: provider, Err: err}
	}

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &MalformedResponseError{Provider: provider, Err: err}
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.HTTPCode()
		if code <= 0 && apiErr.GRPCStatus() != nil {
			code = httpCodeFromGRPC(apiErr.GRPCStatus().Code())
		}
		if code > 0 {
			return &StatusError{Provider: provider, Code: code, Body: truncate(apiErr.Error(), 300)}
		}
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return &StatusError{Provider: provider, Code: gErr.Code, Body: truncate(gErr.Message, 300)}
	}

	return &TransportError{Provider: provider, Err: err}
}

func httpCodeFromGRPC(c codes.Code) int {
	switch c {
	case codes.NotFound:
		return http.StatusNotFound
	case codes.InvalidArgument, codes.FailedPrecondition:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.OK:
		return 0
	default:
		return http.StatusInternalServerError
	}
}
