package ai

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Kind selects a Generator implementation.
type Kind string

const (
	KindOllama Kind = "ollama"
	KindGemini Kind = "gemini"
)

// DefaultTimeout bounds a single provider call when the config leaves it unset.
const DefaultTimeout = 120 * time.Second

var (
	ErrEmptyModel    = errors.New("model name is required")
	ErrMissingAPIKey = errors.New("api key is required")
	ErrUnknownKind   = errors.New("unknown provider kind")
	ErrEmptyMedia    = errors.New("media payload is empty")
)

// ProviderConfig captures everything needed to reach one model.
type ProviderConfig struct {
	Kind    Kind
	BaseURL string
	Model   string
	APIKey  string

	// Generation parameters.
	Temperature float64
	TopP        float64
	MaxTokens   int

	// Timeout bounds the outbound call. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Validate performs the minimal checks a provider needs before it can be built.
func (c ProviderConfig) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return ErrEmptyModel
	}
	switch c.Kind {
	case KindOllama:
		if strings.TrimSpace(c.BaseURL) == "" {
			return fmt.Errorf("ollama: base url is required")
		}
	case KindGemini:
		if strings.TrimSpace(c.APIKey) == "" {
			return ErrMissingAPIKey
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, c.Kind)
	}
	return nil
}

func (c ProviderConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// Media is an inline image for vision-capable requests. Data is plain base64
// with any data-URL prefix already removed.
type Media struct {
	Data     string
	MIMEType string
}

// NewMedia accepts either a data URL ("data:image/png;base64,...") or bare
// base64 and returns validated Media. The MIME type comes from the data-URL
// prefix when present, otherwise it is sniffed from the decoded bytes.
func NewMedia(imageData string) (*Media, error) {
	payload, hint := StripDataURL(imageData)
	if payload == "" {
		return nil, ErrEmptyMedia
	}
	raw, err := decodeBase64(payload)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return &Media{Data: payload, MIMEType: PickMIME(hint, raw)}, nil
}

// Bytes returns the decoded payload.
func (m *Media) Bytes() ([]byte, error) {
	if m == nil || m.Data == "" {
		return nil, ErrEmptyMedia
	}
	return decodeBase64(m.Data)
}

// StripDataURL removes a "data:<mime>;base64," prefix and returns the payload
// together with the MIME hint from the prefix. Input without a comma is
// returned unchanged.
func StripDataURL(s string) (payload, mimeHint string) {
	s = strings.TrimSpace(s)
	idx := strings.IndexByte(s, ',')
	if idx < 0 {
		return s, ""
	}
	meta := s[:idx]
	if strings.HasPrefix(meta, "data:") {
		meta = strings.TrimPrefix(meta, "data:")
		if semi := strings.IndexByte(meta, ';'); semi >= 0 {
			meta = meta[:semi]
		}
		mimeHint = meta
	}
	return strings.TrimSpace(s[idx+1:]), mimeHint
}

// PickMIME prefers the hint, then sniffs the bytes, then falls back to JPEG.
func PickMIME(hint string, data []byte) string {
	if h := strings.TrimSpace(hint); strings.HasPrefix(h, "image/") {
		return h
	}
	if len(data) > 0 {
		if sniffed := http.DetectContentType(data); strings.HasPrefix(sniffed, "image/") {
			return sniffed
		}
	}
	return "image/jpeg"
}

func decodeBase64(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.URLEncoding.DecodeString(s)
}
