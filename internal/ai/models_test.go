package ai

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"google.golang.org/api/googleapi"
)

func TestStripDataURL(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		wantPayload string
		wantHint    string
	}{
		{name: "bare base64", in: "aGVsbG8=", wantPayload: "aGVsbG8="},
		{name: "png data url", in: "data:image/png;base64,aGVsbG8=", wantPayload: "aGVsbG8=", wantHint: "image/png"},
		{name: "whitespace", in: "  data:image/jpeg;base64, aGVsbG8=  ", wantPayload: "aGVsbG8=", wantHint: "image/jpeg"},
		{name: "comma without data scheme", in: "meta,aGVsbG8=", wantPayload: "aGVsbG8="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, hint := StripDataURL(tt.in)
			if payload != tt.wantPayload || hint != tt.wantHint {
				t.Errorf("StripDataURL(%q) = (%q, %q), want (%q, %q)", tt.in, payload, hint, tt.wantPayload, tt.wantHint)
			}
		})
	}
}

func TestNewMedia(t *testing.T) {
	// 1x1 PNG header bytes are enough for sniffing.
	png := "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

	m, err := NewMedia(png)
	if err != nil {
		t.Fatalf("NewMedia: %v", err)
	}
	if m.MIMEType != "image/png" {
		t.Errorf("expected sniffed image/png, got %s", m.MIMEType)
	}

	m, err = NewMedia("data:image/webp;base64," + png)
	if err != nil {
		t.Fatalf("NewMedia: %v", err)
	}
	if m.MIMEType != "image/webp" || m.Data != png {
		t.Errorf("unexpected media %+v", m)
	}

	if _, err := NewMedia("   "); !errors.Is(err, ErrEmptyMedia) {
		t.Errorf("expected ErrEmptyMedia, got %v", err)
	}
	if _, err := NewMedia("not base64 !!"); err == nil {
		t.Error("expected decode error")
	}
}

func TestProviderConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ProviderConfig
		wantErr error
	}{
		{name: "ollama ok", cfg: ProviderConfig{Kind: KindOllama, BaseURL: "http://localhost:11434", Model: "llama3.2"}},
		{name: "empty model", cfg: ProviderConfig{Kind: KindOllama, BaseURL: "http://x", Model: " "}, wantErr: ErrEmptyModel},
		{name: "gemini without key", cfg: ProviderConfig{Kind: KindGemini, Model: "gemini-1.5-flash"}, wantErr: ErrMissingAPIKey},
		{name: "unknown kind", cfg: ProviderConfig{Kind: "openai", Model: "gpt"}, wantErr: ErrUnknownKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestClassifyGeminiError(t *testing.T) {
	err := classifyGeminiError("gemini:test", &googleapi.Error{Code: http.StatusNotFound, Message: "models/foo is not found"})
	f := Classify(err)
	if f.Kind != FailureModelUnavailable || f.Status != http.StatusNotFound {
		t.Errorf("expected model unavailable 404, got %s %d", f.Kind, f.Status)
	}

	err = classifyGeminiError("gemini:test", &googleapi.Error{Code: http.StatusTooManyRequests})
	if f := Classify(err); f.Kind != FailureStatus {
		t.Errorf("expected status failure, got %s", f.Kind)
	}

	err = classifyGeminiError("gemini:test", context.DeadlineExceeded)
	if f := Classify(err); f.Kind != FailureTransport {
		t.Errorf("expected transport failure, got %s", f.Kind)
	}
}
