package validation

import (
	"errors"
	"strings"
	"testing"
)

type samplePayload struct {
	LongURL string  `json:"long_url" validate:"required,notblank,http_url"`
	Alias   *string `json:"custom_back_half,omitempty" validate:"omitempty,max=32,alias"`
}

func strPtr(s string) *string { return &s }

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		payload samplePayload
		wantErr bool
	}{
		{"valid without alias", samplePayload{LongURL: "https://example.com"}, false},
		{"valid with alias", samplePayload{LongURL: "https://example.com", Alias: strPtr("promo_2024-x")}, false},
		{"missing url", samplePayload{}, true},
		{"blank url", samplePayload{LongURL: "   "}, true},
		{"ftp url", samplePayload{LongURL: "ftp://example.com"}, true},
		{"empty alias", samplePayload{LongURL: "https://example.com", Alias: strPtr("")}, false},
		{"alias with slash", samplePayload{LongURL: "https://example.com", Alias: strPtr("a/b")}, true},
		{"alias with space", samplePayload{LongURL: "https://example.com", Alias: strPtr("a b")}, true},
		{"alias too long", samplePayload{LongURL: "https://example.com", Alias: strPtr("abcdefghijklmnopqrstuvwxyz0123456789")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.payload)
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestFirstMessage(t *testing.T) {
	err := Validate(samplePayload{LongURL: "not a url"})
	msg, ok := FirstMessage(err)
	if !ok {
		t.Fatal("expected validation message")
	}
	if msg != "long_url must be a valid http or https url" {
		t.Errorf("got %q", msg)
	}

	if _, ok := FirstMessage(errors.New("boom")); ok {
		t.Error("expected ok=false for non-validation error")
	}
}

type passwordPayload struct {
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
}

func TestMaxBytes(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"ascii at limit", strings.Repeat("a", 72), false},
		{"ascii over limit", strings.Repeat("a", 73), true},
		{"multibyte within rune count", strings.Repeat("é", 40), true},
		{"multibyte at limit", strings.Repeat("é", 36), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(passwordPayload{Password: tt.password})
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}

	msg, _ := FirstMessage(Validate(passwordPayload{Password: strings.Repeat("é", 40)}))
	if msg != "password must be at most 72 bytes" {
		t.Errorf("got %q", msg)
	}
}
