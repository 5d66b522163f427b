package auth

import (
	"strings"
	"testing"
)

func TestGenerateAPIToken(t *testing.T) {
	t.Parallel()

	tok, err := GenerateAPIToken()
	if err != nil {
		t.Fatalf("GenerateAPIToken failed: %v", err)
	}

	if len(tok.Plaintext) != TokenBytes*2 {
		t.Errorf("Token should be %d chars, got: %d", TokenBytes*2, len(tok.Plaintext))
	}
	if strings.Trim(tok.Plaintext, "0123456789abcdef") != "" {
		t.Errorf("Token should be lowercase hex, got: %s", tok.Plaintext)
	}
	if tok.Hash != HashToken(tok.Plaintext) {
		t.Error("Hash should be the digest of the plaintext")
	}
}

func TestGenerateAPIToken_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		tok, err := GenerateAPIToken()
		if err != nil {
			t.Fatalf("GenerateAPIToken failed: %v", err)
		}
		if seen[tok.Plaintext] {
			t.Fatal("duplicate token generated")
		}
		seen[tok.Plaintext] = true
	}
}

func TestNormalizeToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"plain", "fake-token", "fake-token", false},
		{"trimmed", "  abc123  ", "abc123", false},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
		{"inner space", "abc 123", "", true},
		{"control char", "abc\x00", "", true},
		{"too long", strings.Repeat("a", MaxTokenLength+1), "", true},
		{"max length", strings.Repeat("a", MaxTokenLength), strings.Repeat("a", MaxTokenLength), false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizeToken(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeToken(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeToken(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
