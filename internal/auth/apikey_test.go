package auth

import (
	"strings"
	"testing"
)

func TestGenerateAPIKey(t *testing.T) {
	key, hash, displayPrefix, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey() error: %v", err)
	}

	if !strings.HasPrefix(key, APIKeyPrefix+"_") {
		t.Errorf("key %q should start with %q", key, APIKeyPrefix+"_")
	}
	if len(displayPrefix) != DisplayPrefixLength {
		t.Errorf("display prefix length = %d, want %d", len(displayPrefix), DisplayPrefixLength)
	}
	if !strings.HasPrefix(key, displayPrefix) {
		t.Errorf("display prefix %q should be a prefix of the full key", displayPrefix)
	}
	if hash == key {
		t.Error("stored hash must not equal the raw key")
	}

	if !ValidateAPIKey(key, hash) {
		t.Error("ValidateAPIKey() should accept the key it was generated with")
	}
	if ValidateAPIKey(key+"x", hash) {
		t.Error("ValidateAPIKey() should reject a modified key")
	}
}

func TestGenerateAPIKeyUniqueness(t *testing.T) {
	a, _, _, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey() error: %v", err)
	}
	b, _, _, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey() error: %v", err)
	}
	if a == b {
		t.Error("two generated keys should not be identical")
	}
}

func TestExtractAPIKeyFromHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid", "Bearer evl_abc123", "evl_abc123", false},
		{"empty header", "", "", true},
		{"missing bearer", "evl_abc123", "", true},
		{"bearer only", "Bearer ", "", true},
		{"bearer with spaces", "Bearer   evl_abc123  ", "evl_abc123", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractAPIKeyFromHeader(tt.header)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractAPIKeyFromHeader(%q) error = %v, wantErr %v", tt.header, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractAPIKeyFromHeader(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if !CheckPassword("correct horse battery staple", hash) {
		t.Error("CheckPassword() should accept the original password")
	}
	if CheckPassword("wrong password", hash) {
		t.Error("CheckPassword() should reject a wrong password")
	}
}

func TestHashPasswordTooShort(t *testing.T) {
	if _, err := HashPassword("short"); err == nil {
		t.Error("HashPassword() should reject passwords below the minimum length")
	}
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}
	b, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}
	if a == "" || a == b {
		t.Error("tokens should be non-empty and unique")
	}
}
