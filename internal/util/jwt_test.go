package util

import (
	"testing"
	"time"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := "unit-test-secret"

	token, err := GenerateToken(secret, 42, "sess-1", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error = %v", err)
	}

	claims, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("ParseToken error = %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.SessionID != "sess-1" {
		t.Errorf("SessionID = %q, want sess-1", claims.SessionID)
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(time.Now()) {
		t.Error("token should expire in the future")
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret-a", 1, "s", time.Hour)
	if _, err := ParseToken("secret-b", token); err == nil {
		t.Error("ParseToken with wrong secret error = nil, want error")
	}
}

func TestGenerateTokenDefaultTTL(t *testing.T) {
	// ttl<=0 时退回 24 小时
	token, err := GenerateToken("secret", 1, "s", 0)
	if err != nil {
		t.Fatalf("GenerateToken error = %v", err)
	}
	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("ParseToken error = %v", err)
	}
	if claims.ExpiresAt.Before(time.Now().Add(23 * time.Hour)) {
		t.Error("default TTL should be about 24h")
	}
}
