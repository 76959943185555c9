package auth

import "testing"

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("sesame")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !CheckPasswordHash("sesame", hash) {
		t.Error("correct password should verify")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Error("wrong password should not verify")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", 42, "alice")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" {
		t.Errorf("claims = %d/%s, want 42/alice", claims.UserID, claims.Username)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", 42, "alice")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := ParseToken("other", token); err == nil {
		t.Error("token signed with another secret should be rejected")
	}
}

func TestTokenEmptySecret(t *testing.T) {
	if _, err := GenerateToken("", 42, "alice"); err == nil {
		t.Error("empty secret should be rejected")
	}
}
