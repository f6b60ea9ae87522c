package services

import "testing"

func TestTokenRoundTrip(t *testing.T) {
	auth := NewAuthService("secret")

	token, err := auth.GenerateToken(7)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	hostID, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if hostID != 7 {
		t.Fatalf("expected host 7, got %d", hostID)
	}
}

func TestTokenWrongSecretRejected(t *testing.T) {
	token, _ := NewAuthService("secret-a").GenerateToken(7)

	if _, err := NewAuthService("secret-b").ValidateToken(token); err == nil {
		t.Fatal("token signed with a different secret must be rejected")
	}
}

func TestTokenGarbageRejected(t *testing.T) {
	if _, err := NewAuthService("secret").ValidateToken("garbage"); err == nil {
		t.Fatal("garbage token must be rejected")
	}
}
