package auth

import (
	"strings"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "", 5)
	token, exp, err := tm.GenerateToken("user-1", "a@example.com", "Ada")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if exp.IsZero() {
		t.Fatal("expected expiry")
	}
	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "a@example.com" || claims.Name != "Ada" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseTokenRejects(t *testing.T) {
	tm := NewTokenManager("secret", "https://idp.example.com", 5)
	good, _, err := tm.GenerateToken("user-1", "a@example.com", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	otherSecret, _, _ := NewTokenManager("other", "https://idp.example.com", 5).GenerateToken("user-1", "a@example.com", "")
	otherIssuer, _, _ := NewTokenManager("secret", "https://evil.example.com", 5).GenerateToken("user-1", "a@example.com", "")
	noSubject, _, _ := tm.GenerateToken("", "a@example.com", "")
	forged, _, _ := tm.GenerateToken("admin-1", "root@example.com", "")
	goodParts := strings.Split(good, ".")
	forgedParts := strings.Split(forged, ".")
	tampered := goodParts[0] + "." + forgedParts[1] + "." + goodParts[2]

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", otherSecret},
		{"wrong issuer", otherIssuer},
		{"tampered", tampered},
		{"garbage", "not-a-token"},
		{"no subject", noSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tm.ParseToken(tt.token); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
