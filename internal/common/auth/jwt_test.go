package auth

import (
	"testing"
	"time"

	"github.com/MpMogale/AVPermitSystemV2/internal/common/config"
	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAccessToken(t *testing.T) {
	cfg := config.AuthConfig{
		Enabled:   true,
		JWTSecret: "test-secret",
		Issuer:    "avpermit",
		Audience:  "avpermit",
	}

	token, exp, err := GenerateAccessToken(cfg, "u-1", []string{"inspector"}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token")
	}
	if exp.Before(time.Now()) {
		t.Fatalf("expected exp in future")
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || parsed == nil || !parsed.Valid {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != "u-1" {
		t.Fatalf("subject mismatch: %s", claims.Subject)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "inspector" {
		t.Fatalf("roles mismatch: %#v", claims.Roles)
	}
}

func TestParseActorDisabledAuth(t *testing.T) {
	actor, err := ParseActor(config.AuthConfig{Enabled: false}, "")
	if err != nil {
		t.Fatalf("ParseActor: %v", err)
	}
	if actor != SystemActor {
		t.Fatalf("expected %q, got %q", SystemActor, actor)
	}
}

func TestParseActorRoundTrip(t *testing.T) {
	cfg := config.AuthConfig{
		Enabled:   true,
		JWTSecret: "test-secret",
		Issuer:    "avpermit",
		Audience:  "avpermit",
	}
	token, _, err := GenerateAccessToken(cfg, "inspector-7", nil, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	actor, err := ParseActor(cfg, "Bearer "+token)
	if err != nil {
		t.Fatalf("ParseActor: %v", err)
	}
	if actor != "inspector-7" {
		t.Fatalf("actor mismatch: %s", actor)
	}

	if _, err := ParseActor(cfg, "Bearer not-a-token"); err == nil {
		t.Fatalf("expected invalid token error")
	}
	if _, err := ParseActor(cfg, ""); err == nil {
		t.Fatalf("expected missing authorization error")
	}
}
