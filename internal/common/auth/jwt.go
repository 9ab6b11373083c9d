package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/MpMogale/AVPermitSystemV2/internal/common/config"
	"github.com/golang-jwt/jwt/v5"
)

// SystemActor 未接入认证时记录在 CreatedBy/UpdatedBy 上的占位操作者。
const SystemActor = "System"

type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// GenerateAccessToken 生成 HS256 JWT access token。
func GenerateAccessToken(cfg config.AuthConfig, subject string, roles []string, ttl time.Duration) (token string, expiresAt time.Time, err error) {
	if subject == "" {
		return "", time.Time{}, fmt.Errorf("subject is empty")
	}
	if cfg.JWTSecret == "" {
		return "", time.Time{}, fmt.Errorf("jwt_secret is empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	now := time.Now()
	expiresAt = now.Add(ttl)
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = t.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

// ParseActor 从 `Authorization: Bearer <token>` 头解析操作者。
//
// - 认证未启用时一律返回 SystemActor（原系统行为，写操作由占位账号记录）
// - 启用后 token 非法/缺失返回错误，由 HTTP 层转成 401
func ParseActor(cfg config.AuthConfig, authorization string) (string, error) {
	if !cfg.Enabled {
		return SystemActor, nil
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return "", fmt.Errorf("auth enabled but jwt_secret is empty")
	}

	tokenStr := strings.TrimSpace(authorization)
	if strings.HasPrefix(strings.ToLower(tokenStr), "bearer ") {
		tokenStr = strings.TrimSpace(tokenStr[len("bearer "):])
	}
	if tokenStr == "" {
		return "", fmt.Errorf("missing authorization")
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithLeeway(30*time.Second))
	if err != nil || parsed == nil || !parsed.Valid {
		return "", fmt.Errorf("invalid token")
	}

	if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
		return "", fmt.Errorf("invalid issuer")
	}
	if cfg.Audience != "" && !audienceContains(claims.Audience, cfg.Audience) {
		return "", fmt.Errorf("invalid audience")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("token subject is empty")
	}
	return claims.Subject, nil
}

func audienceContains(aud jwt.ClaimStrings, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" || len(aud) == 0 {
		return false
	}
	for _, v := range aud {
		if strings.TrimSpace(v) == want {
			return true
		}
	}
	return false
}
