package httpapi

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/brandloom/brandloom/internal/platform/errors"
)

// scopeOrchestrator is the only scope the orchestration channel accepts.
const scopeOrchestrator = "orchestrator"

// serviceTokenEnv holds raw env values before post-parse validation.
type serviceTokenEnv struct {
	Issuer    string `env:"BRANDLOOM_SERVICE_TOKEN_ISSUER"`
	Audience  string `env:"BRANDLOOM_SERVICE_TOKEN_AUDIENCE"`
	PublicKey string `env:"BRANDLOOM_SERVICE_TOKEN_PUBLIC_KEY"`
}

// ServiceTokenConfig defines how orchestration service tokens are verified.
type ServiceTokenConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// ServiceTokenClaims captures validated service token claims.
type ServiceTokenClaims struct {
	Subject   string
	Scope     string
	ExpiresAt time.Time
	JWTID     string
}

// serviceTokenClaims is the internal claims type used for JWT parsing.
type serviceTokenClaims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

// LoadServiceTokenConfigFromEnv reads service token verification configuration.
func LoadServiceTokenConfigFromEnv(now func() time.Time) (ServiceTokenConfig, error) {
	var raw serviceTokenEnv
	if err := env.Parse(&raw); err != nil {
		return ServiceTokenConfig{}, fmt.Errorf("parse service token env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	publicKey := strings.TrimSpace(raw.PublicKey)
	if issuer == "" {
		return ServiceTokenConfig{}, fmt.Errorf("BRANDLOOM_SERVICE_TOKEN_ISSUER is required")
	}
	if audience == "" {
		return ServiceTokenConfig{}, fmt.Errorf("BRANDLOOM_SERVICE_TOKEN_AUDIENCE is required")
	}
	if publicKey == "" {
		return ServiceTokenConfig{}, fmt.Errorf("BRANDLOOM_SERVICE_TOKEN_PUBLIC_KEY is required")
	}
	keyBytes, err := decodeBase64(publicKey)
	if err != nil {
		return ServiceTokenConfig{}, fmt.Errorf("decode service token public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return ServiceTokenConfig{}, fmt.Errorf("service token public key must be %d bytes", ed25519.PublicKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return ServiceTokenConfig{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PublicKey(keyBytes),
		Now:      now,
	}, nil
}

// VerifyServiceToken verifies an orchestration service token and checks its
// issuer, audience, expiry, and scope.
func VerifyServiceToken(token string, cfg ServiceTokenConfig) (ServiceTokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return ServiceTokenClaims{}, apperrors.New(apperrors.CodeUnauthorized, "service token is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) != ed25519.PublicKeySize {
		return ServiceTokenClaims{}, errors.New("service token verifier is not configured")
	}

	var parsed serviceTokenClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(token *jwt.Token) (any, error) {
		return cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return ServiceTokenClaims{}, apperrors.Wrap(apperrors.CodeUnauthorized, "service token is invalid", err)
	}

	if parsed.Issuer == "" || parsed.Issuer != cfg.Issuer {
		return ServiceTokenClaims{}, apperrors.New(apperrors.CodeUnauthorized, "service token issuer mismatch")
	}
	if !audienceContains(parsed.Audience, cfg.Audience) {
		return ServiceTokenClaims{}, apperrors.New(apperrors.CodeUnauthorized, "service token audience mismatch")
	}
	if parsed.ExpiresAt == nil {
		return ServiceTokenClaims{}, apperrors.New(apperrors.CodeUnauthorized, "service token exp is required")
	}

	now := cfg.Now().UTC()
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(now) {
		return ServiceTokenClaims{}, apperrors.New(apperrors.CodeUnauthorized, "service token is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time.UTC()) {
		return ServiceTokenClaims{}, apperrors.New(apperrors.CodeUnauthorized, "service token not active yet")
	}
	if parsed.Scope != scopeOrchestrator {
		return ServiceTokenClaims{}, apperrors.New(apperrors.CodeUnauthorized, "service token scope mismatch")
	}

	claims := ServiceTokenClaims{
		Subject:   parsed.Subject,
		Scope:     parsed.Scope,
		ExpiresAt: exp,
		JWTID:     parsed.ID,
	}
	return claims, nil
}

func audienceContains(audience jwt.ClaimStrings, expected string) bool {
	for _, candidate := range audience {
		if candidate == expected {
			return true
		}
	}
	return false
}

func decodeBase64(value string) ([]byte, error) {
	if decoded, err := base64.StdEncoding.DecodeString(value); err == nil {
		return decoded, nil
	}
	return base64.RawStdEncoding.DecodeString(value)
}
