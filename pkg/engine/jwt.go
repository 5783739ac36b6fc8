package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/platinummonkey/warden/pkg/audit"
	"github.com/platinummonkey/warden/pkg/storage"
)

// ErrInvalidToken indicates a bearer token that failed validation for any
// reason: bad signature, wrong issuer, expiry, or revocation.
var ErrInvalidToken = errors.New("invalid token")

// revocationRecord is the document stored under invalidJwts/{token}.
type revocationRecord struct {
	InvalidatedEpochSeconds int64 `json:"invalidatedEpochSeconds"`
}

// CreateJWTToken signs a bearer token binding the identity id to the
// engine's issuer with the configured lifetime.
func (e *Engine) CreateJWTToken(ctx context.Context, userID string) (string, error) {
	if len(e.jwtSecret) == 0 {
		return "", errors.New("jwt signing secret is not configured")
	}
	now := e.now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    e.jwtIssuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(e.jwtTTL)),
		ID:        uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(e.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	e.auditEvent(ctx, &audit.Event{
		EventType: audit.EventTypeTokenCreate,
		UserID:    userID,
	})
	return signed, nil
}

// ValidateJWTToken checks signature, issuer, and expiry, then consults the
// revoked-token set; a token failing either check authenticates as no
// identity. On success it returns the bound identity id.
func (e *Engine) ValidateJWTToken(ctx context.Context, tokenString string) (string, error) {
	if len(e.jwtSecret) == 0 {
		return "", ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return e.jwtSecret, nil
	}, jwt.WithTimeFunc(e.now))
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Issuer != e.jwtIssuer || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	// A revoked token is rejected regardless of signature validity.
	revoked, err := e.IsTokenInvalid(ctx, tokenString)
	if err != nil {
		return "", err
	}
	if revoked {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// InvalidateJWTToken inserts the presented token into the revoked set,
// keyed by the raw token value. The set is append-only; downstream
// validation rejects naturally-expired tokens before consulting it.
func (e *Engine) InvalidateJWTToken(ctx context.Context, tokenString string) error {
	doc, err := json.Marshal(revocationRecord{InvalidatedEpochSeconds: e.now().Unix()})
	if err != nil {
		return fmt.Errorf("failed to encode revocation record: %w", err)
	}
	if err := e.store(ctx, "invalidateJwtToken", e.keys.InvalidJWT(tokenString), doc); err != nil {
		return err
	}
	e.auditEvent(ctx, &audit.Event{EventType: audit.EventTypeTokenRevoke})
	return nil
}

// IsTokenInvalid reports whether the token is in the revoked set.
func (e *Engine) IsTokenInvalid(ctx context.Context, tokenString string) (bool, error) {
	_, err := e.load(ctx, "isTokenInvalid", e.keys.InvalidJWT(tokenString))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
