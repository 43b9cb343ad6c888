// Package auth holds the token format shared by the users service, which
// signs tokens, and the gateway, which verifies them.
package auth

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

const (
	Issuer   = "users_service"
	Audience = "api_gateway"

	DefaultTTL = time.Hour
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("token is not valid")
)

type Claims struct {
	jwt.RegisteredClaims
	Roles []models.Role `json:"roles,omitempty"`
}

func (c Claims) HasRole(r models.Role) bool {
	for _, role := range c.Roles {
		if role == r {
			return true
		}
	}
	return false
}

// Sign issues a token for userId valid for ttl from now. Every token gets a
// unique id so it can be revoked on logout.
func Sign(key ed25519.PrivateKey, userId string, roles []models.Role, now time.Time, ttl time.Duration) (string, Claims, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   userId,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Roles: roles,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(key)
	if err != nil {
		return "", Claims{}, err
	}
	return token, claims, nil
}

// Parse verifies signature, issuer, audience and expiry.
func Parse(key ed25519.PublicKey, token string, opts ...jwt.ParserOption) (Claims, error) {
	parser := jwt.NewParser(append([]jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithAudience(Audience),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	}, opts...)...)
	claims := Claims{}
	parsed, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// DecodePrivateKey reads a base64 ed25519 private key, either the 64 byte
// key or its 32 byte seed.
func DecodePrivateKey(b64 string) (ed25519.PrivateKey, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	switch len(raw) {
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(raw), nil
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	}
	return nil, fmt.Errorf("private key has %d bytes", len(raw))
}

func DecodePublicKey(b64 string) (ed25519.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key has %d bytes", len(raw))
	}
	return ed25519.PublicKey(raw), nil
}
