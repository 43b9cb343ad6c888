package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

func keys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, prv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub, prv
}

func TestSignAndParse(t *testing.T) {
	pub, prv := keys(t)
	token, issued, err := Sign(prv, "u1", []models.Role{models.RoleUser, models.RoleAdmin}, time.Now(), time.Hour)
	require.NoError(t, err)

	claims, err := Parse(pub, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, issued.ID, claims.ID)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, claims.HasRole(models.RoleAdmin))
	assert.False(t, claims.HasRole(models.RoleChannelAdmin))
}

func TestTokenIdsAreUnique(t *testing.T) {
	_, prv := keys(t)
	_, a, err := Sign(prv, "u1", nil, time.Now(), 0)
	require.NoError(t, err)
	_, b, err := Sign(prv, "u1", nil, time.Now(), 0)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, DefaultTTL, a.ExpiresAt.Sub(a.IssuedAt.Time))
}

func TestParseRejects(t *testing.T) {
	pub, prv := keys(t)
	otherPub, _ := keys(t)

	expired, _, err := Sign(prv, "u1", nil, time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)
	_, err = Parse(pub, expired)
	assert.ErrorIs(t, err, ErrTokenExpired)

	valid, _, err := Sign(prv, "u1", nil, time.Now(), time.Hour)
	require.NoError(t, err)
	_, err = Parse(otherPub, valid)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = Parse(pub, "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// wrong audience
	claims := jwt.RegisteredClaims{
		Issuer: Issuer, Subject: "u1", Audience: jwt.ClaimStrings{"someone_else"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(prv)
	require.NoError(t, err)
	_, err = Parse(pub, foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecodeKeys(t *testing.T) {
	pub, prv := keys(t)

	got, err := DecodePrivateKey(base64.StdEncoding.EncodeToString(prv))
	require.NoError(t, err)
	assert.Equal(t, prv, got)

	fromSeed, err := DecodePrivateKey(base64.StdEncoding.EncodeToString(prv.Seed()))
	require.NoError(t, err)
	assert.Equal(t, prv, fromSeed)

	gotPub, err := DecodePublicKey(base64.StdEncoding.EncodeToString(pub))
	require.NoError(t, err)
	assert.Equal(t, pub, gotPub)

	_, err = DecodePublicKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)
}
