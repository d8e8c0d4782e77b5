package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTTokenService_RoundTrip(t *testing.T) {
	svc := NewJWTTokenService("test-secret", time.Hour, "systempay-gateway")

	token, expiresAt, err := svc.Generate("operator")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "operator", claims.Username)
}

func TestJWTTokenService_RejectsWrongSecret(t *testing.T) {
	token, _, err := NewJWTTokenService("secret-a", time.Hour, "systempay-gateway").Generate("operator")
	require.NoError(t, err)

	_, err = NewJWTTokenService("secret-b", time.Hour, "systempay-gateway").Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_RejectsWrongIssuer(t *testing.T) {
	token, _, err := NewJWTTokenService("test-secret", time.Hour, "someone-else").Generate("operator")
	require.NoError(t, err)

	_, err = NewJWTTokenService("test-secret", time.Hour, "systempay-gateway").Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_RejectsExpired(t *testing.T) {
	svc := NewJWTTokenService("test-secret", -time.Minute, "systempay-gateway")
	token, _, err := svc.Generate("operator")
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_RejectsGarbage(t *testing.T) {
	svc := NewJWTTokenService("test-secret", time.Hour, "systempay-gateway")
	_, err := svc.Validate("not.a.token")
	assert.Error(t, err)
}
