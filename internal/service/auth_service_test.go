package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"systempay-gateway/config"
	"systempay-gateway/pkg/apperror"
)

func newAuthService(t *testing.T, password string) *OperatorAuthService {
	t.Helper()
	hashSvc := NewArgon2HashService()
	hash, err := hashSvc.Hash(password)
	require.NoError(t, err)

	cfg := config.DashboardConfig{
		Username:     "operator",
		PasswordHash: hash,
		JWTSecret:    "test-secret",
		JWTExpiry:    time.Hour,
		JWTIssuer:    "systempay-gateway",
	}
	tokens := NewJWTTokenService(cfg.JWTSecret, cfg.JWTExpiry, cfg.JWTIssuer)
	return NewOperatorAuthService(cfg, hashSvc, tokens, zerolog.Nop())
}

func TestOperatorAuthService_Login(t *testing.T) {
	svc := newAuthService(t, "s3cret")

	token, expiresAt, err := svc.Login(context.Background(), "operator", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))
}

func TestOperatorAuthService_RejectsBadCredentials(t *testing.T) {
	svc := newAuthService(t, "s3cret")

	cases := []struct{ username, password string }{
		{"operator", "wrong"},
		{"intruder", "s3cret"},
		{"", ""},
	}
	for _, c := range cases {
		_, _, err := svc.Login(context.Background(), c.username, c.password)
		var appErr *apperror.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "AUTH_001", appErr.Code)
	}
}

func TestOperatorAuthService_RejectsWhenUnconfigured(t *testing.T) {
	svc := NewOperatorAuthService(config.DashboardConfig{}, NewArgon2HashService(),
		NewJWTTokenService("s", time.Hour, "i"), zerolog.Nop())

	_, _, err := svc.Login(context.Background(), "operator", "anything")
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "AUTH_001", appErr.Code)
}
