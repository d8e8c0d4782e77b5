package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"systempay-gateway/config"
	"systempay-gateway/internal/core/ports"
	"systempay-gateway/pkg/apperror"
)

// OperatorAuthService implements ports.AuthService against the single
// operator account held in configuration. There is no user store: the
// dashboard audits money movement and a config-held credential keeps
// the attack surface minimal.
type OperatorAuthService struct {
	cfg     config.DashboardConfig
	hashSvc ports.HashService
	tokens  ports.TokenService
	log     zerolog.Logger
}

// NewOperatorAuthService creates the operator authentication service.
func NewOperatorAuthService(cfg config.DashboardConfig, hashSvc ports.HashService, tokens ports.TokenService, log zerolog.Logger) *OperatorAuthService {
	return &OperatorAuthService{
		cfg:     cfg,
		hashSvc: hashSvc,
		tokens:  tokens,
		log:     log,
	}
}

// Login verifies the operator credentials and issues a token.
func (s *OperatorAuthService) Login(_ context.Context, username, password string) (string, time.Time, error) {
	if s.cfg.Username == "" || s.cfg.PasswordHash == "" {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}
	if username != s.cfg.Username {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	ok, err := s.hashSvc.Verify(password, s.cfg.PasswordHash)
	if err != nil {
		s.log.Error().Err(err).Msg("operator password hash is malformed")
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}
	if !ok {
		s.log.Warn().Str("username", username).Msg("operator login rejected")
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiresAt, err := s.tokens.Generate(username)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(err)
	}

	s.log.Info().Str("username", username).Msg("operator logged in")
	return token, expiresAt, nil
}
