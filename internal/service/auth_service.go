package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/officeflow/attendance-bot/internal/auth"
	"github.com/officeflow/attendance-bot/internal/config"
	"github.com/officeflow/attendance-bot/internal/domain"
	"github.com/officeflow/attendance-bot/internal/repository"
	"github.com/officeflow/attendance-bot/pkg/util/errorutil"
)

// AuthService issues admin API tokens to registered administrators.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	apiKeyHash string
	logger     *zap.Logger
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	Users  repository.UserRepository
	Logger *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.Users,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		apiKeyHash: cfg.AdminAPIKeyHash,
		logger:     deps.Logger.Named("auth"),
	}
}

// IssueToken checks apiKey against the configured hash and requires the
// chat user to be a registered admin.
func (s *AuthService) IssueToken(ctx context.Context, userID int64, apiKey string) (*domain.AccessToken, error) {
	if s.apiKeyHash == "" {
		return nil, errorutil.NewUnauthorized("admin API key is not configured")
	}
	if err := auth.CompareAPIKey(s.apiKeyHash, apiKey); err != nil {
		s.logger.Info("token request with bad api key", zap.Int64("user_id", userID))
		return nil, errorutil.NewUnauthorized("invalid credentials")
	}

	profile, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errorutil.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if !profile.IsAdmin {
		s.logger.Info("token refused to non-admin", zap.Int64("user_id", userID))
		return nil, errorutil.NewPermissionDenied("administrator access required")
	}

	token, issuedAt, expiresAt, err := s.tokenMgr.GenerateToken(userID)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	return &domain.AccessToken{Token: token, UserID: userID, IssuedAt: issuedAt, ExpiresAt: expiresAt}, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
