package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/team-service/internal/auth"
	"github.com/spec-kit/team-service/internal/config"
	"github.com/spec-kit/team-service/internal/domain"
	"github.com/spec-kit/team-service/internal/repository"
	apperrors "github.com/spec-kit/team-service/pkg/util"
)

// AuthService coordinates signup, login and session resolution. It issues
// signed tokens bound to database-backed sessions so logout revokes access.
type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	audit      *AuditService
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	SessionRepo repository.SessionRepository
	Audit       *AuditService
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		sessions:   deps.SessionRepo,
		audit:      deps.Audit,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL()),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Signup creates a new account with the USER role.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" || email == "" || password == "" {
		return nil, apperrors.NewValidationError("name, email and password are required", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Login authenticates credentials and opens a session. Inactive accounts are
// rejected with the same message as bad credentials.
func (s *AuthService) Login(ctx context.Context, email, password string, origin *RequestOrigin) (*domain.User, string, time.Time, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("email and password are required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if !user.IsActive {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	session := &domain.Session{
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.tokenMgr.SessionTTL()),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	token, err := s.tokenMgr.GenerateToken(session.ID, user.ID, session.ExpiresAt)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	s.audit.LogLogin(ctx, user.ID, origin)
	return user, token, session.ExpiresAt, nil
}

// Logout revokes the session behind the token. Unknown or expired tokens are
// treated as already logged out.
func (s *AuthService) Logout(ctx context.Context, tokenStr string, origin *RequestOrigin) error {
	if tokenStr == "" {
		return nil
	}
	claims, err := s.tokenMgr.ParseToken(tokenStr)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.SessionID); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return apperrors.MapError(err)
	}
	s.audit.LogLogout(ctx, claims.UserID, origin)
	return nil
}

// GetSessionUser resolves a token into its user, or nil when the token is
// missing, invalid, revoked or expired.
func (s *AuthService) GetSessionUser(ctx context.Context, tokenStr string) (*domain.User, error) {
	if tokenStr == "" {
		return nil, nil
	}
	claims, err := s.tokenMgr.ParseToken(tokenStr)
	if err != nil {
		return nil, nil
	}

	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.MapError(err)
	}
	if session.Expired(time.Now()) {
		return nil, nil
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.MapError(err)
	}
	if !user.IsActive {
		return nil, nil
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
