package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/team-service/internal/domain"
	"github.com/spec-kit/team-service/internal/repository"
	apperrors "github.com/spec-kit/team-service/pkg/util"
)

const principalKey = "auth_principal"

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "session_token"

// Principal represents the authenticated caller, including their current
// team assignment and application role.
type Principal struct {
	User      *domain.User
	SessionID string
}

// AuthMiddleware validates session tokens and loads principals.
type AuthMiddleware struct {
	tokens   *TokenManager
	sessions repository.SessionRepository
	users    repository.UserRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, sessions repository.SessionRepository, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, sessions: sessions, users: users}
}

// Handle enforces authentication for protected routes. The token is read
// from the session cookie or an Authorization bearer header.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	tokenStr := c.Cookies(SessionCookie)
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			tokenStr = parts[1]
		}
	}
	if tokenStr == "" {
		return apperrors.NewUnauthorized("missing session token")
	}

	claims, err := m.tokens.ParseToken(tokenStr)
	if err != nil {
		return apperrors.NewUnauthorized("invalid session token")
	}

	session, err := m.sessions.GetByID(c.Context(), claims.SessionID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewUnauthorized("session revoked")
		}
		return apperrors.MapError(err)
	}
	if session.Expired(time.Now()) {
		return apperrors.NewUnauthorized("session expired")
	}

	user, err := m.users.GetByID(c.Context(), session.UserID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.MapError(err)
	}
	if !user.IsActive {
		return apperrors.NewUnauthorized("account deactivated")
	}

	c.Locals(principalKey, &Principal{User: user, SessionID: session.ID})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
