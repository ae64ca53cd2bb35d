package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/team-service/internal/auth"
	"github.com/spec-kit/team-service/internal/domain"
	"github.com/spec-kit/team-service/internal/repository"
	apperrors "github.com/spec-kit/team-service/pkg/util"
)

// UserService handles user administration: team-scoped management for
// admins and cross-team management for super admins.
type UserService struct {
	users      repository.UserRepository
	audit      *AuditService
	bcryptCost int
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, audit *AuditService, bcryptCost int) *UserService {
	return &UserService{users: users, audit: audit, bcryptCost: bcryptCost}
}

// UserCreateInput describes an admin-created account.
type UserCreateInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.UserRole
	TeamID   *string
}

// UserUpdateInput carries optional field updates.
type UserUpdateInput struct {
	Name     *string
	Email    *string
	Role     *domain.UserRole
	IsActive *bool
	TeamID   *string
	// ClearTeam removes the team assignment when set.
	ClearTeam bool
}

// ListByTeam returns active users of a team.
func (s *UserService) ListByTeam(ctx context.Context, teamID string) ([]domain.User, error) {
	users, err := s.users.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// ListAll returns every account, newest first.
func (s *UserService) ListAll(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Get fetches an active user scoped to a team.
func (s *UserService) Get(ctx context.Context, id, teamID string) (*domain.User, error) {
	user, err := s.getScoped(ctx, id, teamID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create registers a new account on behalf of an administrator.
func (s *UserService) Create(ctx context.Context, actorID string, input UserCreateInput) (*domain.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("name, email and password are required", nil)
	}
	if !domain.ValidUserRole(input.Role) {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": input.Role})
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("email already in use", map[string]any{"email": input.Email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
		TeamID:       input.TeamID,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.audit.LogUserCreated(ctx, actorID, user.ID, user.TeamID)
	return user, nil
}

// Update applies field changes to a team-scoped user.
func (s *UserService) Update(ctx context.Context, actorID, id, teamID string, input UserUpdateInput) (*domain.User, error) {
	user, err := s.getScoped(ctx, id, teamID)
	if err != nil {
		return nil, err
	}
	return s.applyUpdate(ctx, actorID, user, input)
}

// AdminUpdate applies field changes to any user, including role, active flag
// and team reassignment. Reserved for super admins at the transport layer.
func (s *UserService) AdminUpdate(ctx context.Context, actorID, id string, input UserUpdateInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return s.applyUpdate(ctx, actorID, user, input)
}

// Delete soft-deletes a team-scoped user.
func (s *UserService) Delete(ctx context.Context, actorID, id, teamID string) error {
	user, err := s.getScoped(ctx, id, teamID)
	if err != nil {
		return err
	}

	user.IsActive = false
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.MapError(err)
	}

	s.audit.LogUserDeleted(ctx, actorID, user.ID, user.TeamID)
	return nil
}

func (s *UserService) getScoped(ctx context.Context, id, teamID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if !user.IsActive || user.TeamID == nil || *user.TeamID != teamID {
		return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
	}
	return user, nil
}

func (s *UserService) applyUpdate(ctx context.Context, actorID string, user *domain.User, input UserUpdateInput) (*domain.User, error) {
	changes := map[string]any{}
	oldRole := user.Role

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name cannot be empty", nil)
		}
		user.Name = name
		changes["name"] = name
	}
	if input.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		if email != user.Email {
			if _, err := s.users.GetByEmail(ctx, email); err == nil {
				return nil, apperrors.NewConflict("email already in use", map[string]any{"email": email})
			} else if !errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.MapError(err)
			}
			user.Email = email
			changes["email"] = email
		}
	}
	if input.Role != nil {
		if !domain.ValidUserRole(*input.Role) {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": *input.Role})
		}
		user.Role = *input.Role
		changes["role"] = *input.Role
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
		changes["is_active"] = *input.IsActive
	}
	if input.ClearTeam {
		user.TeamID = nil
		changes["team_id"] = nil
	} else if input.TeamID != nil {
		user.TeamID = input.TeamID
		changes["team_id"] = *input.TeamID
	}

	if len(changes) == 0 {
		return user, nil
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	if input.Role != nil && *input.Role != oldRole {
		s.audit.LogRoleChanged(ctx, actorID, user.ID, string(oldRole), string(user.Role), user.TeamID)
	}
	s.audit.LogUserUpdated(ctx, actorID, user.ID, user.TeamID, changes)
	return user, nil
}
