package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/team-service/internal/domain"
	"github.com/spec-kit/team-service/internal/repository"
	apperrors "github.com/spec-kit/team-service/pkg/util"
)

const defaultRoleColor = "#6B7280"

// TeamRoleService manages team-scoped roles and their assignment to members.
type TeamRoleService struct {
	roles repository.TeamRoleRepository
	teams repository.TeamRepository
	users repository.UserRepository
	audit *AuditService
}

// NewTeamRoleService constructs the service.
func NewTeamRoleService(roles repository.TeamRoleRepository, teams repository.TeamRepository, users repository.UserRepository, audit *AuditService) *TeamRoleService {
	return &TeamRoleService{roles: roles, teams: teams, users: users, audit: audit}
}

// CreateRole adds an active role to a team.
func (s *TeamRoleService) CreateRole(ctx context.Context, teamID, name, color string) (*domain.TeamRole, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("role name is required", nil)
	}
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("team", map[string]any{"team_id": teamID})
		}
		return nil, apperrors.MapError(err)
	}
	if color == "" {
		color = defaultRoleColor
	}

	role := &domain.TeamRole{
		TeamID:   teamID,
		Name:     name,
		Color:    color,
		IsActive: true,
	}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, apperrors.MapError(err)
	}
	return role, nil
}

// GetRole fetches a role by ID.
func (s *TeamRoleService) GetRole(ctx context.Context, id string) (*domain.TeamRole, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("team role", map[string]any{"team_role_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return role, nil
}

// ListRoles returns a team's active roles.
func (s *TeamRoleService) ListRoles(ctx context.Context, teamID string) ([]domain.TeamRole, error) {
	roles, err := s.roles.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return roles, nil
}

// AssignRole links a user to a team role. The user must currently belong to
// the role's team.
func (s *TeamRoleService) AssignRole(ctx context.Context, actorID, userID, teamRoleID string) error {
	role, err := s.roles.GetByID(ctx, teamRoleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("team role", map[string]any{"team_role_id": teamRoleID})
		}
		return apperrors.MapError(err)
	}
	if !role.IsActive {
		return apperrors.NewConflict("role is inactive", map[string]any{"team_role_id": teamRoleID})
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return apperrors.MapError(err)
	}
	if user.TeamID == nil || *user.TeamID != role.TeamID {
		return apperrors.NewConflict("user is not a member of the role's team", map[string]any{
			"user_id": userID,
			"team_id": role.TeamID,
		})
	}

	if err := s.roles.AssignUser(ctx, userID, teamRoleID); err != nil {
		return apperrors.MapError(err)
	}

	s.audit.LogRoleChanged(ctx, actorID, userID, "", role.Name, &role.TeamID)
	return nil
}

// RemoveRole unlinks a user from a team role.
func (s *TeamRoleService) RemoveRole(ctx context.Context, actorID, userID, teamRoleID string) error {
	role, err := s.roles.GetByID(ctx, teamRoleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("team role", map[string]any{"team_role_id": teamRoleID})
		}
		return apperrors.MapError(err)
	}

	if err := s.roles.UnassignUser(ctx, userID, teamRoleID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("role assignment", nil)
		}
		return apperrors.MapError(err)
	}

	s.audit.LogRoleChanged(ctx, actorID, userID, role.Name, "", &role.TeamID)
	return nil
}
