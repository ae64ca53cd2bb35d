package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/team-service/internal/repository"
	apperrors "github.com/spec-kit/team-service/pkg/util"
)

// managementRoleKeywords are matched case-insensitively as substrings of a
// member's team-role names. Substring matching means a role named
// "Junior Team Lead Trainee" also gains management rights.
var managementRoleKeywords = []string{
	"Tech Lead",
	"Design Lead",
	"Marketing Manager",
	"Team Lead",
	"Manager",
	"Lead",
	"Coordinator",
	"Supervisor",
}

// PermissionService decides whether a user may manage a team's requests and
// invites. Pure reads, no side effects.
type PermissionService struct {
	teams repository.TeamRepository
	roles repository.TeamRoleRepository
}

// NewPermissionService constructs the service.
func NewPermissionService(teams repository.TeamRepository, roles repository.TeamRoleRepository) *PermissionService {
	return &PermissionService{teams: teams, roles: roles}
}

// CanManageTeamRequests reports whether userID may manage teamID's requests
// and invites: the team creator always may; otherwise any active role the
// user holds within the team whose name contains a leadership keyword grants
// the right. A missing team fails closed.
func (s *PermissionService) CanManageTeamRequests(ctx context.Context, userID, teamID string) (bool, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, apperrors.MapError(err)
	}

	if team.CreatedBy == userID {
		return true, nil
	}

	roles, err := s.roles.ListActiveRolesForUser(ctx, userID, teamID)
	if err != nil {
		return false, apperrors.MapError(err)
	}

	for _, role := range roles {
		if isManagementRoleName(role.Name) {
			return true, nil
		}
	}
	return false, nil
}

func isManagementRoleName(name string) bool {
	lowered := strings.ToLower(name)
	for _, keyword := range managementRoleKeywords {
		if strings.Contains(lowered, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}
