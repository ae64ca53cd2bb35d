package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/team-service/internal/api/dto"
	"github.com/spec-kit/team-service/internal/auth"
	"github.com/spec-kit/team-service/internal/domain"
	"github.com/spec-kit/team-service/internal/service"
	apperrors "github.com/spec-kit/team-service/pkg/util"
)

// TeamsHandler manages team and team-role endpoints.
type TeamsHandler struct {
	teams       *service.TeamService
	roles       *service.TeamRoleService
	permissions *service.PermissionService
}

// NewTeamsHandler constructs handler.
func NewTeamsHandler(teamService *service.TeamService, roleService *service.TeamRoleService, permissionService *service.PermissionService) *TeamsHandler {
	return &TeamsHandler{teams: teamService, roles: roleService, permissions: permissionService}
}

// CreateTeam POST /teams.
func (h *TeamsHandler) CreateTeam(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	team, err := h.teams.CreateTeam(c.UserContext(), req.Name, req.Description, principal.User.ID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": teamResponse(team)})
}

// ListTeams GET /teams.
func (h *TeamsHandler) ListTeams(c *fiber.Ctx) error {
	teams, err := h.teams.ListTeams(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.TeamOverviewResponse, 0, len(teams))
	for i := range teams {
		items = append(items, teamOverviewResponse(&teams[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTeam GET /teams/:id.
func (h *TeamsHandler) GetTeam(c *fiber.Ctx) error {
	team, err := h.teams.GetTeam(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": teamResponse(team)})
}

// ListRoles GET /teams/:id/roles.
func (h *TeamsHandler) ListRoles(c *fiber.Ctx) error {
	roles, err := h.roles.ListRoles(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.TeamRoleResponse, 0, len(roles))
	for i := range roles {
		items = append(items, teamRoleResponse(&roles[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateRole POST /teams/:id/roles.
func (h *TeamsHandler) CreateRole(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	teamID := c.Params("id")
	if err := h.requireManage(c, principal.User.ID, teamID); err != nil {
		return err
	}

	var req dto.CreateTeamRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	role, err := h.roles.CreateRole(c.UserContext(), teamID, req.Name, req.Color)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": teamRoleResponse(role)})
}

// AssignRole POST /teams/roles/assign.
func (h *TeamsHandler) AssignRole(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.AssignTeamRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.UserID == "" || req.TeamRoleID == "" {
		return apperrors.NewValidationError("user_id and team_role_id required", nil)
	}

	role, err := h.roles.GetRole(c.UserContext(), req.TeamRoleID)
	if err != nil {
		return err
	}
	if err := h.requireManage(c, principal.User.ID, role.TeamID); err != nil {
		return err
	}

	if err := h.roles.AssignRole(c.UserContext(), principal.User.ID, req.UserID, req.TeamRoleID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"assigned": true}})
}

// UnassignRole POST /teams/roles/unassign.
func (h *TeamsHandler) UnassignRole(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.AssignTeamRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.UserID == "" || req.TeamRoleID == "" {
		return apperrors.NewValidationError("user_id and team_role_id required", nil)
	}

	role, err := h.roles.GetRole(c.UserContext(), req.TeamRoleID)
	if err != nil {
		return err
	}
	if err := h.requireManage(c, principal.User.ID, role.TeamID); err != nil {
		return err
	}

	if err := h.roles.RemoveRole(c.UserContext(), principal.User.ID, req.UserID, req.TeamRoleID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"assigned": false}})
}

func (h *TeamsHandler) requireManage(c *fiber.Ctx, userID, teamID string) error {
	allowed, err := h.permissions.CanManageTeamRequests(c.UserContext(), userID, teamID)
	if err != nil {
		return err
	}
	if !allowed {
		return apperrors.NewForbidden("team management rights required")
	}
	return nil
}

func teamResponse(team *domain.Team) dto.TeamResponse {
	return dto.TeamResponse{
		ID:          team.ID,
		Name:        team.Name,
		Description: team.Description,
		IsActive:    team.IsActive,
		CreatedBy:   team.CreatedBy,
		CreatedAt:   team.CreatedAt,
		UpdatedAt:   team.UpdatedAt,
	}
}

func teamOverviewResponse(overview *domain.TeamOverview) dto.TeamOverviewResponse {
	return dto.TeamOverviewResponse{
		TeamResponse: teamResponse(&overview.Team),
		CreatorName:  overview.CreatorName,
		CreatorEmail: overview.CreatorEmail,
		MemberCount:  overview.MemberCount,
	}
}

func teamRoleResponse(role *domain.TeamRole) dto.TeamRoleResponse {
	return dto.TeamRoleResponse{
		ID:        role.ID,
		TeamID:    role.TeamID,
		Name:      role.Name,
		Color:     role.Color,
		IsActive:  role.IsActive,
		CreatedAt: role.CreatedAt,
	}
}
