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

// UsersHandler manages user administration endpoints. Role gating happens in
// route middleware; handlers enforce team scoping.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// List GET /users returns the caller's team members.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if principal.User.TeamID == nil {
		return c.JSON(fiber.Map{"data": []dto.UserResponse{}})
	}

	users, err := h.users.ListByTeam(c.UserContext(), *principal.User.TeamID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponses(users)})
}

// ListAll GET /users/all returns every account across teams.
func (h *UsersHandler) ListAll(c *fiber.Ctx) error {
	users, err := h.users.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponses(users)})
}

// Get GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if principal.User.TeamID == nil {
		return apperrors.NewNotFound("user", map[string]any{"user_id": c.Params("id")})
	}

	user, err := h.users.Get(c.UserContext(), c.Params("id"), *principal.User.TeamID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Create POST /users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.UserCreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.UserRole(req.Role),
		TeamID:   req.TeamID,
	}
	if input.Role == "" {
		input.Role = domain.RoleUser
	}
	// admins create accounts inside their own team
	if principal.User.Role != domain.RoleSuperAdmin {
		input.TeamID = principal.User.TeamID
	}

	user, err := h.users.Create(c.UserContext(), principal.User.ID, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": userResponse(user)})
}

// Update PUT /users/:id applies team-scoped field changes.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if principal.User.TeamID == nil {
		return apperrors.NewNotFound("user", map[string]any{"user_id": c.Params("id")})
	}
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.users.Update(c.UserContext(), principal.User.ID, c.Params("id"), *principal.User.TeamID, updateInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// AdminUpdate PUT /users/:id/admin applies unrestricted field changes,
// including team reassignment.
func (h *UsersHandler) AdminUpdate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.users.AdminUpdate(c.UserContext(), principal.User.ID, c.Params("id"), updateInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Delete DELETE /users/:id soft-deletes a team member.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if principal.User.TeamID == nil {
		return apperrors.NewNotFound("user", map[string]any{"user_id": c.Params("id")})
	}

	if err := h.users.Delete(c.UserContext(), principal.User.ID, c.Params("id"), *principal.User.TeamID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

func updateInput(req dto.UpdateUserRequest) service.UserUpdateInput {
	input := service.UserUpdateInput{
		Name:      req.Name,
		Email:     req.Email,
		IsActive:  req.IsActive,
		TeamID:    req.TeamID,
		ClearTeam: req.ClearTeam,
	}
	if req.Role != nil {
		role := domain.UserRole(*req.Role)
		input.Role = &role
	}
	return input
}

func userResponses(users []domain.User) []dto.UserResponse {
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return items
}
