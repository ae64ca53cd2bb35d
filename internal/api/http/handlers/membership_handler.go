package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/team-service/internal/api/dto"
	"github.com/spec-kit/team-service/internal/auth"
	"github.com/spec-kit/team-service/internal/domain"
	"github.com/spec-kit/team-service/internal/service"
	apperrors "github.com/spec-kit/team-service/pkg/util"
)

// MembershipHandler manages join-request and invite endpoints.
type MembershipHandler struct {
	membership  *service.MembershipService
	permissions *service.PermissionService
}

// NewMembershipHandler constructs handler.
func NewMembershipHandler(membershipService *service.MembershipService, permissionService *service.PermissionService) *MembershipHandler {
	return &MembershipHandler{membership: membershipService, permissions: permissionService}
}

// CreateRequest POST /teams/:id/requests. Always self-service: the request is
// created for the authenticated caller.
func (h *MembershipHandler) CreateRequest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateJoinRequestRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	request, err := h.membership.CreateTeamRequest(c.UserContext(), c.Params("id"), principal.User.ID, req.Message)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": joinRequestResponse(request)})
}

// ListTeamRequests GET /teams/:id/requests.
func (h *MembershipHandler) ListTeamRequests(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	teamID := c.Params("id")
	if err := h.requireManage(c, principal.User.ID, teamID); err != nil {
		return err
	}

	requests, err := h.membership.GetTeamRequests(c.UserContext(), teamID)
	if err != nil {
		return err
	}
	items := make([]dto.JoinRequestResponse, 0, len(requests))
	for i := range requests {
		items = append(items, joinRequestResponse(&requests[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateInvite POST /teams/:id/invites.
func (h *MembershipHandler) CreateInvite(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	teamID := c.Params("id")
	if err := h.requireManage(c, principal.User.ID, teamID); err != nil {
		return err
	}

	var req dto.CreateInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.UserID == "" {
		return apperrors.NewValidationError("user_id required", nil)
	}

	invite, err := h.membership.CreateTeamInvite(c.UserContext(), teamID, req.UserID, principal.User.ID, req.Message)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": inviteResponse(invite)})
}

// ListTeamInvites GET /teams/:id/invites.
func (h *MembershipHandler) ListTeamInvites(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	teamID := c.Params("id")
	if err := h.requireManage(c, principal.User.ID, teamID); err != nil {
		return err
	}

	invites, err := h.membership.GetTeamInvites(c.UserContext(), teamID)
	if err != nil {
		return err
	}
	items := make([]dto.InviteResponse, 0, len(invites))
	for i := range invites {
		items = append(items, inviteResponse(&invites[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListMyRequests GET /teams/requests returns the caller's pending requests.
func (h *MembershipHandler) ListMyRequests(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	requests, err := h.membership.GetUserTeamRequests(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	items := make([]dto.JoinRequestResponse, 0, len(requests))
	for i := range requests {
		items = append(items, joinRequestResponse(&requests[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListMyInvites GET /teams/invites returns the caller's pending invites.
func (h *MembershipHandler) ListMyInvites(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	invites, err := h.membership.GetUserTeamInvites(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	items := make([]dto.InviteResponse, 0, len(invites))
	for i := range invites {
		items = append(items, inviteResponse(&invites[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ResolveRequest PUT /teams/requests/:id. Approve and reject need management
// rights on the request's team; cancel is reserved for the requester.
func (h *MembershipHandler) ResolveRequest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ResolveRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	requestID := c.Params("id")
	request, err := h.membership.GetTeamRequest(c.UserContext(), requestID)
	if err != nil {
		return err
	}

	switch strings.ToLower(req.Action) {
	case "approve":
		if err := h.requireManage(c, principal.User.ID, request.TeamID); err != nil {
			return err
		}
		request, err = h.membership.ApproveTeamRequest(c.UserContext(), principal.User.ID, requestID)
	case "reject":
		if err := h.requireManage(c, principal.User.ID, request.TeamID); err != nil {
			return err
		}
		request, err = h.membership.RejectTeamRequest(c.UserContext(), principal.User.ID, requestID)
	case "cancel":
		if request.UserID != principal.User.ID {
			return apperrors.NewForbidden("only the requester may cancel")
		}
		request, err = h.membership.CancelTeamRequest(c.UserContext(), principal.User.ID, requestID)
	default:
		return apperrors.NewValidationError("action must be approve, reject or cancel", map[string]any{"action": req.Action})
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": joinRequestResponse(request)})
}

// ResolveInvite PUT /teams/invites/:id. Only the invited user may resolve.
func (h *MembershipHandler) ResolveInvite(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ResolveInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	inviteID := c.Params("id")
	invite, err := h.membership.GetTeamInvite(c.UserContext(), inviteID)
	if err != nil {
		return err
	}
	if invite.UserID != principal.User.ID {
		return apperrors.NewForbidden("only the invited user may resolve the invite")
	}

	switch strings.ToLower(req.Action) {
	case "accept":
		invite, err = h.membership.AcceptTeamInvite(c.UserContext(), inviteID)
	case "decline":
		invite, err = h.membership.DeclineTeamInvite(c.UserContext(), inviteID)
	default:
		return apperrors.NewValidationError("action must be accept or decline", map[string]any{"action": req.Action})
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": inviteResponse(invite)})
}

func (h *MembershipHandler) requireManage(c *fiber.Ctx, userID, teamID string) error {
	allowed, err := h.permissions.CanManageTeamRequests(c.UserContext(), userID, teamID)
	if err != nil {
		return err
	}
	if !allowed {
		return apperrors.NewForbidden("team management rights required")
	}
	return nil
}

func joinRequestResponse(request *domain.TeamRequest) dto.JoinRequestResponse {
	return dto.JoinRequestResponse{
		ID:        request.ID,
		TeamID:    request.TeamID,
		UserID:    request.UserID,
		Message:   request.Message,
		Status:    string(request.Status),
		CreatedAt: request.CreatedAt,
		UpdatedAt: request.UpdatedAt,
	}
}

func inviteResponse(invite *domain.TeamInvite) dto.InviteResponse {
	return dto.InviteResponse{
		ID:        invite.ID,
		TeamID:    invite.TeamID,
		UserID:    invite.UserID,
		InvitedBy: invite.InvitedBy,
		Message:   invite.Message,
		Status:    string(invite.Status),
		CreatedAt: invite.CreatedAt,
		UpdatedAt: invite.UpdatedAt,
	}
}
