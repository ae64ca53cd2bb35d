package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/team-service/internal/api/dto"
	"github.com/spec-kit/team-service/internal/domain"
	"github.com/spec-kit/team-service/internal/repository"
	"github.com/spec-kit/team-service/internal/service"
)

// AuditHandler exposes the audit trail to administrators.
type AuditHandler struct {
	audit *service.AuditService
}

// NewAuditHandler constructs handler.
func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: auditService}
}

// List GET /audit-logs with optional user_id, team_id, action, limit, offset.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	filter := repository.AuditLogFilter{
		Limit:  queryInt(c, "limit", 0),
		Offset: queryInt(c, "offset", 0),
	}
	if userID := c.Query("user_id"); userID != "" {
		filter.UserID = &userID
	}
	if teamID := c.Query("team_id"); teamID != "" {
		filter.TeamID = &teamID
	}
	if actionStr := c.Query("action"); actionStr != "" {
		action := domain.AuditAction(actionStr)
		filter.Action = &action
	}

	entries, err := h.audit.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.AuditLogResponse, 0, len(entries))
	for i := range entries {
		items = append(items, auditLogResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func queryInt(c *fiber.Ctx, key string, def int) int {
	val := c.Query(key)
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

func auditLogResponse(entry *domain.AuditLog) dto.AuditLogResponse {
	return dto.AuditLogResponse{
		ID:          entry.ID,
		UserID:      entry.UserID,
		TeamID:      entry.TeamID,
		Action:      string(entry.Action),
		EntityType:  entry.EntityType,
		EntityID:    entry.EntityID,
		Description: entry.Description,
		IPAddress:   entry.IPAddress,
		UserAgent:   entry.UserAgent,
		Metadata:    entry.Metadata,
		CreatedAt:   entry.CreatedAt,
	}
}
