package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/team-service/internal/domain"
	"github.com/spec-kit/team-service/internal/repository"
	apperrors "github.com/spec-kit/team-service/pkg/util"
)

// RequestOrigin carries transport metadata attached to audit entries.
type RequestOrigin struct {
	IPAddress string
	UserAgent string
}

// AuditService records the append-only audit trail. A failed write is logged
// and swallowed so the primary operation never fails on audit availability.
type AuditService struct {
	logs   repository.AuditLogRepository
	logger *zap.Logger
}

// NewAuditService constructs the service.
func NewAuditService(logs repository.AuditLogRepository, logger *zap.Logger) *AuditService {
	return &AuditService{logs: logs, logger: logger}
}

// Record appends an audit entry, swallowing storage failures.
func (s *AuditService) Record(ctx context.Context, entry domain.AuditLog) {
	if s == nil || s.logs == nil {
		return
	}
	if err := s.logs.Create(ctx, &entry); err != nil {
		s.logger.Warn("audit write failed",
			zap.String("action", string(entry.Action)),
			zap.String("entity_type", entry.EntityType),
			zap.Error(err),
		)
	}
}

// List returns audit entries newest-first, optionally filtered.
func (s *AuditService) List(ctx context.Context, filter repository.AuditLogFilter) ([]domain.AuditLog, error) {
	entries, err := s.logs.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *AuditService) withOrigin(entry domain.AuditLog, origin *RequestOrigin) domain.AuditLog {
	if origin == nil {
		return entry
	}
	if origin.IPAddress != "" {
		ip := origin.IPAddress
		entry.IPAddress = &ip
	}
	if origin.UserAgent != "" {
		ua := origin.UserAgent
		entry.UserAgent = &ua
	}
	return entry
}

// LogLogin records a successful login.
func (s *AuditService) LogLogin(ctx context.Context, userID string, origin *RequestOrigin) {
	s.Record(ctx, s.withOrigin(domain.AuditLog{
		UserID:      userID,
		Action:      domain.AuditLogin,
		EntityType:  "user",
		EntityID:    &userID,
		Description: "User logged in",
	}, origin))
}

// LogLogout records a logout.
func (s *AuditService) LogLogout(ctx context.Context, userID string, origin *RequestOrigin) {
	s.Record(ctx, s.withOrigin(domain.AuditLog{
		UserID:      userID,
		Action:      domain.AuditLogout,
		EntityType:  "user",
		EntityID:    &userID,
		Description: "User logged out",
	}, origin))
}

// LogRequestSent records a join request being created.
func (s *AuditService) LogRequestSent(ctx context.Context, userID, teamID string) {
	s.Record(ctx, domain.AuditLog{
		UserID:      userID,
		TeamID:      &teamID,
		Action:      domain.AuditRequestSent,
		EntityType:  "request",
		Description: "Team join request sent",
	})
}

// LogRequestApproved records a join request approval.
func (s *AuditService) LogRequestApproved(ctx context.Context, approvedBy, userID, teamID string) {
	s.Record(ctx, domain.AuditLog{
		UserID:      approvedBy,
		TeamID:      &teamID,
		Action:      domain.AuditRequestApproved,
		EntityType:  "request",
		EntityID:    &userID,
		Description: "Team join request approved",
	})
}

// LogRequestRejected records a join request rejection or cancellation.
func (s *AuditService) LogRequestRejected(ctx context.Context, rejectedBy, userID, teamID string) {
	s.Record(ctx, domain.AuditLog{
		UserID:      rejectedBy,
		TeamID:      &teamID,
		Action:      domain.AuditRequestRejected,
		EntityType:  "request",
		EntityID:    &userID,
		Description: "Team join request rejected",
	})
}

// LogInviteSent records an invite being created.
func (s *AuditService) LogInviteSent(ctx context.Context, sentBy, teamID, invitedUserID string) {
	s.Record(ctx, domain.AuditLog{
		UserID:      sentBy,
		TeamID:      &teamID,
		Action:      domain.AuditInviteSent,
		EntityType:  "invite",
		EntityID:    &invitedUserID,
		Description: "Team invite sent",
	})
}

// LogInviteAccepted records an invite acceptance.
func (s *AuditService) LogInviteAccepted(ctx context.Context, userID, teamID string) {
	s.Record(ctx, domain.AuditLog{
		UserID:      userID,
		TeamID:      &teamID,
		Action:      domain.AuditInviteAccepted,
		EntityType:  "invite",
		Description: "Team invite accepted",
	})
}

// LogInviteDeclined records an invite decline.
func (s *AuditService) LogInviteDeclined(ctx context.Context, userID, teamID string) {
	s.Record(ctx, domain.AuditLog{
		UserID:      userID,
		TeamID:      &teamID,
		Action:      domain.AuditInviteDeclined,
		EntityType:  "invite",
		Description: "Team invite declined",
	})
}

// LogUserCreated records a user being created by an administrator.
func (s *AuditService) LogUserCreated(ctx context.Context, createdBy, newUserID string, teamID *string) {
	s.Record(ctx, domain.AuditLog{
		UserID:      createdBy,
		TeamID:      teamID,
		Action:      domain.AuditCreate,
		EntityType:  "user",
		EntityID:    &newUserID,
		Description: "New user created",
	})
}

// LogUserUpdated records a user update with the changed fields.
func (s *AuditService) LogUserUpdated(ctx context.Context, updatedBy, userID string, teamID *string, changes map[string]any) {
	s.Record(ctx, domain.AuditLog{
		UserID:      updatedBy,
		TeamID:      teamID,
		Action:      domain.AuditUpdate,
		EntityType:  "user",
		EntityID:    &userID,
		Description: "User information updated",
		Metadata:    changes,
	})
}

// LogUserDeleted records a user soft-deletion.
func (s *AuditService) LogUserDeleted(ctx context.Context, deletedBy, userID string, teamID *string) {
	s.Record(ctx, domain.AuditLog{
		UserID:      deletedBy,
		TeamID:      teamID,
		Action:      domain.AuditDelete,
		EntityType:  "user",
		EntityID:    &userID,
		Description: "User deactivated",
	})
}

// LogRoleChanged records an application-role change.
func (s *AuditService) LogRoleChanged(ctx context.Context, changedBy, userID, oldRole, newRole string, teamID *string) {
	s.Record(ctx, domain.AuditLog{
		UserID:      changedBy,
		TeamID:      teamID,
		Action:      domain.AuditRoleChanged,
		EntityType:  "user",
		EntityID:    &userID,
		Description: "User role changed",
		Metadata:    map[string]any{"old_role": oldRole, "new_role": newRole},
	})
}

// LogTeamCreated records a team being created.
func (s *AuditService) LogTeamCreated(ctx context.Context, createdBy, teamID, name string) {
	s.Record(ctx, domain.AuditLog{
		UserID:      createdBy,
		TeamID:      &teamID,
		Action:      domain.AuditCreate,
		EntityType:  "team",
		EntityID:    &teamID,
		Description: "Team created",
		Metadata:    map[string]any{"name": name},
	})
}
