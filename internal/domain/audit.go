package domain

import "time"

// AuditAction identifies the kind of action recorded in the audit trail.
type AuditAction string

const (
	AuditLogin           AuditAction = "LOGIN"
	AuditLogout          AuditAction = "LOGOUT"
	AuditCreate          AuditAction = "CREATE"
	AuditUpdate          AuditAction = "UPDATE"
	AuditDelete          AuditAction = "DELETE"
	AuditRoleChanged     AuditAction = "ROLE_CHANGED"
	AuditStatusChanged   AuditAction = "STATUS_CHANGED"
	AuditInviteSent      AuditAction = "INVITE_SENT"
	AuditInviteAccepted  AuditAction = "INVITE_ACCEPTED"
	AuditInviteDeclined  AuditAction = "INVITE_DECLINED"
	AuditRequestSent     AuditAction = "REQUEST_SENT"
	AuditRequestApproved AuditAction = "REQUEST_APPROVED"
	AuditRequestRejected AuditAction = "REQUEST_REJECTED"
)

// AuditLog is an immutable append-only record of an action taken.
// Entries are never updated or deleted.
type AuditLog struct {
	ID          string
	UserID      string
	TeamID      *string
	Action      AuditAction
	EntityType  string
	EntityID    *string
	Description string
	IPAddress   *string
	UserAgent   *string
	Metadata    map[string]any
	CreatedAt   time.Time
}
