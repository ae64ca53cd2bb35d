package dto

import "time"

// AuditLogResponse is the public view of an audit entry.
type AuditLogResponse struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	TeamID      *string        `json:"team_id,omitempty"`
	Action      string         `json:"action"`
	EntityType  string         `json:"entity_type"`
	EntityID    *string        `json:"entity_id,omitempty"`
	Description string         `json:"description"`
	IPAddress   *string        `json:"ip_address,omitempty"`
	UserAgent   *string        `json:"user_agent,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
