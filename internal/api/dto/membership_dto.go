package dto

import "time"

// CreateJoinRequestRequest payload for a user asking to join a team.
type CreateJoinRequestRequest struct {
	Message string `json:"message"`
}

// CreateInviteRequest payload for a team inviting a user.
type CreateInviteRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// ResolveRequestRequest selects the resolution for a pending join request.
type ResolveRequestRequest struct {
	Action string `json:"action"` // approve, reject or cancel
}

// ResolveInviteRequest selects the resolution for a pending invite.
type ResolveInviteRequest struct {
	Action string `json:"action"` // accept or decline
}

// JoinRequestResponse is the public view of a join request.
type JoinRequestResponse struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"team_id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InviteResponse is the public view of an invite.
type InviteResponse struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"team_id"`
	UserID    string    `json:"user_id"`
	InvitedBy string    `json:"invited_by"`
	Message   string    `json:"message,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
