package domain

import "time"

// RequestStatus enumerates the lifecycle of a join request. A request is
// created PENDING and transitions exactly once to a terminal state.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "PENDING"
	RequestStatusApproved RequestStatus = "APPROVED"
	RequestStatusRejected RequestStatus = "REJECTED"
)

// InviteStatus enumerates the lifecycle of a team invite.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "PENDING"
	InviteStatusAccepted InviteStatus = "ACCEPTED"
	InviteStatusDeclined InviteStatus = "DECLINED"
)

// TeamRequest is a user-initiated ask to join a team.
type TeamRequest struct {
	ID        string
	TeamID    string
	UserID    string
	Message   string
	Status    RequestStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Pending reports whether the request is still unresolved.
func (r *TeamRequest) Pending() bool {
	return r.Status == RequestStatusPending
}

// TeamInvite is a team-side ask for a user to join.
type TeamInvite struct {
	ID        string
	TeamID    string
	UserID    string
	InvitedBy string
	Message   string
	Status    InviteStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Pending reports whether the invite is still unresolved.
func (i *TeamInvite) Pending() bool {
	return i.Status == InviteStatusPending
}
