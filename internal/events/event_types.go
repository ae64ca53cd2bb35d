package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTeamCreated     EventType = "team_created"
	EventRequestSent     EventType = "request_sent"
	EventRequestApproved EventType = "request_approved"
	EventRequestRejected EventType = "request_rejected"
	EventInviteSent      EventType = "invite_sent"
	EventInviteAccepted  EventType = "invite_accepted"
	EventInviteDeclined  EventType = "invite_declined"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TeamID    string      `json:"team_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RequestPayload accompanies request lifecycle events.
type RequestPayload struct {
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id"`
}

// InvitePayload accompanies invite lifecycle events.
type InvitePayload struct {
	InviteID  string `json:"invite_id"`
	UserID    string `json:"user_id"`
	InvitedBy string `json:"invited_by,omitempty"`
}

// TeamCreatedPayload accompanies team creation events.
type TeamCreatedPayload struct {
	Name      string `json:"name"`
	CreatedBy string `json:"created_by"`
}
