package domain

import "time"

// TeamRole is a named role scoped to exactly one team.
type TeamRole struct {
	ID        string
	TeamID    string
	Name      string
	Color     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserTeamRole links a user to a role within their current team.
type UserTeamRole struct {
	ID         string
	UserID     string
	TeamRoleID string
	CreatedAt  time.Time
}
