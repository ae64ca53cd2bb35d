package dto

import "time"

// CreateTeamRequest payload for team creation.
type CreateTeamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TeamResponse is the public view of a team.
type TeamResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TeamOverviewResponse augments a team with listing metadata.
type TeamOverviewResponse struct {
	TeamResponse
	CreatorName  string `json:"creator_name"`
	CreatorEmail string `json:"creator_email"`
	MemberCount  int    `json:"member_count"`
}

// CreateTeamRoleRequest payload for new team roles.
type CreateTeamRoleRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// TeamRoleResponse is the public view of a team role.
type TeamRoleResponse struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"team_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// AssignTeamRoleRequest payload to link or unlink a user and a role.
type AssignTeamRoleRequest struct {
	UserID     string `json:"user_id"`
	TeamRoleID string `json:"team_role_id"`
}
