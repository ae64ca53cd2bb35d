package domain

import "time"

// Team represents an organizational unit users can belong to.
type Team struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TeamOverview augments a team with listing metadata.
type TeamOverview struct {
	Team
	CreatorName  string
	CreatorEmail string
	MemberCount  int
}
