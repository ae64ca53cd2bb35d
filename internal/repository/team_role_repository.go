package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/team-service/internal/domain"
)

// TeamRoleRepository manages team-scoped roles and their assignments.
type TeamRoleRepository interface {
	Create(ctx context.Context, role *domain.TeamRole) error
	GetByID(ctx context.Context, id string) (*domain.TeamRole, error)
	ListByTeam(ctx context.Context, teamID string) ([]domain.TeamRole, error)
	// ListActiveRolesForUser returns the active roles the user holds that
	// belong to the given team.
	ListActiveRolesForUser(ctx context.Context, userID, teamID string) ([]domain.TeamRole, error)
	AssignUser(ctx context.Context, userID, teamRoleID string) error
	UnassignUser(ctx context.Context, userID, teamRoleID string) error
}

type teamRoleRepository struct {
	pool *pgxpool.Pool
}

// NewTeamRoleRepository constructs repository.
func NewTeamRoleRepository(pool *pgxpool.Pool) TeamRoleRepository {
	return &teamRoleRepository{pool: pool}
}

func (r *teamRoleRepository) Create(ctx context.Context, role *domain.TeamRole) error {
	const query = `
        INSERT INTO team_roles (team_id, name, color, is_active)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		role.TeamID,
		role.Name,
		role.Color,
		role.IsActive,
	).Scan(&role.ID, &role.CreatedAt, &role.UpdatedAt)
}

func (r *teamRoleRepository) GetByID(ctx context.Context, id string) (*domain.TeamRole, error) {
	const query = `
        SELECT id, team_id, name, color, is_active, created_at, updated_at
        FROM team_roles WHERE id=$1`
	var role domain.TeamRole
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&role.ID,
		&role.TeamID,
		&role.Name,
		&role.Color,
		&role.IsActive,
		&role.CreatedAt,
		&role.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *teamRoleRepository) ListByTeam(ctx context.Context, teamID string) ([]domain.TeamRole, error) {
	const query = `
        SELECT id, team_id, name, color, is_active, created_at, updated_at
        FROM team_roles WHERE team_id=$1 AND is_active=TRUE ORDER BY name`
	return r.queryRoles(ctx, query, teamID)
}

func (r *teamRoleRepository) ListActiveRolesForUser(ctx context.Context, userID, teamID string) ([]domain.TeamRole, error) {
	const query = `
        SELECT tr.id, tr.team_id, tr.name, tr.color, tr.is_active, tr.created_at, tr.updated_at
        FROM team_roles tr
        JOIN user_team_roles utr ON utr.team_role_id = tr.id
        WHERE utr.user_id=$1 AND tr.team_id=$2 AND tr.is_active=TRUE`
	return r.queryRoles(ctx, query, userID, teamID)
}

func (r *teamRoleRepository) AssignUser(ctx context.Context, userID, teamRoleID string) error {
	const query = `
        INSERT INTO user_team_roles (user_id, team_role_id)
        VALUES ($1,$2)
        ON CONFLICT (user_id, team_role_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, userID, teamRoleID)
	return err
}

func (r *teamRoleRepository) UnassignUser(ctx context.Context, userID, teamRoleID string) error {
	const query = `DELETE FROM user_team_roles WHERE user_id=$1 AND team_role_id=$2`
	cmd, err := r.pool.Exec(ctx, query, userID, teamRoleID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *teamRoleRepository) queryRoles(ctx context.Context, query string, args ...any) ([]domain.TeamRole, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TeamRole
	for rows.Next() {
		var role domain.TeamRole
		if err := rows.Scan(
			&role.ID,
			&role.TeamID,
			&role.Name,
			&role.Color,
			&role.IsActive,
			&role.CreatedAt,
			&role.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, role)
	}
	return result, rows.Err()
}
