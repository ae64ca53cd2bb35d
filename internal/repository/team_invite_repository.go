package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/team-service/internal/domain"
)

// TeamInviteRepository manages persistence for team invites.
type TeamInviteRepository interface {
	Create(ctx context.Context, invite *domain.TeamInvite) error
	GetByID(ctx context.Context, id string) (*domain.TeamInvite, error)
	HasPending(ctx context.Context, teamID, userID string) (bool, error)
	ListPendingByTeam(ctx context.Context, teamID string) ([]domain.TeamInvite, error)
	ListPendingByUser(ctx context.Context, userID string) ([]domain.TeamInvite, error)
	// ResolvePending moves a PENDING invite to a terminal status. It reports
	// false when the row was not pending anymore.
	ResolvePending(ctx context.Context, id string, status domain.InviteStatus) (bool, error)
}

type teamInviteRepository struct {
	pool *pgxpool.Pool
}

// NewTeamInviteRepository constructs repository.
func NewTeamInviteRepository(pool *pgxpool.Pool) TeamInviteRepository {
	return &teamInviteRepository{pool: pool}
}

const inviteColumns = `id, team_id, user_id, invited_by, message, status, created_at, updated_at`

func scanInvite(row pgx.Row, invite *domain.TeamInvite) error {
	return row.Scan(
		&invite.ID,
		&invite.TeamID,
		&invite.UserID,
		&invite.InvitedBy,
		&invite.Message,
		&invite.Status,
		&invite.CreatedAt,
		&invite.UpdatedAt,
	)
}

func (r *teamInviteRepository) Create(ctx context.Context, invite *domain.TeamInvite) error {
	const query = `
        INSERT INTO team_invites (team_id, user_id, invited_by, message, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		invite.TeamID,
		invite.UserID,
		invite.InvitedBy,
		invite.Message,
		invite.Status,
	).Scan(&invite.ID, &invite.CreatedAt, &invite.UpdatedAt)
}

func (r *teamInviteRepository) GetByID(ctx context.Context, id string) (*domain.TeamInvite, error) {
	const query = `SELECT ` + inviteColumns + ` FROM team_invites WHERE id=$1`
	var invite domain.TeamInvite
	if err := scanInvite(r.pool.QueryRow(ctx, query, id), &invite); err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *teamInviteRepository) HasPending(ctx context.Context, teamID, userID string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM team_invites WHERE team_id=$1 AND user_id=$2 AND status='PENDING'
        )`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, teamID, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *teamInviteRepository) ListPendingByTeam(ctx context.Context, teamID string) ([]domain.TeamInvite, error) {
	const query = `SELECT ` + inviteColumns + `
        FROM team_invites WHERE team_id=$1 AND status='PENDING' ORDER BY created_at DESC`
	return r.queryInvites(ctx, query, teamID)
}

func (r *teamInviteRepository) ListPendingByUser(ctx context.Context, userID string) ([]domain.TeamInvite, error) {
	const query = `SELECT ` + inviteColumns + `
        FROM team_invites WHERE user_id=$1 AND status='PENDING' ORDER BY created_at DESC`
	return r.queryInvites(ctx, query, userID)
}

func (r *teamInviteRepository) ResolvePending(ctx context.Context, id string, status domain.InviteStatus) (bool, error) {
	const query = `
        UPDATE team_invites SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status='PENDING'`
	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *teamInviteRepository) queryInvites(ctx context.Context, query string, args ...any) ([]domain.TeamInvite, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TeamInvite
	for rows.Next() {
		var invite domain.TeamInvite
		if err := scanInvite(rows, &invite); err != nil {
			return nil, err
		}
		result = append(result, invite)
	}
	return result, rows.Err()
}
