package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/team-service/internal/domain"
)

// uniqueViolation is the Postgres error code for unique constraint breaches.
const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique-constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// TeamRequestRepository manages persistence for join requests.
type TeamRequestRepository interface {
	Create(ctx context.Context, request *domain.TeamRequest) error
	GetByID(ctx context.Context, id string) (*domain.TeamRequest, error)
	HasPending(ctx context.Context, teamID, userID string) (bool, error)
	ListPendingByTeam(ctx context.Context, teamID string) ([]domain.TeamRequest, error)
	ListPendingByUser(ctx context.Context, userID string) ([]domain.TeamRequest, error)
	// ResolvePending moves a PENDING request to a terminal status. It reports
	// false when the row was not pending anymore.
	ResolvePending(ctx context.Context, id string, status domain.RequestStatus) (bool, error)
}

type teamRequestRepository struct {
	pool *pgxpool.Pool
}

// NewTeamRequestRepository constructs repository.
func NewTeamRequestRepository(pool *pgxpool.Pool) TeamRequestRepository {
	return &teamRequestRepository{pool: pool}
}

const requestColumns = `id, team_id, user_id, message, status, created_at, updated_at`

func scanRequest(row pgx.Row, request *domain.TeamRequest) error {
	return row.Scan(
		&request.ID,
		&request.TeamID,
		&request.UserID,
		&request.Message,
		&request.Status,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
}

func (r *teamRequestRepository) Create(ctx context.Context, request *domain.TeamRequest) error {
	const query = `
        INSERT INTO team_requests (team_id, user_id, message, status)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		request.TeamID,
		request.UserID,
		request.Message,
		request.Status,
	).Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)
}

func (r *teamRequestRepository) GetByID(ctx context.Context, id string) (*domain.TeamRequest, error) {
	const query = `SELECT ` + requestColumns + ` FROM team_requests WHERE id=$1`
	var request domain.TeamRequest
	if err := scanRequest(r.pool.QueryRow(ctx, query, id), &request); err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *teamRequestRepository) HasPending(ctx context.Context, teamID, userID string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM team_requests WHERE team_id=$1 AND user_id=$2 AND status='PENDING'
        )`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, teamID, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *teamRequestRepository) ListPendingByTeam(ctx context.Context, teamID string) ([]domain.TeamRequest, error) {
	const query = `SELECT ` + requestColumns + `
        FROM team_requests WHERE team_id=$1 AND status='PENDING' ORDER BY created_at DESC`
	return r.queryRequests(ctx, query, teamID)
}

func (r *teamRequestRepository) ListPendingByUser(ctx context.Context, userID string) ([]domain.TeamRequest, error) {
	const query = `SELECT ` + requestColumns + `
        FROM team_requests WHERE user_id=$1 AND status='PENDING' ORDER BY created_at DESC`
	return r.queryRequests(ctx, query, userID)
}

func (r *teamRequestRepository) ResolvePending(ctx context.Context, id string, status domain.RequestStatus) (bool, error) {
	const query = `
        UPDATE team_requests SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status='PENDING'`
	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *teamRequestRepository) queryRequests(ctx context.Context, query string, args ...any) ([]domain.TeamRequest, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TeamRequest
	for rows.Next() {
		var request domain.TeamRequest
		if err := scanRequest(rows, &request); err != nil {
			return nil, err
		}
		result = append(result, request)
	}
	return result, rows.Err()
}
