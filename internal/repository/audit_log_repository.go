package repository

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/team-service/internal/domain"
)

// AuditLogFilter narrows audit log queries.
type AuditLogFilter struct {
	UserID *string
	TeamID *string
	Action *domain.AuditAction
	Limit  int
	Offset int
}

// AuditLogRepository persists the append-only audit trail. There is no
// update or delete path.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	List(ctx context.Context, filter AuditLogFilter) ([]domain.AuditLog, error)
}

type auditLogRepository struct {
	pool *pgxpool.Pool
}

// NewAuditLogRepository builds repository.
func NewAuditLogRepository(pool *pgxpool.Pool) AuditLogRepository {
	return &auditLogRepository{pool: pool}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	const query = `
        INSERT INTO audit_logs (user_id, team_id, action, entity_type, entity_id, description, ip_address, user_agent, metadata)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.UserID,
		entry.TeamID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.Description,
		entry.IPAddress,
		entry.UserAgent,
		entry.Metadata,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditLogRepository) List(ctx context.Context, filter AuditLogFilter) ([]domain.AuditLog, error) {
	query := `
        SELECT id, user_id, team_id, action, entity_type, entity_id, description, ip_address, user_agent, metadata, created_at
        FROM audit_logs WHERE 1=1`
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		query += ` AND user_id=$` + strconv.Itoa(len(args))
	}
	if filter.TeamID != nil {
		args = append(args, *filter.TeamID)
		query += ` AND team_id=$` + strconv.Itoa(len(args))
	}
	if filter.Action != nil {
		args = append(args, *filter.Action)
		query += ` AND action=$` + strconv.Itoa(len(args))
	}

	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditLog
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.TeamID,
			&entry.Action,
			&entry.EntityType,
			&entry.EntityID,
			&entry.Description,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.Metadata,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
