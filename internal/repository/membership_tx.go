package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/team-service/internal/domain"
)

// MembershipTx exposes the writes that must happen atomically when a request
// is approved or an invite is accepted: the primary status transition, the
// user's team assignment, and the cascading rejection of every other pending
// item for that user. Rows are locked FOR UPDATE so the pending check stays
// valid against a concurrent resolution; the loser observes a non-pending row.
type MembershipTx interface {
	RequestForUpdate(ctx context.Context, id string) (*domain.TeamRequest, error)
	InviteForUpdate(ctx context.Context, id string) (*domain.TeamInvite, error)
	UserForUpdate(ctx context.Context, id string) (*domain.User, error)
	MarkRequest(ctx context.Context, id string, status domain.RequestStatus) error
	MarkInvite(ctx context.Context, id string, status domain.InviteStatus) error
	AssignUserTeam(ctx context.Context, userID, teamID string) error
	// RejectOtherPendingRequests rejects every pending request of the user
	// except the one identified by exceptID (empty rejects all).
	RejectOtherPendingRequests(ctx context.Context, userID, exceptID string) error
	// DeclineOtherPendingInvites declines every pending invite of the user
	// except the one identified by exceptID (empty declines all).
	DeclineOtherPendingInvites(ctx context.Context, userID, exceptID string) error
}

// MembershipUnitOfWork runs a function inside a single database transaction.
type MembershipUnitOfWork interface {
	Run(ctx context.Context, fn func(tx MembershipTx) error) error
}

type membershipUnitOfWork struct {
	pool *pgxpool.Pool
}

// NewMembershipUnitOfWork constructs the pgx-backed unit of work.
func NewMembershipUnitOfWork(pool *pgxpool.Pool) MembershipUnitOfWork {
	return &membershipUnitOfWork{pool: pool}
}

func (u *membershipUnitOfWork) Run(ctx context.Context, fn func(tx MembershipTx) error) error {
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(&membershipTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type membershipTx struct {
	tx pgx.Tx
}

func (m *membershipTx) RequestForUpdate(ctx context.Context, id string) (*domain.TeamRequest, error) {
	const query = `SELECT ` + requestColumns + ` FROM team_requests WHERE id=$1 FOR UPDATE`
	var request domain.TeamRequest
	if err := scanRequest(m.tx.QueryRow(ctx, query, id), &request); err != nil {
		return nil, err
	}
	return &request, nil
}

func (m *membershipTx) InviteForUpdate(ctx context.Context, id string) (*domain.TeamInvite, error) {
	const query = `SELECT ` + inviteColumns + ` FROM team_invites WHERE id=$1 FOR UPDATE`
	var invite domain.TeamInvite
	if err := scanInvite(m.tx.QueryRow(ctx, query, id), &invite); err != nil {
		return nil, err
	}
	return &invite, nil
}

func (m *membershipTx) UserForUpdate(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id=$1 FOR UPDATE`
	var user domain.User
	if err := scanUser(m.tx.QueryRow(ctx, query, id), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (m *membershipTx) MarkRequest(ctx context.Context, id string, status domain.RequestStatus) error {
	const query = `UPDATE team_requests SET status=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := m.tx.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (m *membershipTx) MarkInvite(ctx context.Context, id string, status domain.InviteStatus) error {
	const query = `UPDATE team_invites SET status=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := m.tx.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (m *membershipTx) AssignUserTeam(ctx context.Context, userID, teamID string) error {
	const query = `UPDATE users SET team_id=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := m.tx.Exec(ctx, query, teamID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (m *membershipTx) RejectOtherPendingRequests(ctx context.Context, userID, exceptID string) error {
	const query = `
        UPDATE team_requests SET status='REJECTED', updated_at=NOW()
        WHERE user_id=$1 AND status='PENDING' AND id::text<>$2`
	_, err := m.tx.Exec(ctx, query, userID, exceptID)
	return err
}

func (m *membershipTx) DeclineOtherPendingInvites(ctx context.Context, userID, exceptID string) error {
	const query = `
        UPDATE team_invites SET status='DECLINED', updated_at=NOW()
        WHERE user_id=$1 AND status='PENDING' AND id::text<>$2`
	_, err := m.tx.Exec(ctx, query, userID, exceptID)
	return err
}
