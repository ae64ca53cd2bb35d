package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/team-service/internal/domain"
	"github.com/spec-kit/team-service/internal/repository"
)

// In-memory fakes backing the service tests. They share state through the
// fixture so the unit-of-work fake can mutate the same maps the repositories
// read from.

type fakeTeamRepo struct {
	teams map[string]*domain.Team
	seq   int
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: map[string]*domain.Team{}}
}

func (f *fakeTeamRepo) Create(_ context.Context, team *domain.Team) error {
	f.seq++
	team.ID = fmt.Sprintf("team-%d", f.seq)
	team.CreatedAt = time.Now()
	team.UpdatedAt = team.CreatedAt
	copied := *team
	f.teams[team.ID] = &copied
	return nil
}

func (f *fakeTeamRepo) Update(_ context.Context, team *domain.Team) error {
	if _, ok := f.teams[team.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *team
	f.teams[team.ID] = &copied
	return nil
}

func (f *fakeTeamRepo) GetByID(_ context.Context, id string) (*domain.Team, error) {
	team, ok := f.teams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *team
	return &copied, nil
}

func (f *fakeTeamRepo) ListActive(_ context.Context) ([]domain.TeamOverview, error) {
	var result []domain.TeamOverview
	for _, team := range f.teams {
		if team.IsActive {
			result = append(result, domain.TeamOverview{Team: *team})
		}
	}
	return result, nil
}

type fakeUserRepo struct {
	users map[string]*domain.User
	seq   int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.seq++
	user.ID = fmt.Sprintf("user-%d", f.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) ListByTeam(_ context.Context, teamID string) ([]domain.User, error) {
	var result []domain.User
	for _, user := range f.users {
		if user.IsActive && user.TeamID != nil && *user.TeamID == teamID {
			result = append(result, *user)
		}
	}
	return result, nil
}

func (f *fakeUserRepo) ListAll(_ context.Context) ([]domain.User, error) {
	var result []domain.User
	for _, user := range f.users {
		result = append(result, *user)
	}
	return result, nil
}

type fakeRequestRepo struct {
	requests  map[string]*domain.TeamRequest
	seq       int
	createErr error
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: map[string]*domain.TeamRequest{}}
}

func (f *fakeRequestRepo) Create(_ context.Context, request *domain.TeamRequest) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.seq++
	request.ID = fmt.Sprintf("req-%d", f.seq)
	request.CreatedAt = time.Now()
	request.UpdatedAt = request.CreatedAt
	copied := *request
	f.requests[request.ID] = &copied
	return nil
}

func (f *fakeRequestRepo) GetByID(_ context.Context, id string) (*domain.TeamRequest, error) {
	request, ok := f.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *request
	return &copied, nil
}

func (f *fakeRequestRepo) HasPending(_ context.Context, teamID, userID string) (bool, error) {
	for _, request := range f.requests {
		if request.TeamID == teamID && request.UserID == userID && request.Status == domain.RequestStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRequestRepo) ListPendingByTeam(_ context.Context, teamID string) ([]domain.TeamRequest, error) {
	var result []domain.TeamRequest
	for _, request := range f.requests {
		if request.TeamID == teamID && request.Status == domain.RequestStatusPending {
			result = append(result, *request)
		}
	}
	return result, nil
}

func (f *fakeRequestRepo) ListPendingByUser(_ context.Context, userID string) ([]domain.TeamRequest, error) {
	var result []domain.TeamRequest
	for _, request := range f.requests {
		if request.UserID == userID && request.Status == domain.RequestStatusPending {
			result = append(result, *request)
		}
	}
	return result, nil
}

func (f *fakeRequestRepo) ResolvePending(_ context.Context, id string, status domain.RequestStatus) (bool, error) {
	request, ok := f.requests[id]
	if !ok || request.Status != domain.RequestStatusPending {
		return false, nil
	}
	request.Status = status
	request.UpdatedAt = time.Now()
	return true, nil
}

type fakeInviteRepo struct {
	invites   map[string]*domain.TeamInvite
	seq       int
	createErr error
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{invites: map[string]*domain.TeamInvite{}}
}

func (f *fakeInviteRepo) Create(_ context.Context, invite *domain.TeamInvite) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.seq++
	invite.ID = fmt.Sprintf("inv-%d", f.seq)
	invite.CreatedAt = time.Now()
	invite.UpdatedAt = invite.CreatedAt
	copied := *invite
	f.invites[invite.ID] = &copied
	return nil
}

func (f *fakeInviteRepo) GetByID(_ context.Context, id string) (*domain.TeamInvite, error) {
	invite, ok := f.invites[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *invite
	return &copied, nil
}

func (f *fakeInviteRepo) HasPending(_ context.Context, teamID, userID string) (bool, error) {
	for _, invite := range f.invites {
		if invite.TeamID == teamID && invite.UserID == userID && invite.Status == domain.InviteStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeInviteRepo) ListPendingByTeam(_ context.Context, teamID string) ([]domain.TeamInvite, error) {
	var result []domain.TeamInvite
	for _, invite := range f.invites {
		if invite.TeamID == teamID && invite.Status == domain.InviteStatusPending {
			result = append(result, *invite)
		}
	}
	return result, nil
}

func (f *fakeInviteRepo) ListPendingByUser(_ context.Context, userID string) ([]domain.TeamInvite, error) {
	var result []domain.TeamInvite
	for _, invite := range f.invites {
		if invite.UserID == userID && invite.Status == domain.InviteStatusPending {
			result = append(result, *invite)
		}
	}
	return result, nil
}

func (f *fakeInviteRepo) ResolvePending(_ context.Context, id string, status domain.InviteStatus) (bool, error) {
	invite, ok := f.invites[id]
	if !ok || invite.Status != domain.InviteStatusPending {
		return false, nil
	}
	invite.Status = status
	invite.UpdatedAt = time.Now()
	return true, nil
}

type fakeRoleRepo struct {
	roles       map[string]*domain.TeamRole
	assignments map[string][]string // userID -> role IDs
	seq         int
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{roles: map[string]*domain.TeamRole{}, assignments: map[string][]string{}}
}

func (f *fakeRoleRepo) Create(_ context.Context, role *domain.TeamRole) error {
	f.seq++
	role.ID = fmt.Sprintf("role-%d", f.seq)
	role.CreatedAt = time.Now()
	role.UpdatedAt = role.CreatedAt
	copied := *role
	f.roles[role.ID] = &copied
	return nil
}

func (f *fakeRoleRepo) GetByID(_ context.Context, id string) (*domain.TeamRole, error) {
	role, ok := f.roles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *role
	return &copied, nil
}

func (f *fakeRoleRepo) ListByTeam(_ context.Context, teamID string) ([]domain.TeamRole, error) {
	var result []domain.TeamRole
	for _, role := range f.roles {
		if role.TeamID == teamID && role.IsActive {
			result = append(result, *role)
		}
	}
	return result, nil
}

func (f *fakeRoleRepo) ListActiveRolesForUser(_ context.Context, userID, teamID string) ([]domain.TeamRole, error) {
	var result []domain.TeamRole
	for _, roleID := range f.assignments[userID] {
		role, ok := f.roles[roleID]
		if ok && role.IsActive && role.TeamID == teamID {
			result = append(result, *role)
		}
	}
	return result, nil
}

func (f *fakeRoleRepo) AssignUser(_ context.Context, userID, teamRoleID string) error {
	for _, existing := range f.assignments[userID] {
		if existing == teamRoleID {
			return nil
		}
	}
	f.assignments[userID] = append(f.assignments[userID], teamRoleID)
	return nil
}

func (f *fakeRoleRepo) UnassignUser(_ context.Context, userID, teamRoleID string) error {
	ids := f.assignments[userID]
	for i, existing := range ids {
		if existing == teamRoleID {
			f.assignments[userID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

type fakeSessionRepo struct {
	sessions map[string]*domain.Session
	seq      int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*domain.Session{}}
}

func (f *fakeSessionRepo) Create(_ context.Context, session *domain.Session) error {
	f.seq++
	session.ID = fmt.Sprintf("sess-%d", f.seq)
	session.CreatedAt = time.Now()
	copied := *session
	f.sessions[session.ID] = &copied
	return nil
}

func (f *fakeSessionRepo) GetByID(_ context.Context, id string) (*domain.Session, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *session
	return &copied, nil
}

func (f *fakeSessionRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.sessions[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionRepo) DeleteExpired(_ context.Context) (int64, error) {
	var removed int64
	now := time.Now()
	for id, session := range f.sessions {
		if session.Expired(now) {
			delete(f.sessions, id)
			removed++
		}
	}
	return removed, nil
}

type fakeAuditRepo struct {
	entries []domain.AuditLog
	failErr error
}

func (f *fakeAuditRepo) Create(_ context.Context, entry *domain.AuditLog) error {
	if f.failErr != nil {
		return f.failErr
	}
	entry.ID = fmt.Sprintf("audit-%d", len(f.entries)+1)
	entry.CreatedAt = time.Now()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) List(_ context.Context, filter repository.AuditLogFilter) ([]domain.AuditLog, error) {
	var result []domain.AuditLog
	for _, entry := range f.entries {
		if filter.UserID != nil && entry.UserID != *filter.UserID {
			continue
		}
		if filter.TeamID != nil && (entry.TeamID == nil || *entry.TeamID != *filter.TeamID) {
			continue
		}
		if filter.Action != nil && entry.Action != *filter.Action {
			continue
		}
		result = append(result, entry)
	}
	return result, nil
}

// fakeUnitOfWork runs the transactional body against the shared fake state.
// It is sequential, which is enough to exercise the pending re-checks that
// decide concurrent races.
type fakeUnitOfWork struct {
	requests *fakeRequestRepo
	invites  *fakeInviteRepo
	users    *fakeUserRepo
}

func (f *fakeUnitOfWork) Run(_ context.Context, fn func(tx repository.MembershipTx) error) error {
	return fn(&fakeMembershipTx{uow: f})
}

type fakeMembershipTx struct {
	uow *fakeUnitOfWork
}

func (t *fakeMembershipTx) RequestForUpdate(ctx context.Context, id string) (*domain.TeamRequest, error) {
	return t.uow.requests.GetByID(ctx, id)
}

func (t *fakeMembershipTx) InviteForUpdate(ctx context.Context, id string) (*domain.TeamInvite, error) {
	return t.uow.invites.GetByID(ctx, id)
}

func (t *fakeMembershipTx) UserForUpdate(ctx context.Context, id string) (*domain.User, error) {
	return t.uow.users.GetByID(ctx, id)
}

func (t *fakeMembershipTx) MarkRequest(_ context.Context, id string, status domain.RequestStatus) error {
	request, ok := t.uow.requests.requests[id]
	if !ok {
		return pgx.ErrNoRows
	}
	request.Status = status
	request.UpdatedAt = time.Now()
	return nil
}

func (t *fakeMembershipTx) MarkInvite(_ context.Context, id string, status domain.InviteStatus) error {
	invite, ok := t.uow.invites.invites[id]
	if !ok {
		return pgx.ErrNoRows
	}
	invite.Status = status
	invite.UpdatedAt = time.Now()
	return nil
}

func (t *fakeMembershipTx) AssignUserTeam(_ context.Context, userID, teamID string) error {
	user, ok := t.uow.users.users[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	assigned := teamID
	user.TeamID = &assigned
	user.UpdatedAt = time.Now()
	return nil
}

func (t *fakeMembershipTx) RejectOtherPendingRequests(_ context.Context, userID, exceptID string) error {
	for id, request := range t.uow.requests.requests {
		if request.UserID == userID && request.Status == domain.RequestStatusPending && id != exceptID {
			request.Status = domain.RequestStatusRejected
		}
	}
	return nil
}

func (t *fakeMembershipTx) DeclineOtherPendingInvites(_ context.Context, userID, exceptID string) error {
	for id, invite := range t.uow.invites.invites {
		if invite.UserID == userID && invite.Status == domain.InviteStatusPending && id != exceptID {
			invite.Status = domain.InviteStatusDeclined
		}
	}
	return nil
}
