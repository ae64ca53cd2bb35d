package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/team-service/internal/domain"
	"github.com/spec-kit/team-service/internal/events"
	apperrors "github.com/spec-kit/team-service/pkg/util"
)

type membershipFixture struct {
	teams      *fakeTeamRepo
	users      *fakeUserRepo
	requests   *fakeRequestRepo
	invites    *fakeInviteRepo
	audit      *fakeAuditRepo
	dispatcher events.Dispatcher
	published  *[]events.Event
	svc        *MembershipService
}

func newMembershipFixture() *membershipFixture {
	teams := newFakeTeamRepo()
	users := newFakeUserRepo()
	requests := newFakeRequestRepo()
	invites := newFakeInviteRepo()
	audit := &fakeAuditRepo{}
	dispatcher := events.NewInMemoryDispatcher()

	published := &[]events.Event{}
	recorder := func(_ context.Context, event events.Event) error {
		*published = append(*published, event)
		return nil
	}
	for _, eventType := range []events.EventType{
		events.EventRequestSent, events.EventRequestApproved, events.EventRequestRejected,
		events.EventInviteSent, events.EventInviteAccepted, events.EventInviteDeclined,
	} {
		dispatcher.Subscribe(eventType, recorder)
	}

	svc := NewMembershipService(MembershipDependencies{
		RequestRepo: requests,
		InviteRepo:  invites,
		TeamRepo:    teams,
		UnitOfWork:  &fakeUnitOfWork{requests: requests, invites: invites, users: users},
		Audit:       NewAuditService(audit, zap.NewNop()),
		Dispatcher:  dispatcher,
	})

	return &membershipFixture{
		teams:      teams,
		users:      users,
		requests:   requests,
		invites:    invites,
		audit:      audit,
		dispatcher: dispatcher,
		published:  published,
		svc:        svc,
	}
}

func (f *membershipFixture) seedTeam(creatorID string) *domain.Team {
	team := &domain.Team{Name: "Platform", IsActive: true, CreatedBy: creatorID}
	_ = f.teams.Create(context.Background(), team)
	return team
}

func (f *membershipFixture) seedUser(name string) *domain.User {
	user := &domain.User{Name: name, Email: name + "@example.com", Role: domain.RoleUser, IsActive: true}
	_ = f.users.Create(context.Background(), user)
	return user
}

func TestCreateTeamRequest(t *testing.T) {
	f := newMembershipFixture()
	creator := f.seedUser("creator")
	team := f.seedTeam(creator.ID)
	user := f.seedUser("alice")

	request, err := f.svc.CreateTeamRequest(context.Background(), team.ID, user.ID, "  let me in  ")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusPending, request.Status)
	assert.Equal(t, "let me in", request.Message)
	assert.NotEmpty(t, request.ID)

	require.Len(t, *f.published, 1)
	assert.Equal(t, events.EventRequestSent, (*f.published)[0].Type)
}

func TestCreateTeamRequestUnknownTeam(t *testing.T) {
	f := newMembershipFixture()
	user := f.seedUser("alice")

	_, err := f.svc.CreateTeamRequest(context.Background(), "missing", user.ID, "")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestCreateTeamRequestDuplicatePending(t *testing.T) {
	f := newMembershipFixture()
	creator := f.seedUser("creator")
	team := f.seedTeam(creator.ID)
	user := f.seedUser("alice")

	_, err := f.svc.CreateTeamRequest(context.Background(), team.ID, user.ID, "")
	require.NoError(t, err)

	_, err = f.svc.CreateTeamRequest(context.Background(), team.ID, user.ID, "again")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDuplicateRequest))
}

func TestCreateTeamRequestRacingInsertMapsUniqueViolation(t *testing.T) {
	f := newMembershipFixture()
	creator := f.seedUser("creator")
	team := f.seedTeam(creator.ID)
	user := f.seedUser("alice")

	f.requests.createErr = &pgconn.PgError{Code: "23505"}
	_, err := f.svc.CreateTeamRequest(context.Background(), team.ID, user.ID, "")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDuplicateRequest))
}

func TestPendingRequestAndInviteMayCoexist(t *testing.T) {
	f := newMembershipFixture()
	creator := f.seedUser("creator")
	team := f.seedTeam(creator.ID)
	user := f.seedUser("alice")

	_, err := f.svc.CreateTeamRequest(context.Background(), team.ID, user.ID, "")
	require.NoError(t, err)

	// a pending request does not block an invite for the same pair
	_, err = f.svc.CreateTeamInvite(context.Background(), team.ID, user.ID, creator.ID, "")
	require.NoError(t, err)
}

func TestApproveTeamRequest(t *testing.T) {
	f := newMembershipFixture()
	creator := f.seedUser("creator")
	team := f.seedTeam(creator.ID)
	user := f.seedUser("alice")
	otherTeam := f.seedTeam(creator.ID)

	request, err := f.svc.CreateTeamRequest(context.Background(), team.ID, user.ID, "")
	require.NoError(t, err)
	otherRequest, err := f.svc.CreateTeamRequest(context.Background(), otherTeam.ID, user.ID, "")
	require.NoError(t, err)
	invite, err := f.svc.CreateTeamInvite(context.Background(), otherTeam.ID, user.ID, creator.ID, "")
	require.NoError(t, err)

	approved, err := f.svc.ApproveTeamRequest(context.Background(), creator.ID, request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusApproved, approved.Status)

	stored, err := f.users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.TeamID)
	assert.Equal(t, team.ID, *stored.TeamID)

	// every other pending item for the user is terminated in the same unit
	remaining, err := f.requests.GetByID(context.Background(), otherRequest.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusRejected, remaining.Status)

	declined, err := f.invites.GetByID(context.Background(), invite.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InviteStatusDeclined, declined.Status)
}

func TestApproveTeamRequestUserAlreadyInTeam(t *testing.T) {
	f := newMembershipFixture()
	creator := f.seedUser("creator")
	team := f.seedTeam(creator.ID)
	user := f.seedUser("alice")

	request, err := f.svc.CreateTeamRequest(context.Background(), team.ID, user.ID, "")
	require.NoError(t, err)

	assigned := team.ID
	stored := f.users.users[user.ID]
	stored.TeamID = &assigned

	_, err = f.svc.ApproveTeamRequest(context.Background(), creator.ID, request.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUserAlreadyInTeam))

	// the request is untouched when the approval fails
	after, err := f.requests.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusPending, after.Status)
}

func TestApproveTeamRequestTwice(t *testing.T) {
	f := newMembershipFixture()
	creator := f.seedUser("creator")
	team := f.seedTeam(creator.ID)
	user := f.seedUser("alice")

	request, err := f.svc.CreateTeamRequest(context.Background(), team.ID, user.ID, "")
	require.NoError(t, err)

	_, err = f.svc.ApproveTeamRequest(context.Background(), creator.ID, request.ID)
	require.NoError(t, err)

	_, err = f.svc.ApproveTeamRequest(context.Background(), creator.ID, request.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAlreadyProcessed))
}

func TestRejectThenApprove(t *testing.T) {
	f := newMembershipFixture()
	creator := f.seedUser("creator")
	team := f.seedTeam(creator.ID)
	user := f.seedUser("alice")

	request, err := f.svc.CreateTeamRequest(context.Background(), team.ID, user.ID, "")
	require.NoError(t, err)

	rejected, err := f.svc.RejectTeamRequest(context.Background(), creator.ID, request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusRejected, rejected.Status)

	_, err = f.svc.ApproveTeamRequest(context.Background(), creator.ID, request.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAlreadyProcessed))

	stored, err := f.users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.TeamID)
}

func TestCancelTeamRequestSharesRejectedState(t *testing.T) {
	f := newMembershipFixture()
	creator := f.seedUser("creator")
	team := f.seedTeam(creator.ID)
	user := f.seedUser("alice")

	request, err := f.svc.CreateTeamRequest(context.Background(), team.ID, user.ID, "")
	require.NoError(t, err)

	cancelled, err := f.svc.CancelTeamRequest(context.Background(), user.ID, request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusRejected, cancelled.Status)

	_, err = f.svc.CancelTeamRequest(context.Background(), user.ID, request.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAlreadyProcessed))
}

func TestAcceptTeamInvite(t *testing.T) {
	f := newMembershipFixture()
	creator := f.seedUser("creator")
	team := f.seedTeam(creator.ID)
	user := f.seedUser("alice")
	otherTeam := f.seedTeam(creator.ID)

	invite, err := f.svc.CreateTeamInvite(context.Background(), team.ID, user.ID, creator.ID, "join us")
	require.NoError(t, err)
	otherInvite, err := f.svc.CreateTeamInvite(context.Background(), otherTeam.ID, user.ID, creator.ID, "")
	require.NoError(t, err)
	request, err := f.svc.CreateTeamRequest(context.Background(), otherTeam.ID, user.ID, "")
	require.NoError(t, err)

	accepted, err := f.svc.AcceptTeamInvite(context.Background(), invite.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InviteStatusAccepted, accepted.Status)

	stored, err := f.users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.TeamID)
	assert.Equal(t, team.ID, *stored.TeamID)

	declined, err := f.invites.GetByID(context.Background(), otherInvite.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InviteStatusDeclined, declined.Status)

	rejected, err := f.requests.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusRejected, rejected.Status)
}

func TestAcceptTeamInviteUserAlreadyInTeam(t *testing.T) {
	f := newMembershipFixture()
	creator := f.seedUser("creator")
	team := f.seedTeam(creator.ID)
	user := f.seedUser("alice")

	invite, err := f.svc.CreateTeamInvite(context.Background(), team.ID, user.ID, creator.ID, "")
	require.NoError(t, err)

	assigned := "elsewhere"
	f.users.users[user.ID].TeamID = &assigned

	_, err = f.svc.AcceptTeamInvite(context.Background(), invite.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUserAlreadyInTeam))
}

func TestDeclineTeamInvite(t *testing.T) {
	f := newMembershipFixture()
	creator := f.seedUser("creator")
	team := f.seedTeam(creator.ID)
	user := f.seedUser("alice")

	invite, err := f.svc.CreateTeamInvite(context.Background(), team.ID, user.ID, creator.ID, "")
	require.NoError(t, err)

	declined, err := f.svc.DeclineTeamInvite(context.Background(), invite.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InviteStatusDeclined, declined.Status)

	// no cascade and no team assignment on decline
	stored, err := f.users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.TeamID)

	_, err = f.svc.DeclineTeamInvite(context.Background(), invite.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAlreadyProcessed))
}

func TestDuplicateInvitePending(t *testing.T) {
	f := newMembershipFixture()
	creator := f.seedUser("creator")
	team := f.seedTeam(creator.ID)
	user := f.seedUser("alice")

	_, err := f.svc.CreateTeamInvite(context.Background(), team.ID, user.ID, creator.ID, "")
	require.NoError(t, err)

	_, err = f.svc.CreateTeamInvite(context.Background(), team.ID, user.ID, creator.ID, "")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDuplicateInvite))
}

func TestResolvedRequestsDropOffPendingLists(t *testing.T) {
	f := newMembershipFixture()
	creator := f.seedUser("creator")
	team := f.seedTeam(creator.ID)
	user := f.seedUser("alice")

	request, err := f.svc.CreateTeamRequest(context.Background(), team.ID, user.ID, "")
	require.NoError(t, err)

	pending, err := f.svc.GetTeamRequests(context.Background(), team.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = f.svc.ApproveTeamRequest(context.Background(), creator.ID, request.ID)
	require.NoError(t, err)

	pending, err = f.svc.GetTeamRequests(context.Background(), team.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	mine, err := f.svc.GetUserTeamRequests(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}
