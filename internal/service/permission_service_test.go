package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/team-service/internal/domain"
)

func permissionFixture() (*PermissionService, *fakeTeamRepo, *fakeRoleRepo) {
	teams := newFakeTeamRepo()
	roles := newFakeRoleRepo()
	return NewPermissionService(teams, roles), teams, roles
}

func seedRole(t *testing.T, roles *fakeRoleRepo, teamID, name string, active bool) *domain.TeamRole {
	t.Helper()
	role := &domain.TeamRole{TeamID: teamID, Name: name, IsActive: active}
	require.NoError(t, roles.Create(context.Background(), role))
	return role
}

func TestCanManageTeamRequestsCreator(t *testing.T) {
	svc, teams, _ := permissionFixture()
	team := &domain.Team{Name: "Platform", IsActive: true, CreatedBy: "user-1"}
	require.NoError(t, teams.Create(context.Background(), team))

	allowed, err := svc.CanManageTeamRequests(context.Background(), "user-1", team.ID)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCanManageTeamRequestsLeadershipKeyword(t *testing.T) {
	svc, teams, roles := permissionFixture()
	team := &domain.Team{Name: "Platform", IsActive: true, CreatedBy: "creator"}
	require.NoError(t, teams.Create(context.Background(), team))

	role := seedRole(t, roles, team.ID, "QA Lead", true)
	require.NoError(t, roles.AssignUser(context.Background(), "user-2", role.ID))

	allowed, err := svc.CanManageTeamRequests(context.Background(), "user-2", team.ID)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCanManageTeamRequestsSubstringMatch(t *testing.T) {
	svc, teams, roles := permissionFixture()
	team := &domain.Team{Name: "Platform", IsActive: true, CreatedBy: "creator"}
	require.NoError(t, teams.Create(context.Background(), team))

	// "Lead" matches inside a longer role name
	role := seedRole(t, roles, team.ID, "Junior Team Lead Trainee", true)
	require.NoError(t, roles.AssignUser(context.Background(), "user-3", role.ID))

	allowed, err := svc.CanManageTeamRequests(context.Background(), "user-3", team.ID)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCanManageTeamRequestsPlainMember(t *testing.T) {
	svc, teams, roles := permissionFixture()
	team := &domain.Team{Name: "Platform", IsActive: true, CreatedBy: "creator"}
	require.NoError(t, teams.Create(context.Background(), team))

	role := seedRole(t, roles, team.ID, "Full Stack Developer", true)
	require.NoError(t, roles.AssignUser(context.Background(), "user-4", role.ID))

	allowed, err := svc.CanManageTeamRequests(context.Background(), "user-4", team.ID)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCanManageTeamRequestsRoleInOtherTeam(t *testing.T) {
	svc, teams, roles := permissionFixture()
	team := &domain.Team{Name: "Platform", IsActive: true, CreatedBy: "creator"}
	require.NoError(t, teams.Create(context.Background(), team))
	other := &domain.Team{Name: "Design", IsActive: true, CreatedBy: "creator"}
	require.NoError(t, teams.Create(context.Background(), other))

	// a leadership role in another team carries no rights here
	role := seedRole(t, roles, other.ID, "Tech Lead", true)
	require.NoError(t, roles.AssignUser(context.Background(), "user-5", role.ID))

	allowed, err := svc.CanManageTeamRequests(context.Background(), "user-5", team.ID)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCanManageTeamRequestsMissingTeamFailsClosed(t *testing.T) {
	svc, _, _ := permissionFixture()

	allowed, err := svc.CanManageTeamRequests(context.Background(), "user-6", "missing")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCanManageTeamRequestsInactiveRole(t *testing.T) {
	svc, teams, roles := permissionFixture()
	team := &domain.Team{Name: "Platform", IsActive: true, CreatedBy: "creator"}
	require.NoError(t, teams.Create(context.Background(), team))

	role := seedRole(t, roles, team.ID, "Team Lead", false)
	require.NoError(t, roles.AssignUser(context.Background(), "user-7", role.ID))

	allowed, err := svc.CanManageTeamRequests(context.Background(), "user-7", team.ID)
	require.NoError(t, err)
	assert.False(t, allowed)
}
