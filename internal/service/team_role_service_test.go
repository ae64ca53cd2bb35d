package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/team-service/internal/domain"
	apperrors "github.com/spec-kit/team-service/pkg/util"
)

func roleFixture() (*TeamRoleService, *fakeTeamRepo, *fakeUserRepo, *fakeRoleRepo) {
	teams := newFakeTeamRepo()
	users := newFakeUserRepo()
	roles := newFakeRoleRepo()
	audit := &fakeAuditRepo{}
	svc := NewTeamRoleService(roles, teams, users, NewAuditService(audit, zap.NewNop()))
	return svc, teams, users, roles
}

func TestCreateRoleDefaultsColor(t *testing.T) {
	svc, teams, _, _ := roleFixture()
	team := &domain.Team{Name: "Platform", IsActive: true, CreatedBy: "creator"}
	require.NoError(t, teams.Create(context.Background(), team))

	role, err := svc.CreateRole(context.Background(), team.ID, "Tech Lead", "")
	require.NoError(t, err)
	assert.Equal(t, defaultRoleColor, role.Color)
	assert.True(t, role.IsActive)
}

func TestCreateRoleUnknownTeam(t *testing.T) {
	svc, _, _, _ := roleFixture()

	_, err := svc.CreateRole(context.Background(), "missing", "Tech Lead", "")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestAssignRoleRequiresMembership(t *testing.T) {
	svc, teams, users, _ := roleFixture()
	team := &domain.Team{Name: "Platform", IsActive: true, CreatedBy: "creator"}
	require.NoError(t, teams.Create(context.Background(), team))

	role, err := svc.CreateRole(context.Background(), team.ID, "Tech Lead", "")
	require.NoError(t, err)

	outsider := &domain.User{Name: "Eve", Email: "eve@example.com", Role: domain.RoleUser, IsActive: true}
	require.NoError(t, users.Create(context.Background(), outsider))

	err = svc.AssignRole(context.Background(), "creator", outsider.ID, role.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestAssignAndRemoveRole(t *testing.T) {
	svc, teams, users, roles := roleFixture()
	team := &domain.Team{Name: "Platform", IsActive: true, CreatedBy: "creator"}
	require.NoError(t, teams.Create(context.Background(), team))

	role, err := svc.CreateRole(context.Background(), team.ID, "Tech Lead", "#FF0000")
	require.NoError(t, err)

	member := &domain.User{Name: "Bob", Email: "bob@example.com", Role: domain.RoleUser, TeamID: &team.ID, IsActive: true}
	require.NoError(t, users.Create(context.Background(), member))

	require.NoError(t, svc.AssignRole(context.Background(), "creator", member.ID, role.ID))

	held, err := roles.ListActiveRolesForUser(context.Background(), member.ID, team.ID)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, "Tech Lead", held[0].Name)

	require.NoError(t, svc.RemoveRole(context.Background(), "creator", member.ID, role.ID))

	held, err = roles.ListActiveRolesForUser(context.Background(), member.ID, team.ID)
	require.NoError(t, err)
	assert.Empty(t, held)
}
