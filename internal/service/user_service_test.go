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

func userFixture() (*UserService, *fakeUserRepo, *fakeAuditRepo) {
	users := newFakeUserRepo()
	audit := &fakeAuditRepo{}
	return NewUserService(users, NewAuditService(audit, zap.NewNop()), 4), users, audit
}

func TestUserCreateAndDuplicateEmail(t *testing.T) {
	svc, _, audit := userFixture()

	teamID := "team-1"
	user, err := svc.Create(context.Background(), "admin-1", UserCreateInput{
		Name:     "Bob",
		Email:    "Bob@Example.com",
		Password: "pw",
		Role:     domain.RoleUser,
		TeamID:   &teamID,
	})
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", user.Email)
	assert.NotEmpty(t, audit.entries)

	_, err = svc.Create(context.Background(), "admin-1", UserCreateInput{
		Name:     "Bobby",
		Email:    "bob@example.com",
		Password: "pw",
		Role:     domain.RoleUser,
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestUserCreateRejectsUnknownRole(t *testing.T) {
	svc, _, _ := userFixture()

	_, err := svc.Create(context.Background(), "admin-1", UserCreateInput{
		Name:     "Bob",
		Email:    "bob@example.com",
		Password: "pw",
		Role:     "OWNER",
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}

func TestUserGetScopedToTeam(t *testing.T) {
	svc, users, _ := userFixture()

	teamID := "team-1"
	member := &domain.User{Name: "Bob", Email: "bob@example.com", Role: domain.RoleUser, TeamID: &teamID, IsActive: true}
	require.NoError(t, users.Create(context.Background(), member))

	found, err := svc.Get(context.Background(), member.ID, "team-1")
	require.NoError(t, err)
	assert.Equal(t, member.ID, found.ID)

	// another team cannot see the user
	_, err = svc.Get(context.Background(), member.ID, "team-2")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestUserDeleteIsSoft(t *testing.T) {
	svc, users, _ := userFixture()

	teamID := "team-1"
	member := &domain.User{Name: "Bob", Email: "bob@example.com", Role: domain.RoleUser, TeamID: &teamID, IsActive: true}
	require.NoError(t, users.Create(context.Background(), member))

	require.NoError(t, svc.Delete(context.Background(), "admin-1", member.ID, "team-1"))

	stored, err := users.GetByID(context.Background(), member.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	// deactivated users disappear from the scoped lookup
	_, err = svc.Get(context.Background(), member.ID, "team-1")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestUserUpdateRoleChangeAudited(t *testing.T) {
	svc, users, audit := userFixture()

	teamID := "team-1"
	member := &domain.User{Name: "Bob", Email: "bob@example.com", Role: domain.RoleUser, TeamID: &teamID, IsActive: true}
	require.NoError(t, users.Create(context.Background(), member))

	newRole := domain.RoleManager
	updated, err := svc.Update(context.Background(), "admin-1", member.ID, "team-1", UserUpdateInput{Role: &newRole})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, updated.Role)

	var sawRoleChange bool
	for _, entry := range audit.entries {
		if entry.Action == domain.AuditRoleChanged {
			sawRoleChange = true
		}
	}
	assert.True(t, sawRoleChange)
}

func TestAdminUpdateClearsTeam(t *testing.T) {
	svc, users, _ := userFixture()

	teamID := "team-1"
	member := &domain.User{Name: "Bob", Email: "bob@example.com", Role: domain.RoleUser, TeamID: &teamID, IsActive: true}
	require.NoError(t, users.Create(context.Background(), member))

	updated, err := svc.AdminUpdate(context.Background(), "root-1", member.ID, UserUpdateInput{ClearTeam: true})
	require.NoError(t, err)
	assert.Nil(t, updated.TeamID)
}
