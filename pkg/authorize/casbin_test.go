package authorize

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/odonto_backend/internal/apperr"
	"github.com/Alijeyrad/odonto_backend/internal/domain"
)

func newTestAuthorization(t *testing.T) IAuthorization {
	t.Helper()
	e, cleanup, err := NewMemoryEnforcer("")
	require.NoError(t, err)
	t.Cleanup(func() { cleanup(context.Background()) })

	auth, err := NewAuthorization(e)
	require.NoError(t, err)
	return auth
}

func TestNewAuthorizationRejectsNilEnforcer(t *testing.T) {
	_, err := NewAuthorization(nil)
	assert.ErrorIs(t, err, ErrInvalidArgs)
}

func TestEnforce(t *testing.T) {
	auth := newTestAuthorization(t)
	ctx := context.Background()
	user := GroupSubject(uuid.NewString())

	_, err := auth.AddRoleForUserInDomain(ctx, user, RoleCoordinador, DomainSys)
	require.NoError(t, err)
	_, err = auth.AddPermission(ctx, RoleCoordinador, DomainSys, ResourceProcedure, ActionManage, EffectAllow)
	require.NoError(t, err)

	tests := []struct {
		name     string
		subject  GroupSubject
		domain   Domain
		resource Resource
		action   Action
		want     bool
		wantErr  bool
	}{
		{"granted", user, DomainSys, ResourceProcedure, ActionManage, true, false},
		{"manage implies override", user, DomainSys, ResourceProcedure, ActionOverride, true, false},
		{"no policy", user, DomainSys, ResourceUser, ActionRead, false, false},
		{"empty subject", "", DomainSys, ResourceProcedure, ActionRead, false, true},
		{"bad domain", user, Domain("clinic"), ResourceProcedure, ActionRead, false, true},
		{"unknown resource", user, DomainSys, Resource("invoice"), ActionRead, false, true},
		{"unknown action", user, DomainSys, ResourceProcedure, Action("approve"), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.Enforce(ctx, tt.subject, tt.domain, tt.resource, tt.action)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMustEnforceReturnsForbiddenKind(t *testing.T) {
	auth := newTestAuthorization(t)
	ctx := context.Background()
	clerk := GroupSubject(uuid.NewString())

	_, _ = auth.AddRoleForUserInDomain(ctx, clerk, RoleAdmision, DomainSys)
	_, _ = auth.AddPermission(ctx, RoleAdmision, DomainSys, ResourcePatient, ActionCreate, EffectAllow)

	assert.NoError(t, auth.MustEnforce(ctx, clerk, DomainSys, ResourcePatient, ActionCreate))

	err := auth.MustEnforce(ctx, clerk, DomainSys, ResourceAudit, ActionDelete)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestAdminPassesEveryCheck(t *testing.T) {
	auth := newTestAuthorization(t)
	ctx := context.Background()
	admin := GroupSubject(uuid.NewString())

	_, err := auth.AddRoleForUserInDomain(ctx, admin, RoleAdmin, DomainSys)
	require.NoError(t, err)

	allowed, err := auth.Enforce(ctx, admin, DomainSys, ResourceUser, ActionDelete)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = auth.Enforce(ctx, admin, UserDomain(uuid.NewString()), ResourceNotification, ActionList)
	require.NoError(t, err)
	assert.True(t, allowed, "admin bypass applies in private domains too")
}

func TestRoleManagement(t *testing.T) {
	auth := newTestAuthorization(t)
	ctx := context.Background()
	userID := uuid.NewString()
	subject, dom := GroupSubject(userID), UserDomain(userID)

	added, err := auth.AddRoleForUserInDomain(ctx, subject, RoleUserSelf, dom)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = auth.AddRoleForUserInDomain(ctx, subject, RoleUserSelf, dom)
	require.NoError(t, err)
	assert.False(t, added, "second grant is a no-op")

	roles, err := auth.GetRolesForUserInDomain(ctx, subject, dom)
	require.NoError(t, err)
	assert.Equal(t, []Role{RoleUserSelf}, roles)

	removed, err := auth.RemoveRoleForUserInDomain(ctx, subject, RoleUserSelf, dom)
	require.NoError(t, err)
	assert.True(t, removed)

	roles, err = auth.GetRolesForUserInDomain(ctx, subject, dom)
	require.NoError(t, err)
	assert.Empty(t, roles)

	_, err = auth.AddRoleForUserInDomain(ctx, subject, Role("dean"), dom)
	assert.ErrorIs(t, err, ErrInvalidArgs)
}

func TestPermissionManagement(t *testing.T) {
	auth := newTestAuthorization(t)
	ctx := context.Background()

	added, err := auth.AddPermission(ctx, RoleAlumno, DomainSys, ResourceProcedure, ActionRead, EffectAllow)
	require.NoError(t, err)
	assert.True(t, added)

	removed, err := auth.RemovePermission(ctx, RoleAlumno, DomainSys, ResourceProcedure, ActionRead, EffectAllow)
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = auth.AddPermission(ctx, RoleAdmision, DomainSys, ResourceUser, ActionRead, PolicyEffect("maybe"))
	assert.ErrorIs(t, err, ErrInvalidArgs)
}

func TestSeededPolicies(t *testing.T) {
	auth := newTestAuthorization(t)
	ctx := context.Background()
	require.NoError(t, SeedDefaultPolicies(ctx, auth))

	student := uuid.NewString()
	coordinator := uuid.NewString()
	require.NoError(t, AssignUserRoles(ctx, auth, student, domain.RoleAlumno))
	require.NoError(t, AssignUserRoles(ctx, auth, coordinator, domain.RoleCoordinador))

	tests := []struct {
		name     string
		subject  string
		domain   Domain
		resource Resource
		action   Action
		want     bool
	}{
		{"student claims", student, DomainSys, ResourceAssignment, ActionClaim, true},
		{"student cannot override", student, DomainSys, ResourceProcedure, ActionOverride, false},
		{"student cannot create patients", student, DomainSys, ResourcePatient, ActionCreate, false},
		{"coordinator overrides", coordinator, DomainSys, ResourceProcedure, ActionOverride, true},
		{"coordinator abandons", coordinator, DomainSys, ResourceAssignment, ActionAbandon, true},
		{"coordinator cannot claim", coordinator, DomainSys, ResourceAssignment, ActionClaim, false},
		{"own notifications", student, UserDomain(student), ResourceNotification, ActionList, true},
		{"someone else's notifications", student, UserDomain(coordinator), ResourceNotification, ActionList, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.Enforce(ctx, GroupSubject(tt.subject), tt.domain, tt.resource, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("role change", func(t *testing.T) {
		require.NoError(t, ReplaceUserRole(ctx, auth, student, domain.RoleAlumno, domain.RoleCoordinador))
		roles, err := GetSystemRoles(ctx, auth, student)
		require.NoError(t, err)
		assert.Equal(t, []Role{RoleCoordinador}, roles)
	})

	t.Run("seeding twice keeps one copy", func(t *testing.T) {
		require.NoError(t, SeedDefaultPolicies(ctx, auth))
		got, err := auth.Enforce(ctx, GroupSubject(coordinator), DomainSys, ResourceProcedure, ActionOverride)
		require.NoError(t, err)
		assert.True(t, got)
	})
}
