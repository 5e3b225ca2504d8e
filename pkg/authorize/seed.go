package authorize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Alijeyrad/odonto_backend/internal/domain"
)

// allow expands one role's grants on a resource into permission rows.
func allow(role Role, dom Domain, res Resource, actions ...Action) []PermissionPolicy {
	out := make([]PermissionPolicy, 0, len(actions))
	for _, act := range actions {
		out = append(out, PermissionPolicy{Subject: role, Domain: dom, Object: res, Action: act, Effect: EffectAllow})
	}
	return out
}

func concat(groups ...[]PermissionPolicy) []PermissionPolicy {
	var out []PermissionPolicy
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// sysPolicies are the clinic-wide grants. Admins hold everything;
// coordinators supervise clinical work; admission registers patients and
// plans procedures; students claim and carry out procedures.
func sysPolicies() []PermissionPolicy {
	return concat(
		allow(RoleAdmin, DomainSys, WildcardResource, WildcardAction),

		allow(RoleCoordinador, DomainSys, ResourceUser, ActionRead, ActionList),
		allow(RoleCoordinador, DomainSys, ResourceFaculty, ActionRead),
		allow(RoleCoordinador, DomainSys, ResourceChair, ActionRead),
		allow(RoleCoordinador, DomainSys, ResourceTreatment, ActionRead),
		allow(RoleCoordinador, DomainSys, ResourcePatient, ActionRead, ActionList, ActionUpdate),
		allow(RoleCoordinador, DomainSys, ResourceConsent, ActionManage),
		allow(RoleCoordinador, DomainSys, ResourceOdontogram, ActionManage),
		allow(RoleCoordinador, DomainSys, ResourceProcedure, ActionManage),
		allow(RoleCoordinador, DomainSys, ResourceAssignment, ActionRead, ActionList, ActionAbandon),
		allow(RoleCoordinador, DomainSys, ResourceSession, ActionRead),
		allow(RoleCoordinador, DomainSys, ResourcePhoto, ActionManage),
		allow(RoleCoordinador, DomainSys, ResourceAudit, ActionRead),
		allow(RoleCoordinador, DomainSys, ResourceAd, ActionRead),

		allow(RoleAdmision, DomainSys, ResourceFaculty, ActionRead),
		allow(RoleAdmision, DomainSys, ResourceChair, ActionRead),
		allow(RoleAdmision, DomainSys, ResourceTreatment, ActionRead),
		allow(RoleAdmision, DomainSys, ResourcePatient, ActionCreate, ActionRead, ActionList, ActionUpdate),
		allow(RoleAdmision, DomainSys, ResourceConsent, ActionManage),
		allow(RoleAdmision, DomainSys, ResourceOdontogram, ActionManage),
		allow(RoleAdmision, DomainSys, ResourceProcedure, ActionCreate, ActionRead, ActionList),
		allow(RoleAdmision, DomainSys, ResourcePhoto, ActionRead),
		allow(RoleAdmision, DomainSys, ResourceAd, ActionRead),

		allow(RoleAlumno, DomainSys, ResourceChair, ActionRead),
		allow(RoleAlumno, DomainSys, ResourceTreatment, ActionRead),
		allow(RoleAlumno, DomainSys, ResourcePatient, ActionRead),
		allow(RoleAlumno, DomainSys, ResourceOdontogram, ActionRead),
		allow(RoleAlumno, DomainSys, ResourceProcedure, ActionRead, ActionList),
		allow(RoleAlumno, DomainSys, ResourceAssignment,
			ActionClaim, ActionRead, ActionList, ActionUpdate, ActionComplete, ActionAbandon),
		allow(RoleAlumno, DomainSys, ResourceSession, ActionCreate, ActionRead),
		allow(RoleAlumno, DomainSys, ResourcePhoto, ActionCreate, ActionRead),
		allow(RoleAlumno, DomainSys, ResourceAd, ActionRead),
	)
}

// userPolicies apply in every private "user:<id>" domain.
func userPolicies() []PermissionPolicy {
	return concat(
		allow(RoleUserSelf, WildcardDomain, ResourceUser, ActionRead),
		allow(RoleUserSelf, WildcardDomain, ResourceAuthSession, ActionManage),
		allow(RoleUserSelf, WildcardDomain, ResourceNotification, ActionManage),
		allow(RoleUserSelf, WildcardDomain, ResourceDevice, ActionManage),
	)
}

// SeedDefaultPolicies installs the baseline grants. Rows that already
// exist are left untouched, so seeding is idempotent.
func SeedDefaultPolicies(ctx context.Context, auth IAuthorization) error {
	policies := append(sysPolicies(), userPolicies()...)
	added := 0
	for _, p := range policies {
		ok, err := auth.AddPermission(ctx, p.Subject, p.Domain, p.Object, p.Action, p.Effect)
		if err != nil {
			return fmt.Errorf("seed %s %s %s %s: %w", p.Subject, p.Domain, p.Object, p.Action, err)
		}
		if ok {
			added++
		}
	}
	slog.InfoContext(ctx, "seeded default RBAC policies", "total", len(policies), "added", added)
	return nil
}

// AssignUserRoles groups a new user under their platform role in the sys
// domain and under user:self in their private domain.
func AssignUserRoles(ctx context.Context, auth IAuthorization, userID string, role domain.Role) error {
	rbacRole, ok := DomainRoleToRBACRole[role]
	if !ok {
		return ErrInvalidArgs
	}
	subject := GroupSubject(userID)

	if _, err := auth.AddRoleForUserInDomain(ctx, subject, rbacRole, DomainSys); err != nil {
		return err
	}
	_, err := auth.AddRoleForUserInDomain(ctx, subject, RoleUserSelf, UserDomain(userID))
	return err
}

// ReplaceUserRole moves a user from one platform role to another.
func ReplaceUserRole(ctx context.Context, auth IAuthorization, userID string, from, to domain.Role) error {
	oldRole, ok := DomainRoleToRBACRole[from]
	if !ok {
		return ErrInvalidArgs
	}
	newRole, ok := DomainRoleToRBACRole[to]
	if !ok {
		return ErrInvalidArgs
	}
	subject := GroupSubject(userID)

	if _, err := auth.RemoveRoleForUserInDomain(ctx, subject, oldRole, DomainSys); err != nil {
		return err
	}
	_, err := auth.AddRoleForUserInDomain(ctx, subject, newRole, DomainSys)
	return err
}

// GetSystemRoles returns the platform roles a user holds.
func GetSystemRoles(ctx context.Context, auth IAuthorization, userID string) ([]Role, error) {
	return auth.GetRolesForUserInDomain(ctx, GroupSubject(userID), DomainSys)
}
