package authorize

import (
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/odonto_backend/internal/domain"
)

type (
	Action   string
	Resource string
	Role     string
	Domain   string
)

// Wildcards match any value in their position of a permission row.
const (
	WildcardAction   Action   = "*"
	WildcardResource Resource = "*"
	WildcardRole     Role     = "*"
	WildcardDomain   Domain   = "*"
)

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"
	// ActionManage grants every action on the resource.
	ActionManage Action = "manage"

	ActionClaim    Action = "claim"
	ActionComplete Action = "complete"
	ActionAbandon  Action = "abandon"
	ActionOverride Action = "override"

	ActionGrant  Action = "grant"
	ActionRevoke Action = "revoke"
)

const (
	ResourceUser        Resource = "user"
	ResourceAuthSession Resource = "auth_session"
	ResourceFaculty     Resource = "faculty"

	ResourceChair     Resource = "chair"
	ResourceTreatment Resource = "treatment"

	ResourcePatient    Resource = "patient"
	ResourceConsent    Resource = "consent"
	ResourceOdontogram Resource = "odontogram"
	ResourceProcedure  Resource = "procedure"
	ResourceAssignment Resource = "assignment"
	ResourceSession    Resource = "session"
	ResourcePhoto      Resource = "photo"

	ResourceNotification Resource = "notification"
	ResourceDevice       Resource = "device"
	ResourceAd           Resource = "ad"

	ResourceSystem Resource = "system"
	ResourceAudit  Resource = "audit"
	ResourceRBAC   Resource = "rbac"
)

// Roles are the policy subjects users are grouped into. Clinic roles live
// in DomainSys; RoleUserSelf is granted in each user's private domain.
const (
	RoleAdmin       Role = "role:admin"
	RoleCoordinador Role = "role:coordinador"
	RoleAdmision    Role = "role:admision"
	RoleAlumno      Role = "role:alumno"
	RoleUserSelf    Role = "role:user:self"
)

const (
	DomainSys        Domain = "sys"
	DomainPrefixUser Domain = "user:"
)

func setOf[T comparable](vs ...T) map[T]struct{} {
	m := make(map[T]struct{}, len(vs))
	for _, v := range vs {
		m[v] = struct{}{}
	}
	return m
}

var (
	KnownActions = setOf(
		ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionList, ActionManage,
		ActionClaim, ActionComplete, ActionAbandon, ActionOverride,
		ActionGrant, ActionRevoke,
	)
	KnownResources = setOf(
		ResourceUser, ResourceAuthSession, ResourceFaculty,
		ResourceChair, ResourceTreatment,
		ResourcePatient, ResourceConsent, ResourceOdontogram, ResourceProcedure,
		ResourceAssignment, ResourceSession, ResourcePhoto,
		ResourceNotification, ResourceDevice, ResourceAd,
		ResourceSystem, ResourceAudit, ResourceRBAC,
	)
	KnownRoles = setOf(RoleAdmin, RoleCoordinador, RoleAdmision, RoleAlumno, RoleUserSelf)
)

// RoleDisplayNamesES labels roles in the clinic's UI language.
var RoleDisplayNamesES = map[Role]string{
	RoleAdmin:       "Administrador",
	RoleCoordinador: "Coordinador de cátedra",
	RoleAdmision:    "Admisión",
	RoleAlumno:      "Alumno",
	RoleUserSelf:    "Usuario",
}

// DomainRoleToRBACRole maps the role stored on the user row to its Casbin role.
var DomainRoleToRBACRole = map[domain.Role]Role{
	domain.RoleAdmin:       RoleAdmin,
	domain.RoleCoordinador: RoleCoordinador,
	domain.RoleAdmision:    RoleAdmision,
	domain.RoleAlumno:      RoleAlumno,
}

func UserDomain(userID string) Domain {
	return DomainPrefixUser + Domain(userID)
}

// IsValidDomain accepts DomainSys, the wildcard and "user:<uuid>".
func IsValidDomain(d Domain) bool {
	switch d {
	case DomainSys, WildcardDomain:
		return true
	}
	id, ok := strings.CutPrefix(string(d), string(DomainPrefixUser))
	if !ok {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

type PolicyEffect string

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// GroupSubject is g.sub in Casbin: the id of a concrete user.
type GroupSubject string

// PermissionPolicy is one "p, role, domain, resource, action, eft" row.
type PermissionPolicy struct {
	Subject Role
	Domain  Domain
	Object  Resource
	Action  Action
	Effect  PolicyEffect
}
