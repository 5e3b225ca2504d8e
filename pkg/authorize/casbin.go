package authorize

import (
	"context"
	"errors"
	"fmt"

	casbin "github.com/casbin/casbin/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alijeyrad/odonto_backend/internal/apperr"
)

var (
	// ErrForbidden matches apperr.ErrForbidden.
	ErrForbidden   = apperr.Forbidden("permission denied")
	ErrInvalidArgs = errors.New("invalid authorization arguments")
)

// IAuthorization is the policy surface the middleware and services use.
// Policies are p = role, domain, resource, action, effect and groupings are
// g = user, role, domain.
type IAuthorization interface {
	Enforce(ctx context.Context, subject GroupSubject, domain Domain, object Resource, action Action) (bool, error)
	// MustEnforce returns ErrForbidden when the request is denied.
	MustEnforce(ctx context.Context, subject GroupSubject, domain Domain, object Resource, action Action) error

	AddRoleForUserInDomain(ctx context.Context, subject GroupSubject, role Role, domain Domain) (bool, error)
	RemoveRoleForUserInDomain(ctx context.Context, subject GroupSubject, role Role, domain Domain) (bool, error)
	GetRolesForUserInDomain(ctx context.Context, subject GroupSubject, domain Domain) ([]Role, error)

	AddPermission(ctx context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error)
	RemovePermission(ctx context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error)
}

// Authorization checks requests against a casbin enforcer. Holders of the
// admin role in the sys domain pass every check.
type Authorization struct {
	enforcer *casbin.DistributedEnforcer
}

// NewAuthorization loads the current policy into e and wraps it.
func NewAuthorization(e *casbin.DistributedEnforcer) (IAuthorization, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: enforcer is nil", ErrInvalidArgs)
	}
	if err := e.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	return &Authorization{enforcer: e}, nil
}

func invalidArg(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidArgs}, args...)...)
}

func checkDomain(d Domain) error {
	if !IsValidDomain(d) {
		return invalidArg("invalid domain %q", d)
	}
	return nil
}

func checkRole(r Role) error {
	if _, ok := KnownRoles[r]; !ok && r != WildcardRole {
		return invalidArg("unknown role %q", r)
	}
	return nil
}

func checkTarget(object Resource, action Action) error {
	if _, ok := KnownResources[object]; !ok && object != WildcardResource {
		return invalidArg("unknown resource %q", object)
	}
	if _, ok := KnownActions[action]; !ok && action != WildcardAction {
		return invalidArg("unknown action %q", action)
	}
	return nil
}

func (a *Authorization) Enforce(ctx context.Context, subject GroupSubject, domain Domain, object Resource, action Action) (bool, error) {
	if subject == "" {
		return false, invalidArg("empty subject")
	}
	if err := checkDomain(domain); err != nil {
		return false, err
	}
	if err := checkTarget(object, action); err != nil {
		return false, err
	}

	allowed, admin := true, a.enforcer.HasGroupingPolicy(string(subject), string(RoleAdmin), string(DomainSys))
	if !admin {
		var err error
		allowed, err = a.enforcer.Enforce(string(subject), string(domain), string(object), string(action))
		if err != nil {
			return false, fmt.Errorf("enforce: %w", err)
		}
	}

	trace.SpanFromContext(ctx).AddEvent("authorize", trace.WithAttributes(
		attribute.String("authz.domain", string(domain)),
		attribute.String("authz.resource", string(object)),
		attribute.String("authz.action", string(action)),
		attribute.Bool("authz.allowed", allowed),
		attribute.Bool("authz.admin", admin),
	))
	return allowed, nil
}

func (a *Authorization) MustEnforce(ctx context.Context, subject GroupSubject, domain Domain, object Resource, action Action) error {
	ok, err := a.Enforce(ctx, subject, domain, object, action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (a *Authorization) AddRoleForUserInDomain(_ context.Context, subject GroupSubject, role Role, domain Domain) (bool, error) {
	if subject == "" || role == "" {
		return false, invalidArg("empty subject or role")
	}
	if err := checkRole(role); err != nil {
		return false, err
	}
	if err := checkDomain(domain); err != nil {
		return false, err
	}
	return a.enforcer.AddGroupingPolicy(string(subject), string(role), string(domain))
}

func (a *Authorization) RemoveRoleForUserInDomain(_ context.Context, subject GroupSubject, role Role, domain Domain) (bool, error) {
	if subject == "" || role == "" {
		return false, invalidArg("empty subject or role")
	}
	if err := checkDomain(domain); err != nil {
		return false, err
	}
	return a.enforcer.RemoveGroupingPolicy(string(subject), string(role), string(domain))
}

func (a *Authorization) GetRolesForUserInDomain(_ context.Context, subject GroupSubject, domain Domain) ([]Role, error) {
	if subject == "" {
		return nil, invalidArg("empty subject")
	}
	if err := checkDomain(domain); err != nil {
		return nil, err
	}
	names := a.enforcer.GetRolesForUserInDomain(string(subject), string(domain))
	roles := make([]Role, len(names))
	for i, n := range names {
		roles[i] = Role(n)
	}
	return roles, nil
}

func (a *Authorization) AddPermission(_ context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error) {
	if err := checkRole(role); err != nil {
		return false, err
	}
	if err := checkDomain(domain); err != nil {
		return false, err
	}
	if err := checkTarget(object, action); err != nil {
		return false, err
	}
	if effect != EffectAllow && effect != EffectDeny {
		return false, invalidArg("invalid effect %q", effect)
	}
	return a.enforcer.AddPolicy(string(role), string(domain), string(object), string(action), string(effect))
}

func (a *Authorization) RemovePermission(_ context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error) {
	if role == "" || object == "" || action == "" || effect == "" {
		return false, invalidArg("empty permission fields")
	}
	if err := checkDomain(domain); err != nil {
		return false, err
	}
	return a.enforcer.RemovePolicy(string(role), string(domain), string(object), string(action), string(effect))
}
