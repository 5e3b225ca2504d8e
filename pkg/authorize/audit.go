package authorize

import (
	"context"
	"log/slog"
	"time"

	"github.com/Alijeyrad/odonto_backend/pkg/reqctx"
)

// AuditedAuthorization logs every decision and policy change of the wrapped
// IAuthorization. Denials and changes are logged at info level or above;
// grants only at debug, since every authenticated request produces one.
type AuditedAuthorization struct {
	inner  IAuthorization
	logger *slog.Logger
}

func NewAuditedAuthorization(inner IAuthorization, logger *slog.Logger) IAuthorization {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditedAuthorization{inner: inner, logger: logger}
}

// requestAttrs ties a log line to the HTTP request and caller, when known.
func requestAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	if rm, ok := reqctx.RequestMetaFromContext(ctx); ok {
		attrs = append(attrs,
			slog.String("request_id", rm.RequestID),
			slog.String("client_ip", rm.ClientIP),
		)
	}
	if p, ok := reqctx.PrincipalFromContext(ctx); ok {
		attrs = append(attrs, slog.String("role", string(p.Role)))
	}
	return attrs
}

func (a *AuditedAuthorization) log(ctx context.Context, level slog.Level, msg string, err error, attrs ...slog.Attr) {
	attrs = append(attrs, requestAttrs(ctx)...)
	if err != nil {
		level = slog.LevelError
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	a.logger.LogAttrs(ctx, level, msg, attrs...)
}

func (a *AuditedAuthorization) Enforce(ctx context.Context, subject GroupSubject, domain Domain, object Resource, action Action) (bool, error) {
	start := time.Now()
	allowed, err := a.inner.Enforce(ctx, subject, domain, object, action)

	level := slog.LevelDebug
	if !allowed {
		level = slog.LevelWarn
	}
	a.log(ctx, level, "authz_decision", err,
		slog.String("subject", string(subject)),
		slog.String("domain", string(domain)),
		slog.String("resource", string(object)),
		slog.String("action", string(action)),
		slog.Bool("allowed", allowed),
		slog.Int64("duration_us", time.Since(start).Microseconds()),
	)
	return allowed, err
}

func (a *AuditedAuthorization) MustEnforce(ctx context.Context, subject GroupSubject, domain Domain, object Resource, action Action) error {
	ok, err := a.Enforce(ctx, subject, domain, object, action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

// changed logs at info when the policy set actually changed. Seeding the
// default policies on every start is a no-op after the first run.
func changed(ok bool) slog.Level {
	if ok {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

func (a *AuditedAuthorization) AddRoleForUserInDomain(ctx context.Context, subject GroupSubject, role Role, domain Domain) (bool, error) {
	added, err := a.inner.AddRoleForUserInDomain(ctx, subject, role, domain)
	a.log(ctx, changed(added), "authz_role_change", err,
		slog.String("operation", "add_role"),
		slog.String("subject", string(subject)),
		slog.String("role", string(role)),
		slog.String("domain", string(domain)),
		slog.Bool("added", added),
	)
	return added, err
}

func (a *AuditedAuthorization) RemoveRoleForUserInDomain(ctx context.Context, subject GroupSubject, role Role, domain Domain) (bool, error) {
	removed, err := a.inner.RemoveRoleForUserInDomain(ctx, subject, role, domain)
	a.log(ctx, changed(removed), "authz_role_change", err,
		slog.String("operation", "remove_role"),
		slog.String("subject", string(subject)),
		slog.String("role", string(role)),
		slog.String("domain", string(domain)),
		slog.Bool("removed", removed),
	)
	return removed, err
}

func (a *AuditedAuthorization) GetRolesForUserInDomain(ctx context.Context, subject GroupSubject, domain Domain) ([]Role, error) {
	return a.inner.GetRolesForUserInDomain(ctx, subject, domain)
}

func (a *AuditedAuthorization) AddPermission(ctx context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error) {
	added, err := a.inner.AddPermission(ctx, role, domain, object, action, effect)
	a.log(ctx, changed(added), "authz_permission_change", err, permissionAttrs("add_permission", role, domain, object, action, effect)...)
	return added, err
}

func (a *AuditedAuthorization) RemovePermission(ctx context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error) {
	removed, err := a.inner.RemovePermission(ctx, role, domain, object, action, effect)
	a.log(ctx, changed(removed), "authz_permission_change", err, permissionAttrs("remove_permission", role, domain, object, action, effect)...)
	return removed, err
}

func permissionAttrs(op string, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) []slog.Attr {
	return []slog.Attr{
		slog.String("operation", op),
		slog.String("role", string(role)),
		slog.String("domain", string(domain)),
		slog.String("resource", string(object)),
		slog.String("action", string(action)),
		slog.String("effect", string(effect)),
	}
}
