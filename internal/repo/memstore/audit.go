package memstore

import (
	"context"
	"maps"

	"github.com/Alijeyrad/odonto_backend/internal/repo"
)

func (q *queries) AppendAudit(ctx context.Context, a *repo.Audit) error {
	defer q.lock()()
	st := q.state()
	a.ID = newID(a.ID)
	stamp(&a.CreatedAt, nil)
	row := *a
	row.Meta = maps.Clone(a.Meta)
	st.audits = append(st.audits, row)
	return nil
}

func (q *queries) ListAudits(ctx context.Context, f repo.AuditFilter) ([]*repo.Audit, int, error) {
	defer q.lock()()
	st := q.state()
	list := make([]*repo.Audit, 0)
	// newest first; audits is append-only so walking backwards keeps that order
	for i := len(st.audits) - 1; i >= 0; i-- {
		a := st.audits[i]
		switch {
		case f.Entity != "" && a.Entity != f.Entity:
			continue
		case f.EntityID != nil && a.EntityID != *f.EntityID:
			continue
		case f.UserID != nil && (a.UserID == nil || *a.UserID != *f.UserID):
			continue
		}
		a.Meta = maps.Clone(a.Meta)
		list = append(list, &a)
	}
	return paginate(list, f.Page), len(list), nil
}
