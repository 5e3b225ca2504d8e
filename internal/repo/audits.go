package repo

import (
	"context"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

var auditColumns = []string{"id", "user_id", "entity", "entity_id", "action", "meta", "created_at"}

func scanAudit(rs rowScanner) (*Audit, error) {
	var (
		a    Audit
		user uuid.NullUUID
		meta []byte
	)
	if err := rs.Scan(&a.ID, &user, &a.Entity, &a.EntityID, &a.Action, &meta, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.UserID = uuidPtr(user)
	m, err := decodeJSON(meta)
	if err != nil {
		return nil, err
	}
	a.Meta = m
	return &a, nil
}

// AppendAudit inserts an audit row. Audit rows are never updated.
func (c *Client) AppendAudit(ctx context.Context, a *Audit) error {
	a.ID = newID(a.ID)
	stamp(&a.CreatedAt, nil)
	meta, err := jsonText(a.Meta)
	if err != nil {
		return err
	}
	_, err = c.exec(ctx, builder().Insert(TableAudits).Columns(auditColumns...).
		Values(a.ID, a.UserID, a.Entity, a.EntityID, a.Action, meta, a.CreatedAt))
	return err
}

func auditPredicate(f AuditFilter) *entsql.Predicate {
	var preds []*entsql.Predicate
	if f.Entity != "" {
		preds = append(preds, entsql.EQ("entity", f.Entity))
	}
	if f.EntityID != nil {
		preds = append(preds, entsql.EQ("entity_id", *f.EntityID))
	}
	if f.UserID != nil {
		preds = append(preds, entsql.EQ("user_id", *f.UserID))
	}
	return and(preds)
}

func (c *Client) ListAudits(ctx context.Context, f AuditFilter) ([]*Audit, int, error) {
	total, err := c.count(ctx, TableAudits, auditPredicate(f))
	if err != nil {
		return nil, 0, err
	}
	sel := where(selectFrom(TableAudits, auditColumns), auditPredicate(f)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id"))
	audits, err := queryAll(ctx, c, paginate(sel, f.Page), scanAudit)
	return audits, total, err
}
