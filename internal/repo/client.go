package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Table names.
const (
	TableUsers               = "users"
	TableFaculties           = "faculties"
	TableChairs              = "chairs"
	TableTreatments          = "treatments"
	TableTreatmentSubclasses = "treatment_subclasses"
	TableTreatmentOptions    = "treatment_subclass_options"
	TablePatients            = "patients"
	TableOdontograms         = "odontograms"
	TableOdontogramTeeth     = "odontogram_teeth"
	TablePatientProcedures   = "patient_procedures"
	TableAssignments         = "assignments"
	TableTreatmentSessions   = "treatment_sessions"
	TableProcedurePhotos     = "procedure_photos"
	TableAudits              = "audits"
	TableNotifications       = "notifications"
	TableUserDevices         = "user_devices"
	TableAds                 = "ads"
)

// Client is the PostgreSQL Store. It builds statements with ent's SQL
// builder and runs them on an ent driver or on an open transaction.
type Client struct {
	drv *entsql.Driver
	ex  dialect.ExecQuerier
	// slow logs statements that take longer; zero disables it.
	slow time.Duration
}

var _ Store = (*Client)(nil)

type Option func(*Client)

// WithSlowQueryLog logs every statement slower than d at warn level.
func WithSlowQueryLog(d time.Duration) Option {
	return func(c *Client) { c.slow = d }
}

func NewClient(drv *entsql.Driver, opts ...Option) *Client {
	c := &Client{drv: drv, ex: drv}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Driver exposes the underlying ent driver, e.g. for migrations.
func (c *Client) Driver() *entsql.Driver { return c.drv }

func (c *Client) Close() error {
	if c.drv == nil {
		return nil
	}
	return c.drv.Close()
}

func (c *Client) WithTx(ctx context.Context, fn func(q Queries) error) (err error) {
	if c.drv == nil {
		// already inside a transaction
		return fn(c)
	}

	tx, err := c.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("repo: starting a transaction: %w", err)
	}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()

	if err := fn(&Client{ex: tx, slow: c.slow}); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = fmt.Errorf("%w: rolling back transaction: %v", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("repo: committing transaction: %w", translate(err))
	}
	return nil
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.Postgres)
}

func selectFrom(table string, columns []string) *entsql.Selector {
	b := builder()
	return b.Select(columns...).From(b.Table(table))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (c *Client) logSlow(ctx context.Context, query string, start time.Time) {
	if c.slow <= 0 {
		return
	}
	if took := time.Since(start); took > c.slow {
		slog.WarnContext(ctx, "slow query", "query", query, "took_ms", took.Milliseconds())
	}
}

func (c *Client) exec(ctx context.Context, q entsql.Querier) (int64, error) {
	query, args := q.Query()
	defer c.logSlow(ctx, query, time.Now())
	var res entsql.Result
	if err := c.ex.Exec(ctx, query, args, &res); err != nil {
		return 0, translate(err)
	}
	return res.RowsAffected()
}

func (c *Client) query(ctx context.Context, q entsql.Querier, scan func(rs rowScanner) error) error {
	query, args := q.Query()
	defer c.logSlow(ctx, query, time.Now())
	rows := &entsql.Rows{}
	if err := c.ex.Query(ctx, query, args, rows); err != nil {
		return translate(err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (c *Client) count(ctx context.Context, table string, where *entsql.Predicate) (int, error) {
	b := builder()
	sel := b.Select(entsql.Count("*")).From(b.Table(table))
	if where != nil {
		sel.Where(where)
	}
	var n int
	err := c.query(ctx, sel, func(rs rowScanner) error { return rs.Scan(&n) })
	return n, err
}

func queryOne[T any](ctx context.Context, c *Client, label string, sel *entsql.Selector, scan func(rowScanner) (*T, error)) (*T, error) {
	var out *T
	err := c.query(ctx, sel.Limit(1), func(rs rowScanner) error {
		v, err := scan(rs)
		out = v
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, NewNotFoundError(label)
	}
	return out, nil
}

func queryAll[T any](ctx context.Context, c *Client, sel *entsql.Selector, scan func(rowScanner) (*T, error)) ([]*T, error) {
	var out []*T
	err := c.query(ctx, sel, func(rs rowScanner) error {
		v, err := scan(rs)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	return out, err
}

func paginate(sel *entsql.Selector, p Page) *entsql.Selector {
	if p.Limit > 0 {
		sel.Limit(p.Limit)
	}
	if p.Offset > 0 {
		sel.Offset(p.Offset)
	}
	return sel
}

func and(preds []*entsql.Predicate) *entsql.Predicate {
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	}
	return entsql.And(preds...)
}

func where(sel *entsql.Selector, p *entsql.Predicate) *entsql.Selector {
	if p != nil {
		sel.Where(p)
	}
	return sel
}

// translate maps PostgreSQL constraint violations to ConstraintError.
func translate(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "23505":
		return NewConstraintError(ConstraintUnique, pqErr.Constraint, err)
	case "23503":
		return NewConstraintError(ConstraintForeignKey, pqErr.Constraint, err)
	case "23514":
		return NewConstraintError(ConstraintCheck, pqErr.Constraint, err)
	}
	return err
}

func newID(id uuid.UUID) uuid.UUID {
	if id != uuid.Nil {
		return id
	}
	return uuid.Must(uuid.NewV7())
}

func now() time.Time {
	return time.Now().UTC()
}

func stamp(created, updated *time.Time) {
	t := now()
	if created != nil && created.IsZero() {
		*created = t
	}
	if updated != nil {
		*updated = t
	}
}

func uuidPtr(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	s := n.String
	return &s
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// jsonText encodes m for a jsonb column. lib/pq sends []byte as bytea, so
// the document goes out as text.
func jsonText(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeJSON(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
