package repo

import (
	"context"
	"database/sql"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

var odontogramColumns = []string{"id", "patient_id", "type", "recorded_at", "recorded_by", "notes", "created_at"}

func scanOdontogram(rs rowScanner) (*Odontogram, error) {
	var (
		o          Odontogram
		recordedBy uuid.NullUUID
	)
	if err := rs.Scan(&o.ID, &o.PatientID, &o.Type, &o.RecordedAt, &recordedBy, &o.Notes, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.RecordedBy = uuidPtr(recordedBy)
	return &o, nil
}

func (c *Client) CreateOdontogram(ctx context.Context, o *Odontogram) error {
	o.ID = newID(o.ID)
	stamp(&o.CreatedAt, nil)
	if o.RecordedAt.IsZero() {
		o.RecordedAt = o.CreatedAt
	}
	_, err := c.exec(ctx, builder().Insert(TableOdontograms).Columns(odontogramColumns...).
		Values(o.ID, o.PatientID, o.Type, o.RecordedAt, o.RecordedBy, o.Notes, o.CreatedAt))
	return err
}

func (c *Client) GetOdontogram(ctx context.Context, id uuid.UUID) (*Odontogram, error) {
	sel := selectFrom(TableOdontograms, odontogramColumns).Where(entsql.EQ("id", id))
	return queryOne(ctx, c, "odontogram", sel, scanOdontogram)
}

func (c *Client) ListOdontograms(ctx context.Context, patientID uuid.UUID) ([]*Odontogram, error) {
	sel := selectFrom(TableOdontograms, odontogramColumns).
		Where(entsql.EQ("patient_id", patientID)).
		OrderBy(entsql.Desc("recorded_at"), entsql.Desc("created_at"))
	return queryAll(ctx, c, sel, scanOdontogram)
}

func (c *Client) LatestOdontogram(ctx context.Context, patientID uuid.UUID) (*Odontogram, error) {
	sel := selectFrom(TableOdontograms, odontogramColumns).
		Where(entsql.EQ("patient_id", patientID)).
		OrderBy(entsql.Desc("recorded_at"), entsql.Desc("created_at"))
	return queryOne(ctx, c, "odontogram", sel, scanOdontogram)
}

var toothColumns = []string{"id", "odontogram_id", "tooth_fdi", "surface", "status", "notes", "created_at", "updated_at"}

func scanTooth(rs rowScanner) (*OdontogramTooth, error) {
	var (
		t     OdontogramTooth
		notes sql.NullString
	)
	if err := rs.Scan(&t.ID, &t.OdontogramID, &t.ToothFDI, &t.Surface, &t.Status, &notes, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Notes = notes.String
	return &t, nil
}

func (c *Client) CreateTooth(ctx context.Context, t *OdontogramTooth) error {
	t.ID = newID(t.ID)
	stamp(&t.CreatedAt, &t.UpdatedAt)
	_, err := c.exec(ctx, builder().Insert(TableOdontogramTeeth).Columns(toothColumns...).
		Values(t.ID, t.OdontogramID, t.ToothFDI, t.Surface, t.Status, t.Notes, t.CreatedAt, t.UpdatedAt))
	return err
}

func (c *Client) GetTooth(ctx context.Context, id uuid.UUID) (*OdontogramTooth, error) {
	sel := selectFrom(TableOdontogramTeeth, toothColumns).Where(entsql.EQ("id", id))
	return queryOne(ctx, c, "odontogram tooth", sel, scanTooth)
}

func (c *Client) ListTeeth(ctx context.Context, odontogramID uuid.UUID) ([]*OdontogramTooth, error) {
	sel := selectFrom(TableOdontogramTeeth, toothColumns).
		Where(entsql.EQ("odontogram_id", odontogramID)).
		OrderBy("tooth_fdi", "surface")
	return queryAll(ctx, c, sel, scanTooth)
}

func (c *Client) UpdateTooth(ctx context.Context, t *OdontogramTooth) error {
	stamp(nil, &t.UpdatedAt)
	n, err := c.exec(ctx, builder().Update(TableOdontogramTeeth).
		Set("status", t.Status).
		Set("notes", t.Notes).
		Set("updated_at", t.UpdatedAt).
		Where(entsql.EQ("id", t.ID)))
	if err != nil {
		return err
	}
	if n == 0 {
		return NewNotFoundError("odontogram tooth")
	}
	return nil
}
