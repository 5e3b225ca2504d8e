package repo

import (
	"context"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

var chairColumns = []string{"id", "name", "description", "created_at"}

func scanChair(rs rowScanner) (*Chair, error) {
	var ch Chair
	if err := rs.Scan(&ch.ID, &ch.Name, &ch.Description, &ch.CreatedAt); err != nil {
		return nil, err
	}
	return &ch, nil
}

func (c *Client) CreateChair(ctx context.Context, ch *Chair) error {
	ch.ID = newID(ch.ID)
	stamp(&ch.CreatedAt, nil)
	_, err := c.exec(ctx, builder().Insert(TableChairs).Columns(chairColumns...).
		Values(ch.ID, ch.Name, ch.Description, ch.CreatedAt))
	return err
}

func (c *Client) GetChair(ctx context.Context, id uuid.UUID) (*Chair, error) {
	return queryOne(ctx, c, "chair", selectFrom(TableChairs, chairColumns).Where(entsql.EQ("id", id)), scanChair)
}

func (c *Client) ListChairs(ctx context.Context) ([]*Chair, error) {
	return queryAll(ctx, c, selectFrom(TableChairs, chairColumns).OrderBy("name"), scanChair)
}

var treatmentColumns = []string{
	"id", "chair_id", "code", "name", "requires_tooth", "applies_to_all_upper",
	"applies_to_all_lower", "required_sessions", "created_at",
}

func scanTreatment(rs rowScanner) (*Treatment, error) {
	var t Treatment
	if err := rs.Scan(&t.ID, &t.ChairID, &t.Code, &t.Name, &t.RequiresTooth, &t.AppliesToAllUpper,
		&t.AppliesToAllLower, &t.RequiredSessions, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) CreateTreatment(ctx context.Context, t *Treatment) error {
	t.ID = newID(t.ID)
	stamp(&t.CreatedAt, nil)
	_, err := c.exec(ctx, builder().Insert(TableTreatments).Columns(treatmentColumns...).Values(
		t.ID, t.ChairID, t.Code, t.Name, t.RequiresTooth, t.AppliesToAllUpper,
		t.AppliesToAllLower, t.RequiredSessions, t.CreatedAt,
	))
	return err
}

func (c *Client) GetTreatment(ctx context.Context, id uuid.UUID) (*Treatment, error) {
	sel := selectFrom(TableTreatments, treatmentColumns).Where(entsql.EQ("id", id))
	return queryOne(ctx, c, "treatment", sel, scanTreatment)
}

func (c *Client) ListTreatments(ctx context.Context, f TreatmentFilter) ([]*Treatment, error) {
	sel := selectFrom(TableTreatments, treatmentColumns).OrderBy("code")
	if f.ChairID != nil {
		sel.Where(entsql.EQ("chair_id", *f.ChairID))
	}
	return queryAll(ctx, c, sel, scanTreatment)
}

var subclassColumns = []string{"id", "treatment_id", "name", "created_at"}

func scanSubclass(rs rowScanner) (*TreatmentSubclass, error) {
	var s TreatmentSubclass
	if err := rs.Scan(&s.ID, &s.TreatmentID, &s.Name, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) CreateSubclass(ctx context.Context, s *TreatmentSubclass) error {
	s.ID = newID(s.ID)
	stamp(&s.CreatedAt, nil)
	_, err := c.exec(ctx, builder().Insert(TableTreatmentSubclasses).Columns(subclassColumns...).
		Values(s.ID, s.TreatmentID, s.Name, s.CreatedAt))
	return err
}

func (c *Client) ListSubclasses(ctx context.Context, treatmentID uuid.UUID) ([]*TreatmentSubclass, error) {
	sel := selectFrom(TableTreatmentSubclasses, subclassColumns).
		Where(entsql.EQ("treatment_id", treatmentID)).OrderBy("name")
	return queryAll(ctx, c, sel, scanSubclass)
}

var optionColumns = []string{"id", "treatment_id", "subclass_id", "name", "created_at"}

func scanOption(rs rowScanner) (*TreatmentSubclassOption, error) {
	var (
		o        TreatmentSubclassOption
		subclass uuid.NullUUID
	)
	if err := rs.Scan(&o.ID, &o.TreatmentID, &subclass, &o.Name, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.SubclassID = uuidPtr(subclass)
	return &o, nil
}

func (c *Client) CreateOption(ctx context.Context, o *TreatmentSubclassOption) error {
	o.ID = newID(o.ID)
	stamp(&o.CreatedAt, nil)
	_, err := c.exec(ctx, builder().Insert(TableTreatmentOptions).Columns(optionColumns...).
		Values(o.ID, o.TreatmentID, o.SubclassID, o.Name, o.CreatedAt))
	return err
}

func (c *Client) GetOption(ctx context.Context, id uuid.UUID) (*TreatmentSubclassOption, error) {
	sel := selectFrom(TableTreatmentOptions, optionColumns).Where(entsql.EQ("id", id))
	return queryOne(ctx, c, "treatment option", sel, scanOption)
}

func (c *Client) ListOptions(ctx context.Context, treatmentID uuid.UUID) ([]*TreatmentSubclassOption, error) {
	sel := selectFrom(TableTreatmentOptions, optionColumns).
		Where(entsql.EQ("treatment_id", treatmentID)).OrderBy("name")
	return queryAll(ctx, c, sel, scanOption)
}
