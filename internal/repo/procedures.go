package repo

import (
	"context"
	"database/sql"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/Alijeyrad/odonto_backend/internal/domain"
)

var procedureColumns = []string{
	"id", "patient_id", "treatment_id", "chair_id", "odontogram_id", "tooth_fdi", "surface",
	"subclass_option_id", "status", "is_repair", "status_reason", "created_by", "created_at", "updated_at",
}

func scanProcedure(rs rowScanner) (*PatientProcedure, error) {
	var (
		p          PatientProcedure
		odontogram uuid.NullUUID
		tooth      sql.NullInt64
		option     uuid.NullUUID
		createdBy  uuid.NullUUID
	)
	if err := rs.Scan(&p.ID, &p.PatientID, &p.TreatmentID, &p.ChairID, &odontogram, &tooth, &p.Surface,
		&option, &p.Status, &p.IsRepair, &p.StatusReason, &createdBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.OdontogramID = uuidPtr(odontogram)
	p.ToothFDI = intPtr(tooth)
	p.SubclassOptionID = uuidPtr(option)
	p.CreatedBy = uuidPtr(createdBy)
	return &p, nil
}

func (c *Client) CreateProcedure(ctx context.Context, p *PatientProcedure) error {
	p.ID = newID(p.ID)
	if p.Status == "" {
		p.Status = domain.ProcedureDisponible
	}
	stamp(&p.CreatedAt, &p.UpdatedAt)
	_, err := c.exec(ctx, builder().Insert(TablePatientProcedures).Columns(procedureColumns...).Values(
		p.ID, p.PatientID, p.TreatmentID, p.ChairID, p.OdontogramID, p.ToothFDI, p.Surface,
		p.SubclassOptionID, p.Status, p.IsRepair, p.StatusReason, p.CreatedBy, p.CreatedAt, p.UpdatedAt,
	))
	return err
}

func (c *Client) GetProcedure(ctx context.Context, id uuid.UUID) (*PatientProcedure, error) {
	sel := selectFrom(TablePatientProcedures, procedureColumns).Where(entsql.EQ("id", id))
	return queryOne(ctx, c, "patient procedure", sel, scanProcedure)
}

func claimablePredicate() *entsql.Predicate {
	return entsql.Or(
		entsql.EQ("status", domain.ProcedureDisponible),
		entsql.And(entsql.EQ("status", domain.ProcedureFinalizado), entsql.EQ("is_repair", true)),
	)
}

func procedurePredicate(f ProcedureFilter) *entsql.Predicate {
	var preds []*entsql.Predicate
	if f.PatientID != nil {
		preds = append(preds, entsql.EQ("patient_id", *f.PatientID))
	}
	if f.TreatmentID != nil {
		preds = append(preds, entsql.EQ("treatment_id", *f.TreatmentID))
	}
	if f.ChairID != nil {
		preds = append(preds, entsql.EQ("chair_id", *f.ChairID))
	}
	if f.OdontogramID != nil {
		preds = append(preds, entsql.EQ("odontogram_id", *f.OdontogramID))
	}
	if f.ToothFDI != nil {
		preds = append(preds, entsql.EQ("tooth_fdi", *f.ToothFDI))
	}
	if f.Scoped {
		b := builder()
		owners := b.Select("id").From(b.Table(TablePatients)).
			Where(patientPredicate(PatientFilter{Scoped: true, FacultyID: f.FacultyID}))
		preds = append(preds, entsql.In("patient_id", owners))
	}
	if f.Surface != nil {
		preds = append(preds, entsql.EQ("surface", *f.Surface))
	}
	if len(f.Statuses) > 0 {
		args := make([]any, len(f.Statuses))
		for i, s := range f.Statuses {
			args[i] = s
		}
		preds = append(preds, entsql.In("status", args...))
	}
	if f.ClaimableOnly {
		preds = append(preds, claimablePredicate())
	}
	return and(preds)
}

func (c *Client) ListProcedures(ctx context.Context, f ProcedureFilter) ([]*PatientProcedure, int, error) {
	total, err := c.count(ctx, TablePatientProcedures, procedurePredicate(f))
	if err != nil {
		return nil, 0, err
	}
	sel := where(selectFrom(TablePatientProcedures, procedureColumns), procedurePredicate(f)).
		OrderBy("created_at", "tooth_fdi")
	procs, err := queryAll(ctx, c, paginate(sel, f.Page), scanProcedure)
	return procs, total, err
}

func (c *Client) CountProceduresByStatus(ctx context.Context, patientID uuid.UUID) (map[domain.ProcedureStatus]int, error) {
	b := builder()
	sel := b.Select("status", entsql.Count("*")).
		From(b.Table(TablePatientProcedures)).
		Where(entsql.EQ("patient_id", patientID)).
		GroupBy("status")

	out := make(map[domain.ProcedureStatus]int)
	err := c.query(ctx, sel, func(rs rowScanner) error {
		var (
			status domain.ProcedureStatus
			n      int
		)
		if err := rs.Scan(&status, &n); err != nil {
			return err
		}
		out[status] = n
		return nil
	})
	return out, err
}

func (c *Client) ClaimProcedure(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := c.exec(ctx, builder().Update(TablePatientProcedures).
		Set("status", domain.ProcedureProceso).
		Set("status_reason", "").
		Set("updated_at", now()).
		Where(entsql.And(entsql.EQ("id", id), claimablePredicate())))
	return n == 1, err
}

func (c *Client) SetProcedureStatus(ctx context.Context, id uuid.UUID, from, to domain.ProcedureStatus, reason string) (bool, error) {
	n, err := c.exec(ctx, builder().Update(TablePatientProcedures).
		Set("status", to).
		Set("status_reason", reason).
		Set("updated_at", now()).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("status", from))))
	return n == 1, err
}

func (c *Client) SetProcedureRepair(ctx context.Context, id uuid.UUID, isRepair bool) error {
	n, err := c.exec(ctx, builder().Update(TablePatientProcedures).
		Set("is_repair", isRepair).
		Set("updated_at", now()).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return err
	}
	if n == 0 {
		return NewNotFoundError("patient procedure")
	}
	return nil
}
