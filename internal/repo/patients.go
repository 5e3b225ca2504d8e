package repo

import (
	"context"
	"database/sql"
	"strings"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

var patientColumns = []string{
	"id", "faculty_id", "created_by", "first_name", "last_name", "document_type", "document_number",
	"birth_date", "sex", "phone", "email", "address",
	"has_allergies", "has_diabetes", "has_hypertension", "has_heart_disease", "has_bleeding_disorder",
	"is_pregnant", "takes_medication", "allergies_detail", "medication_detail", "medical_notes",
	"consent_file_key", "created_at", "updated_at",
}

func scanPatient(rs rowScanner) (*Patient, error) {
	var (
		p         Patient
		faculty   uuid.NullUUID
		createdBy uuid.NullUUID
		birth     sql.NullTime
		consent   sql.NullString
	)
	mh := &p.MedicalHistory
	if err := rs.Scan(&p.ID, &faculty, &createdBy, &p.FirstName, &p.LastName, &p.DocumentType, &p.DocumentNumber,
		&birth, &p.Sex, &p.Phone, &p.Email, &p.Address,
		&mh.HasAllergies, &mh.HasDiabetes, &mh.HasHypertension, &mh.HasHeartDisease, &mh.HasBleedingDisorder,
		&mh.IsPregnant, &mh.TakesMedication, &mh.AllergiesDetail, &mh.MedicationDetail, &mh.MedicalNotes,
		&consent, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.FacultyID = uuidPtr(faculty)
	p.CreatedBy = uuidPtr(createdBy)
	p.BirthDate = timePtr(birth)
	p.ConsentFileKey = stringPtr(consent)
	return &p, nil
}

func patientValues(p *Patient) []any {
	mh := p.MedicalHistory
	return []any{
		p.ID, p.FacultyID, p.CreatedBy, p.FirstName, p.LastName, p.DocumentType, p.DocumentNumber,
		p.BirthDate, p.Sex, p.Phone, p.Email, p.Address,
		mh.HasAllergies, mh.HasDiabetes, mh.HasHypertension, mh.HasHeartDisease, mh.HasBleedingDisorder,
		mh.IsPregnant, mh.TakesMedication, mh.AllergiesDetail, mh.MedicationDetail, mh.MedicalNotes,
		p.ConsentFileKey, p.CreatedAt, p.UpdatedAt,
	}
}

func (c *Client) CreatePatient(ctx context.Context, p *Patient) error {
	p.ID = newID(p.ID)
	stamp(&p.CreatedAt, &p.UpdatedAt)
	_, err := c.exec(ctx, builder().Insert(TablePatients).Columns(patientColumns...).Values(patientValues(p)...))
	return err
}

func (c *Client) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return queryOne(ctx, c, "patient", selectFrom(TablePatients, patientColumns).Where(entsql.EQ("id", id)), scanPatient)
}

func (c *Client) GetPatientByDocument(ctx context.Context, docType, docNumber string) (*Patient, error) {
	sel := selectFrom(TablePatients, patientColumns).Where(entsql.And(
		entsql.EQ("document_type", docType),
		entsql.EQ("document_number", docNumber),
	))
	return queryOne(ctx, c, "patient", sel, scanPatient)
}

func patientPredicate(f PatientFilter) *entsql.Predicate {
	var preds []*entsql.Predicate
	if f.Scoped {
		if f.FacultyID != nil {
			preds = append(preds, entsql.Or(entsql.EQ("faculty_id", *f.FacultyID), entsql.IsNull("faculty_id")))
		} else {
			preds = append(preds, entsql.IsNull("faculty_id"))
		}
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		preds = append(preds, entsql.Or(
			entsql.ContainsFold("first_name", s),
			entsql.ContainsFold("last_name", s),
			entsql.ContainsFold("document_number", s),
		))
	}
	return and(preds)
}

func (c *Client) ListPatients(ctx context.Context, f PatientFilter) ([]*Patient, int, error) {
	total, err := c.count(ctx, TablePatients, patientPredicate(f))
	if err != nil {
		return nil, 0, err
	}
	sel := where(selectFrom(TablePatients, patientColumns), patientPredicate(f)).
		OrderBy("last_name", "first_name")
	patients, err := queryAll(ctx, c, paginate(sel, f.Page), scanPatient)
	return patients, total, err
}

func (c *Client) UpdatePatient(ctx context.Context, p *Patient) error {
	stamp(nil, &p.UpdatedAt)
	upd := builder().Update(TablePatients)
	values := patientValues(p)
	// id and created_at are immutable
	for i, col := range patientColumns {
		if col == "id" || col == "created_at" {
			continue
		}
		upd.Set(col, values[i])
	}
	n, err := c.exec(ctx, upd.Where(entsql.EQ("id", p.ID)))
	if err != nil {
		return err
	}
	if n == 0 {
		return NewNotFoundError("patient")
	}
	return nil
}

func (c *Client) DeletePatient(ctx context.Context, id uuid.UUID) error {
	n, err := c.exec(ctx, builder().Delete(TablePatients).Where(entsql.EQ("id", id)))
	if err != nil {
		return err
	}
	if n == 0 {
		return NewNotFoundError("patient")
	}
	return nil
}
