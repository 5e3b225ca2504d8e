package repo

import (
	"context"
	"database/sql"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/Alijeyrad/odonto_backend/internal/domain"
)

var assignmentColumns = []string{
	"id", "patient_procedure_id", "student_id", "status", "sessions_completed", "notes",
	"abandon_reason", "started_at", "finished_at", "created_at", "updated_at",
}

func scanAssignment(rs rowScanner) (*Assignment, error) {
	var (
		a        Assignment
		finished sql.NullTime
	)
	if err := rs.Scan(&a.ID, &a.PatientProcedureID, &a.StudentID, &a.Status, &a.SessionsCompleted, &a.Notes,
		&a.AbandonReason, &a.StartedAt, &finished, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.FinishedAt = timePtr(finished)
	return &a, nil
}

func (c *Client) CreateAssignment(ctx context.Context, a *Assignment) error {
	a.ID = newID(a.ID)
	if a.Status == "" {
		a.Status = domain.AssignmentActiva
	}
	stamp(&a.CreatedAt, &a.UpdatedAt)
	if a.StartedAt.IsZero() {
		a.StartedAt = a.CreatedAt
	}
	_, err := c.exec(ctx, builder().Insert(TableAssignments).Columns(assignmentColumns...).Values(
		a.ID, a.PatientProcedureID, a.StudentID, a.Status, a.SessionsCompleted, a.Notes,
		a.AbandonReason, a.StartedAt, a.FinishedAt, a.CreatedAt, a.UpdatedAt,
	))
	return err
}

func (c *Client) GetAssignment(ctx context.Context, id uuid.UUID) (*Assignment, error) {
	sel := selectFrom(TableAssignments, assignmentColumns).Where(entsql.EQ("id", id))
	return queryOne(ctx, c, "assignment", sel, scanAssignment)
}

func (c *Client) ActiveAssignment(ctx context.Context, procedureID uuid.UUID) (*Assignment, error) {
	sel := selectFrom(TableAssignments, assignmentColumns).Where(entsql.And(
		entsql.EQ("patient_procedure_id", procedureID),
		entsql.EQ("status", domain.AssignmentActiva),
	))
	return queryOne(ctx, c, "active assignment", sel, scanAssignment)
}

func assignmentPredicate(f AssignmentFilter) *entsql.Predicate {
	var preds []*entsql.Predicate
	if f.StudentID != nil {
		preds = append(preds, entsql.EQ("student_id", *f.StudentID))
	}
	if f.ProcedureID != nil {
		preds = append(preds, entsql.EQ("patient_procedure_id", *f.ProcedureID))
	}
	if f.Status != nil {
		preds = append(preds, entsql.EQ("status", *f.Status))
	}
	return and(preds)
}

func (c *Client) ListAssignments(ctx context.Context, f AssignmentFilter) ([]*Assignment, int, error) {
	total, err := c.count(ctx, TableAssignments, assignmentPredicate(f))
	if err != nil {
		return nil, 0, err
	}
	sel := where(selectFrom(TableAssignments, assignmentColumns), assignmentPredicate(f)).
		OrderBy(entsql.Desc("started_at"))
	list, err := queryAll(ctx, c, paginate(sel, f.Page), scanAssignment)
	return list, total, err
}

func (c *Client) FinishAssignment(ctx context.Context, id uuid.UUID, fin AssignmentFinish) (bool, error) {
	n, err := c.exec(ctx, builder().Update(TableAssignments).
		Set("status", fin.Status).
		Set("notes", fin.Notes).
		Set("abandon_reason", fin.AbandonReason).
		Set("finished_at", fin.FinishedAt).
		Set("updated_at", now()).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("status", domain.AssignmentActiva))))
	return n == 1, err
}

func (c *Client) UpdateAssignmentNotes(ctx context.Context, id uuid.UUID, notes string) error {
	n, err := c.exec(ctx, builder().Update(TableAssignments).
		Set("notes", notes).
		Set("updated_at", now()).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return err
	}
	if n == 0 {
		return NewNotFoundError("assignment")
	}
	return nil
}

func (c *Client) IncrementSessions(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := c.exec(ctx, builder().Update(TableAssignments).
		Add("sessions_completed", 1).
		Set("updated_at", now()).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("status", domain.AssignmentActiva))))
	return n == 1, err
}

var sessionColumns = []string{"id", "assignment_id", "session_date", "notes", "supervisor_id", "created_at"}

func scanSession(rs rowScanner) (*TreatmentSession, error) {
	var (
		s          TreatmentSession
		supervisor uuid.NullUUID
	)
	if err := rs.Scan(&s.ID, &s.AssignmentID, &s.SessionDate, &s.Notes, &supervisor, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.SupervisorID = uuidPtr(supervisor)
	return &s, nil
}

func (c *Client) CreateSession(ctx context.Context, s *TreatmentSession) error {
	s.ID = newID(s.ID)
	stamp(&s.CreatedAt, nil)
	_, err := c.exec(ctx, builder().Insert(TableTreatmentSessions).Columns(sessionColumns...).
		Values(s.ID, s.AssignmentID, s.SessionDate, s.Notes, s.SupervisorID, s.CreatedAt))
	return err
}

func (c *Client) ListSessions(ctx context.Context, assignmentID uuid.UUID) ([]*TreatmentSession, error) {
	sel := selectFrom(TableTreatmentSessions, sessionColumns).
		Where(entsql.EQ("assignment_id", assignmentID)).
		OrderBy("session_date", "created_at")
	return queryAll(ctx, c, sel, scanSession)
}

var photoColumns = []string{
	"id", "assignment_id", "patient_procedure_id", "file_key", "file_name", "mime_type",
	"size", "caption", "uploaded_by", "created_at",
}

func scanPhoto(rs rowScanner) (*ProcedurePhoto, error) {
	var (
		p          ProcedurePhoto
		assignment uuid.NullUUID
		procedure  uuid.NullUUID
		uploadedBy uuid.NullUUID
	)
	if err := rs.Scan(&p.ID, &assignment, &procedure, &p.FileKey, &p.FileName, &p.MimeType,
		&p.Size, &p.Caption, &uploadedBy, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.AssignmentID = uuidPtr(assignment)
	p.PatientProcedureID = uuidPtr(procedure)
	p.UploadedBy = uuidPtr(uploadedBy)
	return &p, nil
}

func (c *Client) CreatePhoto(ctx context.Context, p *ProcedurePhoto) error {
	p.ID = newID(p.ID)
	stamp(&p.CreatedAt, nil)
	_, err := c.exec(ctx, builder().Insert(TableProcedurePhotos).Columns(photoColumns...).Values(
		p.ID, p.AssignmentID, p.PatientProcedureID, p.FileKey, p.FileName, p.MimeType,
		p.Size, p.Caption, p.UploadedBy, p.CreatedAt,
	))
	return err
}

func (c *Client) GetPhoto(ctx context.Context, id uuid.UUID) (*ProcedurePhoto, error) {
	sel := selectFrom(TableProcedurePhotos, photoColumns).Where(entsql.EQ("id", id))
	return queryOne(ctx, c, "procedure photo", sel, scanPhoto)
}

func (c *Client) ListPhotos(ctx context.Context, f PhotoFilter) ([]*ProcedurePhoto, error) {
	var preds []*entsql.Predicate
	if f.AssignmentID != nil {
		preds = append(preds, entsql.EQ("assignment_id", *f.AssignmentID))
	}
	if f.ProcedureID != nil {
		preds = append(preds, entsql.EQ("patient_procedure_id", *f.ProcedureID))
	}
	sel := where(selectFrom(TableProcedurePhotos, photoColumns), and(preds)).OrderBy("created_at")
	return queryAll(ctx, c, sel, scanPhoto)
}
