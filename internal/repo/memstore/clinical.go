package memstore

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/Alijeyrad/odonto_backend/internal/domain"
	"github.com/Alijeyrad/odonto_backend/internal/repo"
)

func (q *queries) CreateOdontogram(ctx context.Context, o *repo.Odontogram) error {
	defer q.lock()()
	st := q.state()
	if _, ok := st.patients[o.PatientID]; !ok {
		return foreignKey("odontograms_patient_id_fkey")
	}
	o.ID = newID(o.ID)
	stamp(&o.CreatedAt, nil)
	if o.RecordedAt.IsZero() {
		o.RecordedAt = o.CreatedAt
	}
	st.odontograms[o.ID] = *o
	return nil
}

func (q *queries) GetOdontogram(ctx context.Context, id uuid.UUID) (*repo.Odontogram, error) {
	defer q.lock()()
	o, ok := q.state().odontograms[id]
	if !ok {
		return nil, repo.NewNotFoundError("odontogram")
	}
	return &o, nil
}

func newestOdontogramFirst(a, b repo.Odontogram) bool {
	if !a.RecordedAt.Equal(b.RecordedAt) {
		return a.RecordedAt.After(b.RecordedAt)
	}
	return byTime(b.CreatedAt, a.CreatedAt, b.ID, a.ID)
}

func (q *queries) ListOdontograms(ctx context.Context, patientID uuid.UUID) ([]*repo.Odontogram, error) {
	defer q.lock()()
	return collect(q.state().odontograms, func(o repo.Odontogram) bool {
		return o.PatientID == patientID
	}, newestOdontogramFirst), nil
}

func (q *queries) LatestOdontogram(ctx context.Context, patientID uuid.UUID) (*repo.Odontogram, error) {
	defer q.lock()()
	list := collect(q.state().odontograms, func(o repo.Odontogram) bool {
		return o.PatientID == patientID
	}, newestOdontogramFirst)
	if len(list) == 0 {
		return nil, repo.NewNotFoundError("odontogram")
	}
	return list[0], nil
}

func (q *queries) CreateTooth(ctx context.Context, t *repo.OdontogramTooth) error {
	defer q.lock()()
	st := q.state()
	if _, ok := st.odontograms[t.OdontogramID]; !ok {
		return foreignKey("odontogram_teeth_odontogram_id_fkey")
	}
	for _, other := range st.teeth {
		if other.OdontogramID == t.OdontogramID && other.ToothFDI == t.ToothFDI && other.Surface == t.Surface {
			return unique(repo.UniqueToothSurface)
		}
	}
	t.ID = newID(t.ID)
	stamp(&t.CreatedAt, &t.UpdatedAt)
	st.teeth[t.ID] = *t
	return nil
}

func (q *queries) GetTooth(ctx context.Context, id uuid.UUID) (*repo.OdontogramTooth, error) {
	defer q.lock()()
	t, ok := q.state().teeth[id]
	if !ok {
		return nil, repo.NewNotFoundError("odontogram tooth")
	}
	return &t, nil
}

func (q *queries) ListTeeth(ctx context.Context, odontogramID uuid.UUID) ([]*repo.OdontogramTooth, error) {
	defer q.lock()()
	return collect(q.state().teeth, func(t repo.OdontogramTooth) bool {
		return t.OdontogramID == odontogramID
	}, func(a, b repo.OdontogramTooth) bool {
		if a.ToothFDI != b.ToothFDI {
			return a.ToothFDI < b.ToothFDI
		}
		return a.Surface < b.Surface
	}), nil
}

func (q *queries) UpdateTooth(ctx context.Context, t *repo.OdontogramTooth) error {
	defer q.lock()()
	st := q.state()
	cur, ok := st.teeth[t.ID]
	if !ok {
		return repo.NewNotFoundError("odontogram tooth")
	}
	cur.Status = t.Status
	cur.Notes = t.Notes
	stamp(nil, &cur.UpdatedAt)
	t.UpdatedAt = cur.UpdatedAt
	st.teeth[t.ID] = cur
	return nil
}

func (q *queries) CreateProcedure(ctx context.Context, p *repo.PatientProcedure) error {
	defer q.lock()()
	st := q.state()
	if _, ok := st.patients[p.PatientID]; !ok {
		return foreignKey("patient_procedures_patient_id_fkey")
	}
	if _, ok := st.treatments[p.TreatmentID]; !ok {
		return foreignKey("patient_procedures_treatment_id_fkey")
	}
	if _, ok := st.chairs[p.ChairID]; !ok {
		return foreignKey("patient_procedures_chair_id_fkey")
	}
	if p.OdontogramID != nil {
		if _, ok := st.odontograms[*p.OdontogramID]; !ok {
			return foreignKey("patient_procedures_odontogram_id_fkey")
		}
	}
	if p.SubclassOptionID != nil {
		if _, ok := st.options[*p.SubclassOptionID]; !ok {
			return foreignKey("patient_procedures_subclass_option_id_fkey")
		}
	}
	p.ID = newID(p.ID)
	if p.Status == "" {
		p.Status = domain.ProcedureDisponible
	}
	stamp(&p.CreatedAt, &p.UpdatedAt)
	st.procedures[p.ID] = *p
	return nil
}

func (q *queries) GetProcedure(ctx context.Context, id uuid.UUID) (*repo.PatientProcedure, error) {
	defer q.lock()()
	p, ok := q.state().procedures[id]
	if !ok {
		return nil, repo.NewNotFoundError("patient procedure")
	}
	return &p, nil
}

func (st *state) procedureMatches(p repo.PatientProcedure, f repo.ProcedureFilter) bool {
	switch {
	case f.Scoped && !st.patientInScope(p.PatientID, f.FacultyID):
		return false
	case f.PatientID != nil && p.PatientID != *f.PatientID:
		return false
	case f.TreatmentID != nil && p.TreatmentID != *f.TreatmentID:
		return false
	case f.ChairID != nil && p.ChairID != *f.ChairID:
		return false
	case f.OdontogramID != nil && (p.OdontogramID == nil || *p.OdontogramID != *f.OdontogramID):
		return false
	case f.ToothFDI != nil && (p.ToothFDI == nil || *p.ToothFDI != *f.ToothFDI):
		return false
	case f.Surface != nil && p.Surface != *f.Surface:
		return false
	case len(f.Statuses) > 0 && !slices.Contains(f.Statuses, p.Status):
		return false
	case f.ClaimableOnly && !domain.Claimable(p.Status, p.IsRepair):
		return false
	}
	return true
}

func (q *queries) ListProcedures(ctx context.Context, f repo.ProcedureFilter) ([]*repo.PatientProcedure, int, error) {
	defer q.lock()()
	st := q.state()
	list := collect(st.procedures, func(p repo.PatientProcedure) bool {
		return st.procedureMatches(p, f)
	}, func(a, b repo.PatientProcedure) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		ta, tb := 0, 0
		if a.ToothFDI != nil {
			ta = *a.ToothFDI
		}
		if b.ToothFDI != nil {
			tb = *b.ToothFDI
		}
		if ta != tb {
			return ta < tb
		}
		return a.ID.String() < b.ID.String()
	})
	return paginate(list, f.Page), len(list), nil
}

func (q *queries) CountProceduresByStatus(ctx context.Context, patientID uuid.UUID) (map[domain.ProcedureStatus]int, error) {
	defer q.lock()()
	out := make(map[domain.ProcedureStatus]int)
	for _, p := range q.state().procedures {
		if p.PatientID == patientID {
			out[p.Status]++
		}
	}
	return out, nil
}

func (q *queries) ClaimProcedure(ctx context.Context, id uuid.UUID) (bool, error) {
	defer q.lock()()
	st := q.state()
	p, ok := st.procedures[id]
	if !ok || !domain.Claimable(p.Status, p.IsRepair) {
		return false, nil
	}
	p.Status = domain.ProcedureProceso
	p.StatusReason = ""
	stamp(nil, &p.UpdatedAt)
	st.procedures[id] = p
	return true, nil
}

func (q *queries) SetProcedureStatus(ctx context.Context, id uuid.UUID, from, to domain.ProcedureStatus, reason string) (bool, error) {
	defer q.lock()()
	st := q.state()
	p, ok := st.procedures[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	p.StatusReason = reason
	stamp(nil, &p.UpdatedAt)
	st.procedures[id] = p
	return true, nil
}

func (q *queries) SetProcedureRepair(ctx context.Context, id uuid.UUID, isRepair bool) error {
	defer q.lock()()
	st := q.state()
	p, ok := st.procedures[id]
	if !ok {
		return repo.NewNotFoundError("patient procedure")
	}
	p.IsRepair = isRepair
	stamp(nil, &p.UpdatedAt)
	st.procedures[id] = p
	return nil
}

func (q *queries) CreateAssignment(ctx context.Context, a *repo.Assignment) error {
	defer q.lock()()
	st := q.state()
	if _, ok := st.procedures[a.PatientProcedureID]; !ok {
		return foreignKey("assignments_patient_procedure_id_fkey")
	}
	if _, ok := st.users[a.StudentID]; !ok {
		return foreignKey("assignments_student_id_fkey")
	}
	if a.Status == "" {
		a.Status = domain.AssignmentActiva
	}
	if a.Status == domain.AssignmentActiva {
		for _, other := range st.assignments {
			if other.PatientProcedureID != a.PatientProcedureID || other.Status != domain.AssignmentActiva {
				continue
			}
			if other.StudentID == a.StudentID {
				return unique(repo.UniqueActiveStudentAssignment)
			}
			return unique(repo.UniqueActiveAssignment)
		}
	}
	a.ID = newID(a.ID)
	stamp(&a.CreatedAt, &a.UpdatedAt)
	if a.StartedAt.IsZero() {
		a.StartedAt = a.CreatedAt
	}
	st.assignments[a.ID] = *a
	return nil
}

func (q *queries) GetAssignment(ctx context.Context, id uuid.UUID) (*repo.Assignment, error) {
	defer q.lock()()
	a, ok := q.state().assignments[id]
	if !ok {
		return nil, repo.NewNotFoundError("assignment")
	}
	return &a, nil
}

func (q *queries) ActiveAssignment(ctx context.Context, procedureID uuid.UUID) (*repo.Assignment, error) {
	defer q.lock()()
	for _, a := range q.state().assignments {
		if a.PatientProcedureID == procedureID && a.Status == domain.AssignmentActiva {
			return ptr(a), nil
		}
	}
	return nil, repo.NewNotFoundError("active assignment")
}

func (q *queries) ListAssignments(ctx context.Context, f repo.AssignmentFilter) ([]*repo.Assignment, int, error) {
	defer q.lock()()
	list := collect(q.state().assignments, func(a repo.Assignment) bool {
		switch {
		case f.StudentID != nil && a.StudentID != *f.StudentID:
			return false
		case f.ProcedureID != nil && a.PatientProcedureID != *f.ProcedureID:
			return false
		case f.Status != nil && a.Status != *f.Status:
			return false
		}
		return true
	}, func(a, b repo.Assignment) bool {
		return byTime(b.StartedAt, a.StartedAt, b.ID, a.ID)
	})
	return paginate(list, f.Page), len(list), nil
}

func (q *queries) FinishAssignment(ctx context.Context, id uuid.UUID, fin repo.AssignmentFinish) (bool, error) {
	defer q.lock()()
	st := q.state()
	a, ok := st.assignments[id]
	if !ok || a.Status != domain.AssignmentActiva {
		return false, nil
	}
	a.Status = fin.Status
	a.Notes = fin.Notes
	a.AbandonReason = fin.AbandonReason
	a.FinishedAt = ptr(fin.FinishedAt)
	stamp(nil, &a.UpdatedAt)
	st.assignments[id] = a
	return true, nil
}

func (q *queries) UpdateAssignmentNotes(ctx context.Context, id uuid.UUID, notes string) error {
	defer q.lock()()
	st := q.state()
	a, ok := st.assignments[id]
	if !ok {
		return repo.NewNotFoundError("assignment")
	}
	a.Notes = notes
	stamp(nil, &a.UpdatedAt)
	st.assignments[id] = a
	return nil
}

func (q *queries) IncrementSessions(ctx context.Context, id uuid.UUID) (bool, error) {
	defer q.lock()()
	st := q.state()
	a, ok := st.assignments[id]
	if !ok || a.Status != domain.AssignmentActiva {
		return false, nil
	}
	a.SessionsCompleted++
	stamp(nil, &a.UpdatedAt)
	st.assignments[id] = a
	return true, nil
}

func (q *queries) CreateSession(ctx context.Context, s *repo.TreatmentSession) error {
	defer q.lock()()
	st := q.state()
	if _, ok := st.assignments[s.AssignmentID]; !ok {
		return foreignKey("treatment_sessions_assignment_id_fkey")
	}
	s.ID = newID(s.ID)
	stamp(&s.CreatedAt, nil)
	st.sessions[s.ID] = *s
	return nil
}

func (q *queries) ListSessions(ctx context.Context, assignmentID uuid.UUID) ([]*repo.TreatmentSession, error) {
	defer q.lock()()
	return collect(q.state().sessions, func(s repo.TreatmentSession) bool {
		return s.AssignmentID == assignmentID
	}, func(a, b repo.TreatmentSession) bool {
		if !a.SessionDate.Equal(b.SessionDate) {
			return a.SessionDate.Before(b.SessionDate)
		}
		return byTime(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	}), nil
}

func (q *queries) CreatePhoto(ctx context.Context, p *repo.ProcedurePhoto) error {
	defer q.lock()()
	st := q.state()
	if (p.AssignmentID == nil) == (p.PatientProcedureID == nil) {
		return repo.NewConstraintError(repo.ConstraintCheck, repo.CheckPhotoParent, nil)
	}
	if p.AssignmentID != nil {
		if _, ok := st.assignments[*p.AssignmentID]; !ok {
			return foreignKey("procedure_photos_assignment_id_fkey")
		}
	}
	if p.PatientProcedureID != nil {
		if _, ok := st.procedures[*p.PatientProcedureID]; !ok {
			return foreignKey("procedure_photos_patient_procedure_id_fkey")
		}
	}
	p.ID = newID(p.ID)
	stamp(&p.CreatedAt, nil)
	st.photos[p.ID] = *p
	return nil
}

func (q *queries) GetPhoto(ctx context.Context, id uuid.UUID) (*repo.ProcedurePhoto, error) {
	defer q.lock()()
	p, ok := q.state().photos[id]
	if !ok {
		return nil, repo.NewNotFoundError("procedure photo")
	}
	return &p, nil
}

func (q *queries) ListPhotos(ctx context.Context, f repo.PhotoFilter) ([]*repo.ProcedurePhoto, error) {
	defer q.lock()()
	return collect(q.state().photos, func(p repo.ProcedurePhoto) bool {
		if f.AssignmentID != nil && (p.AssignmentID == nil || *p.AssignmentID != *f.AssignmentID) {
			return false
		}
		if f.ProcedureID != nil && (p.PatientProcedureID == nil || *p.PatientProcedureID != *f.ProcedureID) {
			return false
		}
		return true
	}, func(a, b repo.ProcedurePhoto) bool { return byTime(a.CreatedAt, b.CreatedAt, a.ID, b.ID) }), nil
}
