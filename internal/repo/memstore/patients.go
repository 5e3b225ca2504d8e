package memstore

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/odonto_backend/internal/repo"
)

func (q *queries) CreatePatient(ctx context.Context, p *repo.Patient) error {
	defer q.lock()()
	st := q.state()
	for _, other := range st.patients {
		if other.DocumentType == p.DocumentType && other.DocumentNumber == p.DocumentNumber {
			return unique(repo.UniquePatientDocument)
		}
	}
	if p.FacultyID != nil {
		if _, ok := st.faculties[*p.FacultyID]; !ok {
			return foreignKey("patients_faculty_id_fkey")
		}
	}
	p.ID = newID(p.ID)
	stamp(&p.CreatedAt, &p.UpdatedAt)
	st.patients[p.ID] = *p
	return nil
}

func (q *queries) GetPatient(ctx context.Context, id uuid.UUID) (*repo.Patient, error) {
	defer q.lock()()
	p, ok := q.state().patients[id]
	if !ok {
		return nil, repo.NewNotFoundError("patient")
	}
	return &p, nil
}

func (q *queries) GetPatientByDocument(ctx context.Context, docType, docNumber string) (*repo.Patient, error) {
	defer q.lock()()
	for _, p := range q.state().patients {
		if p.DocumentType == docType && p.DocumentNumber == docNumber {
			return ptr(p), nil
		}
	}
	return nil, repo.NewNotFoundError("patient")
}

func (q *queries) ListPatients(ctx context.Context, f repo.PatientFilter) ([]*repo.Patient, int, error) {
	defer q.lock()()
	search := strings.ToLower(strings.TrimSpace(f.Search))
	list := collect(q.state().patients, func(p repo.Patient) bool {
		if f.Scoped && !facultyInScope(p.FacultyID, f.FacultyID) {
			return false
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.FirstName), search) &&
			!strings.Contains(strings.ToLower(p.LastName), search) &&
			!strings.Contains(strings.ToLower(p.DocumentNumber), search) {
			return false
		}
		return true
	}, func(a, b repo.Patient) bool {
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		return a.FirstName < b.FirstName
	})
	return paginate(list, f.Page), len(list), nil
}

func (q *queries) UpdatePatient(ctx context.Context, p *repo.Patient) error {
	defer q.lock()()
	st := q.state()
	cur, ok := st.patients[p.ID]
	if !ok {
		return repo.NewNotFoundError("patient")
	}
	for id, other := range st.patients {
		if id != p.ID && other.DocumentType == p.DocumentType && other.DocumentNumber == p.DocumentNumber {
			return unique(repo.UniquePatientDocument)
		}
	}
	stamp(nil, &p.UpdatedAt)
	p.CreatedAt = cur.CreatedAt
	st.patients[p.ID] = *p
	return nil
}

// DeletePatient removes the patient and every clinical row hanging off it,
// following the ON DELETE CASCADE chain of the SQL schema.
func (q *queries) DeletePatient(ctx context.Context, id uuid.UUID) error {
	defer q.lock()()
	st := q.state()
	if _, ok := st.patients[id]; !ok {
		return repo.NewNotFoundError("patient")
	}
	delete(st.patients, id)

	for oid, o := range st.odontograms {
		if o.PatientID != id {
			continue
		}
		delete(st.odontograms, oid)
		for tid, t := range st.teeth {
			if t.OdontogramID == oid {
				delete(st.teeth, tid)
			}
		}
	}
	for pid, p := range st.procedures {
		if p.PatientID == id {
			st.deleteProcedure(pid)
		}
	}
	return nil
}

func (s *state) deleteProcedure(id uuid.UUID) {
	delete(s.procedures, id)
	for aid, a := range s.assignments {
		if a.PatientProcedureID != id {
			continue
		}
		delete(s.assignments, aid)
		for sid, sess := range s.sessions {
			if sess.AssignmentID == aid {
				delete(s.sessions, sid)
			}
		}
		for phid, ph := range s.photos {
			if ph.AssignmentID != nil && *ph.AssignmentID == aid {
				delete(s.photos, phid)
			}
		}
	}
	for phid, ph := range s.photos {
		if ph.PatientProcedureID != nil && *ph.PatientProcedureID == id {
			delete(s.photos, phid)
		}
	}
}

func facultyInScope(owner, scope *uuid.UUID) bool {
	return owner == nil || (scope != nil && *owner == *scope)
}

func (st *state) patientInScope(patientID uuid.UUID, scope *uuid.UUID) bool {
	p, ok := st.patients[patientID]
	return ok && facultyInScope(p.FacultyID, scope)
}
