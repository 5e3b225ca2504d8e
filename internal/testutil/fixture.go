// Package testutil seeds an in-memory store with the records most service
// tests start from.
package testutil

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/odonto_backend/internal/domain"
	"github.com/Alijeyrad/odonto_backend/internal/repo"
	"github.com/Alijeyrad/odonto_backend/internal/repo/memstore"
)

type Fixture struct {
	Store   *memstore.Store
	Faculty *repo.Faculty

	Admin       *repo.User
	Coordinator *repo.User
	Admission   *repo.User
	StudentA    *repo.User
	StudentB    *repo.User

	Chair     *repo.Chair
	Treatment *repo.Treatment
	// Sealant covers the whole upper arch.
	Sealant *repo.Treatment

	Patient *repo.Patient
}

func Principal(u *repo.User) domain.Principal {
	return domain.Principal{UserID: u.ID, Role: u.Role, FacultyID: u.FacultyID}
}

func (f *Fixture) AdminP() domain.Principal       { return Principal(f.Admin) }
func (f *Fixture) CoordinatorP() domain.Principal { return Principal(f.Coordinator) }
func (f *Fixture) AdmissionP() domain.Principal   { return Principal(f.Admission) }
func (f *Fixture) StudentAP() domain.Principal    { return Principal(f.StudentA) }
func (f *Fixture) StudentBP() domain.Principal    { return Principal(f.StudentB) }

// New seeds a faculty, one user per role (two students), a chair with two
// treatments and the patient CI/123456.
func New(t testing.TB) *Fixture {
	t.Helper()
	ctx := context.Background()
	s := memstore.New()
	f := &Fixture{Store: s}

	f.Faculty = &repo.Faculty{Name: "Facultad de Odontología"}
	require.NoError(t, s.CreateFaculty(ctx, f.Faculty))

	user := func(email string, role domain.Role) *repo.User {
		u := &repo.User{
			Email:     email,
			FirstName: string(role),
			LastName:  "Test",
			Role:      role,
			FacultyID: &f.Faculty.ID,
			IsActive:  true,
		}
		switch role {
		case domain.RoleAdmin:
			u.FacultyID = nil
		case domain.RoleAlumno:
			local, _, _ := strings.Cut(email, "@")
			code := strings.ToUpper(local)
			u.StudentCode = &code
		}
		require.NoError(t, s.CreateUser(ctx, u))
		return u
	}
	f.Admin = user("admin@odonto.test", domain.RoleAdmin)
	f.Coordinator = user("coord@odonto.test", domain.RoleCoordinador)
	f.Admission = user("admision@odonto.test", domain.RoleAdmision)
	f.StudentA = user("alumno.a@odonto.test", domain.RoleAlumno)
	f.StudentB = user("alumno.b@odonto.test", domain.RoleAlumno)

	f.Chair = &repo.Chair{Name: "Operatoria Dental"}
	require.NoError(t, s.CreateChair(ctx, f.Chair))

	f.Treatment = &repo.Treatment{ChairID: f.Chair.ID, Code: "OP-RES", Name: "Resina compuesta", RequiresTooth: true, RequiredSessions: 1}
	require.NoError(t, s.CreateTreatment(ctx, f.Treatment))
	f.Sealant = &repo.Treatment{ChairID: f.Chair.ID, Code: "OP-SEL", Name: "Sellantes", RequiresTooth: true, AppliesToAllUpper: true, RequiredSessions: 1}
	require.NoError(t, s.CreateTreatment(ctx, f.Sealant))

	f.Patient = &repo.Patient{
		FacultyID:      &f.Faculty.ID,
		CreatedBy:      &f.Admission.ID,
		FirstName:      "Juan",
		LastName:       "Pérez",
		DocumentType:   "CI",
		DocumentNumber: "123456",
	}
	require.NoError(t, s.CreatePatient(ctx, f.Patient))

	return f
}

// Procedure stores a disponible procedure for the fixture patient.
func (f *Fixture) Procedure(t testing.TB, tooth int) *repo.PatientProcedure {
	t.Helper()
	p := &repo.PatientProcedure{
		PatientID:   f.Patient.ID,
		TreatmentID: f.Treatment.ID,
		ChairID:     f.Chair.ID,
		ToothFDI:    &tooth,
		CreatedBy:   &f.Admission.ID,
	}
	require.NoError(t, f.Store.CreateProcedure(context.Background(), p))
	return p
}

// Audits returns the audit rows of one entity, newest first.
func (f *Fixture) Audits(t testing.TB, entityID uuid.UUID) []*repo.Audit {
	t.Helper()
	rows, _, err := f.Store.ListAudits(context.Background(), repo.AuditFilter{EntityID: &entityID})
	require.NoError(t, err)
	return rows
}
