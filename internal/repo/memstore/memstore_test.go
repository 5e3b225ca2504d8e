package memstore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/odonto_backend/internal/apperr"
	"github.com/Alijeyrad/odonto_backend/internal/domain"
	"github.com/Alijeyrad/odonto_backend/internal/repo"
)

type fixture struct {
	store     *Store
	student   *repo.User
	chair     *repo.Chair
	treatment *repo.Treatment
	patient   *repo.Patient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := New()

	student := &repo.User{Email: "Alumno@Example.com", Role: domain.RoleAlumno, IsActive: true}
	require.NoError(t, s.CreateUser(ctx, student))
	chair := &repo.Chair{Name: "Operatoria"}
	require.NoError(t, s.CreateChair(ctx, chair))
	treatment := &repo.Treatment{ChairID: chair.ID, Code: "OP-01", Name: "Resina", RequiresTooth: true}
	require.NoError(t, s.CreateTreatment(ctx, treatment))
	patient := &repo.Patient{FirstName: "Ana", LastName: "Paz", DocumentType: "DNI", DocumentNumber: "123"}
	require.NoError(t, s.CreatePatient(ctx, patient))

	return &fixture{store: s, student: student, chair: chair, treatment: treatment, patient: patient}
}

func (f *fixture) procedure(t *testing.T) *repo.PatientProcedure {
	t.Helper()
	p := &repo.PatientProcedure{PatientID: f.patient.ID, TreatmentID: f.treatment.ID, ChairID: f.chair.ID}
	require.NoError(t, f.store.CreateProcedure(context.Background(), p))
	return p
}

func TestUsersEmailIsUniqueAndNormalized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.store.GetUserByEmail(ctx, "alumno@example.com")
	require.NoError(t, err)
	assert.Equal(t, f.student.ID, got.ID)

	err = f.store.CreateUser(ctx, &repo.User{Email: "ALUMNO@example.com", Role: domain.RoleAlumno})
	require.Error(t, err)
	assert.True(t, repo.IsUniqueViolation(err, repo.UniqueUserEmail))
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestNotFound(t *testing.T) {
	s := New()
	_, err := s.GetPatient(context.Background(), uuid.New())
	assert.True(t, repo.IsNotFound(err))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestForeignKeys(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.store.CreateProcedure(ctx, &repo.PatientProcedure{
		PatientID: uuid.New(), TreatmentID: f.treatment.ID, ChairID: f.chair.ID,
	})
	require.Error(t, err)
	assert.True(t, repo.IsConstraintError(err))

	err = f.store.CreateAssignment(ctx, &repo.Assignment{PatientProcedureID: f.procedure(t).ID, StudentID: uuid.New()})
	assert.True(t, repo.IsConstraintError(err))
}

func TestToothSurfaceUnique(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o := &repo.Odontogram{PatientID: f.patient.ID, Type: domain.OdontogramPermanent}
	require.NoError(t, f.store.CreateOdontogram(ctx, o))

	require.NoError(t, f.store.CreateTooth(ctx, &repo.OdontogramTooth{OdontogramID: o.ID, ToothFDI: 11, Status: domain.ToothSano}))
	require.NoError(t, f.store.CreateTooth(ctx, &repo.OdontogramTooth{OdontogramID: o.ID, ToothFDI: 11, Surface: "O", Status: domain.ToothIndicado}))

	err := f.store.CreateTooth(ctx, &repo.OdontogramTooth{OdontogramID: o.ID, ToothFDI: 11, Status: domain.ToothSano})
	assert.True(t, repo.IsUniqueViolation(err, repo.UniqueToothSurface))

	teeth, err := f.store.ListTeeth(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, teeth, 2)
	assert.Equal(t, "", teeth[0].Surface)
	assert.Equal(t, "O", teeth[1].Surface)
}

func TestClaimProcedure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.procedure(t)

	ok, err := f.store.ClaimProcedure(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.store.ClaimProcedure(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, ok, "a procedure in proceso is not claimable")

	ok, err = f.store.SetProcedureStatus(ctx, p.ID, domain.ProcedureProceso, domain.ProcedureFinalizado, "")
	require.NoError(t, err)
	require.True(t, ok)

	ok, _ = f.store.ClaimProcedure(ctx, p.ID)
	assert.False(t, ok, "finalizado without repair is terminal")

	require.NoError(t, f.store.SetProcedureRepair(ctx, p.ID, true))
	ok, _ = f.store.ClaimProcedure(ctx, p.ID)
	assert.True(t, ok, "a finalised repair is claimable again")
}

func TestSingleActiveAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.procedure(t)

	other := &repo.User{Email: "otro@example.com", Role: domain.RoleAlumno}
	require.NoError(t, f.store.CreateUser(ctx, other))

	first := &repo.Assignment{PatientProcedureID: p.ID, StudentID: f.student.ID}
	require.NoError(t, f.store.CreateAssignment(ctx, first))

	err := f.store.CreateAssignment(ctx, &repo.Assignment{PatientProcedureID: p.ID, StudentID: other.ID})
	assert.True(t, repo.IsUniqueViolation(err, repo.UniqueActiveAssignment))

	err = f.store.CreateAssignment(ctx, &repo.Assignment{PatientProcedureID: p.ID, StudentID: f.student.ID})
	assert.True(t, repo.IsUniqueViolation(err, repo.UniqueActiveStudentAssignment))

	ok, err := f.store.FinishAssignment(ctx, first.ID, repo.AssignmentFinish{Status: domain.AssignmentAbandonada, AbandonReason: "viaje"})
	require.NoError(t, err)
	require.True(t, ok)

	ok, _ = f.store.FinishAssignment(ctx, first.ID, repo.AssignmentFinish{Status: domain.AssignmentCompletada})
	assert.False(t, ok, "a finished assignment cannot finish twice")

	ok, _ = f.store.IncrementSessions(ctx, first.ID)
	assert.False(t, ok)

	require.NoError(t, f.store.CreateAssignment(ctx, &repo.Assignment{PatientProcedureID: p.ID, StudentID: other.ID}))
}

func TestPhotoParentCheck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.procedure(t)

	err := f.store.CreatePhoto(ctx, &repo.ProcedurePhoto{FileKey: "k"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	a := &repo.Assignment{PatientProcedureID: p.ID, StudentID: f.student.ID}
	require.NoError(t, f.store.CreateAssignment(ctx, a))
	err = f.store.CreatePhoto(ctx, &repo.ProcedurePhoto{FileKey: "k", AssignmentID: &a.ID, PatientProcedureID: &p.ID})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	require.NoError(t, f.store.CreatePhoto(ctx, &repo.ProcedurePhoto{FileKey: "k", AssignmentID: &a.ID}))
}

func TestDeletePatientCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o := &repo.Odontogram{PatientID: f.patient.ID, Type: domain.OdontogramPermanent}
	require.NoError(t, f.store.CreateOdontogram(ctx, o))
	tooth := &repo.OdontogramTooth{OdontogramID: o.ID, ToothFDI: 21, Status: domain.ToothSano}
	require.NoError(t, f.store.CreateTooth(ctx, tooth))
	p := f.procedure(t)
	a := &repo.Assignment{PatientProcedureID: p.ID, StudentID: f.student.ID}
	require.NoError(t, f.store.CreateAssignment(ctx, a))
	require.NoError(t, f.store.CreateSession(ctx, &repo.TreatmentSession{AssignmentID: a.ID}))
	require.NoError(t, f.store.CreatePhoto(ctx, &repo.ProcedurePhoto{FileKey: "k", PatientProcedureID: &p.ID}))

	require.NoError(t, f.store.DeletePatient(ctx, f.patient.ID))

	_, err := f.store.GetOdontogram(ctx, o.ID)
	assert.True(t, repo.IsNotFound(err))
	_, err = f.store.GetTooth(ctx, tooth.ID)
	assert.True(t, repo.IsNotFound(err))
	_, err = f.store.GetProcedure(ctx, p.ID)
	assert.True(t, repo.IsNotFound(err))
	_, err = f.store.GetAssignment(ctx, a.ID)
	assert.True(t, repo.IsNotFound(err))
	sessions, _ := f.store.ListSessions(ctx, a.ID)
	assert.Empty(t, sessions)
	photos, _ := f.store.ListPhotos(ctx, repo.PhotoFilter{ProcedureID: &p.ID})
	assert.Empty(t, photos)

	_, err = f.store.GetUser(ctx, f.student.ID)
	assert.NoError(t, err, "users are not part of the cascade")
}

func TestWithTxRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.procedure(t)
	boom := errors.New("boom")

	err := f.store.WithTx(ctx, func(q repo.Queries) error {
		ok, err := q.ClaimProcedure(ctx, p.ID)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, q.AppendAudit(ctx, &repo.Audit{Entity: "patient_procedure", EntityID: p.ID, Action: "claim"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := f.store.GetProcedure(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProcedureDisponible, got.Status)

	_, total, err := f.store.ListAudits(ctx, repo.AuditFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestWithTxCommits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.procedure(t)

	require.NoError(t, f.store.WithTx(ctx, func(q repo.Queries) error {
		if _, err := q.ClaimProcedure(ctx, p.ID); err != nil {
			return err
		}
		return q.CreateAssignment(ctx, &repo.Assignment{PatientProcedureID: p.ID, StudentID: f.student.ID})
	}))

	got, err := f.store.ActiveAssignment(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, f.student.ID, got.StudentID)
}

func TestConcurrentClaimHasOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.procedure(t)

	const workers = 16
	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.store.WithTx(ctx, func(q repo.Queries) error {
				ok, err := q.ClaimProcedure(ctx, p.ID)
				if err != nil || !ok {
					return err
				}
				wins.Add(1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestListPatientsScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fac := &repo.Faculty{Name: "FOUBA"}
	require.NoError(t, f.store.CreateFaculty(ctx, fac))
	otherFac := &repo.Faculty{Name: "FOUNLP"}
	require.NoError(t, f.store.CreateFaculty(ctx, otherFac))

	require.NoError(t, f.store.CreatePatient(ctx, &repo.Patient{
		FirstName: "Luis", LastName: "Rey", DocumentType: "DNI", DocumentNumber: "456", FacultyID: &fac.ID,
	}))
	require.NoError(t, f.store.CreatePatient(ctx, &repo.Patient{
		FirstName: "Sol", LastName: "Mar", DocumentType: "DNI", DocumentNumber: "789", FacultyID: &otherFac.ID,
	}))

	list, total, err := f.store.ListPatients(ctx, repo.PatientFilter{Scoped: true, FacultyID: &fac.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, total, "own faculty plus unscoped")
	assert.Len(t, list, 2)

	_, total, err = f.store.ListPatients(ctx, repo.PatientFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	list, _, err = f.store.ListPatients(ctx, repo.PatientFilter{Search: "rey"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Luis", list[0].FirstName)

	list, total, err = f.store.ListPatients(ctx, repo.PatientFilter{Page: repo.Page{Limit: 1, Offset: 1}})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, list, 1)
}

func TestDeviceTokenMovesBetweenUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := &repo.User{Email: "b@example.com", Role: domain.RoleAlumno}
	require.NoError(t, f.store.CreateUser(ctx, other))

	require.NoError(t, f.store.UpsertDevice(ctx, &repo.UserDevice{UserID: f.student.ID, DeviceToken: "tok", Platform: "android"}))
	require.NoError(t, f.store.UpsertDevice(ctx, &repo.UserDevice{UserID: other.ID, DeviceToken: "tok", Platform: "ios"}))

	mine, _ := f.store.ListDevices(ctx, f.student.ID)
	assert.Empty(t, mine)
	theirs, _ := f.store.ListDevices(ctx, other.ID)
	require.Len(t, theirs, 1)
	assert.Equal(t, "ios", theirs[0].Platform)
}
