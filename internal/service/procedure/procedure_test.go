package procedure

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/odonto_backend/internal/apperr"
	"github.com/Alijeyrad/odonto_backend/internal/domain"
	"github.com/Alijeyrad/odonto_backend/internal/events"
	"github.com/Alijeyrad/odonto_backend/internal/repo"
	"github.com/Alijeyrad/odonto_backend/internal/service/audit"
	"github.com/Alijeyrad/odonto_backend/internal/testutil"
	"github.com/Alijeyrad/odonto_backend/pkg/observability"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func intp(v int) *int { return &v }

func setup(t *testing.T) (Service, *testutil.Fixture, *recordingPublisher) {
	t.Helper()
	f := testutil.New(t)
	pub := &recordingPublisher{}
	return New(f.Store, audit.NewRecorder(), pub, observability.NewLifecycle()), f, pub
}

func odontogram(t *testing.T, f *testutil.Fixture, typ domain.OdontogramType, teeth map[int]domain.ToothStatus) *repo.Odontogram {
	t.Helper()
	ctx := context.Background()
	o := &repo.Odontogram{PatientID: f.Patient.ID, Type: typ}
	require.NoError(t, f.Store.CreateOdontogram(ctx, o))
	for fdi, st := range teeth {
		require.NoError(t, f.Store.CreateTooth(ctx, &repo.OdontogramTooth{OdontogramID: o.ID, ToothFDI: fdi, Status: st}))
	}
	return o
}

func TestCreate(t *testing.T) {
	svc, f, _ := setup(t)
	ctx := context.Background()
	o := odontogram(t, f, domain.OdontogramPermanent, nil)

	pp, err := svc.Create(ctx, f.AdmissionP(), f.Patient.ID, CreateRequest{
		TreatmentID:  f.Treatment.ID,
		OdontogramID: &o.ID,
		ToothFDI:     intp(16),
		Surface:      nil,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ProcedureDisponible, pp.Status)
	assert.Equal(t, f.Chair.ID, pp.ChairID)
	assert.Equal(t, "", pp.Surface)

	rows := f.Audits(t, pp.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, audit.ActionProcedureCreated, rows[0].Action)
}

func TestCreateToothRules(t *testing.T) {
	svc, f, _ := setup(t)
	ctx := context.Background()
	temp := odontogram(t, f, domain.OdontogramTemporary, nil)

	tests := []struct {
		name  string
		req   CreateRequest
		field string
	}{
		{"tooth required", CreateRequest{TreatmentID: f.Treatment.ID}, "tooth_fdi"},
		{"wrong dentition", CreateRequest{TreatmentID: f.Treatment.ID, OdontogramID: &temp.ID, ToothFDI: intp(16)}, "tooth_fdi"},
		{"not a tooth", CreateRequest{TreatmentID: f.Treatment.ID, ToothFDI: intp(99)}, "tooth_fdi"},
		{"whole tooth surface", CreateRequest{TreatmentID: f.Treatment.ID, ToothFDI: intp(16), Surface: new(string)}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, f.AdmissionP(), f.Patient.ID, tt.req)
			if tt.field == "" {
				// the empty surface is the whole tooth
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, apperr.ErrValidation)
			assert.Contains(t, apperr.Fields(err), tt.field)
		})
	}
}

func TestCreateUnknownTreatment(t *testing.T) {
	svc, f, _ := setup(t)
	_, err := svc.Create(context.Background(), f.AdmissionP(), f.Patient.ID, CreateRequest{TreatmentID: f.Chair.ID, ToothFDI: intp(11)})
	assert.ErrorIs(t, err, ErrTreatmentNotFound)
}

func TestDeriveWholeArch(t *testing.T) {
	svc, f, _ := setup(t)
	ctx := context.Background()
	o := odontogram(t, f, domain.OdontogramPermanent, map[int]domain.ToothStatus{
		18: domain.ToothExtraido,
		28: domain.ToothAusente,
		11: domain.ToothSano,
	})

	// an open sealant on 16 already exists
	require.NoError(t, f.Store.CreateProcedure(ctx, &repo.PatientProcedure{
		PatientID: f.Patient.ID, TreatmentID: f.Sealant.ID, ChairID: f.Chair.ID, ToothFDI: intp(16),
	}))
	// a cancelled one on 15 does not block
	require.NoError(t, f.Store.CreateProcedure(ctx, &repo.PatientProcedure{
		PatientID: f.Patient.ID, TreatmentID: f.Sealant.ID, ChairID: f.Chair.ID, ToothFDI: intp(15), Status: domain.ProcedureCancelado,
	}))

	res, err := svc.Derive(ctx, f.CoordinatorP(), f.Patient.ID, DeriveRequest{TreatmentID: f.Sealant.ID, OdontogramID: o.ID})
	require.NoError(t, err)

	assert.Len(t, res.Created, 13)
	assert.ElementsMatch(t, []SkippedTooth{
		{ToothFDI: 18, Reason: SkipMissing},
		{ToothFDI: 28, Reason: SkipMissing},
		{ToothFDI: 16, Reason: SkipDuplicate},
	}, res.Skipped)
	for _, pp := range res.Created {
		assert.Len(t, f.Audits(t, pp.ID), 1)
		assert.Equal(t, o.ID, *pp.OdontogramID)
	}

	// running it again creates nothing
	res, err = svc.Derive(ctx, f.CoordinatorP(), f.Patient.ID, DeriveRequest{TreatmentID: f.Sealant.ID, OdontogramID: o.ID})
	require.NoError(t, err)
	assert.Empty(t, res.Created)
	assert.Len(t, res.Skipped, 16)
}

func TestDeriveListedTeeth(t *testing.T) {
	svc, f, _ := setup(t)
	o := odontogram(t, f, domain.OdontogramTemporary, nil)

	res, err := svc.Derive(context.Background(), f.CoordinatorP(), f.Patient.ID, DeriveRequest{
		TreatmentID:  f.Treatment.ID,
		OdontogramID: o.ID,
		Teeth:        []int{55, 65, 55},
	})
	require.NoError(t, err)
	assert.Len(t, res.Created, 2)

	_, err = svc.Derive(context.Background(), f.CoordinatorP(), f.Patient.ID, DeriveRequest{
		TreatmentID:  f.Treatment.ID,
		OdontogramID: o.ID,
		Teeth:        []int{16},
	})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, apperr.Fields(err), "teeth[0]")
}

func TestOverrideStatus(t *testing.T) {
	svc, f, pub := setup(t)
	ctx := context.Background()
	pp := f.Procedure(t, 26)

	_, err := svc.OverrideStatus(ctx, f.CoordinatorP(), pp.ID, OverrideRequest{Status: "contraindicado"})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, apperr.Fields(err), "reason")

	_, err = svc.OverrideStatus(ctx, f.CoordinatorP(), pp.ID, OverrideRequest{Status: "finalizado", Reason: "x"})
	require.ErrorIs(t, err, apperr.ErrValidation)

	got, err := svc.OverrideStatus(ctx, f.CoordinatorP(), pp.ID, OverrideRequest{Status: "contraindicado", Reason: "paciente anticoagulado"})
	require.NoError(t, err)
	assert.Equal(t, domain.ProcedureContraindicado, got.Status)
	assert.Equal(t, "paciente anticoagulado", got.StatusReason)

	rows := f.Audits(t, pp.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, audit.ActionProcedureOverridden, rows[0].Action)
	assert.Equal(t, audit.Change{Old: domain.ProcedureDisponible, New: domain.ProcedureContraindicado}, rows[0].Meta["status"])

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.ProcedureOverridden, pub.events[0].Type)
	assert.Equal(t, pp.ID, pub.events[0].ProcedureID)

	// terminal now
	_, err = svc.OverrideStatus(ctx, f.CoordinatorP(), pp.ID, OverrideRequest{Status: "contraindicado", Reason: "again"})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOverrideRejectedWithActiveAssignment(t *testing.T) {
	svc, f, pub := setup(t)
	ctx := context.Background()
	pp := f.Procedure(t, 36)

	claimed, err := f.Store.ClaimProcedure(ctx, pp.ID)
	require.NoError(t, err)
	require.True(t, claimed)
	require.NoError(t, f.Store.CreateAssignment(ctx, &repo.Assignment{PatientProcedureID: pp.ID, StudentID: f.StudentA.ID}))

	_, err = svc.OverrideStatus(ctx, f.CoordinatorP(), pp.ID, OverrideRequest{Status: "contraindicado", Reason: "alergia"})
	assert.ErrorIs(t, err, ErrActiveAssignment)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	got, err := f.Store.GetProcedure(ctx, pp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProcedureProceso, got.Status)
	assert.Empty(t, f.Audits(t, pp.ID))
	assert.Empty(t, pub.events)
}

func TestSetRepair(t *testing.T) {
	svc, f, _ := setup(t)
	ctx := context.Background()
	pp := f.Procedure(t, 46)

	_, err := svc.SetRepair(ctx, f.AdmissionP(), pp.ID, true)
	assert.ErrorIs(t, err, ErrCoordinatorOnly)

	_, err = svc.SetRepair(ctx, f.CoordinatorP(), pp.ID, true)
	assert.ErrorIs(t, err, ErrNotFinalized)

	ok, err := f.Store.SetProcedureStatus(ctx, pp.ID, domain.ProcedureDisponible, domain.ProcedureFinalizado, "")
	require.NoError(t, err)
	require.True(t, ok)

	got, err := svc.SetRepair(ctx, f.CoordinatorP(), pp.ID, true)
	require.NoError(t, err)
	assert.True(t, got.IsRepair)

	avail, total, err := svc.ListAvailable(ctx, f.StudentAP(), AvailableFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, pp.ID, avail[0].ID)

	rows := f.Audits(t, pp.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, audit.ActionProcedureRepair, rows[0].Action)
}

func TestListAvailableScope(t *testing.T) {
	svc, f, _ := setup(t)
	ctx := context.Background()
	f.Procedure(t, 11)
	done := f.Procedure(t, 12)
	_, err := f.Store.SetProcedureStatus(ctx, done.ID, domain.ProcedureDisponible, domain.ProcedureFinalizado, "")
	require.NoError(t, err)

	other := &repo.Faculty{Name: "Otra"}
	require.NoError(t, f.Store.CreateFaculty(ctx, other))
	outsider := domain.Principal{UserID: f.StudentB.ID, Role: domain.RoleAlumno, FacultyID: &other.ID}

	list, total, err := svc.ListAvailable(ctx, f.StudentAP(), AvailableFilter{ChairID: &f.Chair.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, list, 1)

	_, total, err = svc.ListAvailable(ctx, outsider, AvailableFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)

	status := domain.ProcedureFinalizado
	byStatus, err := svc.ListForPatient(ctx, f.StudentAP(), f.Patient.ID, &status)
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, done.ID, byStatus[0].ID)
}
