package odontogram

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/odonto_backend/internal/apperr"
	"github.com/Alijeyrad/odonto_backend/internal/domain"
	"github.com/Alijeyrad/odonto_backend/internal/repo"
	"github.com/Alijeyrad/odonto_backend/internal/service/audit"
	"github.com/Alijeyrad/odonto_backend/internal/testutil"
)

func strp(s string) *string { return &s }

func setup(t *testing.T) (Service, *testutil.Fixture) {
	t.Helper()
	f := testutil.New(t)
	return New(f.Store, audit.NewRecorder()), f
}

func TestCreateSnapshot(t *testing.T) {
	svc, f := setup(t)

	snap, err := svc.Create(context.Background(), f.AdmissionP(), f.Patient.ID, CreateRequest{
		Type:  "permanent",
		Notes: "primera consulta",
		Teeth: []ToothInput{
			{ToothFDI: 16, Surface: strp("o"), Status: "indicado"},
			{ToothFDI: 16, Surface: nil, Status: "sano"},
			{ToothFDI: 38, Status: "extraido"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OdontogramPermanent, snap.Type)
	require.Len(t, snap.Teeth, 3)
	assert.Equal(t, "O", snap.Teeth[0].Surface)
	assert.Equal(t, "", snap.Teeth[1].Surface)

	rows := f.Audits(t, snap.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, audit.ActionOdontogramCreated, rows[0].Action)
	assert.Equal(t, 3, rows[0].Meta["teeth"])
}

func TestCreateRejectsWrongDentition(t *testing.T) {
	svc, f := setup(t)

	_, err := svc.Create(context.Background(), f.AdmissionP(), f.Patient.ID, CreateRequest{
		Type:  "temporary",
		Teeth: []ToothInput{{ToothFDI: 16, Status: "sano"}, {ToothFDI: 55, Status: "sano"}},
	})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, apperr.Fields(err), "teeth[0].tooth_fdi")
	assert.NotContains(t, apperr.Fields(err), "teeth[1].tooth_fdi")
}

func TestCreateRejectsUnknownTooth(t *testing.T) {
	svc, f := setup(t)

	_, err := svc.Create(context.Background(), f.AdmissionP(), f.Patient.ID, CreateRequest{
		Type:  "permanent",
		Teeth: []ToothInput{{ToothFDI: 19, Surface: strp("X"), Status: "roto"}},
	})
	require.ErrorIs(t, err, apperr.ErrValidation)
	fields := apperr.Fields(err)
	assert.Contains(t, fields, "teeth[0].tooth_fdi")
	assert.Contains(t, fields, "teeth[0].surface")
	assert.Contains(t, fields, "teeth[0].status")
}

func TestDuplicateToothSurface(t *testing.T) {
	svc, f := setup(t)
	ctx := context.Background()

	snap, err := svc.Create(ctx, f.AdmissionP(), f.Patient.ID, CreateRequest{
		Type:  "permanent",
		Teeth: []ToothInput{{ToothFDI: 11, Surface: strp("M"), Status: "sano"}},
	})
	require.NoError(t, err)

	_, err = svc.AddTeeth(ctx, f.AdmissionP(), snap.ID, AddTeethRequest{
		Teeth: []ToothInput{{ToothFDI: 21, Status: "sano"}, {ToothFDI: 11, Surface: strp("m"), Status: "indicado"}},
	})
	assert.ErrorIs(t, err, ErrDuplicateTooth)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	// the whole batch rolled back
	got, err := svc.Get(ctx, f.StudentAP(), snap.ID)
	require.NoError(t, err)
	assert.Len(t, got.Teeth, 1)
}

func TestAddTeethAudits(t *testing.T) {
	svc, f := setup(t)
	ctx := context.Background()

	snap, err := svc.Create(ctx, f.AdmissionP(), f.Patient.ID, CreateRequest{Type: "permanent"})
	require.NoError(t, err)

	added, err := svc.AddTeeth(ctx, f.CoordinatorP(), snap.ID, AddTeethRequest{
		Teeth: []ToothInput{{ToothFDI: 21, Status: "sano"}, {ToothFDI: 22, Status: "corona"}},
	})
	require.NoError(t, err)
	require.Len(t, added, 2)
	for _, tooth := range added {
		rows := f.Audits(t, tooth.ID)
		require.Len(t, rows, 1)
		assert.Equal(t, audit.ActionToothAdded, rows[0].Action)
	}

	_, err = svc.AddTeeth(ctx, f.CoordinatorP(), snap.ID, AddTeethRequest{})
	assert.ErrorIs(t, err, ErrNoTeeth)
}

func TestCorrectTooth(t *testing.T) {
	svc, f := setup(t)
	ctx := context.Background()

	snap, err := svc.Create(ctx, f.AdmissionP(), f.Patient.ID, CreateRequest{
		Type:  "permanent",
		Teeth: []ToothInput{{ToothFDI: 36, Status: "sano"}, {ToothFDI: 46, Status: "indicado"}},
	})
	require.NoError(t, err)
	tooth36, tooth46 := snap.Teeth[0], snap.Teeth[1]

	got, err := svc.CorrectTooth(ctx, f.AdmissionP(), snap.ID, tooth36.ID, CorrectToothRequest{Status: "indicado", Notes: strp("caries oclusal")})
	require.NoError(t, err)
	assert.Equal(t, domain.ToothIndicado, got.Status)

	rows := f.Audits(t, tooth36.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, audit.ActionToothCorrected, rows[0].Action)
	assert.Equal(t, audit.Change{Old: domain.ToothSano, New: domain.ToothIndicado}, rows[0].Meta["status"])

	// a procedure on the same odontogram and tooth freezes the entry
	fdi := 46
	require.NoError(t, f.Store.CreateProcedure(ctx, &repo.PatientProcedure{
		PatientID:    f.Patient.ID,
		TreatmentID:  f.Treatment.ID,
		ChairID:      f.Chair.ID,
		OdontogramID: &snap.ID,
		ToothFDI:     &fdi,
	}))
	_, err = svc.CorrectTooth(ctx, f.AdmissionP(), snap.ID, tooth46.ID, CorrectToothRequest{Status: "sano"})
	assert.ErrorIs(t, err, ErrToothReferenced)
}

func TestAddTeethToReferencedTooth(t *testing.T) {
	svc, f := setup(t)
	ctx := context.Background()

	snap, err := svc.Create(ctx, f.AdmissionP(), f.Patient.ID, CreateRequest{
		Type:  "permanent",
		Teeth: []ToothInput{{ToothFDI: 46, Surface: strp("O"), Status: "indicado"}},
	})
	require.NoError(t, err)

	fdi := 46
	require.NoError(t, f.Store.CreateProcedure(ctx, &repo.PatientProcedure{
		PatientID:    f.Patient.ID,
		TreatmentID:  f.Treatment.ID,
		ChairID:      f.Chair.ID,
		OdontogramID: &snap.ID,
		ToothFDI:     &fdi,
	}))

	// a new surface on the referenced tooth is refused, the whole batch with it
	_, err = svc.AddTeeth(ctx, f.CoordinatorP(), snap.ID, AddTeethRequest{
		Teeth: []ToothInput{{ToothFDI: 47, Status: "sano"}, {ToothFDI: 46, Surface: strp("M"), Status: "indicado"}},
	})
	assert.ErrorIs(t, err, ErrToothReferenced)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	got, err := svc.Get(ctx, f.StudentAP(), snap.ID)
	require.NoError(t, err)
	assert.Len(t, got.Teeth, 1)

	// other teeth of the same snapshot stay open
	added, err := svc.AddTeeth(ctx, f.CoordinatorP(), snap.ID, AddTeethRequest{
		Teeth: []ToothInput{{ToothFDI: 47, Status: "sano"}},
	})
	require.NoError(t, err)
	assert.Len(t, added, 1)
}

func TestCorrectToothWrongOdontogram(t *testing.T) {
	svc, f := setup(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, f.AdmissionP(), f.Patient.ID, CreateRequest{Type: "permanent", Teeth: []ToothInput{{ToothFDI: 11, Status: "sano"}}})
	require.NoError(t, err)
	b, err := svc.Create(ctx, f.AdmissionP(), f.Patient.ID, CreateRequest{Type: "permanent"})
	require.NoError(t, err)

	_, err = svc.CorrectTooth(ctx, f.AdmissionP(), b.ID, a.Teeth[0].ID, CorrectToothRequest{Status: "indicado"})
	assert.ErrorIs(t, err, ErrToothNotFound)
}

func TestStudentsCannotRecord(t *testing.T) {
	svc, f := setup(t)
	_, err := svc.Create(context.Background(), f.StudentAP(), f.Patient.ID, CreateRequest{Type: "permanent"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestLatestAndList(t *testing.T) {
	svc, f := setup(t)
	ctx := context.Background()

	_, err := svc.Latest(ctx, f.StudentAP(), f.Patient.ID)
	assert.ErrorIs(t, err, ErrOdontogramNotFound)

	first, err := svc.Create(ctx, f.AdmissionP(), f.Patient.ID, CreateRequest{Type: "temporary"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, f.AdmissionP(), f.Patient.ID, CreateRequest{Type: "permanent"})
	require.NoError(t, err)

	latest, err := svc.Latest(ctx, f.StudentAP(), f.Patient.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	list, err := svc.ListForPatient(ctx, f.StudentAP(), f.Patient.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[1].ID)

	_, err = svc.ListForPatient(ctx, f.StudentAP(), uuid.New())
	assert.ErrorIs(t, err, ErrPatientNotFound)
}
