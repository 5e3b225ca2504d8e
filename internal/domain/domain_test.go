package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionProcedure(t *testing.T) {
	tests := []struct {
		from, to ProcedureStatus
		repair   bool
		want     bool
	}{
		{ProcedureDisponible, ProcedureProceso, false, true},
		{ProcedureDisponible, ProcedureContraindicado, false, true},
		{ProcedureDisponible, ProcedureFinalizado, false, false},
		{ProcedureProceso, ProcedureFinalizado, false, true},
		{ProcedureProceso, ProcedureAusente, false, true},
		{ProcedureProceso, ProcedureCancelado, false, true},
		{ProcedureProceso, ProcedureContraindicado, false, true},
		{ProcedureProceso, ProcedureDisponible, false, false},
		{ProcedureFinalizado, ProcedureProceso, false, false},
		{ProcedureFinalizado, ProcedureProceso, true, true},
		{ProcedureCancelado, ProcedureProceso, false, false},
		{ProcedureContraindicado, ProcedureDisponible, false, false},
	}

	for _, tt := range tests {
		name := string(tt.from) + "->" + string(tt.to)
		if tt.repair {
			name += " (repair)"
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransitionProcedure(tt.from, tt.to, tt.repair))
		})
	}
}

func TestClaimable(t *testing.T) {
	assert.True(t, Claimable(ProcedureDisponible, false))
	assert.True(t, Claimable(ProcedureFinalizado, true))
	assert.False(t, Claimable(ProcedureFinalizado, false))
	assert.False(t, Claimable(ProcedureProceso, true))
	assert.False(t, Claimable(ProcedureContraindicado, false))
}

func TestTerminal(t *testing.T) {
	assert.False(t, ProcedureDisponible.Terminal(false))
	assert.False(t, ProcedureProceso.Terminal(false))
	assert.True(t, ProcedureFinalizado.Terminal(false))
	assert.False(t, ProcedureFinalizado.Terminal(true))
	assert.True(t, ProcedureCancelado.Terminal(true))

	assert.False(t, AssignmentActiva.Terminal())
	assert.True(t, AssignmentCompletada.Terminal())
	assert.True(t, AssignmentAbandonada.Terminal())
}

func TestAbandonOutcome(t *testing.T) {
	o, err := ParseAbandonOutcome("")
	require.NoError(t, err)
	assert.Equal(t, ProcedureCancelado, o.ProcedureStatus())

	o, err = ParseAbandonOutcome("ausente")
	require.NoError(t, err)
	assert.Equal(t, ProcedureAusente, o.ProcedureStatus())

	o, err = ParseAbandonOutcome("contraindicado")
	require.NoError(t, err)
	assert.Equal(t, ProcedureContraindicado, o.ProcedureStatus())

	_, err = ParseAbandonOutcome("finalizado")
	assert.Error(t, err)
}

func TestValidTooth(t *testing.T) {
	tests := []struct {
		typ  OdontogramType
		fdi  int
		want bool
	}{
		{OdontogramPermanent, 11, true},
		{OdontogramPermanent, 18, true},
		{OdontogramPermanent, 48, true},
		{OdontogramPermanent, 19, false},
		{OdontogramPermanent, 51, false},
		{OdontogramPermanent, 10, false},
		{OdontogramTemporary, 55, true},
		{OdontogramTemporary, 85, true},
		{OdontogramTemporary, 56, false},
		{OdontogramTemporary, 11, false},
		{"mixed", 11, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidTooth(tt.typ, tt.fdi), "%s %d", tt.typ, tt.fdi)
	}
	assert.True(t, ValidToothAny(61))
	assert.False(t, ValidToothAny(99))
}

func TestArchTeeth(t *testing.T) {
	upper := ArchTeeth(OdontogramPermanent, ArchUpper)
	require.Len(t, upper, 16)
	assert.Equal(t, 11, upper[0])
	assert.Equal(t, 28, upper[15])

	lower := ArchTeeth(OdontogramTemporary, ArchLower)
	require.Len(t, lower, 10)
	assert.Equal(t, []int{71, 72, 73, 74, 75, 81, 82, 83, 84, 85}, lower)
}

func TestNormalizeSurface(t *testing.T) {
	s, err := NormalizeSurface(nil)
	require.NoError(t, err)
	assert.Equal(t, "", s)

	v := " o "
	s, err = NormalizeSurface(&v)
	require.NoError(t, err)
	assert.Equal(t, "O", s)

	bad := "X"
	_, err = NormalizeSurface(&bad)
	assert.Error(t, err)
}

func TestPrincipalFacultyScope(t *testing.T) {
	f1, f2 := uuid.New(), uuid.New()

	admin := Principal{Role: RoleAdmin}
	staff := Principal{Role: RoleAdmision, FacultyID: &f1}
	unscoped := Principal{Role: RoleCoordinador}

	assert.True(t, admin.CanSeeFaculty(&f2))
	assert.True(t, staff.CanSeeFaculty(&f1))
	assert.False(t, staff.CanSeeFaculty(&f2))
	assert.True(t, staff.CanSeeFaculty(nil))
	assert.False(t, unscoped.CanSeeFaculty(&f1))

	assert.True(t, staff.IsStaff())
	assert.False(t, Principal{Role: RoleAlumno}.IsStaff())
	assert.True(t, staff.Is(RoleAlumno, RoleAdmision))
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("alumno")
	require.NoError(t, err)
	assert.Equal(t, RoleAlumno, r)

	_, err = ParseRole("superuser")
	assert.Error(t, err)
}
