package migrate

import (
	"testing"

	"entgo.io/ent/dialect/sql/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/odonto_backend/internal/repo"
)

func TestEveryTableHasUUIDPrimaryKey(t *testing.T) {
	seen := map[string]bool{}
	for _, tbl := range Tables {
		require.Len(t, tbl.PrimaryKey, 1, tbl.Name)
		assert.Equal(t, "id", tbl.PrimaryKey[0].Name, tbl.Name)
		assert.False(t, seen[tbl.Name], "duplicate table %s", tbl.Name)
		seen[tbl.Name] = true
	}
	assert.Len(t, seen, 17)
}

func TestActiveAssignmentIndexesArePartial(t *testing.T) {
	for _, name := range []string{repo.UniqueActiveAssignment, repo.UniqueActiveStudentAssignment} {
		idx, ok := AssignmentsTable.Index(name)
		require.True(t, ok, name)
		assert.True(t, idx.Unique)
		require.NotNil(t, idx.Annotation)
		assert.Equal(t, "status = 'activa'", idx.Annotation.Where)
	}
}

func TestUniqueConstraintNames(t *testing.T) {
	tests := []struct {
		table *schema.Table
		index string
	}{
		{UsersTable, repo.UniqueUserEmail},
		{FacultiesTable, repo.UniqueFacultyName},
		{ChairsTable, repo.UniqueChairName},
		{TreatmentsTable, repo.UniqueTreatmentCode},
		{TreatmentSubclassesTable, repo.UniqueSubclassName},
		{PatientsTable, repo.UniquePatientDocument},
		{OdontogramTeethTable, repo.UniqueToothSurface},
		{UserDevicesTable, repo.UniqueDeviceToken},
	}
	for _, tt := range tests {
		t.Run(tt.index, func(t *testing.T) {
			idx, ok := tt.table.Index(tt.index)
			require.True(t, ok)
			assert.True(t, idx.Unique)
		})
	}
}

func TestPhotoParentCheck(t *testing.T) {
	require.NotNil(t, ProcedurePhotosTable.Annotation)
	assert.Contains(t, ProcedurePhotosTable.Annotation.Checks, repo.CheckPhotoParent)
}

func TestProcedureDeletesCascadeToAssignments(t *testing.T) {
	var fk *schema.ForeignKey
	for _, f := range AssignmentsTable.ForeignKeys {
		if f.RefTable == PatientProceduresTable {
			fk = f
		}
	}
	require.NotNil(t, fk)
	assert.Equal(t, schema.Cascade, fk.OnDelete)
	assert.Equal(t, "assignments_patient_procedure_id_fkey", fk.Symbol)
}
