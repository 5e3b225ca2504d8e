// Package migrate declares the relational schema and applies it with ent's
// migration engine.
package migrate

import (
	"fmt"
	"math"

	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	"github.com/Alijeyrad/odonto_backend/internal/domain"
	"github.com/Alijeyrad/odonto_backend/internal/repo"
)

func idColumn() *schema.Column { return &schema.Column{Name: "id", Type: field.TypeUUID} }

func uuidColumn(name string, nullable bool) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeUUID, Nullable: nullable}
}

func stringColumn(name string, size int64) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeString, Size: size, Default: ""}
}

func textColumn(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeString, Size: math.MaxInt32, Default: ""}
}

func boolColumn(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeBool, Default: false}
}

func timeColumn(name string, nullable bool) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeTime, Nullable: nullable}
}

func enumColumn[T ~string](name string, values []T, def T) *schema.Column {
	enums := make([]string, len(values))
	for i, v := range values {
		enums[i] = string(v)
	}
	c := &schema.Column{Name: name, Type: field.TypeEnum, Enums: enums}
	if def != "" {
		c.Default = string(def)
	}
	return c
}

func jsonColumn(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeJSON, Nullable: true}
}

func table(name string, cols ...*schema.Column) *schema.Table {
	t := schema.NewTable(name).AddPrimary(cols[0])
	for _, c := range cols[1:] {
		t.AddColumn(c)
	}
	return t
}

func mustColumn(t *schema.Table, name string) *schema.Column {
	c, ok := t.Column(name)
	if !ok {
		panic(fmt.Sprintf("migrate: table %s has no column %s", t.Name, name))
	}
	return c
}

func foreignKey(t *schema.Table, column string, ref *schema.Table, onDelete schema.ReferenceOption) {
	t.AddForeignKey(&schema.ForeignKey{
		Symbol:     t.Name + "_" + column + "_fkey",
		Columns:    []*schema.Column{mustColumn(t, column)},
		RefTable:   ref,
		RefColumns: []*schema.Column{mustColumn(ref, "id")},
		OnDelete:   onDelete,
	})
}

func partialIndex(t *schema.Table, name string, unique bool, where string, columns ...string) {
	t.AddIndex(name, unique, columns)
	idx, _ := t.Index(name)
	idx.Annotation = entsql.IndexWhere(where)
}

var (
	FacultiesTable = table(repo.TableFaculties,
		idColumn(),
		stringColumn("name", 255),
		timeColumn("created_at", false),
	)

	UsersTable = table(repo.TableUsers,
		idColumn(),
		stringColumn("email", 255),
		stringColumn("password_hash", 255),
		stringColumn("first_name", 100),
		stringColumn("last_name", 100),
		enumColumn("role", domain.Roles, domain.RoleAlumno),
		uuidColumn("faculty_id", true),
		&schema.Column{Name: "student_code", Type: field.TypeString, Size: 50, Nullable: true},
		&schema.Column{Name: "is_active", Type: field.TypeBool, Default: true},
		timeColumn("created_at", false),
		timeColumn("updated_at", false),
	)

	ChairsTable = table(repo.TableChairs,
		idColumn(),
		stringColumn("name", 150),
		textColumn("description"),
		timeColumn("created_at", false),
	)

	TreatmentsTable = table(repo.TableTreatments,
		idColumn(),
		uuidColumn("chair_id", false),
		stringColumn("code", 50),
		stringColumn("name", 255),
		boolColumn("requires_tooth"),
		boolColumn("applies_to_all_upper"),
		boolColumn("applies_to_all_lower"),
		&schema.Column{Name: "required_sessions", Type: field.TypeInt, Default: 1},
		timeColumn("created_at", false),
	)

	TreatmentSubclassesTable = table(repo.TableTreatmentSubclasses,
		idColumn(),
		uuidColumn("treatment_id", false),
		stringColumn("name", 150),
		timeColumn("created_at", false),
	)

	TreatmentOptionsTable = table(repo.TableTreatmentOptions,
		idColumn(),
		uuidColumn("treatment_id", false),
		uuidColumn("subclass_id", true),
		stringColumn("name", 150),
		timeColumn("created_at", false),
	)

	PatientsTable = table(repo.TablePatients,
		idColumn(),
		uuidColumn("faculty_id", true),
		uuidColumn("created_by", true),
		stringColumn("first_name", 100),
		stringColumn("last_name", 100),
		stringColumn("document_type", 20),
		stringColumn("document_number", 50),
		timeColumn("birth_date", true),
		stringColumn("sex", 20),
		stringColumn("phone", 50),
		stringColumn("email", 255),
		textColumn("address"),
		boolColumn("has_allergies"),
		boolColumn("has_diabetes"),
		boolColumn("has_hypertension"),
		boolColumn("has_heart_disease"),
		boolColumn("has_bleeding_disorder"),
		boolColumn("is_pregnant"),
		boolColumn("takes_medication"),
		textColumn("allergies_detail"),
		textColumn("medication_detail"),
		textColumn("medical_notes"),
		&schema.Column{Name: "consent_file_key", Type: field.TypeString, Size: 512, Nullable: true},
		timeColumn("created_at", false),
		timeColumn("updated_at", false),
	)

	OdontogramsTable = table(repo.TableOdontograms,
		idColumn(),
		uuidColumn("patient_id", false),
		enumColumn("type", []domain.OdontogramType{domain.OdontogramPermanent, domain.OdontogramTemporary}, domain.OdontogramPermanent),
		timeColumn("recorded_at", false),
		uuidColumn("recorded_by", true),
		textColumn("notes"),
		timeColumn("created_at", false),
	)

	OdontogramTeethTable = table(repo.TableOdontogramTeeth,
		idColumn(),
		uuidColumn("odontogram_id", false),
		&schema.Column{Name: "tooth_fdi", Type: field.TypeInt},
		stringColumn("surface", 2),
		enumColumn("status", domain.ToothStatuses, domain.ToothSano),
		textColumn("notes"),
		timeColumn("created_at", false),
		timeColumn("updated_at", false),
	)

	PatientProceduresTable = table(repo.TablePatientProcedures,
		idColumn(),
		uuidColumn("patient_id", false),
		uuidColumn("treatment_id", false),
		uuidColumn("chair_id", false),
		uuidColumn("odontogram_id", true),
		&schema.Column{Name: "tooth_fdi", Type: field.TypeInt, Nullable: true},
		stringColumn("surface", 2),
		uuidColumn("subclass_option_id", true),
		enumColumn("status", domain.ProcedureStatuses, domain.ProcedureDisponible),
		boolColumn("is_repair"),
		textColumn("status_reason"),
		uuidColumn("created_by", true),
		timeColumn("created_at", false),
		timeColumn("updated_at", false),
	)

	AssignmentsTable = table(repo.TableAssignments,
		idColumn(),
		uuidColumn("patient_procedure_id", false),
		uuidColumn("student_id", false),
		enumColumn("status", domain.AssignmentStatuses, domain.AssignmentActiva),
		&schema.Column{Name: "sessions_completed", Type: field.TypeInt, Default: 0},
		textColumn("notes"),
		textColumn("abandon_reason"),
		timeColumn("started_at", false),
		timeColumn("finished_at", true),
		timeColumn("created_at", false),
		timeColumn("updated_at", false),
	)

	TreatmentSessionsTable = table(repo.TableTreatmentSessions,
		idColumn(),
		uuidColumn("assignment_id", false),
		timeColumn("session_date", false),
		textColumn("notes"),
		uuidColumn("supervisor_id", true),
		timeColumn("created_at", false),
	)

	ProcedurePhotosTable = table(repo.TableProcedurePhotos,
		idColumn(),
		uuidColumn("assignment_id", true),
		uuidColumn("patient_procedure_id", true),
		stringColumn("file_key", 512),
		stringColumn("file_name", 255),
		stringColumn("mime_type", 100),
		&schema.Column{Name: "size", Type: field.TypeInt64, Default: 0},
		textColumn("caption"),
		uuidColumn("uploaded_by", true),
		timeColumn("created_at", false),
	)

	AuditsTable = table(repo.TableAudits,
		idColumn(),
		uuidColumn("user_id", true),
		stringColumn("entity", 50),
		uuidColumn("entity_id", false),
		stringColumn("action", 100),
		jsonColumn("meta"),
		timeColumn("created_at", false),
	)

	NotificationsTable = table(repo.TableNotifications,
		idColumn(),
		uuidColumn("user_id", false),
		stringColumn("type", 50),
		stringColumn("title", 255),
		textColumn("body"),
		jsonColumn("data"),
		boolColumn("is_read"),
		timeColumn("created_at", false),
	)

	UserDevicesTable = table(repo.TableUserDevices,
		idColumn(),
		uuidColumn("user_id", false),
		stringColumn("device_token", 512),
		stringColumn("platform", 20),
		&schema.Column{Name: "is_active", Type: field.TypeBool, Default: true},
		timeColumn("created_at", false),
	)

	AdsTable = table(repo.TableAds,
		idColumn(),
		stringColumn("title", 255),
		textColumn("body"),
		&schema.Column{Name: "image_key", Type: field.TypeString, Size: 512, Nullable: true},
		timeColumn("starts_at", false),
		timeColumn("ends_at", true),
		&schema.Column{Name: "is_active", Type: field.TypeBool, Default: true},
		uuidColumn("created_by", true),
		timeColumn("created_at", false),
	)

	Tables = []*schema.Table{
		FacultiesTable,
		UsersTable,
		ChairsTable,
		TreatmentsTable,
		TreatmentSubclassesTable,
		TreatmentOptionsTable,
		PatientsTable,
		OdontogramsTable,
		OdontogramTeethTable,
		PatientProceduresTable,
		AssignmentsTable,
		TreatmentSessionsTable,
		ProcedurePhotosTable,
		AuditsTable,
		NotificationsTable,
		UserDevicesTable,
		AdsTable,
	}
)

func init() {
	FacultiesTable.AddIndex(repo.UniqueFacultyName, true, []string{"name"})

	UsersTable.AddIndex(repo.UniqueUserEmail, true, []string{"email"})
	UsersTable.AddIndex("user_role_faculty_id", false, []string{"role", "faculty_id"})
	foreignKey(UsersTable, "faculty_id", FacultiesTable, schema.SetNull)

	ChairsTable.AddIndex(repo.UniqueChairName, true, []string{"name"})

	TreatmentsTable.AddIndex(repo.UniqueTreatmentCode, true, []string{"code"})
	foreignKey(TreatmentsTable, "chair_id", ChairsTable, schema.Restrict)

	TreatmentSubclassesTable.AddIndex(repo.UniqueSubclassName, true, []string{"treatment_id", "name"})
	foreignKey(TreatmentSubclassesTable, "treatment_id", TreatmentsTable, schema.Cascade)

	TreatmentOptionsTable.AddIndex("treatmentsubclassoption_treatment_id", false, []string{"treatment_id"})
	foreignKey(TreatmentOptionsTable, "treatment_id", TreatmentsTable, schema.Cascade)
	foreignKey(TreatmentOptionsTable, "subclass_id", TreatmentSubclassesTable, schema.SetNull)

	PatientsTable.AddIndex(repo.UniquePatientDocument, true, []string{"document_type", "document_number"})
	PatientsTable.AddIndex("patient_faculty_id", false, []string{"faculty_id"})
	foreignKey(PatientsTable, "faculty_id", FacultiesTable, schema.SetNull)
	foreignKey(PatientsTable, "created_by", UsersTable, schema.SetNull)

	OdontogramsTable.AddIndex("odontogram_patient_id_recorded_at", false, []string{"patient_id", "recorded_at"})
	foreignKey(OdontogramsTable, "patient_id", PatientsTable, schema.Cascade)
	foreignKey(OdontogramsTable, "recorded_by", UsersTable, schema.SetNull)

	OdontogramTeethTable.AddIndex(repo.UniqueToothSurface, true, []string{"odontogram_id", "tooth_fdi", "surface"})
	foreignKey(OdontogramTeethTable, "odontogram_id", OdontogramsTable, schema.Cascade)

	PatientProceduresTable.AddIndex("patientprocedure_patient_id_status", false, []string{"patient_id", "status"})
	PatientProceduresTable.AddIndex("patientprocedure_chair_id_status", false, []string{"chair_id", "status"})
	PatientProceduresTable.AddIndex("patientprocedure_odontogram_id_tooth_fdi", false, []string{"odontogram_id", "tooth_fdi"})
	foreignKey(PatientProceduresTable, "patient_id", PatientsTable, schema.Cascade)
	foreignKey(PatientProceduresTable, "treatment_id", TreatmentsTable, schema.Restrict)
	foreignKey(PatientProceduresTable, "chair_id", ChairsTable, schema.Restrict)
	foreignKey(PatientProceduresTable, "odontogram_id", OdontogramsTable, schema.SetNull)
	foreignKey(PatientProceduresTable, "subclass_option_id", TreatmentOptionsTable, schema.SetNull)
	foreignKey(PatientProceduresTable, "created_by", UsersTable, schema.SetNull)

	active := fmt.Sprintf("status = '%s'", domain.AssignmentActiva)
	partialIndex(AssignmentsTable, repo.UniqueActiveAssignment, true, active, "patient_procedure_id")
	partialIndex(AssignmentsTable, repo.UniqueActiveStudentAssignment, true, active, "patient_procedure_id", "student_id")
	AssignmentsTable.AddIndex("assignment_student_id_status", false, []string{"student_id", "status"})
	foreignKey(AssignmentsTable, "patient_procedure_id", PatientProceduresTable, schema.Cascade)
	foreignKey(AssignmentsTable, "student_id", UsersTable, schema.Restrict)

	TreatmentSessionsTable.AddIndex("treatmentsession_assignment_id", false, []string{"assignment_id"})
	foreignKey(TreatmentSessionsTable, "assignment_id", AssignmentsTable, schema.Cascade)
	foreignKey(TreatmentSessionsTable, "supervisor_id", UsersTable, schema.SetNull)

	ProcedurePhotosTable.SetAnnotation(&entsql.Annotation{Checks: map[string]string{
		repo.CheckPhotoParent: "(assignment_id IS NULL) <> (patient_procedure_id IS NULL)",
	}})
	foreignKey(ProcedurePhotosTable, "assignment_id", AssignmentsTable, schema.Cascade)
	foreignKey(ProcedurePhotosTable, "patient_procedure_id", PatientProceduresTable, schema.Cascade)
	foreignKey(ProcedurePhotosTable, "uploaded_by", UsersTable, schema.SetNull)

	AuditsTable.AddIndex("audit_entity_entity_id", false, []string{"entity", "entity_id"})
	AuditsTable.AddIndex("audit_user_id", false, []string{"user_id"})
	foreignKey(AuditsTable, "user_id", UsersTable, schema.SetNull)

	NotificationsTable.AddIndex("notification_user_id_is_read", false, []string{"user_id", "is_read"})
	foreignKey(NotificationsTable, "user_id", UsersTable, schema.Cascade)

	UserDevicesTable.AddIndex(repo.UniqueDeviceToken, true, []string{"device_token"})
	foreignKey(UserDevicesTable, "user_id", UsersTable, schema.Cascade)

	foreignKey(AdsTable, "created_by", UsersTable, schema.SetNull)
}
