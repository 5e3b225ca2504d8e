package repo

// Index and check constraint names. The migration layer creates them under
// these names and both stores report violations with them.
const (
	UniqueUserEmail               = "user_email"
	UniqueFacultyName             = "faculty_name"
	UniqueChairName               = "chair_name"
	UniqueTreatmentCode           = "treatment_code"
	UniqueSubclassName            = "treatmentsubclass_treatment_id_name"
	UniquePatientDocument         = "patient_document_type_document_number"
	UniqueToothSurface            = "odontogramtooth_odontogram_id_tooth_fdi_surface"
	UniqueActiveAssignment        = "assignment_active_procedure"
	UniqueActiveStudentAssignment = "assignment_active_procedure_student"
	UniqueDeviceToken             = "userdevice_device_token"
	CheckPhotoParent              = "procedure_photo_parent"
)
