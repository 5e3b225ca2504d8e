package patient

import "github.com/Alijeyrad/odonto_backend/internal/apperr"

var (
	ErrPatientNotFound      = apperr.NotFound("patient not found")
	ErrPatientAlreadyExists = apperr.Conflict("a patient with that document is already registered")
	ErrFacultyNotFound      = apperr.NotFound("faculty not found")
	ErrAccessDenied         = apperr.Forbidden("access denied to this patient record")
	ErrStaffOnly            = apperr.Forbidden("only clinic staff can change patient records")
	ErrAdminOnly            = apperr.Forbidden("only admins can delete patients")
	ErrNoConsent            = apperr.NotFound("the patient has no consent file")
	ErrFileTooLarge         = apperr.Invalid("file", "is too large")
)
