package odontogram

import "github.com/Alijeyrad/odonto_backend/internal/apperr"

var (
	ErrOdontogramNotFound = apperr.NotFound("odontogram not found")
	ErrToothNotFound      = apperr.NotFound("tooth entry not found")
	ErrPatientNotFound    = apperr.NotFound("patient not found")
	ErrAccessDenied       = apperr.Forbidden("access denied to this patient record")
	ErrStaffOnly          = apperr.Forbidden("only clinic staff can record odontograms")
	ErrDuplicateTooth     = apperr.Conflict("the odontogram already has an entry for that tooth and surface")
	ErrToothReferenced    = apperr.Conflict("the tooth is referenced by a procedure and its entries can no longer change")
	ErrNoTeeth            = apperr.Invalid("teeth", "must list at least one tooth")
)
