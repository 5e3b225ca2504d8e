package procedure

import "github.com/Alijeyrad/odonto_backend/internal/apperr"

var (
	ErrProcedureNotFound  = apperr.NotFound("procedure not found")
	ErrPatientNotFound    = apperr.NotFound("patient not found")
	ErrTreatmentNotFound  = apperr.NotFound("treatment not found")
	ErrOdontogramNotFound = apperr.NotFound("odontogram not found")
	ErrAccessDenied       = apperr.Forbidden("access denied to this patient record")
	ErrStaffOnly          = apperr.Forbidden("only clinic staff can manage procedures")
	ErrCoordinatorOnly    = apperr.Forbidden("only coordinators and admins can flag repairs")
	ErrInvalidTransition  = apperr.Conflict("the procedure cannot move to that status")
	ErrActiveAssignment   = apperr.Conflict("the procedure has an active assignment")
	ErrStatusChanged      = apperr.Conflict("the procedure status changed, reload and retry")
	ErrNotFinalized       = apperr.Conflict("only finalised procedures can be flagged for repair")
)
