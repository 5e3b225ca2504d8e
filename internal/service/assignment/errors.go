package assignment

import "github.com/Alijeyrad/odonto_backend/internal/apperr"

var (
	ErrAssignmentNotFound = apperr.NotFound("assignment not found")
	ErrProcedureNotFound  = apperr.NotFound("procedure not found")
	ErrStudentOnly        = apperr.Forbidden("only students can claim procedures")
	ErrNotOwner           = apperr.Forbidden("the assignment belongs to another student")
	ErrStaffOnly          = apperr.Forbidden("only clinic staff can list every assignment")
	ErrAccessDenied       = apperr.Forbidden("access denied to this patient record")
	ErrAlreadyClaimed     = apperr.Conflict("the procedure is already assigned to a student")
	ErrNotClaimable       = apperr.Conflict("the procedure is not available")
	ErrNotActive          = apperr.Conflict("the assignment is no longer active")
	ErrProcedureChanged   = apperr.Conflict("the procedure is no longer in progress")
)
