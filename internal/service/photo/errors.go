package photo

import "github.com/Alijeyrad/odonto_backend/internal/apperr"

var (
	ErrPhotoNotFound      = apperr.NotFound("photo not found")
	ErrAssignmentNotFound = apperr.NotFound("assignment not found")
	ErrProcedureNotFound  = apperr.NotFound("procedure not found")
	ErrAccessDenied       = apperr.Forbidden("access denied to this patient record")
	ErrNotOwner           = apperr.Forbidden("the assignment belongs to another student")
	ErrStaffOnly          = apperr.Forbidden("only clinic staff can attach photos to a procedure")
	ErrParent             = apperr.Invalid("parent", "exactly one of assignment_id and procedure_id is required")
	ErrNotImage           = apperr.Invalid("file", "must be an image")
	ErrFileTooLarge       = apperr.Invalid("file", "is too large")
	ErrEmptyFile          = apperr.Invalid("file", "is required")
)
