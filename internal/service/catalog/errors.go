package catalog

import "github.com/Alijeyrad/odonto_backend/internal/apperr"

var (
	ErrForbidden         = apperr.Forbidden("only coordinators and admins can change the catalog")
	ErrChairExists       = apperr.Conflict("a chair with that name already exists")
	ErrTreatmentExists   = apperr.Conflict("a treatment with that code already exists")
	ErrSubclassExists    = apperr.Conflict("the treatment already has a subclass with that name")
	ErrChairNotFound     = apperr.NotFound("chair not found")
	ErrTreatmentNotFound = apperr.NotFound("treatment not found")
	ErrSubclassNotFound  = apperr.NotFound("subclass not found")
)
