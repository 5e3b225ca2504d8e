package user

import "github.com/Alijeyrad/odonto_backend/internal/apperr"

var (
	ErrUserNotFound        = apperr.NotFound("user not found")
	ErrFacultyNotFound     = apperr.NotFound("faculty not found")
	ErrEmailAlreadyExists  = apperr.Conflict("email address is already in use")
	ErrAdminOnly           = apperr.Forbidden("only admins can manage users")
	ErrAccessDenied        = apperr.Forbidden("access denied to this user")
	ErrFacultyRequired     = apperr.Invalid("faculty_id", "is required for this role")
	ErrStudentCodeRequired = apperr.Invalid("student_code", "is required for students")
)
