package audit

import "github.com/Alijeyrad/odonto_backend/internal/apperr"

var ErrForbidden = apperr.Forbidden("only admins and coordinators can read the audit trail")
