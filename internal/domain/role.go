package domain

import (
	"fmt"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin       Role = "admin"
	RoleCoordinador Role = "coordinador"
	RoleAdmision    Role = "admision"
	RoleAlumno      Role = "alumno"
)

var Roles = []Role{RoleAdmin, RoleCoordinador, RoleAdmision, RoleAlumno}

func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// IsStaff reports whether the role belongs to clinic personnel.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleCoordinador || r == RoleAdmision
}

// Principal is the authenticated actor of a request. It is built once by the
// HTTP layer and handed to every service call.
type Principal struct {
	UserID    uuid.UUID
	Role      Role
	FacultyID *uuid.UUID
}

func (p Principal) Is(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

func (p Principal) IsStaff() bool { return p.Role.IsStaff() }

// CanSeeFaculty reports whether the principal may read records owned by
// facultyID. Admins see everything; unscoped records are visible to all
// staff; otherwise the faculties must match.
func (p Principal) CanSeeFaculty(facultyID *uuid.UUID) bool {
	if p.Role == RoleAdmin || facultyID == nil {
		return true
	}
	return p.FacultyID != nil && *p.FacultyID == *facultyID
}
