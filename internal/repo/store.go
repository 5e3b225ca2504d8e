package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/odonto_backend/internal/domain"
)

// Page bounds a list query. A zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

type UserFilter struct {
	Role      *domain.Role
	FacultyID *uuid.UUID
	Page
}

type TreatmentFilter struct {
	ChairID *uuid.UUID
}

// PatientFilter restricts a patient listing. When Scoped is set only rows of
// FacultyID plus unscoped rows are returned.
type PatientFilter struct {
	Scoped    bool
	FacultyID *uuid.UUID
	Search    string
	Page
}

type ProcedureFilter struct {
	PatientID    *uuid.UUID
	TreatmentID  *uuid.UUID
	ChairID      *uuid.UUID
	OdontogramID *uuid.UUID
	ToothFDI     *int
	Surface      *string
	Statuses     []domain.ProcedureStatus
	// ClaimableOnly keeps disponible rows and finalised repairs.
	ClaimableOnly bool
	// Scoped keeps procedures of patients owned by FacultyID plus
	// unscoped patients, as PatientFilter does.
	Scoped    bool
	FacultyID *uuid.UUID
	Page
}

type AssignmentFilter struct {
	StudentID   *uuid.UUID
	ProcedureID *uuid.UUID
	Status      *domain.AssignmentStatus
	Page
}

type PhotoFilter struct {
	AssignmentID *uuid.UUID
	ProcedureID  *uuid.UUID
}

type AuditFilter struct {
	Entity   string
	EntityID *uuid.UUID
	UserID   *uuid.UUID
	Page
}

type NotificationFilter struct {
	UserID     uuid.UUID
	UnreadOnly bool
	Page
}

// AssignmentFinish is the terminal write applied to an active assignment.
type AssignmentFinish struct {
	Status        domain.AssignmentStatus
	Notes         string
	AbandonReason string
	FinishedAt    time.Time
}

// Queries is the storage contract shared by the PostgreSQL client and the
// in-memory store. Lookups return an error matching IsNotFound when the row
// is missing; unique and foreign key violations match IsConstraintError.
type Queries interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context, f UserFilter) ([]*User, int, error)
	UpdateUser(ctx context.Context, u *User) error

	CreateFaculty(ctx context.Context, f *Faculty) error
	GetFaculty(ctx context.Context, id uuid.UUID) (*Faculty, error)
	ListFaculties(ctx context.Context) ([]*Faculty, error)

	CreateChair(ctx context.Context, c *Chair) error
	GetChair(ctx context.Context, id uuid.UUID) (*Chair, error)
	ListChairs(ctx context.Context) ([]*Chair, error)
	CreateTreatment(ctx context.Context, t *Treatment) error
	GetTreatment(ctx context.Context, id uuid.UUID) (*Treatment, error)
	ListTreatments(ctx context.Context, f TreatmentFilter) ([]*Treatment, error)
	CreateSubclass(ctx context.Context, s *TreatmentSubclass) error
	ListSubclasses(ctx context.Context, treatmentID uuid.UUID) ([]*TreatmentSubclass, error)
	CreateOption(ctx context.Context, o *TreatmentSubclassOption) error
	GetOption(ctx context.Context, id uuid.UUID) (*TreatmentSubclassOption, error)
	ListOptions(ctx context.Context, treatmentID uuid.UUID) ([]*TreatmentSubclassOption, error)

	CreatePatient(ctx context.Context, p *Patient) error
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetPatientByDocument(ctx context.Context, docType, docNumber string) (*Patient, error)
	ListPatients(ctx context.Context, f PatientFilter) ([]*Patient, int, error)
	UpdatePatient(ctx context.Context, p *Patient) error
	DeletePatient(ctx context.Context, id uuid.UUID) error

	CreateOdontogram(ctx context.Context, o *Odontogram) error
	GetOdontogram(ctx context.Context, id uuid.UUID) (*Odontogram, error)
	ListOdontograms(ctx context.Context, patientID uuid.UUID) ([]*Odontogram, error)
	LatestOdontogram(ctx context.Context, patientID uuid.UUID) (*Odontogram, error)
	CreateTooth(ctx context.Context, t *OdontogramTooth) error
	GetTooth(ctx context.Context, id uuid.UUID) (*OdontogramTooth, error)
	ListTeeth(ctx context.Context, odontogramID uuid.UUID) ([]*OdontogramTooth, error)
	UpdateTooth(ctx context.Context, t *OdontogramTooth) error

	CreateProcedure(ctx context.Context, p *PatientProcedure) error
	GetProcedure(ctx context.Context, id uuid.UUID) (*PatientProcedure, error)
	ListProcedures(ctx context.Context, f ProcedureFilter) ([]*PatientProcedure, int, error)
	CountProceduresByStatus(ctx context.Context, patientID uuid.UUID) (map[domain.ProcedureStatus]int, error)
	// ClaimProcedure moves a claimable procedure to proceso. It reports
	// false when the procedure was not in a claimable state.
	ClaimProcedure(ctx context.Context, id uuid.UUID) (bool, error)
	// SetProcedureStatus moves the procedure to `to` only if its status is
	// still `from`.
	SetProcedureStatus(ctx context.Context, id uuid.UUID, from, to domain.ProcedureStatus, reason string) (bool, error)
	SetProcedureRepair(ctx context.Context, id uuid.UUID, isRepair bool) error

	CreateAssignment(ctx context.Context, a *Assignment) error
	GetAssignment(ctx context.Context, id uuid.UUID) (*Assignment, error)
	ActiveAssignment(ctx context.Context, procedureID uuid.UUID) (*Assignment, error)
	ListAssignments(ctx context.Context, f AssignmentFilter) ([]*Assignment, int, error)
	// FinishAssignment applies a terminal transition only to an active row.
	FinishAssignment(ctx context.Context, id uuid.UUID, fin AssignmentFinish) (bool, error)
	UpdateAssignmentNotes(ctx context.Context, id uuid.UUID, notes string) error
	IncrementSessions(ctx context.Context, id uuid.UUID) (bool, error)
	CreateSession(ctx context.Context, s *TreatmentSession) error
	ListSessions(ctx context.Context, assignmentID uuid.UUID) ([]*TreatmentSession, error)

	CreatePhoto(ctx context.Context, p *ProcedurePhoto) error
	GetPhoto(ctx context.Context, id uuid.UUID) (*ProcedurePhoto, error)
	ListPhotos(ctx context.Context, f PhotoFilter) ([]*ProcedurePhoto, error)

	AppendAudit(ctx context.Context, a *Audit) error
	ListAudits(ctx context.Context, f AuditFilter) ([]*Audit, int, error)

	CreateNotification(ctx context.Context, n *Notification) error
	ListNotifications(ctx context.Context, f NotificationFilter) ([]*Notification, int, error)
	MarkNotificationRead(ctx context.Context, userID, id uuid.UUID) (bool, error)
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int, error)
	UpsertDevice(ctx context.Context, d *UserDevice) error
	DeleteDevice(ctx context.Context, userID uuid.UUID, token string) error
	ListDevices(ctx context.Context, userID uuid.UUID) ([]*UserDevice, error)

	CreateAd(ctx context.Context, a *Ad) error
	GetAd(ctx context.Context, id uuid.UUID) (*Ad, error)
	DeleteAd(ctx context.Context, id uuid.UUID) error
	ListActiveAds(ctx context.Context, now time.Time) ([]*Ad, error)
}

// Store is a Queries that can also run a function inside one transaction.
// If fn returns an error every write made through q is discarded.
type Store interface {
	Queries
	WithTx(ctx context.Context, fn func(q Queries) error) error
	Close() error
}
