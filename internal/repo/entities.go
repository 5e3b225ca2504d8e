package repo

import (
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/odonto_backend/internal/domain"
)

type User struct {
	ID           uuid.UUID   `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	Role         domain.Role `json:"role"`
	FacultyID    *uuid.UUID  `json:"faculty_id,omitempty"`
	StudentCode  *string     `json:"student_code,omitempty"`
	IsActive     bool        `json:"is_active"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

type Faculty struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Chair is a clinical subject (cátedra) grouping treatments.
type Chair struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Treatment struct {
	ID                uuid.UUID `json:"id"`
	ChairID           uuid.UUID `json:"chair_id"`
	Code              string    `json:"code"`
	Name              string    `json:"name"`
	RequiresTooth     bool      `json:"requires_tooth"`
	AppliesToAllUpper bool      `json:"applies_to_all_upper"`
	AppliesToAllLower bool      `json:"applies_to_all_lower"`
	RequiredSessions  int       `json:"required_sessions"`
	CreatedAt         time.Time `json:"created_at"`
}

type TreatmentSubclass struct {
	ID          uuid.UUID `json:"id"`
	TreatmentID uuid.UUID `json:"treatment_id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
}

// TreatmentSubclassOption hangs off the treatment. SubclassID is kept for
// rows created before options were attached directly to treatments.
type TreatmentSubclassOption struct {
	ID          uuid.UUID  `json:"id"`
	TreatmentID uuid.UUID  `json:"treatment_id"`
	SubclassID  *uuid.UUID `json:"subclass_id,omitempty"`
	Name        string     `json:"name"`
	CreatedAt   time.Time  `json:"created_at"`
}

type MedicalHistory struct {
	HasAllergies        bool   `json:"has_allergies"`
	HasDiabetes         bool   `json:"has_diabetes"`
	HasHypertension     bool   `json:"has_hypertension"`
	HasHeartDisease     bool   `json:"has_heart_disease"`
	HasBleedingDisorder bool   `json:"has_bleeding_disorder"`
	IsPregnant          bool   `json:"is_pregnant"`
	TakesMedication     bool   `json:"takes_medication"`
	AllergiesDetail     string `json:"allergies_detail"`
	MedicationDetail    string `json:"medication_detail"`
	// MedicalNotes holds ciphertext at rest.
	MedicalNotes string `json:"medical_notes"`
}

type Patient struct {
	ID             uuid.UUID  `json:"id"`
	FacultyID      *uuid.UUID `json:"faculty_id,omitempty"`
	CreatedBy      *uuid.UUID `json:"created_by,omitempty"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	DocumentType   string     `json:"document_type"`
	DocumentNumber string     `json:"document_number"`
	BirthDate      *time.Time `json:"birth_date,omitempty"`
	Sex            string     `json:"sex"`
	Phone          string     `json:"phone"`
	Email          string     `json:"email"`
	Address        string     `json:"address"`
	MedicalHistory
	ConsentFileKey *string   `json:"consent_file_key,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Odontogram struct {
	ID         uuid.UUID             `json:"id"`
	PatientID  uuid.UUID             `json:"patient_id"`
	Type       domain.OdontogramType `json:"type"`
	RecordedAt time.Time             `json:"recorded_at"`
	RecordedBy *uuid.UUID            `json:"recorded_by,omitempty"`
	Notes      string                `json:"notes"`
	CreatedAt  time.Time             `json:"created_at"`
}

// OdontogramTooth is one tooth (or one surface of it) in a snapshot. An
// empty Surface means the whole tooth.
type OdontogramTooth struct {
	ID           uuid.UUID          `json:"id"`
	OdontogramID uuid.UUID          `json:"odontogram_id"`
	ToothFDI     int                `json:"tooth_fdi"`
	Surface      string             `json:"surface"`
	Status       domain.ToothStatus `json:"status"`
	Notes        string             `json:"notes"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

type PatientProcedure struct {
	ID               uuid.UUID              `json:"id"`
	PatientID        uuid.UUID              `json:"patient_id"`
	TreatmentID      uuid.UUID              `json:"treatment_id"`
	ChairID          uuid.UUID              `json:"chair_id"`
	OdontogramID     *uuid.UUID             `json:"odontogram_id,omitempty"`
	ToothFDI         *int                   `json:"tooth_fdi,omitempty"`
	Surface          string                 `json:"surface"`
	SubclassOptionID *uuid.UUID             `json:"subclass_option_id,omitempty"`
	Status           domain.ProcedureStatus `json:"status"`
	IsRepair         bool                   `json:"is_repair"`
	StatusReason     string                 `json:"status_reason,omitempty"`
	CreatedBy        *uuid.UUID             `json:"created_by,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

type Assignment struct {
	ID                 uuid.UUID               `json:"id"`
	PatientProcedureID uuid.UUID               `json:"patient_procedure_id"`
	StudentID          uuid.UUID               `json:"student_id"`
	Status             domain.AssignmentStatus `json:"status"`
	SessionsCompleted  int                     `json:"sessions_completed"`
	Notes              string                  `json:"notes"`
	AbandonReason      string                  `json:"abandon_reason,omitempty"`
	StartedAt          time.Time               `json:"started_at"`
	FinishedAt         *time.Time              `json:"finished_at,omitempty"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
}

type TreatmentSession struct {
	ID           uuid.UUID  `json:"id"`
	AssignmentID uuid.UUID  `json:"assignment_id"`
	SessionDate  time.Time  `json:"session_date"`
	Notes        string     `json:"notes"`
	SupervisorID *uuid.UUID `json:"supervisor_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ProcedurePhoto belongs to exactly one of an assignment or a procedure.
type ProcedurePhoto struct {
	ID                 uuid.UUID  `json:"id"`
	AssignmentID       *uuid.UUID `json:"assignment_id,omitempty"`
	PatientProcedureID *uuid.UUID `json:"patient_procedure_id,omitempty"`
	FileKey            string     `json:"file_key"`
	FileName           string     `json:"file_name"`
	MimeType           string     `json:"mime_type"`
	Size               int64      `json:"size"`
	Caption            string     `json:"caption"`
	UploadedBy         *uuid.UUID `json:"uploaded_by,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

type Audit struct {
	ID        uuid.UUID      `json:"id"`
	UserID    *uuid.UUID     `json:"user_id,omitempty"`
	Entity    string         `json:"entity"`
	EntityID  uuid.UUID      `json:"entity_id"`
	Action    string         `json:"action"`
	Meta      map[string]any `json:"meta"`
	CreatedAt time.Time      `json:"created_at"`
}

type Notification struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Data      map[string]any `json:"data,omitempty"`
	IsRead    bool           `json:"is_read"`
	CreatedAt time.Time      `json:"created_at"`
}

type UserDevice struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	DeviceToken string    `json:"device_token"`
	Platform    string    `json:"platform"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

type Ad struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ImageKey  *string    `json:"image_key,omitempty"`
	StartsAt  time.Time  `json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at,omitempty"`
	IsActive  bool       `json:"is_active"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
