package patient

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/odonto_backend/internal/domain"
	"github.com/Alijeyrad/odonto_backend/internal/repo"
	"github.com/Alijeyrad/odonto_backend/internal/service/audit"
	"github.com/Alijeyrad/odonto_backend/pkg/constants"
	"github.com/Alijeyrad/odonto_backend/pkg/crypto"
	s3pkg "github.com/Alijeyrad/odonto_backend/pkg/s3"
	"github.com/Alijeyrad/odonto_backend/pkg/validate"
)

const dateLayout = "2006-01-02"

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateRequest struct {
	// FacultyID is honoured for admins only; other staff create patients in
	// their own faculty.
	FacultyID      *uuid.UUID          `json:"faculty_id"`
	FirstName      string              `json:"first_name" validate:"notblank,max=100"`
	LastName       string              `json:"last_name" validate:"notblank,max=100"`
	DocumentType   string              `json:"document_type" validate:"notblank,max=16"`
	DocumentNumber string              `json:"document_number" validate:"notblank,max=32"`
	BirthDate      string              `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Sex            string              `json:"sex" validate:"omitempty,oneof=F M X"`
	Phone          string              `json:"phone" validate:"max=32"`
	Email          string              `json:"email" validate:"omitempty,email"`
	Address        string              `json:"address" validate:"max=255"`
	MedicalHistory repo.MedicalHistory `json:"medical_history"`
}

type UpdateRequest struct {
	FirstName      *string              `json:"first_name" validate:"omitempty,notblank,max=100"`
	LastName       *string              `json:"last_name" validate:"omitempty,notblank,max=100"`
	DocumentType   *string              `json:"document_type" validate:"omitempty,notblank,max=16"`
	DocumentNumber *string              `json:"document_number" validate:"omitempty,notblank,max=32"`
	BirthDate      *string              `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Sex            *string              `json:"sex" validate:"omitempty,oneof=F M X"`
	Phone          *string              `json:"phone" validate:"omitempty,max=32"`
	Email          *string              `json:"email" validate:"omitempty,email"`
	Address        *string              `json:"address" validate:"omitempty,max=255"`
	MedicalHistory *repo.MedicalHistory `json:"medical_history"`
}

type ListRequest struct {
	Search string
	Page   repo.Page
}

type UploadRequest struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Detail is the patient read model. It loads exactly the patient row, its
// faculty, its most recent odontogram and the count of its procedures per
// status; nothing else is fetched.
type Detail struct {
	*repo.Patient
	Faculty          *repo.Faculty                  `json:"faculty,omitempty"`
	LatestOdontogram *repo.Odontogram               `json:"latest_odontogram,omitempty"`
	ProcedureCounts  map[domain.ProcedureStatus]int `json:"procedure_counts"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, p domain.Principal, req CreateRequest) (*repo.Patient, error)
	Get(ctx context.Context, p domain.Principal, id uuid.UUID) (*Detail, error)
	List(ctx context.Context, p domain.Principal, req ListRequest) ([]*repo.Patient, int, error)
	Update(ctx context.Context, p domain.Principal, id uuid.UUID, req UpdateRequest) (*repo.Patient, error)
	Delete(ctx context.Context, p domain.Principal, id uuid.UUID) error
	UploadConsent(ctx context.Context, p domain.Principal, id uuid.UUID, file UploadRequest) (*repo.Patient, error)
	ConsentURL(ctx context.Context, p domain.Principal, id uuid.UUID) (string, error)
	// Visible loads a patient and checks the principal may see it.
	Visible(ctx context.Context, q repo.Queries, p domain.Principal, id uuid.UUID) (*repo.Patient, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type patientService struct {
	db      repo.Store
	audit   audit.Recorder
	cipher  *crypto.Cipher
	storage s3pkg.Storage
}

func New(db repo.Store, rec audit.Recorder, cipher *crypto.Cipher, storage s3pkg.Storage) Service {
	return &patientService{db: db, audit: rec, cipher: cipher, storage: storage}
}

func (s *patientService) Create(ctx context.Context, p domain.Principal, req CreateRequest) (*repo.Patient, error) {
	if !p.IsStaff() {
		return nil, ErrStaffOnly
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	pt := &repo.Patient{
		FacultyID:      p.FacultyID,
		CreatedBy:      audit.Actor(p),
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		DocumentType:   normalizeDocType(req.DocumentType),
		DocumentNumber: normalizeDocNumber(req.DocumentNumber),
		BirthDate:      parseDate(req.BirthDate),
		Sex:            req.Sex,
		Phone:          strings.TrimSpace(req.Phone),
		Email:          req.Email,
		Address:        strings.TrimSpace(req.Address),
		MedicalHistory: req.MedicalHistory,
	}
	if p.Role == domain.RoleAdmin {
		pt.FacultyID = req.FacultyID
	}
	sealed, err := s.cipher.Seal(req.MedicalHistory.MedicalNotes)
	if err != nil {
		return nil, fmt.Errorf("seal medical notes: %w", err)
	}
	pt.MedicalNotes = sealed

	err = s.db.WithTx(ctx, func(q repo.Queries) error {
		if err := q.CreatePatient(ctx, pt); err != nil {
			switch {
			case repo.IsUniqueViolation(err, repo.UniquePatientDocument):
				return ErrPatientAlreadyExists
			case repo.IsConstraintError(err):
				return ErrFacultyNotFound
			}
			return fmt.Errorf("create patient: %w", err)
		}
		return s.audit.Record(ctx, q, audit.Entry{
			Actor:    audit.Actor(p),
			Entity:   audit.EntityPatient,
			EntityID: pt.ID,
			Action:   audit.ActionPatientCreated,
			Meta: audit.Meta{}.
				Set("document_type", pt.DocumentType).
				Set("document_number", pt.DocumentNumber).
				Set("faculty_id", pt.FacultyID),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.open(pt)
}

func (s *patientService) Visible(ctx context.Context, q repo.Queries, p domain.Principal, id uuid.UUID) (*repo.Patient, error) {
	pt, err := q.GetPatient(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	if !p.CanSeeFaculty(pt.FacultyID) {
		return nil, ErrAccessDenied
	}
	return pt, nil
}

func (s *patientService) Get(ctx context.Context, p domain.Principal, id uuid.UUID) (*Detail, error) {
	pt, err := s.Visible(ctx, s.db, p, id)
	if err != nil {
		return nil, err
	}
	pt, err = s.open(pt)
	if err != nil {
		return nil, err
	}

	d := &Detail{Patient: pt}
	if pt.FacultyID != nil {
		fac, err := s.db.GetFaculty(ctx, *pt.FacultyID)
		if err != nil && !repo.IsNotFound(err) {
			return nil, fmt.Errorf("load faculty: %w", err)
		}
		d.Faculty = fac
	}
	latest, err := s.db.LatestOdontogram(ctx, id)
	if err != nil && !repo.IsNotFound(err) {
		return nil, fmt.Errorf("load latest odontogram: %w", err)
	}
	d.LatestOdontogram = latest
	if d.ProcedureCounts, err = s.db.CountProceduresByStatus(ctx, id); err != nil {
		return nil, fmt.Errorf("count procedures: %w", err)
	}
	return d, nil
}

func (s *patientService) List(ctx context.Context, p domain.Principal, req ListRequest) ([]*repo.Patient, int, error) {
	list, total, err := s.db.ListPatients(ctx, repo.PatientFilter{
		Scoped:    p.Role != domain.RoleAdmin,
		FacultyID: p.FacultyID,
		Search:    req.Search,
		Page:      req.Page,
	})
	if err != nil {
		return nil, 0, err
	}
	for i, pt := range list {
		if list[i], err = s.open(pt); err != nil {
			return nil, 0, err
		}
	}
	return list, total, nil
}

func (s *patientService) Update(ctx context.Context, p domain.Principal, id uuid.UUID, req UpdateRequest) (*repo.Patient, error) {
	if !p.IsStaff() {
		return nil, ErrStaffOnly
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	var updated *repo.Patient
	err := s.db.WithTx(ctx, func(q repo.Queries) error {
		pt, err := s.Visible(ctx, q, p, id)
		if err != nil {
			return err
		}
		before := *pt
		notesBefore, err := s.cipher.Open(pt.MedicalNotes)
		if err != nil {
			return fmt.Errorf("open medical notes: %w", err)
		}

		setString(&pt.FirstName, req.FirstName, strings.TrimSpace)
		setString(&pt.LastName, req.LastName, strings.TrimSpace)
		setString(&pt.DocumentType, req.DocumentType, normalizeDocType)
		setString(&pt.DocumentNumber, req.DocumentNumber, normalizeDocNumber)
		setString(&pt.Sex, req.Sex, strings.TrimSpace)
		setString(&pt.Phone, req.Phone, strings.TrimSpace)
		setString(&pt.Email, req.Email, func(v string) string { return strings.ToLower(strings.TrimSpace(v)) })
		setString(&pt.Address, req.Address, strings.TrimSpace)
		if req.BirthDate != nil {
			pt.BirthDate = parseDate(*req.BirthDate)
		}
		notesAfter := notesBefore
		if req.MedicalHistory != nil {
			pt.MedicalHistory = *req.MedicalHistory
			notesAfter = req.MedicalHistory.MedicalNotes
			if notesAfter == notesBefore {
				pt.MedicalNotes = before.MedicalNotes
			} else if pt.MedicalNotes, err = s.cipher.Seal(notesAfter); err != nil {
				return fmt.Errorf("seal medical notes: %w", err)
			}
		}

		meta := diff(&before, pt)
		if notesAfter != notesBefore {
			// the notes themselves stay out of the audit trail
			meta.Set("medical_notes", "changed")
		}
		if len(meta) == 0 {
			updated = pt
			return nil
		}

		if err := q.UpdatePatient(ctx, pt); err != nil {
			if repo.IsUniqueViolation(err, repo.UniquePatientDocument) {
				return ErrPatientAlreadyExists
			}
			return fmt.Errorf("update patient: %w", err)
		}
		updated = pt
		return s.audit.Record(ctx, q, audit.Entry{
			Actor:    audit.Actor(p),
			Entity:   audit.EntityPatient,
			EntityID: pt.ID,
			Action:   audit.ActionPatientUpdated,
			Meta:     meta,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.open(updated)
}

func (s *patientService) Delete(ctx context.Context, p domain.Principal, id uuid.UUID) error {
	if p.Role != domain.RoleAdmin {
		return ErrAdminOnly
	}
	return s.db.WithTx(ctx, func(q repo.Queries) error {
		pt, err := s.Visible(ctx, q, p, id)
		if err != nil {
			return err
		}
		if err := q.DeletePatient(ctx, id); err != nil {
			return fmt.Errorf("delete patient: %w", err)
		}
		return s.audit.Record(ctx, q, audit.Entry{
			Actor:    audit.Actor(p),
			Entity:   audit.EntityPatient,
			EntityID: id,
			Action:   audit.ActionPatientDeleted,
			Meta: audit.Meta{}.
				Set("document_type", pt.DocumentType).
				Set("document_number", pt.DocumentNumber),
		})
	})
}

func (s *patientService) UploadConsent(ctx context.Context, p domain.Principal, id uuid.UUID, file UploadRequest) (*repo.Patient, error) {
	if !p.IsStaff() {
		return nil, ErrStaffOnly
	}
	if file.Size > constants.MaxUploadBytes {
		return nil, ErrFileTooLarge
	}
	if _, err := s.Visible(ctx, s.db, p, id); err != nil {
		return nil, err
	}

	key := s3pkg.ObjectKey(constants.ConsentKeyPrefix, id, file.FileName)
	if err := s.storage.Upload(ctx, key, file.ContentType, file.Body, file.Size); err != nil {
		return nil, fmt.Errorf("upload consent: %w", err)
	}

	var updated *repo.Patient
	err := s.db.WithTx(ctx, func(q repo.Queries) error {
		pt, err := s.Visible(ctx, q, p, id)
		if err != nil {
			return err
		}
		meta := audit.Meta{}.Changed("consent_file_key", pt.ConsentFileKey, key)
		pt.ConsentFileKey = &key
		if err := q.UpdatePatient(ctx, pt); err != nil {
			return fmt.Errorf("update patient: %w", err)
		}
		updated = pt
		return s.audit.Record(ctx, q, audit.Entry{
			Actor:    audit.Actor(p),
			Entity:   audit.EntityPatient,
			EntityID: id,
			Action:   audit.ActionConsentUploaded,
			Meta:     meta,
		})
	})
	if err != nil {
		// the object is unreferenced now
		_ = s.storage.Delete(context.WithoutCancel(ctx), key)
		return nil, err
	}
	return s.open(updated)
}

func (s *patientService) ConsentURL(ctx context.Context, p domain.Principal, id uuid.UUID) (string, error) {
	pt, err := s.Visible(ctx, s.db, p, id)
	if err != nil {
		return "", err
	}
	if pt.ConsentFileKey == nil {
		return "", ErrNoConsent
	}
	return s.storage.PresignDownload(ctx, *pt.ConsentFileKey)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// open returns a copy of pt with its medical notes decrypted.
func (s *patientService) open(pt *repo.Patient) (*repo.Patient, error) {
	out := *pt
	notes, err := s.cipher.Open(pt.MedicalNotes)
	if err != nil {
		return nil, fmt.Errorf("open medical notes: %w", err)
	}
	out.MedicalNotes = notes
	return &out, nil
}

func diff(before, after *repo.Patient) audit.Meta {
	m := audit.Meta{}.
		Changed("first_name", before.FirstName, after.FirstName).
		Changed("last_name", before.LastName, after.LastName).
		Changed("document_type", before.DocumentType, after.DocumentType).
		Changed("document_number", before.DocumentNumber, after.DocumentNumber).
		Changed("birth_date", formatDate(before.BirthDate), formatDate(after.BirthDate)).
		Changed("sex", before.Sex, after.Sex).
		Changed("phone", before.Phone, after.Phone).
		Changed("email", before.Email, after.Email).
		Changed("address", before.Address, after.Address)

	b, a := before.MedicalHistory, after.MedicalHistory
	b.MedicalNotes, a.MedicalNotes = "", ""
	m.Changed("has_allergies", b.HasAllergies, a.HasAllergies).
		Changed("has_diabetes", b.HasDiabetes, a.HasDiabetes).
		Changed("has_hypertension", b.HasHypertension, a.HasHypertension).
		Changed("has_heart_disease", b.HasHeartDisease, a.HasHeartDisease).
		Changed("has_bleeding_disorder", b.HasBleedingDisorder, a.HasBleedingDisorder).
		Changed("is_pregnant", b.IsPregnant, a.IsPregnant).
		Changed("takes_medication", b.TakesMedication, a.TakesMedication).
		Changed("allergies_detail", b.AllergiesDetail, a.AllergiesDetail).
		Changed("medication_detail", b.MedicationDetail, a.MedicationDetail)
	return m
}

func setString(dst *string, v *string, norm func(string) string) {
	if v != nil {
		*dst = norm(*v)
	}
}

func normalizeDocType(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

func normalizeDocNumber(s string) string {
	return strings.NewReplacer(" ", "", ".", "", "-", "").Replace(strings.TrimSpace(s))
}

// parseDate expects a value already checked by the datetime validator.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
