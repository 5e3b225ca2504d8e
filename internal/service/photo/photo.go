package photo

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/odonto_backend/internal/domain"
	"github.com/Alijeyrad/odonto_backend/internal/repo"
	"github.com/Alijeyrad/odonto_backend/internal/service/audit"
	"github.com/Alijeyrad/odonto_backend/pkg/constants"
	s3pkg "github.com/Alijeyrad/odonto_backend/pkg/s3"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type UploadRequest struct {
	FileName    string
	ContentType string
	Size        int64
	Caption     string
	Body        io.Reader
}

type ListRequest struct {
	AssignmentID *uuid.UUID
	ProcedureID  *uuid.UUID
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	UploadAssignmentPhoto(ctx context.Context, p domain.Principal, assignmentID uuid.UUID, req UploadRequest) (*repo.ProcedurePhoto, error)
	UploadProcedurePhoto(ctx context.Context, p domain.Principal, procedureID uuid.UUID, req UploadRequest) (*repo.ProcedurePhoto, error)
	ListPhotos(ctx context.Context, p domain.Principal, req ListRequest) ([]*repo.ProcedurePhoto, error)
	PhotoURL(ctx context.Context, p domain.Principal, id uuid.UUID) (string, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type photoService struct {
	db      repo.Store
	audit   audit.Recorder
	storage s3pkg.Storage
}

func New(db repo.Store, rec audit.Recorder, storage s3pkg.Storage) Service {
	return &photoService{db: db, audit: rec, storage: storage}
}

func (s *photoService) UploadAssignmentPhoto(ctx context.Context, p domain.Principal, assignmentID uuid.UUID, req UploadRequest) (*repo.ProcedurePhoto, error) {
	if err := checkFile(req); err != nil {
		return nil, err
	}
	a, proc, err := s.assignment(ctx, s.db, p, assignmentID)
	if err != nil {
		return nil, err
	}
	if a.StudentID != p.UserID && !p.IsStaff() {
		return nil, ErrNotOwner
	}
	return s.store(ctx, p, proc.ID, &repo.ProcedurePhoto{AssignmentID: &a.ID}, req)
}

func (s *photoService) UploadProcedurePhoto(ctx context.Context, p domain.Principal, procedureID uuid.UUID, req UploadRequest) (*repo.ProcedurePhoto, error) {
	if !p.IsStaff() {
		return nil, ErrStaffOnly
	}
	if err := checkFile(req); err != nil {
		return nil, err
	}
	proc, err := procedure(ctx, s.db, p, procedureID)
	if err != nil {
		return nil, err
	}
	return s.store(ctx, p, proc.ID, &repo.ProcedurePhoto{PatientProcedureID: &proc.ID}, req)
}

// store uploads the object under the procedure's prefix and then inserts the
// row. The object is removed again when the insert fails.
func (s *photoService) store(ctx context.Context, p domain.Principal, procedureID uuid.UUID, ph *repo.ProcedurePhoto, req UploadRequest) (*repo.ProcedurePhoto, error) {
	key := s3pkg.ObjectKey(constants.PhotoKeyPrefix, procedureID, req.FileName)
	if err := s.storage.Upload(ctx, key, req.ContentType, req.Body, req.Size); err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}

	ph.FileKey = key
	ph.FileName = req.FileName
	ph.MimeType = req.ContentType
	ph.Size = req.Size
	ph.Caption = strings.TrimSpace(req.Caption)
	ph.UploadedBy = audit.Actor(p)

	err := s.db.WithTx(ctx, func(q repo.Queries) error {
		if err := q.CreatePhoto(ctx, ph); err != nil {
			return fmt.Errorf("create photo: %w", err)
		}
		return s.audit.Record(ctx, q, audit.Entry{
			Actor:    audit.Actor(p),
			Entity:   audit.EntityPhoto,
			EntityID: ph.ID,
			Action:   audit.ActionPhotoUploaded,
			Meta: audit.Meta{}.
				Set("procedure_id", procedureID).
				Set("assignment_id", ph.AssignmentID).
				Set("file_key", key),
		})
	})
	if err != nil {
		_ = s.storage.Delete(context.WithoutCancel(ctx), key)
		return nil, err
	}
	return ph, nil
}

func (s *photoService) ListPhotos(ctx context.Context, p domain.Principal, req ListRequest) ([]*repo.ProcedurePhoto, error) {
	if (req.AssignmentID == nil) == (req.ProcedureID == nil) {
		return nil, ErrParent
	}
	if req.AssignmentID != nil {
		if _, _, err := s.assignment(ctx, s.db, p, *req.AssignmentID); err != nil {
			return nil, err
		}
	} else if _, err := procedure(ctx, s.db, p, *req.ProcedureID); err != nil {
		return nil, err
	}
	return s.db.ListPhotos(ctx, repo.PhotoFilter{AssignmentID: req.AssignmentID, ProcedureID: req.ProcedureID})
}

func (s *photoService) PhotoURL(ctx context.Context, p domain.Principal, id uuid.UUID) (string, error) {
	ph, err := s.db.GetPhoto(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return "", ErrPhotoNotFound
		}
		return "", err
	}
	if ph.AssignmentID != nil {
		_, _, err = s.assignment(ctx, s.db, p, *ph.AssignmentID)
	} else {
		_, err = procedure(ctx, s.db, p, *ph.PatientProcedureID)
	}
	if err != nil {
		return "", err
	}
	return s.storage.PresignDownload(ctx, ph.FileKey)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func checkFile(req UploadRequest) error {
	switch {
	case req.Body == nil || req.Size == 0:
		return ErrEmptyFile
	case req.Size > constants.MaxUploadBytes:
		return ErrFileTooLarge
	case !strings.HasPrefix(req.ContentType, "image/"):
		return ErrNotImage
	}
	return nil
}

// assignment loads an assignment the principal may see. Students only see
// their own.
func (s *photoService) assignment(ctx context.Context, q repo.Queries, p domain.Principal, id uuid.UUID) (*repo.Assignment, *repo.PatientProcedure, error) {
	a, err := q.GetAssignment(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, nil, ErrAssignmentNotFound
		}
		return nil, nil, err
	}
	if p.Role == domain.RoleAlumno && a.StudentID != p.UserID {
		return nil, nil, ErrNotOwner
	}
	proc, err := procedure(ctx, q, p, a.PatientProcedureID)
	if err != nil {
		return nil, nil, err
	}
	return a, proc, nil
}

func procedure(ctx context.Context, q repo.Queries, p domain.Principal, id uuid.UUID) (*repo.PatientProcedure, error) {
	proc, err := q.GetProcedure(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrProcedureNotFound
		}
		return nil, err
	}
	pt, err := q.GetPatient(ctx, proc.PatientID)
	if err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}
	if !p.CanSeeFaculty(pt.FacultyID) {
		return nil, ErrAccessDenied
	}
	return proc, nil
}
