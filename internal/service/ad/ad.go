package ad

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/odonto_backend/internal/domain"
	"github.com/Alijeyrad/odonto_backend/internal/repo"
	"github.com/Alijeyrad/odonto_backend/pkg/constants"
	s3pkg "github.com/Alijeyrad/odonto_backend/pkg/s3"
	"github.com/Alijeyrad/odonto_backend/pkg/validate"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateRequest struct {
	Title    string     `json:"title" validate:"required,notblank,max=200"`
	Body     string     `json:"body" validate:"max=5000"`
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
	// Image is optional.
	Image *Image `json:"-"`
}

type Image struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// View is an ad with a downloadable image link.
type View struct {
	*repo.Ad
	ImageURL string `json:"image_url,omitempty"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, p domain.Principal, req CreateRequest) (*repo.Ad, error)
	Delete(ctx context.Context, p domain.Principal, id uuid.UUID) error
	ListActive(ctx context.Context) ([]*View, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type adService struct {
	db      repo.Store
	storage s3pkg.Storage
	now     func() time.Time
}

func New(db repo.Store, storage s3pkg.Storage) Service {
	return &adService{db: db, storage: storage, now: time.Now}
}

func (s *adService) Create(ctx context.Context, p domain.Principal, req CreateRequest) (*repo.Ad, error) {
	if !p.Is(domain.RoleAdmin) {
		return nil, ErrAdminOnly
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	a := &repo.Ad{
		ID:        uuid.Must(uuid.NewV7()),
		Title:     strings.TrimSpace(req.Title),
		Body:      strings.TrimSpace(req.Body),
		EndsAt:    req.EndsAt,
		IsActive:  true,
		CreatedBy: &p.UserID,
	}
	if req.StartsAt != nil {
		a.StartsAt = *req.StartsAt
	} else {
		a.StartsAt = s.now().UTC()
	}
	if a.EndsAt != nil && !a.EndsAt.After(a.StartsAt) {
		return nil, ErrInvalidRange
	}

	if img := req.Image; img != nil {
		switch {
		case img.Size > constants.MaxUploadBytes:
			return nil, ErrFileTooLarge
		case !strings.HasPrefix(img.ContentType, "image/"):
			return nil, ErrNotImage
		}
		key := s3pkg.ObjectKey(constants.AdKeyPrefix, a.ID, img.FileName)
		if err := s.storage.Upload(ctx, key, img.ContentType, img.Body, img.Size); err != nil {
			return nil, fmt.Errorf("upload ad image: %w", err)
		}
		a.ImageKey = &key
	}

	if err := s.db.CreateAd(ctx, a); err != nil {
		if a.ImageKey != nil {
			s.removeImage(ctx, *a.ImageKey)
		}
		return nil, fmt.Errorf("create ad: %w", err)
	}
	return a, nil
}

func (s *adService) Delete(ctx context.Context, p domain.Principal, id uuid.UUID) error {
	if !p.Is(domain.RoleAdmin) {
		return ErrAdminOnly
	}
	var imageKey *string
	err := s.db.WithTx(ctx, func(q repo.Queries) error {
		a, err := q.GetAd(ctx, id)
		if err != nil {
			if repo.IsNotFound(err) {
				return ErrAdNotFound
			}
			return err
		}
		imageKey = a.ImageKey
		if err := q.DeleteAd(ctx, id); err != nil {
			return fmt.Errorf("delete ad: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if imageKey != nil {
		s.removeImage(ctx, *imageKey)
	}
	return nil
}

func (s *adService) ListActive(ctx context.Context) ([]*View, error) {
	ads, err := s.db.ListActiveAds(ctx, s.now().UTC())
	if err != nil {
		return nil, err
	}
	out := make([]*View, 0, len(ads))
	for _, a := range ads {
		v := &View{Ad: a}
		if a.ImageKey != nil {
			url, err := s.storage.PresignDownload(ctx, *a.ImageKey)
			if err != nil {
				slog.Warn("presign ad image", "ad_id", a.ID, "error", err)
			} else {
				v.ImageURL = url
			}
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *adService) removeImage(ctx context.Context, key string) {
	if err := s.storage.Delete(ctx, key); err != nil {
		slog.Warn("delete ad image", "key", key, "error", err)
	}
}
