package ad

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/odonto_backend/internal/apperr"
	"github.com/Alijeyrad/odonto_backend/internal/testutil"
	s3pkg "github.com/Alijeyrad/odonto_backend/pkg/s3"
)

func setup(t *testing.T) (*adService, *testutil.Fixture, *s3pkg.Memory) {
	t.Helper()
	f := testutil.New(t)
	storage := s3pkg.NewMemory("http://files.test")
	return New(f.Store, storage).(*adService), f, storage
}

func TestCreateAndListActive(t *testing.T) {
	svc, f, storage := setup(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	later := now.Add(48 * time.Hour)
	expired := now.Add(-time.Hour)
	img := []byte("\x89PNG fake")

	current, err := svc.Create(ctx, f.AdminP(), CreateRequest{
		Title: "Jornada de prevención",
		Body:  "Sábado 9 a 13 h",
		Image: &Image{FileName: "Afiche.PNG", ContentType: "image/png", Size: int64(len(img)), Body: bytes.NewReader(img)},
	})
	require.NoError(t, err)
	require.NotNil(t, current.ImageKey)
	assert.Contains(t, *current.ImageKey, "ads/"+current.ID.String()+"/")
	assert.True(t, strings.HasSuffix(*current.ImageKey, ".png"))
	_, ok := storage.Object(*current.ImageKey)
	assert.True(t, ok)

	_, err = svc.Create(ctx, f.AdminP(), CreateRequest{Title: "Próximamente", StartsAt: &later})
	require.NoError(t, err)
	past := now.Add(-72 * time.Hour)
	_, err = svc.Create(ctx, f.AdminP(), CreateRequest{Title: "Vencido", StartsAt: &past, EndsAt: &expired})
	require.NoError(t, err)

	list, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, current.ID, list[0].ID)
	assert.Equal(t, "http://files.test/"+url.PathEscape(*current.ImageKey), list[0].ImageURL)
}

func TestCreateRejections(t *testing.T) {
	svc, f, _ := setup(t)
	ctx := context.Background()
	start := time.Now()
	end := start.Add(-time.Minute)

	_, err := svc.Create(ctx, f.CoordinatorP(), CreateRequest{Title: "x"})
	assert.ErrorIs(t, err, ErrAdminOnly)

	_, err = svc.Create(ctx, f.AdminP(), CreateRequest{Title: " "})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Create(ctx, f.AdminP(), CreateRequest{Title: "x", StartsAt: &start, EndsAt: &end})
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = svc.Create(ctx, f.AdminP(), CreateRequest{
		Title: "x",
		Image: &Image{FileName: "a.pdf", ContentType: "application/pdf", Size: 3, Body: bytes.NewReader([]byte("pdf"))},
	})
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestDelete(t *testing.T) {
	svc, f, storage := setup(t)
	ctx := context.Background()
	img := []byte("gif")

	a, err := svc.Create(ctx, f.AdminP(), CreateRequest{
		Title: "Campaña",
		Image: &Image{FileName: "c.gif", ContentType: "image/gif", Size: 3, Body: bytes.NewReader(img)},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, f.CoordinatorP(), a.ID), ErrAdminOnly)
	require.NoError(t, svc.Delete(ctx, f.AdminP(), a.ID))

	_, ok := storage.Object(*a.ImageKey)
	assert.False(t, ok, "image is removed with the ad")

	assert.ErrorIs(t, svc.Delete(ctx, f.AdminP(), a.ID), ErrAdNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, f.AdminP(), uuid.New()), ErrAdNotFound)
}
