package faculty

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/odonto_backend/internal/apperr"
	"github.com/Alijeyrad/odonto_backend/internal/testutil"
)

func TestFaculties(t *testing.T) {
	f := testutil.New(t)
	svc := New(f.Store)
	ctx := context.Background()

	created, err := svc.Create(ctx, f.AdminP(), CreateRequest{Name: "  Facultad de Medicina "})
	require.NoError(t, err)
	assert.Equal(t, "Facultad de Medicina", created.Name)

	_, err = svc.Create(ctx, f.AdminP(), CreateRequest{Name: "Facultad de Medicina"})
	assert.ErrorIs(t, err, ErrFacultyAlreadyExists)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = svc.Create(ctx, f.CoordinatorP(), CreateRequest{Name: "Otra"})
	assert.ErrorIs(t, err, ErrAdminOnly)

	_, err = svc.Create(ctx, f.AdminP(), CreateRequest{Name: "   "})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Facultad de Medicina", list[0].Name)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrFacultyNotFound)
}
