package authorize

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/odonto_backend/internal/domain"
	"github.com/Alijeyrad/odonto_backend/pkg/reqctx"
)

func TestSubjectFromContext(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		ctx     context.Context
		want    GroupSubject
		wantErr bool
	}{
		{
			name: "principal present",
			ctx:  reqctx.WithPrincipal(context.Background(), domain.Principal{UserID: id, Role: domain.RoleAlumno}),
			want: GroupSubject(id.String()),
		},
		{
			name:    "no principal",
			ctx:     context.Background(),
			wantErr: true,
		},
		{
			name:    "anonymous principal",
			ctx:     reqctx.WithPrincipal(context.Background(), domain.Principal{}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SubjectFromContext(tt.ctx)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoSubjectInContext)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMustSubjectFromContextPanics(t *testing.T) {
	assert.Panics(t, func() { MustSubjectFromContext(context.Background()) })
}

func TestDomainFromContext(t *testing.T) {
	id := uuid.New()
	ctx := reqctx.WithPrincipal(context.Background(), domain.Principal{UserID: id})

	d, err := DomainFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, UserDomain(id.String()), d)
}
