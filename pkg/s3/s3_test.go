package s3

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/odonto_backend/config"
)

func TestObjectKey(t *testing.T) {
	owner := uuid.New()
	key := ObjectKey("photos", owner, "Caries.JPG")

	parts := strings.Split(key, "/")
	require.Len(t, parts, 3)
	assert.Equal(t, "photos", parts[0])
	assert.Equal(t, owner.String(), parts[1])
	assert.True(t, strings.HasSuffix(parts[2], ".jpg"))

	assert.NotEqual(t, key, ObjectKey("photos", owner, "Caries.JPG"))
	assert.False(t, strings.Contains(ObjectKey("consents", owner, "noext"), "."))
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(context.Background(), config.S3Config{Region: "us-east-1"})
	assert.Error(t, err)
}

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("")

	_, err := m.PresignDownload(ctx, "missing")
	require.ErrorIs(t, err, ErrNoObject)
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "presign", opErr.Op)
	assert.Equal(t, "missing", opErr.Key)

	require.NoError(t, m.Upload(ctx, "photos/a/b.png", "image/png", strings.NewReader("png"), 3))
	obj, ok := m.Object("photos/a/b.png")
	require.True(t, ok)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, []byte("png"), obj.Data)

	url, err := m.PresignDownload(ctx, "photos/a/b.png")
	require.NoError(t, err)
	assert.Contains(t, url, "memory://objects/")

	require.NoError(t, m.Delete(ctx, "photos/a/b.png"))
	_, ok = m.Object("photos/a/b.png")
	assert.False(t, ok)
}
