package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheap keeps the suite fast; the cost parameters do not change behavior.
var cheap = &Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHashFormat(t *testing.T) {
	hash, err := HashWithParams("correct horse battery", cheap)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"), hash)
	assert.Len(t, strings.Split(hash, "$"), 6)
}

func TestHashIsSalted(t *testing.T) {
	a, err := HashWithParams("same password", cheap)
	require.NoError(t, err)
	b, err := HashWithParams("same password", cheap)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, Match(a, "same password"))
	assert.True(t, Match(b, "same password"))
}

func TestVerify(t *testing.T) {
	hash, err := HashWithParams("mysecretpassword", cheap)
	require.NoError(t, err)

	tests := []struct {
		name    string
		hash    string
		plain   string
		wantErr error
	}{
		{"correct", hash, "mysecretpassword", nil},
		{"wrong", hash, "mysecretpassworD", ErrMismatch},
		{"empty", hash, "", ErrMismatch},
		{"not a hash", "notahash", "x", ErrInvalidHash},
		{"empty hash", "", "x", ErrInvalidHash},
		{"argon2i", "$argon2i$v=19$m=65536,t=3,p=2$c29tZXNhbHQ$c29tZWhhc2g", "x", ErrInvalidHash},
		{"bad params", "$argon2id$v=19$invalid$c29tZXNhbHQ$c29tZWhhc2g", "x", ErrInvalidHash},
		{"old version", "$argon2id$v=16$m=65536,t=3,p=2$c29tZXNhbHQ$c29tZWhhc2g", "x", ErrIncompatibleVersion},
		{"empty key", "$argon2id$v=19$m=65536,t=3,p=2$c29tZXNhbHQ$", "x", ErrInvalidHash},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Verify(tt.hash, tt.plain), tt.wantErr)
		})
	}
}

func TestNeedsRehash(t *testing.T) {
	hash, err := HashWithParams("testpassword", cheap)
	require.NoError(t, err)

	assert.False(t, NeedsRehash(hash, cheap))
	assert.True(t, NeedsRehash(hash, nil), "defaults differ from the cheap params")

	stronger := *cheap
	stronger.Iterations = 2
	assert.True(t, NeedsRehash(hash, &stronger))
	assert.True(t, NeedsRehash("not-a-hash", cheap))
}

func TestCheckPolicy(t *testing.T) {
	tests := []struct {
		name    string
		plain   string
		wantErr error
	}{
		{"too short", "short", ErrTooShort},
		{"eleven runes", "ñandúñandúñ", ErrTooShort},
		{"exactly min", "123456789012", nil},
		{"accented min", "contraseñaaa", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, CheckPolicy(tt.plain), tt.wantErr)
		})
	}
}

func TestGenerate(t *testing.T) {
	assert.Len(t, Generate(0), MinLength)
	assert.Len(t, Generate(-5), MinLength)
	assert.Len(t, Generate(20), 20)

	seen := make(map[string]bool)
	for range 100 {
		p := Generate(16)
		require.NoError(t, CheckPolicy(p))
		assert.NotContains(t, seen, p)
		seen[p] = true
		assert.Empty(t, strings.Trim(p, generatedAlphabet), "only alphabet characters")
	}
}

func TestConfigToParams(t *testing.T) {
	cfg := Config{MemoryKiB: 64 * 1024, Iterations: 3, Parallelism: 2, SaltLength: 16, KeyLength: 32}
	p := cfg.ToParams()
	assert.Equal(t, DefaultParams(), p)

	cfg.LowMemoryMode = true
	p = cfg.ToParams()
	assert.EqualValues(t, lowMemoryKiB, p.Memory)
	assert.EqualValues(t, 4, p.Iterations)
}

func BenchmarkVerify(b *testing.B) {
	hash, _ := Hash("benchmarkpassword")
	b.ResetTimer()
	for range b.N {
		_ = Verify(hash, "benchmarkpassword")
	}
}
