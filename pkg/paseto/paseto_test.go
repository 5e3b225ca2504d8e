package pasetotoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/odonto_backend/config"
	"github.com/Alijeyrad/odonto_backend/internal/apperr"
)

func newTestManager(t *testing.T, mode Mode) *Manager {
	t.Helper()
	keys := NewLocalKeys()
	if mode == ModePublic {
		keys = NewPublicKeys()
	}
	m, err := New(Config{Mode: mode, Issuer: "odonto", Audience: "odonto-api", AccessTTL: time.Minute}, keys)
	require.NoError(t, err)
	return m
}

func TestIssueAndVerify(t *testing.T) {
	for _, mode := range []Mode{ModeLocal, ModePublic} {
		t.Run(string(mode), func(t *testing.T) {
			m := newTestManager(t, mode)
			uid := uuid.New()
			sid := uuid.New()

			tok, err := m.IssueAccess(uid, &sid)
			require.NoError(t, err)

			claims, err := m.Verify(tok)
			require.NoError(t, err)
			assert.Equal(t, TokenTypeAccess, claims.Type)
			assert.Equal(t, uid, claims.UserID)
			require.NotNil(t, claims.SessionID)
			assert.Equal(t, sid, *claims.SessionID)
			assert.False(t, claims.IsExpired())
		})
	}
}

func TestVerifyAcceptsTokensIssuedAfterStartup(t *testing.T) {
	m := newTestManager(t, ModeLocal)
	time.Sleep(1100 * time.Millisecond)

	tok, err := m.IssueRefresh(uuid.New(), nil)
	require.NoError(t, err)
	claims, err := m.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.Type)
	assert.Nil(t, claims.SessionID)
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	a := newTestManager(t, ModeLocal)
	b := newTestManager(t, ModeLocal)

	tok, err := a.IssueAccess(uuid.New(), nil)
	require.NoError(t, err)

	_, err = b.Verify(tok)
	var invalid ErrInvalidToken
	assert.ErrorAs(t, err, &invalid)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{Mode: ModeLocal, Audience: "a"}, NewLocalKeys())
	assert.Error(t, err)

	_, err = New(Config{Mode: ModePublic, Issuer: "i", Audience: "a"}, NewLocalKeys())
	assert.Error(t, err)
}

func TestLoadKeysRoundTrip(t *testing.T) {
	for _, gen := range []Keys{NewLocalKeys(), NewPublicKeys()} {
		t.Run(string(gen.Mode), func(t *testing.T) {
			exp := gen.Export()
			keys, err := LoadKeys(KeyStrings{
				Mode:         Mode(exp["mode"]),
				SymmetricHex: exp["local_key_hex"],
				SecretHex:    exp["secret_key_hex"],
				PublicHex:    exp["public_key_hex"],
			})
			require.NoError(t, err)
			assert.Equal(t, exp, keys.Export())
		})
	}
}

func TestLoadKeysNamesTheBadSetting(t *testing.T) {
	other := NewPublicKeys().Export()
	mine := NewPublicKeys().Export()

	cases := []struct {
		name string
		in   KeyStrings
		key  string
	}{
		{"missing local key", KeyStrings{Mode: ModeLocal}, "local_key_hex"},
		{"bad local key", KeyStrings{Mode: ModeLocal, SymmetricHex: "zz"}, "local_key_hex"},
		{"public only", KeyStrings{Mode: ModePublic, PublicHex: mine["public_key_hex"]}, "secret_key_hex"},
		{"mismatched pair", KeyStrings{Mode: ModePublic, SecretHex: mine["secret_key_hex"], PublicHex: other["public_key_hex"]}, "public_key_hex"},
		{"unknown mode", KeyStrings{Mode: "hmac"}, "mode"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadKeys(tc.in)
			var cfgErr ErrConfig
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.key, cfgErr.Key)
		})
	}
}

func TestNewPasetoManagerFromConfig(t *testing.T) {
	base := func(env string) *config.Config {
		cfg := &config.Config{}
		cfg.Server.Environment = env
		cfg.Authentication.Paseto = config.PasetoConfig{
			Mode:             "local",
			Issuer:           "odonto",
			Audience:         "odonto-clients",
			AccessTTLMinutes: 15,
		}
		return cfg
	}

	t.Run("ephemeral key outside production", func(t *testing.T) {
		m, err := NewPasetoManager(base("development"))
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, m.AccessTTL())

		tok, err := m.IssueAccess(uuid.New(), nil)
		require.NoError(t, err)
		_, err = m.Verify(tok)
		assert.NoError(t, err)
	})

	t.Run("production requires a key", func(t *testing.T) {
		_, err := NewPasetoManager(base("production"))
		var cfgErr ErrConfig
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "local_key_hex", cfgErr.Key)
	})

	t.Run("configured key", func(t *testing.T) {
		cfg := base("production")
		cfg.Authentication.Paseto.LocalKeyHex = NewLocalKeys().Export()["local_key_hex"]
		_, err := NewPasetoManager(cfg)
		assert.NoError(t, err)
	})
}
