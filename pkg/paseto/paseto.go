package pasetotoken

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	paseto "aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour
)

type Config struct {
	Mode     Mode
	Issuer   string
	Audience string

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Implicit is bound into every token without being transmitted.
	Implicit []byte
}

// Manager issues and verifies v4 tokens with one key set.
type Manager struct {
	cfg  Config
	keys Keys
}

func New(cfg Config, keys Keys) (*Manager, error) {
	switch {
	case cfg.Mode != keys.Mode:
		return nil, ErrConfig{Key: "mode", Msg: "does not match the loaded keys"}
	case cfg.Issuer == "":
		return nil, ErrConfig{Key: "issuer", Msg: "required"}
	case cfg.Audience == "":
		return nil, ErrConfig{Key: "audience", Msg: "required"}
	}
	if err := keys.ready(); err != nil {
		return nil, err
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	return &Manager{cfg: cfg, keys: keys}, nil
}

func (k Keys) ready() error {
	switch k.Mode {
	case ModeLocal:
		if k.Symmetric == nil {
			return ErrConfig{Key: "local_key_hex", Msg: "not loaded"}
		}
	case ModePublic:
		if k.Secret == nil || k.Public == nil {
			return ErrConfig{Key: "secret_key_hex", Msg: "not loaded"}
		}
	default:
		return ErrConfig{Key: "mode", Msg: "unknown"}
	}
	return nil
}

func (m *Manager) AccessTTL() time.Duration  { return m.cfg.AccessTTL }
func (m *Manager) RefreshTTL() time.Duration { return m.cfg.RefreshTTL }

func (m *Manager) IssueAccess(userID uuid.UUID, sessionID *uuid.UUID) (string, error) {
	return m.issue(TokenTypeAccess, userID, sessionID, m.cfg.AccessTTL)
}

func (m *Manager) IssueRefresh(userID uuid.UUID, sessionID *uuid.UUID) (string, error) {
	return m.issue(TokenTypeRefresh, userID, sessionID, m.cfg.RefreshTTL)
}

func (m *Manager) issue(tt TokenType, userID uuid.UUID, sessionID *uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	tok := paseto.NewToken()
	tok.SetIssuer(m.cfg.Issuer)
	tok.SetAudience(m.cfg.Audience)
	tok.SetJti(newTokenID())
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(now.Add(ttl))
	tok.SetSubject(userID.String())
	tok.SetString(claimType, string(tt))
	tok.SetString(claimUser, userID.String())
	if sessionID != nil {
		tok.SetString(claimSession, sessionID.String())
	}

	if m.keys.Mode == ModePublic {
		return tok.V4Sign(*m.keys.Secret, m.cfg.Implicit), nil
	}
	return tok.V4Encrypt(*m.keys.Symmetric, m.cfg.Implicit), nil
}

// Verify checks the key, issuer, audience and validity window of raw. Every
// failure is an ErrInvalidToken.
func (m *Manager) Verify(raw string) (*Claims, error) {
	// The parser is built per call so ValidAt uses the current time.
	p := paseto.NewParser()
	p.AddRule(paseto.IssuedBy(m.cfg.Issuer))
	p.AddRule(paseto.ForAudience(m.cfg.Audience))
	p.AddRule(paseto.NotExpired())
	p.AddRule(paseto.ValidAt(time.Now()))

	var (
		tok *paseto.Token
		err error
	)
	if m.keys.Mode == ModePublic {
		tok, err = p.ParseV4Public(*m.keys.Public, raw, m.cfg.Implicit)
	} else {
		tok, err = p.ParseV4Local(*m.keys.Symmetric, raw, m.cfg.Implicit)
	}
	if err != nil {
		return nil, invalid(err)
	}

	claims, err := readClaims(tok)
	if err != nil {
		return nil, invalid(err)
	}
	return claims, nil
}

func readClaims(tok *paseto.Token) (*Claims, error) {
	var (
		c   Claims
		err error
	)
	if c.TokenID, err = tok.GetJti(); err != nil {
		return nil, err
	}
	if c.IssuedAt, err = tok.GetIssuedAt(); err != nil {
		return nil, err
	}
	if c.ExpiresAt, err = tok.GetExpiration(); err != nil {
		return nil, err
	}

	typ, err := tok.GetString(claimType)
	if err != nil {
		return nil, err
	}
	c.Type = TokenType(typ)

	uid, err := tok.GetString(claimUser)
	if err != nil {
		return nil, err
	}
	if c.UserID, err = uuid.Parse(uid); err != nil {
		return nil, fmt.Errorf("%s claim: %w", claimUser, err)
	}
	if sub, err := tok.GetSubject(); err != nil || sub != uid {
		return nil, fmt.Errorf("subject does not match %s claim", claimUser)
	}

	if sid, err := tok.GetString(claimSession); err == nil {
		id, err := uuid.Parse(sid)
		if err != nil {
			return nil, fmt.Errorf("%s claim: %w", claimSession, err)
		}
		c.SessionID = &id
	}
	return &c, nil
}

func newTokenID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
