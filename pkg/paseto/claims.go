package pasetotoken

import (
	"time"

	"github.com/google/uuid"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Custom claim names. Subject also carries the user id.
const (
	claimType    = "typ"
	claimUser    = "uid"
	claimSession = "sid"
)

// Claims is what the auth service reads from a verified token. SessionID
// is nil for tokens issued outside a login session.
type Claims struct {
	Type      TokenType
	UserID    uuid.UUID
	SessionID *uuid.UUID

	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (c *Claims) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}
