// Package password hashes account passwords with Argon2id in PHC string
// format and generates the initial passwords of new accounts.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidHash         = errors.New("invalid password hash format")
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
	ErrMismatch            = errors.New("password does not match")
	ErrTooShort            = fmt.Errorf("password must be at least %d characters", MinLength)
)

// MinLength applies to passwords chosen by people. Generated initial
// passwords use the configured length instead.
const MinLength = 12

// generatedAlphabet leaves out characters that are easy to misread when a
// password is copied from an email: 0 O o 1 l I.
const generatedAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Params are the Argon2id cost settings. Memory is in KiB.
type Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams follows the OWASP Argon2id baseline.
func DefaultParams() *Params {
	return &Params{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

var defaultParams = DefaultParams()

func (p *Params) derive(plain string, salt []byte) []byte {
	return argon2.IDKey([]byte(plain), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
}

// Hash hashes with DefaultParams.
func Hash(plain string) (string, error) {
	return HashWithParams(plain, defaultParams)
}

// HashWithParams returns $argon2id$v=19$m=..,t=..,p=..$salt$key.
func HashWithParams(plain string, p *Params) (string, error) {
	if p == nil {
		p = defaultParams
	}
	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	return encode(p, salt, p.derive(plain, salt)), nil
}

// Verify returns ErrMismatch for a wrong password and ErrInvalidHash or
// ErrIncompatibleVersion when hash cannot be read.
func Verify(hash, plain string) error {
	p, salt, key, err := decode(hash)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(key, p.derive(plain, salt)) != 1 {
		return ErrMismatch
	}
	return nil
}

func Match(hash, plain string) bool {
	return Verify(hash, plain) == nil
}

// NeedsRehash reports whether hash was created with costs other than want,
// or cannot be read at all. A nil want compares against DefaultParams.
func NeedsRehash(hash string, want *Params) bool {
	if want == nil {
		want = defaultParams
	}
	p, _, _, err := decode(hash)
	if err != nil {
		return true
	}
	return p.Memory != want.Memory ||
		p.Iterations != want.Iterations ||
		p.Parallelism != want.Parallelism ||
		p.KeyLength != want.KeyLength
}

// CheckPolicy rejects passwords shorter than MinLength runes.
func CheckPolicy(plain string) error {
	if utf8.RuneCountInString(plain) < MinLength {
		return ErrTooShort
	}
	return nil
}

// Generate returns a random password of length characters drawn from an
// alphabet without look-alike characters. Lengths below MinLength are
// raised to it.
func Generate(length int) string {
	if length < MinLength {
		length = MinLength
	}
	max := big.NewInt(int64(len(generatedAlphabet)))
	var b strings.Builder
	b.Grow(length)
	for range length {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(fmt.Errorf("password: read random: %w", err))
		}
		b.WriteByte(generatedAlphabet[n.Int64()])
	}
	return b.String()
}

func encode(p *Params, salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

func decode(hash string) (*Params, []byte, []byte, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return nil, nil, nil, ErrIncompatibleVersion
	}

	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return nil, nil, nil, ErrInvalidHash
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, nil, ErrInvalidHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, nil, nil, ErrInvalidHash
	}
	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))
	return &p, salt, key, nil
}
