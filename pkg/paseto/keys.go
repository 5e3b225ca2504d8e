package pasetotoken

import (
	"strings"

	paseto "aidanwoods.dev/go-paseto"
)

type Mode string

const (
	ModeLocal  Mode = "local"  // v4.local, encrypted with a shared key
	ModePublic Mode = "public" // v4.public, signed with an Ed25519 key
)

// Keys is the key material for one mode. The public key of ModePublic is
// always derived from the secret key.
type Keys struct {
	Mode Mode

	Symmetric *paseto.V4SymmetricKey

	Secret *paseto.V4AsymmetricSecretKey
	Public *paseto.V4AsymmetricPublicKey
}

type KeyStrings struct {
	Mode Mode

	SymmetricHex string
	SecretHex    string
	// PublicHex is optional. When set it must belong to SecretHex.
	PublicHex string
}

// LoadKeys parses hex-encoded keys. The service both issues and verifies
// its tokens, so every mode needs a key that can sign or encrypt.
func LoadKeys(in KeyStrings) (Keys, error) {
	switch in.Mode {
	case ModeLocal:
		raw := strings.TrimSpace(in.SymmetricHex)
		if raw == "" {
			return Keys{}, ErrConfig{Key: "local_key_hex", Msg: "required in local mode"}
		}
		k, err := paseto.V4SymmetricKeyFromHex(raw)
		if err != nil {
			return Keys{}, ErrConfig{Key: "local_key_hex", Msg: err.Error()}
		}
		return Keys{Mode: ModeLocal, Symmetric: &k}, nil

	case ModePublic:
		raw := strings.TrimSpace(in.SecretHex)
		if raw == "" {
			return Keys{}, ErrConfig{Key: "secret_key_hex", Msg: "required in public mode"}
		}
		sk, err := paseto.NewV4AsymmetricSecretKeyFromHex(raw)
		if err != nil {
			return Keys{}, ErrConfig{Key: "secret_key_hex", Msg: err.Error()}
		}
		pk := sk.Public()

		if pub := strings.TrimSpace(in.PublicHex); pub != "" {
			given, err := paseto.NewV4AsymmetricPublicKeyFromHex(pub)
			if err != nil {
				return Keys{}, ErrConfig{Key: "public_key_hex", Msg: err.Error()}
			}
			if given.ExportHex() != pk.ExportHex() {
				return Keys{}, ErrConfig{Key: "public_key_hex", Msg: "does not match secret_key_hex"}
			}
		}
		return Keys{Mode: ModePublic, Secret: &sk, Public: &pk}, nil

	default:
		return Keys{}, ErrConfig{Key: "mode", Msg: "must be local or public, got " + string(in.Mode)}
	}
}

func NewLocalKeys() Keys {
	k := paseto.NewV4SymmetricKey()
	return Keys{Mode: ModeLocal, Symmetric: &k}
}

func NewPublicKeys() Keys {
	sk := paseto.NewV4AsymmetricSecretKey()
	pk := sk.Public()
	return Keys{Mode: ModePublic, Secret: &sk, Public: &pk}
}

// Export returns the config settings that reproduce k.
func (k Keys) Export() map[string]string {
	out := map[string]string{"mode": string(k.Mode)}
	if k.Symmetric != nil {
		out["local_key_hex"] = k.Symmetric.ExportHex()
	}
	if k.Secret != nil {
		out["secret_key_hex"] = k.Secret.ExportHex()
	}
	if k.Public != nil {
		out["public_key_hex"] = k.Public.ExportHex()
	}
	return out
}
