package pasetotoken

import (
	"log/slog"
	"time"

	"github.com/Alijeyrad/odonto_backend/config"
)

// NewPasetoManager builds the token manager from the authentication
// section. Outside production a missing key is replaced by a throwaway
// one, so tokens do not survive a restart.
func NewPasetoManager(cfg *config.Config) (*Manager, error) {
	p := cfg.Authentication.Paseto
	mode := Mode(p.Mode)

	var (
		keys Keys
		err  error
	)
	if !cfg.IsProduction() && p.LocalKeyHex == "" && p.SecretKeyHex == "" {
		slog.Warn("no paseto key configured, using an ephemeral key", "mode", mode)
		switch mode {
		case ModePublic:
			keys = NewPublicKeys()
		default:
			mode, keys = ModeLocal, NewLocalKeys()
		}
	} else {
		keys, err = LoadKeys(KeyStrings{
			Mode:         mode,
			SymmetricHex: p.LocalKeyHex,
			SecretHex:    p.SecretKeyHex,
			PublicHex:    p.PublicKeyHex,
		})
		if err != nil {
			return nil, err
		}
	}

	return New(Config{
		Mode:       mode,
		Issuer:     p.Issuer,
		Audience:   p.Audience,
		AccessTTL:  time.Duration(p.AccessTTLMinutes) * time.Minute,
		RefreshTTL: time.Duration(p.RefreshTTLDays) * 24 * time.Hour,
	}, keys)
}
