package password

import "github.com/Alijeyrad/odonto_backend/config"

// lowMemoryKiB caps Argon2id memory when low memory mode is on. One extra
// iteration keeps the cost comparable.
const lowMemoryKiB = 32 * 1024

// Config is the password section of the config file.
type Config struct {
	MemoryKiB     uint32
	Iterations    uint32
	Parallelism   uint8
	SaltLength    uint32
	KeyLength     uint32
	LowMemoryMode bool
}

// FromCentralConfig fills unset fields from DefaultParams. Only argon2id
// is supported, so the algorithm setting is not carried over.
func FromCentralConfig(c config.PasswordConfig) Config {
	def := DefaultParams()
	out := Config{
		MemoryKiB:     c.MemoryKiB,
		Iterations:    c.Iterations,
		Parallelism:   c.Parallelism,
		SaltLength:    c.SaltLength,
		KeyLength:     c.KeyLength,
		LowMemoryMode: c.LowMemoryMode,
	}
	if out.MemoryKiB == 0 {
		out.MemoryKiB = def.Memory
	}
	if out.Iterations == 0 {
		out.Iterations = def.Iterations
	}
	if out.Parallelism == 0 {
		out.Parallelism = def.Parallelism
	}
	if out.SaltLength == 0 {
		out.SaltLength = def.SaltLength
	}
	if out.KeyLength == 0 {
		out.KeyLength = def.KeyLength
	}
	return out
}

func (c Config) ToParams() *Params {
	p := &Params{
		Memory:      c.MemoryKiB,
		Iterations:  c.Iterations,
		Parallelism: c.Parallelism,
		SaltLength:  c.SaltLength,
		KeyLength:   c.KeyLength,
	}
	if c.LowMemoryMode && p.Memory > lowMemoryKiB {
		p.Memory = lowMemoryKiB
		p.Iterations++
	}
	return p
}
