package authorize

import "github.com/Alijeyrad/odonto_backend/config"

// Config holds configuration for the authorization system
type Config struct {
	// CasbinModelPath is the path to the Casbin model configuration file.
	// Empty selects the built-in model.
	CasbinModelPath string

	// EnableAudit logs every authorization decision and role change
	EnableAudit bool

	// PolicySyncEnabled reloads policies when another replica changes them
	PolicySyncEnabled bool

	// HealthCheckEnabled ties the readiness probe to policy loading
	HealthCheckEnabled bool
}

// FromCentralConfig converts central config.AuthorizationConfig to package Config
func FromCentralConfig(c config.AuthorizationConfig) Config {
	return Config{
		CasbinModelPath:    c.CasbinModelPath,
		EnableAudit:        c.EnableAudit,
		PolicySyncEnabled:  c.PolicySyncEnabled,
		HealthCheckEnabled: c.HealthCheckEnabled,
	}
}
