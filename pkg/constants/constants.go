package constants

const (
	ConfigName   = "config"
	ConfigFormat = "yaml"
	EnvPrefix    = "ODONTO"

	ServiceName = "odonto_backend"

	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	// Object storage prefixes.
	PhotoKeyPrefix   = "photos"
	ConsentKeyPrefix = "consents"
	AdKeyPrefix      = "ads"

	MaxUploadBytes = 15 << 20

	DefaultPageSize = 20
	MaxPageSize     = 100
)
