package config

// EnvPrefix scopes every environment variable the service reads.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "FLOWERSHOP_APP_ENV"
	EnvPort     = "FLOWERSHOP_APP_PORT"
	EnvRedisURL = "FLOWERSHOP_REDIS_URL"

	EnvDBDSN  = "FLOWERSHOP_DB_DSN"
	EnvDBHost = "FLOWERSHOP_DB_HOST"
	EnvDBUser = "FLOWERSHOP_DB_USER"
	EnvDBName = "FLOWERSHOP_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
