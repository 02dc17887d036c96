package config

const (
	EnvPrefix = "STAKELINE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "STAKELINE_DB_DSN"
	EnvDBHost = "STAKELINE_DB_HOST"
	EnvDBUser = "STAKELINE_DB_USER"
	EnvDBName = "STAKELINE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
