package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names so
// the prefix only matters for unannotated additions.
const EnvPrefix = "CUSTCONNECT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "CUSTCONNECT_DB_DSN"
	EnvDBHost = "CUSTCONNECT_DB_HOST"
	EnvDBUser = "CUSTCONNECT_DB_USER"
	EnvDBName = "CUSTCONNECT_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
