package config

const (
	EnvPrefix = "INDSTORE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvAppEnv       = "INDSTORE_APP_ENV"
	EnvPort         = "INDSTORE_APP_PORT"
	EnvLogLevel     = "INDSTORE_LOG_LEVEL"
	EnvDBDSN        = "INDSTORE_DB_DSN"
	EnvDBDriver     = "INDSTORE_DB_DRIVER"
	EnvRedisURL     = "INDSTORE_REDIS_URL"
	EnvStripeAPIKey = "INDSTORE_STRIPE_API_KEY"
	EnvStripeEnv    = "INDSTORE_STRIPE_ENV"
	EnvCatalogURL   = "INDSTORE_CATALOG_URL"
	EnvSnapshotKey  = "INDSTORE_SNAPSHOT_KEY"
	EnvSnapshotPath = "INDSTORE_SNAPSHOT_PATH"
)
