package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "STOREFRONT_APP_ENV"
	EnvPort   = "STOREFRONT_APP_PORT"

	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBName = "STOREFRONT_DB_NAME"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvJWTSecret              = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer              = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins             = "STOREFRONT_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "STOREFRONT_REFRESH_TOKEN_TTL_MINUTES"

	EnvGCSBucket      = "STOREFRONT_GCS_BUCKET_NAME"
	EnvSendgridAPIKey = "STOREFRONT_SENDGRID_API_KEY"
	EnvOTPTTL         = "STOREFRONT_OTP_TTL"
	EnvUseSQLite      = "STOREFRONT_USE_SQLITE"

	defaultSQLiteDSN = "file:storefront.db?cache=shared"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
