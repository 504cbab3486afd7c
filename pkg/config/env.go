package config

const EnvPrefix = "CUPSHUP"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

// Environment variable names referenced outside struct tags (tests, error messages).
const (
	EnvAppEnv   = "CUPSHUP_APP_ENV"
	EnvPort     = "CUPSHUP_APP_PORT"
	EnvLogLevel = "CUPSHUP_LOG_LEVEL"

	EnvDBDSN    = "CUPSHUP_DB_DSN"
	EnvDBDriver = "CUPSHUP_DB_DRIVER"
	EnvDBHost   = "CUPSHUP_DB_HOST"
	EnvDBUser   = "CUPSHUP_DB_USER"
	EnvDBName   = "CUPSHUP_DB_NAME"

	EnvRedisURL = "CUPSHUP_REDIS_URL"

	EnvJWTSecret = "CUPSHUP_JWT_SECRET"
	EnvJWTIssuer = "CUPSHUP_JWT_ISSUER"

	EnvGCPProjectID = "CUPSHUP_GCP_PROJECT_ID"
	EnvGCSBucket    = "CUPSHUP_GCS_BUCKET_NAME"

	EnvOCRFunctionBaseURL = "CUPSHUP_OCR_FUNCTION_BASE_URL"
	EnvOCRFunctionName    = "CUPSHUP_OCR_FUNCTION_NAME"
	EnvOCRTimeout         = "CUPSHUP_OCR_TIMEOUT"

	EnvVisionCredentials = "CUPSHUP_VISION_CREDENTIALS"
	EnvOCRFunctionPort   = "CUPSHUP_OCR_FUNCTION_PORT"

	EnvSweepRetentionDays = "CUPSHUP_SWEEP_RETENTION_DAYS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
