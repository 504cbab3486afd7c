package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	HTTP         HTTPConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	OCR          OCRConfig
	Evidence     EvidenceConfig
	Dashboard    DashboardConfig
	Sweep        SweepConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOCRFunction reads only the settings the OCR function needs so the function
// can be deployed without database or redis configuration.
func LoadOCRFunction() (*OCRFunctionConfig, error) {
	var cfg OCRFunctionConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing ocr function config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CUPSHUP_APP_ENV" required:"true"`
	Port         string `envconfig:"CUPSHUP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CUPSHUP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CUPSHUP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// HTTPConfig bounds the API server.
type HTTPConfig struct {
	AllowedOrigins  []string      `envconfig:"CUPSHUP_CORS_ALLOWED_ORIGINS"`
	ReadTimeout     time.Duration `envconfig:"CUPSHUP_HTTP_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"CUPSHUP_HTTP_WRITE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"CUPSHUP_HTTP_SHUTDOWN_TIMEOUT" default:"15s"`
}

type DBConfig struct {
	DSN    string `envconfig:"CUPSHUP_DB_DSN"`
	Driver string `envconfig:"CUPSHUP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CUPSHUP_DB_HOST"`
	LegacyPort     int    `envconfig:"CUPSHUP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CUPSHUP_DB_USER"`
	LegacyPassword string `envconfig:"CUPSHUP_DB_PASSWORD"`
	LegacyName     string `envconfig:"CUPSHUP_DB_NAME"`
	LegacySSLMode  string `envconfig:"CUPSHUP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CUPSHUP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CUPSHUP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CUPSHUP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CUPSHUP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver is selected (local development only).
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"CUPSHUP_REDIS_URL"`
	Address      string        `envconfig:"CUPSHUP_REDIS_ADDR"`
	Password     string        `envconfig:"CUPSHUP_REDIS_PASSWORD"`
	DB           int           `envconfig:"CUPSHUP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CUPSHUP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CUPSHUP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CUPSHUP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CUPSHUP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CUPSHUP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig holds the verification settings for tokens minted by the auth backend.
type JWTConfig struct {
	Secret   string `envconfig:"CUPSHUP_JWT_SECRET" required:"true"`
	Issuer   string `envconfig:"CUPSHUP_JWT_ISSUER"`
	Audience string `envconfig:"CUPSHUP_JWT_AUDIENCE" default:"authenticated"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CUPSHUP_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CUPSHUP_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"CUPSHUP_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CUPSHUP_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName    string `envconfig:"CUPSHUP_GCS_BUCKET_NAME" default:"order_images"`
	PublicBaseURL string `envconfig:"CUPSHUP_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
	CacheMaxAge   int    `envconfig:"CUPSHUP_GCS_CACHE_MAX_AGE" default:"3600"`
}

// CacheControl renders the Cache-Control header applied to uploaded objects.
func (g GCSConfig) CacheControl() string {
	if g.CacheMaxAge <= 0 {
		return "no-cache"
	}
	return fmt.Sprintf("max-age=%d", g.CacheMaxAge)
}

// OCRConfig configures how the pipeline reaches the OCR function.
type OCRConfig struct {
	FunctionBaseURL string        `envconfig:"CUPSHUP_OCR_FUNCTION_BASE_URL" required:"true"`
	FunctionName    string        `envconfig:"CUPSHUP_OCR_FUNCTION_NAME" default:"extract-order-id"`
	APIKey          string        `envconfig:"CUPSHUP_OCR_FUNCTION_API_KEY"`
	Timeout         time.Duration `envconfig:"CUPSHUP_OCR_TIMEOUT" default:"60s"`
}

// FunctionURL joins the base URL and function name.
func (o OCRConfig) FunctionURL() string {
	base := strings.TrimRight(strings.TrimSpace(o.FunctionBaseURL), "/")
	name := strings.Trim(strings.TrimSpace(o.FunctionName), "/")
	if name == "" {
		return base
	}
	return base + "/" + name
}

// OCRFunctionConfig is loaded by the OCR function binary only.
type OCRFunctionConfig struct {
	Env               string        `envconfig:"CUPSHUP_APP_ENV" default:"dev"`
	Port              string        `envconfig:"CUPSHUP_OCR_FUNCTION_PORT" default:"8090"`
	LogLevel          string        `envconfig:"CUPSHUP_LOG_LEVEL" default:"info"`
	CredentialsEnvVar string        `envconfig:"CUPSHUP_VISION_CREDENTIALS_ENV" default:"CUPSHUP_VISION_CREDENTIALS"`
	FetchTimeout      time.Duration `envconfig:"CUPSHUP_OCR_FETCH_TIMEOUT" default:"30s"`
	MaxImageMB        int           `envconfig:"CUPSHUP_OCR_MAX_IMAGE_MB" default:"20"`
}

// EvidenceConfig bounds evidence uploads.
type EvidenceConfig struct {
	MaxUploadMB int `envconfig:"CUPSHUP_EVIDENCE_MAX_UPLOAD_MB" default:"10"`
}

// MaxUploadBytes converts the configured megabytes into bytes.
func (e EvidenceConfig) MaxUploadBytes() int64 {
	if e.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return int64(e.MaxUploadMB) << 20
}

type DashboardConfig struct {
	CacheTTL time.Duration `envconfig:"CUPSHUP_DASHBOARD_CACHE_TTL" default:"60s"`
}

type SweepConfig struct {
	RetentionDays int           `envconfig:"CUPSHUP_SWEEP_RETENTION_DAYS" default:"7"`
	Interval      time.Duration `envconfig:"CUPSHUP_SWEEP_INTERVAL" default:"24h"`
	DryRun        bool          `envconfig:"CUPSHUP_SWEEP_DRY_RUN" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
