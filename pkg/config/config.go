package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Realtime      RealtimeConfig
	Mail          MailConfig
	FeatureFlags  FeatureFlagsConfig
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

type AppConfig struct {
	Env          string `envconfig:"CUSTCONNECT_APP_ENV" required:"true"`
	Port         string `envconfig:"CUSTCONNECT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CUSTCONNECT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CUSTCONNECT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CUSTCONNECT_DB_DSN"`
	Driver string `envconfig:"CUSTCONNECT_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"CUSTCONNECT_DB_HOST"`
	Port     int    `envconfig:"CUSTCONNECT_DB_PORT" default:"5432"`
	User     string `envconfig:"CUSTCONNECT_DB_USER"`
	Password string `envconfig:"CUSTCONNECT_DB_PASSWORD"`
	Name     string `envconfig:"CUSTCONNECT_DB_NAME"`
	SSLMode  string `envconfig:"CUSTCONNECT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CUSTCONNECT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CUSTCONNECT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CUSTCONNECT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CUSTCONNECT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CUSTCONNECT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CUSTCONNECT_REDIS_ADDR"`
	Password     string        `envconfig:"CUSTCONNECT_REDIS_PASSWORD"`
	DB           int           `envconfig:"CUSTCONNECT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CUSTCONNECT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CUSTCONNECT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CUSTCONNECT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CUSTCONNECT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CUSTCONNECT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CUSTCONNECT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CUSTCONNECT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CUSTCONNECT_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CUSTCONNECT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CUSTCONNECT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CUSTCONNECT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CUSTCONNECT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CUSTCONNECT_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"CUSTCONNECT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"CUSTCONNECT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"CUSTCONNECT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"CUSTCONNECT_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"CUSTCONNECT_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"CUSTCONNECT_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type RealtimeConfig struct {
	WriteTimeout    time.Duration `envconfig:"CUSTCONNECT_REALTIME_WRITE_TIMEOUT" default:"10s"`
	PongTimeout     time.Duration `envconfig:"CUSTCONNECT_REALTIME_PONG_TIMEOUT" default:"60s"`
	PingInterval    time.Duration `envconfig:"CUSTCONNECT_REALTIME_PING_INTERVAL" default:"25s"`
	SendBufferSize  int           `envconfig:"CUSTCONNECT_REALTIME_SEND_BUFFER" default:"64"`
	ReadLimitBytes  int64         `envconfig:"CUSTCONNECT_REALTIME_READ_LIMIT_BYTES" default:"4096"`
	AllowedOrigins  []string      `envconfig:"CUSTCONNECT_REALTIME_ALLOWED_ORIGINS"`
	PubSubChannel   string        `envconfig:"CUSTCONNECT_REALTIME_PUBSUB_CHANNEL" default:"cc:realtime:events"`
	PresenceKeyTTL  time.Duration `envconfig:"CUSTCONNECT_REALTIME_PRESENCE_TTL" default:"2m"`
	DisableFanout   bool          `envconfig:"CUSTCONNECT_REALTIME_DISABLE_FANOUT" default:"false"`
	MaxJoinedRooms  int           `envconfig:"CUSTCONNECT_REALTIME_MAX_JOINED_ROOMS" default:"8"`
	ShutdownTimeout time.Duration `envconfig:"CUSTCONNECT_REALTIME_SHUTDOWN_TIMEOUT" default:"5s"`
}

type MailConfig struct {
	SendgridAPIKey string        `envconfig:"CUSTCONNECT_SENDGRID_API_KEY"`
	FromEmail      string        `envconfig:"CUSTCONNECT_MAIL_FROM_EMAIL" default:"no-reply@custconnect.app"`
	FromName       string        `envconfig:"CUSTCONNECT_MAIL_FROM_NAME" default:"CustConnect"`
	OTPLength      int           `envconfig:"CUSTCONNECT_MAIL_OTP_LENGTH" default:"6"`
	OTPTTL         time.Duration `envconfig:"CUSTCONNECT_MAIL_OTP_TTL" default:"15m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CUSTCONNECT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CUSTCONNECT_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
