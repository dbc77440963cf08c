package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds every application setting.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Session   SessionConfig   `mapstructure:"session"`
	Events    EventsConfig    `mapstructure:"events"`
	Mail      MailConfig      `mapstructure:"mail"`
	Log       LogConfig       `mapstructure:"log"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            string `mapstructure:"port"`
	ReadTimeout     int    `mapstructure:"read_timeout"`  // seconds
	WriteTimeout    int    `mapstructure:"write_timeout"` // seconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
	CookieDomain    string `mapstructure:"cookie_domain"`
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
	MigrationsPath  string `mapstructure:"migrations_path"`
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	LogSQL   bool   `mapstructure:"log_sql"`
}

// RedisConfig describes a single, sentinel or cluster deployment.
type RedisConfig struct {
	// Mode is "single", "sentinel" or "cluster". Defaults to "single".
	Mode string `mapstructure:"mode"`

	// Addrs is used by every mode; single mode takes the first entry.
	Addrs []string `mapstructure:"addrs"`

	// Addr is the single mode address when Addrs is empty.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName is required in sentinel mode.
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"` // ms
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"` // ms

	// PubSub fans websocket events out across API instances.
	PubSub bool `mapstructure:"pubsub"`
}

// JWTConfig configures access tokens and websocket tickets.
type JWTConfig struct {
	Secret            string `mapstructure:"secret"`
	ExpirationHrs     int    `mapstructure:"expiration_hrs"`
	WSTicketExpirySec int    `mapstructure:"ws_ticket_expiry_sec"`
}

// SessionConfig tunes server-driven test sessions. Values are seconds unless
// noted.
type SessionConfig struct {
	CountdownIntervalMs int `mapstructure:"countdown_interval_ms"`
	AutosaveInterval    int `mapstructure:"autosave_interval"`
	SaveTimeout         int `mapstructure:"save_timeout"`
	TimeWarning         int `mapstructure:"time_warning"`
	FetchTimeout        int `mapstructure:"fetch_timeout"`
	SubmitTimeout       int `mapstructure:"submit_timeout"`
	SubmitLockTTL       int `mapstructure:"submit_lock_ttl"`
	EndedRetention      int `mapstructure:"ended_retention"`
	SubjectsCacheTTL    int `mapstructure:"subjects_cache_ttl"`
}

// EventsConfig selects the attempt event transport.
type EventsConfig struct {
	Driver  string   `mapstructure:"driver"` // gochannel or kafka
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// MailConfig enables result emails when APIKey is set.
type MailConfig struct {
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
}

// LogConfig enables a rotating log file next to stdout when File is set.
type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// CORSConfig lists the browser origins allowed to call the API and open websockets.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig configures the in-process per-user limiter of the autosave endpoint.
type RateLimitConfig struct {
	ProgressPerSecond float64 `mapstructure:"progress_per_second"`
	ProgressBurst     int     `mapstructure:"progress_burst"`
}

// PostgresConnectionString builds the gorm DSN.
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// PostgresURL builds the URL form used by golang-migrate.
func (d *DatabaseConfig) PostgresURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// TokenExpiry returns the access token lifetime.
func (j JWTConfig) TokenExpiry() time.Duration {
	return time.Duration(j.ExpirationHrs) * time.Hour
}

// WSTicketExpiry returns the websocket ticket lifetime.
func (j JWTConfig) WSTicketExpiry() time.Duration {
	return time.Duration(j.WSTicketExpirySec) * time.Second
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func (s SessionConfig) CountdownIntervalDuration() time.Duration {
	return time.Duration(s.CountdownIntervalMs) * time.Millisecond
}

func (s SessionConfig) AutosaveIntervalDuration() time.Duration { return seconds(s.AutosaveInterval) }
func (s SessionConfig) SaveTimeoutDuration() time.Duration { return seconds(s.SaveTimeout) }
func (s SessionConfig) FetchTimeoutDuration() time.Duration { return seconds(s.FetchTimeout) }
func (s SessionConfig) SubmitTimeoutDuration() time.Duration { return seconds(s.SubmitTimeout) }
func (s SessionConfig) SubmitLockTTLDuration() time.Duration { return seconds(s.SubmitLockTTL) }
func (s SessionConfig) EndedRetentionDuration() time.Duration { return seconds(s.EndedRetention) }
func (s SessionConfig) SubjectsCacheTTLDuration() time.Duration { return seconds(s.SubjectsCacheTTL) }

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.read_timeout", 15)
	vip.SetDefault("server.write_timeout", 30)
	vip.SetDefault("server.shutdown_timeout", 15)
	vip.SetDefault("server.auto_migrate", true)
	vip.SetDefault("server.migrations_path", "migrations")

	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")

	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("redis.addr", "localhost:6379")

	vip.SetDefault("jwt.expiration_hrs", 24*30)
	vip.SetDefault("jwt.ws_ticket_expiry_sec", 60)

	vip.SetDefault("session.countdown_interval_ms", 1000)
	vip.SetDefault("session.autosave_interval", 30)
	vip.SetDefault("session.save_timeout", 5)
	vip.SetDefault("session.time_warning", 300)
	vip.SetDefault("session.fetch_timeout", 10)
	vip.SetDefault("session.submit_timeout", 15)
	vip.SetDefault("session.submit_lock_ttl", 60)
	vip.SetDefault("session.ended_retention", 600)
	vip.SetDefault("session.subjects_cache_ttl", 300)

	vip.SetDefault("events.driver", "gochannel")
	vip.SetDefault("events.topic", "jee-prep.attempts")

	vip.SetDefault("mail.from", "JEE Prep <results@jeeprep.app>")

	vip.SetDefault("log.max_size_mb", 50)
	vip.SetDefault("log.max_backups", 5)
	vip.SetDefault("log.max_age_days", 28)
	vip.SetDefault("log.compress", true)

	vip.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})

	vip.SetDefault("ratelimit.progress_per_second", 1.0)
	vip.SetDefault("ratelimit.progress_burst", 5)
}

func bindEnv(vip *viper.Viper) {
	vip.BindEnv("server.port", "SERVER_PORT")
	vip.BindEnv("server.cookie_domain", "SERVER_COOKIE_DOMAIN")
	vip.BindEnv("server.auto_migrate", "SERVER_AUTO_MIGRATE")
	vip.BindEnv("server.migrations_path", "MIGRATIONS_PATH")

	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")
	vip.BindEnv("database.log_sql", "DATABASE_LOG_SQL")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")
	vip.BindEnv("redis.pubsub", "REDIS_PUBSUB")

	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.expiration_hrs", "JWT_EXPIRATION_HRS")
	vip.BindEnv("jwt.ws_ticket_expiry_sec", "JWT_WS_TICKET_EXPIRY_SEC")

	vip.BindEnv("session.autosave_interval", "SESSION_AUTOSAVE_INTERVAL")
	vip.BindEnv("session.time_warning", "SESSION_TIME_WARNING")
	vip.BindEnv("session.submit_lock_ttl", "SESSION_SUBMIT_LOCK_TTL")

	vip.BindEnv("events.driver", "EVENTS_DRIVER")
	vip.BindEnv("events.brokers", "EVENTS_BROKERS")
	vip.BindEnv("events.topic", "EVENTS_TOPIC")

	vip.BindEnv("mail.resend_api_key", "RESEND_API_KEY")
	vip.BindEnv("mail.from", "MAIL_FROM")

	vip.BindEnv("log.file", "LOG_FILE")

	vip.BindEnv("cors.allowed_origins", "CORS_ALLOWED_ORIGINS")
}

// Load reads configPath when it exists and overlays the bound environment
// variables. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	vip := viper.New()
	setDefaults(vip)
	bindEnv(vip)

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || os.IsNotExist(err) {
				log.Printf("[Config] %s not found, using environment and defaults", configPath)
			} else {
				log.Printf("[Config] Warning: could not read %s: %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("[Config] database=%s@%s:%s/%s redis=%s(%s) events=%s jwt_expiry=%dh mail=%t log_file=%q",
			cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName,
			cfg.Redis.Addr, cfg.Redis.Mode, cfg.Events.Driver, cfg.JWT.ExpirationHrs,
			cfg.Mail.ResendAPIKey != "", cfg.Log.File)
	}

	if err := cfg.Validate(os.Getenv("GIN_MODE") == "release"); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate(production bool) error {
	if len(c.JWT.Secret) < 32 {
		return errors.New("jwt secret must be at least 32 characters (check JWT_SECRET env var)")
	}
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return errors.New("database configuration (host, dbname, user) is incomplete (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if production && c.Database.Password == "" {
		return errors.New("database password is required in release mode (check DATABASE_PASSWORD env var)")
	}
	if c.JWT.ExpirationHrs <= 0 || c.JWT.WSTicketExpirySec <= 0 {
		return errors.New("jwt expiration_hrs and ws_ticket_expiry_sec must be positive")
	}
	if c.Session.CountdownIntervalMs <= 0 || c.Session.AutosaveInterval <= 0 {
		return errors.New("session countdown and autosave intervals must be positive")
	}
	if c.Events.Driver == "kafka" && len(c.Events.Brokers) == 0 {
		return errors.New("events driver kafka requires brokers (check EVENTS_BROKERS env var)")
	}
	return nil
}
