package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"

	"systempay-gateway/pkg/apperror"
)

var siteIDRe = regexp.MustCompile(`^\d{8}$`)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

// DatabaseConfig selects the ledger backend. Driver "postgres" is the
// production ledger; "sqlite" is an embedded ledger for sandbox use.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres, sqlite
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// GatewayConfig is the immutable contract with the hosted payment page.
// It is validated once at load time; a bad site id or action mode must
// fail at startup, never on a live request.
type GatewayConfig struct {
	SandboxMode     bool   `mapstructure:"sandbox_mode"`
	SiteID          string `mapstructure:"site_id"`     // exactly 8 digits, assigned by the gateway
	Certificate     string `mapstructure:"certificate"` // shared signing secret
	ActionMode      string `mapstructure:"action_mode"` // INTERACTIVE or SILENT
	Version         string `mapstructure:"version"`     // protocol version sent as vads_version
	Algorithm       string `mapstructure:"algorithm"`   // sha1 (legacy) or hmac-sha256
	Currency        string `mapstructure:"currency"`    // default ISO 4217 numeric code
	PaymentURL      string `mapstructure:"payment_url"` // hosted payment page endpoint
	ReturnURL       string `mapstructure:"return_url"`  // buyer return on success
	CancelURL       string `mapstructure:"cancel_url"`  // buyer return on cancel/refusal
	PaymentConfig   string `mapstructure:"payment_config"`
	ValidationMode  string `mapstructure:"validation_mode"`
	RedirectTimeout int    `mapstructure:"redirect_timeout"` // seconds before auto-redirect
	CustomContracts string `mapstructure:"custom_contracts"`
}

// ContextMode maps the sandbox flag to the gateway's vads_ctx_mode value.
func (g GatewayConfig) ContextMode() string {
	if g.SandboxMode {
		return "TEST"
	}
	return "PRODUCTION"
}

// Validate checks the gateway contract fields.
func (g GatewayConfig) Validate() error {
	if !siteIDRe.MatchString(g.SiteID) {
		return apperror.ErrInvalidConfiguration(fmt.Sprintf("site_id must contain exactly 8 digits, got %q", g.SiteID))
	}
	if g.ActionMode != "INTERACTIVE" && g.ActionMode != "SILENT" {
		return apperror.ErrInvalidConfiguration(fmt.Sprintf("action_mode %q is not supported", g.ActionMode))
	}
	if g.Algorithm != "sha1" && g.Algorithm != "hmac-sha256" {
		return apperror.ErrInvalidConfiguration(fmt.Sprintf("algorithm %q is not supported", g.Algorithm))
	}
	if g.Certificate == "" {
		return apperror.ErrInvalidConfiguration("certificate (signing secret) must be set")
	}
	for _, c := range g.Currency {
		if c < '0' || c > '9' {
			return apperror.ErrInvalidConfiguration(fmt.Sprintf("currency must be a numeric ISO 4217 code, got %q", g.Currency))
		}
	}
	return nil
}

// DashboardConfig configures the operator dashboard (transaction audit UI).
type DashboardConfig struct {
	Username     string        `mapstructure:"username"`
	PasswordHash string        `mapstructure:"password_hash"` // argon2id encoded hash
	JWTSecret    string        `mapstructure:"jwt_secret"`
	JWTExpiry    time.Duration `mapstructure:"jwt_expiry"`
	JWTIssuer    string        `mapstructure:"jwt_issuer"`
}

type LogConfig struct {
	Service string `mapstructure:"service"` // service field stamped on every entry
	Level   string `mapstructure:"level"`   // debug, info, warn, error
	Pretty  bool   `mapstructure:"pretty"`  // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: SPGE_.
// Nested keys use underscore: SPGE_GATEWAY_SITE_ID, SPGE_DATABASE_HOST, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "systempay")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.sqlite_path", "./systempay.db")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("gateway.sandbox_mode", true)
	v.SetDefault("gateway.site_id", "")
	v.SetDefault("gateway.certificate", "")
	v.SetDefault("gateway.action_mode", "INTERACTIVE")
	v.SetDefault("gateway.version", "V2")
	v.SetDefault("gateway.algorithm", "sha1")
	v.SetDefault("gateway.currency", "978") // EUR
	v.SetDefault("gateway.payment_url", "https://paiement.systempay.fr/vads-payment/")
	v.SetDefault("gateway.return_url", "")
	v.SetDefault("gateway.cancel_url", "")
	v.SetDefault("gateway.payment_config", "SINGLE")
	v.SetDefault("gateway.validation_mode", "")
	v.SetDefault("gateway.redirect_timeout", 5)
	v.SetDefault("gateway.custom_contracts", "")
	v.SetDefault("dashboard.username", "")
	v.SetDefault("dashboard.password_hash", "")
	v.SetDefault("dashboard.jwt_secret", "")
	v.SetDefault("dashboard.jwt_expiry", "24h")
	v.SetDefault("dashboard.jwt_issuer", "systempay-gateway")
	v.SetDefault("log.service", "systempay-gateway")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: SPGE_GATEWAY_SITE_ID -> gateway.site_id
	v.SetEnvPrefix("SPGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Gateway.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
