// Package config handles configuration for the server component,
// including defaults, JSON overlay, environment variables and command-line flags.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// DefaultSecretKey is the development signing secret. The server refuses to
// start with it in production.
const DefaultSecretKey = "your-super-secret-jwt-key-change-in-production"

// Config holds runtime settings for the admin gate server.
//
// Fields:
//   - HTTPAddr / GRPCAddr: bind addresses for the HTTP gate and the gRPC health endpoint.
//   - SecretKey: HMAC secret for signing session JWTs (HS256). Do not use the default in prod.
//   - TokenValidityDuration: session token and cookie lifetime.
//   - DB*: PostgreSQL connection parts; DatabaseDSN, when set, wins over them.
//   - Environment: "production" turns on Secure cookies.
//   - UpstreamURL: dashboard front-end that receives requests passing the gate.
type Config struct {
	HTTPAddr              string
	GRPCAddr              string
	SecretKey             string
	TokenValidityDuration time.Duration

	DatabaseDSN  string
	DBHost       string
	DBPort       int
	DBUser       string
	DBPassword   string
	DBName       string
	DBSSLMode    string
	MaxOpenConns int
	MaxIdleConns int

	RunMigrations bool

	Environment     string
	UpstreamURL     string
	LogLevel        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// LoadDefaults populates Config with local development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":3000"
	c.GRPCAddr = ":50051"
	c.SecretKey = DefaultSecretKey
	c.TokenValidityDuration = 24 * time.Hour
	c.DatabaseDSN = ""
	c.DBHost = "localhost"
	c.DBPort = 5432
	c.DBUser = "admin"
	c.DBPassword = "smartscan_secure_password"
	c.DBName = "smartscan_db"
	c.DBSSLMode = "disable"
	c.MaxOpenConns = 10
	c.MaxIdleConns = 5
	c.RunMigrations = true
	c.Environment = EnvDevelopment
	c.UpstreamURL = ""
	c.LogLevel = "info"
	c.RequestTimeout = 15 * time.Second
	c.ShutdownTimeout = 10 * time.Second
}

// LoadConfig builds a Config from the process arguments and environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], os.LookupEnv)
}

// Load applies defaults, then overlays values from an optional JSON file
// (-c/-config), the environment as seen through lookup, and finally the
// command-line flags in args.
func Load(args []string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseEnv(cfg, lookup); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if cfg.TokenValidityDuration <= 0 {
		return nil, fmt.Errorf("token validity must be positive, got %s", cfg.TokenValidityDuration)
	}
	return cfg, nil
}

// SigningKey returns the current JWT secret.
func (c *Config) SigningKey() []byte {
	return []byte(c.SecretKey)
}

// IsProduction reports whether cookies must be marked Secure.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// DSN returns the PostgreSQL connection string for pgx.
func (c *Config) DSN() string {
	if c.DatabaseDSN != "" {
		return c.DatabaseDSN
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:   "/" + c.DBName,
	}
	if c.DBSSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.DBSSLMode}}.Encode()
	}
	return u.String()
}
