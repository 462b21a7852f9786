package config

import (
	"fmt"
	"strconv"
	"time"
)

// lookupFunc matches os.LookupEnv.
type lookupFunc func(key string) (string, bool)

// parseEnv overlays Config with environment variables. Unset variables leave
// the current value untouched.
//
//	HTTP_ADDR, GRPC_ADDR, JWT_SECRET, TOKEN_VALIDITY (Go duration),
//	DATABASE_DSN, DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME, DB_SSLMODE,
//	DB_MAX_OPEN_CONNS, RUN_MIGRATIONS, APP_ENV (or NODE_ENV), UPSTREAM_URL, LOG_LEVEL
func parseEnv(c *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("HTTP_ADDR", &c.HTTPAddr)
	str("GRPC_ADDR", &c.GRPCAddr)
	str("JWT_SECRET", &c.SecretKey)
	str("DATABASE_DSN", &c.DatabaseDSN)
	str("DB_HOST", &c.DBHost)
	str("DB_USER", &c.DBUser)
	str("DB_PASSWORD", &c.DBPassword)
	str("DB_NAME", &c.DBName)
	str("DB_SSLMODE", &c.DBSSLMode)
	str("NODE_ENV", &c.Environment)
	str("APP_ENV", &c.Environment)
	str("UPSTREAM_URL", &c.UpstreamURL)
	str("LOG_LEVEL", &c.LogLevel)

	if v, ok := lookup("DB_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DB_PORT: %w", err)
		}
		c.DBPort = port
	}
	if v, ok := lookup("DB_MAX_OPEN_CONNS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DB_MAX_OPEN_CONNS: %w", err)
		}
		c.MaxOpenConns = n
	}
	if v, ok := lookup("TOKEN_VALIDITY"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TOKEN_VALIDITY: %w", err)
		}
		c.TokenValidityDuration = d
	}
	if v, ok := lookup("RUN_MIGRATIONS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RUN_MIGRATIONS: %w", err)
		}
		c.RunMigrations = b
	}
	return nil
}
