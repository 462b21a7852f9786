package config

import (
	"encoding/json"
	"os"

	"github.com/smartscan/admingate/internal/flagx"
	"github.com/smartscan/admingate/internal/timex"
)

// JsonConfig is the on-disk shape of the optional config file. Duration
// fields accept "24h"-style strings or integer nanoseconds.
type JsonConfig struct {
	HTTPAddr              string         `json:"http_addr"`
	GRPCAddr              string         `json:"grpc_addr"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	DatabaseDSN           string         `json:"database_dsn"`
	DBHost                string         `json:"db_host"`
	DBPort                int            `json:"db_port"`
	DBUser                string         `json:"db_user"`
	DBPassword            string         `json:"db_password"`
	DBName                string         `json:"db_name"`
	DBSSLMode             string         `json:"db_sslmode"`
	MaxOpenConns          int            `json:"max_open_conns"`
	MaxIdleConns          int            `json:"max_idle_conns"`
	RunMigrations         bool           `json:"run_migrations"`
	Environment           string         `json:"environment"`
	UpstreamURL           string         `json:"upstream_url"`
	LogLevel              string         `json:"log_level"`
	RequestTimeout        timex.Duration `json:"request_timeout"`
	ShutdownTimeout       timex.Duration `json:"shutdown_timeout"`
}

// parseJSON loads the file named by -c/-config into config. Keys absent
// from the file keep their current values. No flag means nothing to load.
func parseJSON(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Seed with the current values so missing keys are preserved.
	c := JsonConfig{
		HTTPAddr:              config.HTTPAddr,
		GRPCAddr:              config.GRPCAddr,
		SecretKey:             config.SecretKey,
		TokenValidityDuration: timex.Duration{Duration: config.TokenValidityDuration},
		DatabaseDSN:           config.DatabaseDSN,
		DBHost:                config.DBHost,
		DBPort:                config.DBPort,
		DBUser:                config.DBUser,
		DBPassword:            config.DBPassword,
		DBName:                config.DBName,
		DBSSLMode:             config.DBSSLMode,
		MaxOpenConns:          config.MaxOpenConns,
		MaxIdleConns:          config.MaxIdleConns,
		RunMigrations:         config.RunMigrations,
		Environment:           config.Environment,
		UpstreamURL:           config.UpstreamURL,
		LogLevel:              config.LogLevel,
		RequestTimeout:        timex.Duration{Duration: config.RequestTimeout},
		ShutdownTimeout:       timex.Duration{Duration: config.ShutdownTimeout},
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}

	config.HTTPAddr = c.HTTPAddr
	config.GRPCAddr = c.GRPCAddr
	config.SecretKey = c.SecretKey
	config.TokenValidityDuration = c.TokenValidityDuration.Duration
	config.DatabaseDSN = c.DatabaseDSN
	config.DBHost = c.DBHost
	config.DBPort = c.DBPort
	config.DBUser = c.DBUser
	config.DBPassword = c.DBPassword
	config.DBName = c.DBName
	config.DBSSLMode = c.DBSSLMode
	config.MaxOpenConns = c.MaxOpenConns
	config.MaxIdleConns = c.MaxIdleConns
	config.RunMigrations = c.RunMigrations
	config.Environment = c.Environment
	config.UpstreamURL = c.UpstreamURL
	config.LogLevel = c.LogLevel
	config.RequestTimeout = c.RequestTimeout.Duration
	config.ShutdownTimeout = c.ShutdownTimeout.Duration
	return nil
}
