package config

import (
	"flag"
	"io"
	"time"

	"github.com/smartscan/admingate/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-g string   gRPC health bind address
//	-s string   JWT HMAC secret key
//	-t int      token validity, hours
//	-d string   PostgreSQL DSN (overrides -dh/-dp/-du/-dw/-dn)
//	-dh string  database host
//	-dp int     database port
//	-du string  database user
//	-dw string  database password
//	-dn string  database name
//	-m bool     run migrations at startup
//	-u string   upstream dashboard URL
//	-env string deployment environment ("development", "production")
//	-l string   log level
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args,
		"-a", "-g", "-s", "-t", "-d", "-dh", "-dp", "-du", "-dw", "-dn", "-m", "-u", "-env", "-l")

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run HTTP server")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "address and port to run gRPC health server")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	validity := fs.Int("t", int(config.TokenValidityDuration.Hours()), "token validity (in hours)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.DBHost, "dh", config.DBHost, "database host")
	fs.IntVar(&config.DBPort, "dp", config.DBPort, "database port")
	fs.StringVar(&config.DBUser, "du", config.DBUser, "database user")
	fs.StringVar(&config.DBPassword, "dw", config.DBPassword, "database password")
	fs.StringVar(&config.DBName, "dn", config.DBName, "database name")
	fs.BoolVar(&config.RunMigrations, "m", config.RunMigrations, "run migrations at startup")
	fs.StringVar(&config.UpstreamURL, "u", config.UpstreamURL, "upstream dashboard URL")
	fs.StringVar(&config.Environment, "env", config.Environment, "deployment environment")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Only override the validity when -t was passed; sub-hour values from
	// JSON or the environment would otherwise be truncated.
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.TokenValidityDuration = time.Duration(*validity) * time.Hour
		}
	})
	return nil
}
