// Package adminctl provisions dashboard administrators from the command
// line. Connection settings come from the same sources as the server.
package adminctl

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/smartscan/admingate/internal/common"
	"github.com/smartscan/admingate/internal/dbx"
	"github.com/smartscan/admingate/internal/flagx"
	"github.com/smartscan/admingate/internal/logging"
	"github.com/smartscan/admingate/internal/server/auth"
	"github.com/smartscan/admingate/internal/server/config"
	"github.com/smartscan/admingate/internal/server/repositories/repomanager"
	"github.com/smartscan/admingate/internal/server/services"
)

// openDB is a seam for tests.
var openDB = dbx.OpenPostgres

type options struct {
	Name  string
	Email string
}

func parseOptions(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("adminctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&o.Name, "name", "", "administrator display name")
	fs.StringVar(&o.Email, "email", "", "administrator email")
	err := fs.Parse(flagx.FilterArgs(args, "-name", "-email"))
	return o, err
}

// Run creates one administrator. Missing name or email are prompted for on
// in; the password is always read from the terminal.
func Run(ctx context.Context, args []string, lookup func(string) (string, bool), in io.Reader, out io.Writer) error {
	cfg, err := config.Load(args, lookup)
	if err != nil {
		return err
	}
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}

	reader := bufio.NewReader(in)
	if opts.Name == "" {
		if opts.Name, err = getSimpleText(reader, "Administrator name", out); err != nil {
			return err
		}
	}
	if opts.Email == "" {
		if opts.Email, err = getSimpleText(reader, "Administrator email", out); err != nil {
			return err
		}
	}
	password, err := getPassword(out)
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg.DSN(), dbx.PoolOptions{MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		return err
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if cfg.RunMigrations {
		if err := rm.RunMigrations(ctx, db); err != nil {
			return err
		}
	}

	logger := logging.NewJSONLogger(io.Discard, cfg.LogLevel)
	svc := services.NewAdminService(db, rm, auth.NewTokenService(cfg, cfg.TokenValidityDuration), logger)

	admin, err := svc.CreateAdmin(ctx, services.NewAdminRequest{
		Name:     opts.Name,
		Email:    opts.Email,
		Password: password,
	})
	if err != nil {
		var ve *common.ValidationError
		switch {
		case errors.As(err, &ve):
			return fmt.Errorf("invalid input: %s", ve.Message)
		case errors.Is(err, common.ErrAlreadyExists):
			return fmt.Errorf("an administrator with email %q already exists", opts.Email)
		default:
			return err
		}
	}

	fmt.Fprintf(out, "Administrator %s created (id %d)\n", admin.Email, admin.ID)
	return nil
}
