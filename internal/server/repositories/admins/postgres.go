// Package admins implements the PostgreSQL credential store.
package admins

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/smartscan/admingate/internal/common"
	"github.com/smartscan/admingate/internal/dbx"
	"github.com/smartscan/admingate/internal/server/models"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	query :=
		`SELECT id, name, email, password, login_time, created_at FROM admin
		 WHERE lower(email) = lower($1)
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*models.Admin, error) {
	query :=
		`SELECT id, name, email, password, login_time, created_at FROM admin
		 WHERE id = $1
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) TouchLogin(ctx context.Context, id int64) error {
	query :=
		`UPDATE admin SET login_time = CURRENT_TIMESTAMP
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return storeError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, admin *models.Admin) (*models.Admin, error) {
	query :=
		`INSERT INTO admin (name, email, password)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, admin.Name, admin.Email, admin.PasswordHash).
		Scan(&admin.ID, &admin.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrAlreadyExists
		}
		return nil, storeError(err)
	}
	return admin, nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Admin, error) {
	admin := &models.Admin{}
	var loginTime sql.NullTime

	err := row.Scan(&admin.ID, &admin.Name, &admin.Email, &admin.PasswordHash, &loginTime, &admin.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, storeError(err)
	}
	if loginTime.Valid {
		t := loginTime.Time
		admin.LoginTime = &t
	}
	return admin, nil
}

func storeError(err error) error {
	return fmt.Errorf("db error: %w: %w", common.ErrStoreUnavailable, err)
}
