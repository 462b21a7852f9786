// Package services contains the server-side business logic. AdminService
// authenticates administrators, verifies sessions and provisions accounts.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/smartscan/admingate/internal/common"
	"github.com/smartscan/admingate/internal/dbx"
	"github.com/smartscan/admingate/internal/logging"
	"github.com/smartscan/admingate/internal/server/auth"
	"github.com/smartscan/admingate/internal/server/models"
	"github.com/smartscan/admingate/internal/server/repositories/repomanager"
)

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,max=1024"`
}

// NewAdminRequest describes an account created by the provisioning CLI.
type NewAdminRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,max=1024"`
}

// LoginResult is what a successful login hands back to the transport.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Admin     *models.Admin
}

type AdminService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	log         logging.Logger
}

func NewAdminService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenService, log logging.Logger) *AdminService {
	return &AdminService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		log:         log.With("module", "admin_service"),
	}
}

// Tokens exposes the token service so the route gate shares the same keys.
func (s *AdminService) Tokens() *auth.TokenService {
	return s.tokens
}

// Login checks the credentials and issues a session token.
//
// Unknown email and wrong password are both reported as
// common.ErrInvalidCredentials; an unknown email still pays for a bcrypt
// comparison. The login time is refreshed on a best-effort basis.
func (s *AdminService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validateStruct(&req); err != nil {
		return nil, err
	}

	repo := s.repomanager.Admins(s.db)
	admin, err := repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.BurnPasswordCheck(req.Password)
			s.log.Info(ctx, "login rejected", "reason", "unknown email")
			return nil, common.ErrInvalidCredentials
		}
		s.log.Error(ctx, "admin lookup failed", "error", err)
		return nil, fmt.Errorf("login: %w", common.ErrStoreUnavailable)
	}

	if !auth.VerifyPassword(req.Password, admin.PasswordHash) {
		s.log.Info(ctx, "login rejected", "reason", "password mismatch", "admin_id", admin.ID)
		return nil, common.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(admin)
	if err != nil {
		s.log.Error(ctx, "token signing failed", "admin_id", admin.ID, "error", err)
		return nil, common.ErrorInternal
	}

	if err := repo.TouchLogin(ctx, admin.ID); err != nil {
		s.log.Warn(ctx, "login time not updated", "admin_id", admin.ID, "error", err)
	}

	s.log.Info(ctx, "login succeeded", "admin_id", admin.ID)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Admin: admin}, nil
}

// Verify resolves a session token to the current administrator record.
// An empty token yields common.ErrUnauthenticated, a bad one
// common.ErrInvalidToken or common.ErrTokenExpired, and an account that no
// longer exists common.ErrorNotFound.
func (s *AdminService) Verify(ctx context.Context, token string) (*models.Admin, error) {
	if token == "" {
		return nil, common.ErrUnauthenticated
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.log.Debug(ctx, "session rejected", "reason", err.Error())
		return nil, err
	}

	admin, err := s.repomanager.Admins(s.db).FindByID(ctx, claims.AdminID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Info(ctx, "session for missing admin", "admin_id", claims.AdminID)
			return nil, common.ErrorNotFound
		}
		s.log.Error(ctx, "admin lookup failed", "admin_id", claims.AdminID, "error", err)
		return nil, fmt.Errorf("verify: %w", common.ErrStoreUnavailable)
	}
	return admin, nil
}

// CreateAdmin hashes the password and inserts the account in a transaction.
func (s *AdminService) CreateAdmin(ctx context.Context, req NewAdminRequest) (*models.Admin, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := validateStruct(&req); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var created *models.Admin
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var createErr error
		created, createErr = s.repomanager.Admins(tx).Create(ctx, &models.Admin{
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: hash,
		})
		return createErr
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "admin created", "admin_id", created.ID)
	return created, nil
}
