package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartscan/admingate/internal/common"
	"github.com/smartscan/admingate/internal/dbx"
	"github.com/smartscan/admingate/internal/logging"
	"github.com/smartscan/admingate/internal/server/auth"
	"github.com/smartscan/admingate/internal/server/models"
	"github.com/smartscan/admingate/internal/server/repositories/admins"
)

// --- fakes ---

type fakeAdminsRepo struct {
	byEmail    *models.Admin
	byEmailErr error
	byID       *models.Admin
	byIDErr    error
	touchErr   error
	createErr  error

	touched    []int64
	created    *models.Admin
	lastLookup string
}

func (f *fakeAdminsRepo) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	f.lastLookup = email
	if f.byEmailErr != nil {
		return nil, f.byEmailErr
	}
	return f.byEmail, nil
}

func (f *fakeAdminsRepo) FindByID(ctx context.Context, id int64) (*models.Admin, error) {
	if f.byIDErr != nil {
		return nil, f.byIDErr
	}
	return f.byID, nil
}

func (f *fakeAdminsRepo) TouchLogin(ctx context.Context, id int64) error {
	f.touched = append(f.touched, id)
	return f.touchErr
}

func (f *fakeAdminsRepo) Create(ctx context.Context, a *models.Admin) (*models.Admin, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	a.ID = 42
	f.created = a
	return a, nil
}

type fakeRepoManager struct {
	repo *fakeAdminsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Admins(db dbx.DBTX) admins.Repository     { return m.repo }

// --- helpers ---

const testSecret = "test-secret"

func newTestService(t *testing.T, db *sql.DB, repo *fakeAdminsRepo, validity time.Duration) *AdminService {
	t.Helper()
	tokens := auth.NewTokenService(auth.StaticKey(testSecret), validity)
	return NewAdminService(db, &fakeRepoManager{repo: repo}, tokens, logging.Nop{})
}

func storedAdmin(t *testing.T, password string) *models.Admin {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return &models.Admin{ID: 7, Name: "Ada", Email: "ada@example.com", PasswordHash: hash}
}

// --- Login ---

func TestLogin_Success(t *testing.T) {
	repo := &fakeAdminsRepo{byEmail: storedAdmin(t, "s3cret")}
	s := newTestService(t, nil, repo, 24*time.Hour)

	res, err := s.Login(context.Background(), LoginRequest{Email: "ada@example.com", Password: "s3cret"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	assert.Equal(t, int64(7), res.Admin.ID)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), res.ExpiresAt, time.Minute)
	assert.Equal(t, []int64{7}, repo.touched)

	claims, err := s.Tokens().Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.AdminID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, common.AdminRole, claims.Role)
}

func TestLogin_TrimsEmail(t *testing.T) {
	repo := &fakeAdminsRepo{byEmail: storedAdmin(t, "s3cret")}
	s := newTestService(t, nil, repo, time.Hour)

	_, err := s.Login(context.Background(), LoginRequest{Email: "  ada@example.com ", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", repo.lastLookup)
}

func TestLogin_TouchFailureIgnored(t *testing.T) {
	repo := &fakeAdminsRepo{byEmail: storedAdmin(t, "s3cret"), touchErr: errors.New("db gone")}
	s := newTestService(t, nil, repo, time.Hour)

	res, err := s.Login(context.Background(), LoginRequest{Email: "ada@example.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}

func TestLogin_Validation(t *testing.T) {
	cases := []struct {
		name string
		req  LoginRequest
		msg  string
	}{
		{"missing email", LoginRequest{Password: "x"}, "Email and password are required"},
		{"missing password", LoginRequest{Email: "ada@example.com"}, "Email and password are required"},
		{"blank email", LoginRequest{Email: "   ", Password: "x"}, "Email and password are required"},
		{"both missing", LoginRequest{}, "Email and password are required"},
		{"bad format", LoginRequest{Email: "not-an-email", Password: "x"}, "Invalid email format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeAdminsRepo{}
			s := newTestService(t, nil, repo, time.Hour)

			_, err := s.Login(context.Background(), tc.req)
			require.ErrorIs(t, err, common.ErrValidation)

			var ve *common.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.msg, ve.Message)
			assert.Empty(t, repo.lastLookup, "store must not be consulted")
		})
	}
}

func TestLogin_UnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	unknown := newTestService(t, nil, &fakeAdminsRepo{byEmailErr: common.ErrorNotFound}, time.Hour)
	_, errUnknown := unknown.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "x"})

	wrong := newTestService(t, nil, &fakeAdminsRepo{byEmail: storedAdmin(t, "right")}, time.Hour)
	_, errWrong := wrong.Login(context.Background(), LoginRequest{Email: "ada@example.com", Password: "wrong"})

	require.ErrorIs(t, errUnknown, common.ErrInvalidCredentials)
	require.ErrorIs(t, errWrong, common.ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestLogin_WrongPasswordDoesNotTouchLogin(t *testing.T) {
	repo := &fakeAdminsRepo{byEmail: storedAdmin(t, "right")}
	s := newTestService(t, nil, repo, time.Hour)

	_, err := s.Login(context.Background(), LoginRequest{Email: "ada@example.com", Password: "wrong"})
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.Empty(t, repo.touched)
}

func TestLogin_StoreUnavailable(t *testing.T) {
	repo := &fakeAdminsRepo{byEmailErr: errors.New("connection refused")}
	s := newTestService(t, nil, repo, time.Hour)

	_, err := s.Login(context.Background(), LoginRequest{Email: "ada@example.com", Password: "x"})
	require.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, common.ErrInvalidCredentials)
}

// --- Verify ---

func TestVerify_Success(t *testing.T) {
	login := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	current := &models.Admin{ID: 7, Name: "Ada L.", Email: "ada@example.com", LoginTime: &login}
	repo := &fakeAdminsRepo{byID: current}
	s := newTestService(t, nil, repo, time.Hour)

	token, _, err := s.Tokens().Issue(&models.Admin{ID: 7, Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	got, err := s.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", got.Name, "record comes from the store, not the token")
	assert.Equal(t, &login, got.LoginTime)
}

func TestVerify_EmptyToken(t *testing.T) {
	s := newTestService(t, nil, &fakeAdminsRepo{}, time.Hour)

	_, err := s.Verify(context.Background(), "")
	require.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestVerify_InvalidToken(t *testing.T) {
	s := newTestService(t, nil, &fakeAdminsRepo{}, time.Hour)

	_, err := s.Verify(context.Background(), "not.a.jwt")
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_ExpiredToken(t *testing.T) {
	s := newTestService(t, nil, &fakeAdminsRepo{}, -time.Minute)

	token, _, err := s.Tokens().Issue(&models.Admin{ID: 7})
	require.NoError(t, err)

	_, err = s.Verify(context.Background(), token)
	require.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestVerify_AdminGone(t *testing.T) {
	s := newTestService(t, nil, &fakeAdminsRepo{byIDErr: common.ErrorNotFound}, time.Hour)

	token, _, err := s.Tokens().Issue(&models.Admin{ID: 7})
	require.NoError(t, err)

	_, err = s.Verify(context.Background(), token)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestVerify_StoreUnavailable(t *testing.T) {
	s := newTestService(t, nil, &fakeAdminsRepo{byIDErr: errors.New("timeout")}, time.Hour)

	token, _, err := s.Tokens().Issue(&models.Admin{ID: 7})
	require.NoError(t, err)

	_, err = s.Verify(context.Background(), token)
	require.ErrorIs(t, err, common.ErrStoreUnavailable)
}

// --- CreateAdmin ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestCreateAdmin_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := &fakeAdminsRepo{}
	s := newTestService(t, db, repo, time.Hour)

	got, err := s.CreateAdmin(context.Background(), NewAdminRequest{Name: " Ada ", Email: "ada@example.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, "Ada", repo.created.Name)
	assert.NotEqual(t, "s3cret", repo.created.PasswordHash)
	assert.True(t, auth.VerifyPassword("s3cret", repo.created.PasswordHash))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAdmin_DuplicateRollsBack(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	s := newTestService(t, db, &fakeAdminsRepo{createErr: common.ErrAlreadyExists}, time.Hour)

	_, err := s.CreateAdmin(context.Background(), NewAdminRequest{Name: "Ada", Email: "ada@example.com", Password: "s3cret"})
	require.ErrorIs(t, err, common.ErrAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAdmin_Validation(t *testing.T) {
	s := newTestService(t, nil, &fakeAdminsRepo{}, time.Hour)

	_, err := s.CreateAdmin(context.Background(), NewAdminRequest{Name: "Ada", Email: "nope", Password: "x"})
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestCreateAdmin_EmptyNameMessage(t *testing.T) {
	s := newTestService(t, nil, &fakeAdminsRepo{}, time.Hour)

	for _, name := range []string{"", "   "} {
		_, err := s.CreateAdmin(context.Background(), NewAdminRequest{Name: name, Email: "ada@example.com", Password: "pw"})

		var ve *common.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "Name is required", ve.Message)
	}

	_, err := s.CreateAdmin(context.Background(), NewAdminRequest{Email: "ada@example.com"})
	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Email and password are required", ve.Message)
}
