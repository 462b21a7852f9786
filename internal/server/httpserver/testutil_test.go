package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/smartscan/admingate/internal/common"
	"github.com/smartscan/admingate/internal/logging"
	"github.com/smartscan/admingate/internal/server/auth"
	"github.com/smartscan/admingate/internal/server/config"
	"github.com/smartscan/admingate/internal/server/models"
	"github.com/smartscan/admingate/internal/server/services"
)

const testSecret = "gate-test-secret"

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:             testSecret,
		TokenValidityDuration: 24 * time.Hour,
		Environment:           config.EnvDevelopment,
		RequestTimeout:        5 * time.Second,
		ShutdownTimeout:       time.Second,
	}
}

func newTokens(validity time.Duration) *auth.TokenService {
	return auth.NewTokenService(auth.StaticKey(testSecret), validity)
}

func newTokensWithKey(key string) *auth.TokenService {
	return auth.NewTokenService(auth.StaticKey(key), time.Hour)
}

func issue(t *testing.T, tokens *auth.TokenService, id int64) string {
	t.Helper()
	token, _, err := tokens.Issue(&models.Admin{ID: id, Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	return token
}

func withCookie(r *http.Request, token string) *http.Request {
	r.AddCookie(&http.Cookie{Name: common.AuthCookieName, Value: token})
	return r
}

func sessionCookie(res *http.Response) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == common.AuthCookieName {
			return c
		}
	}
	return nil
}

// fakeAuthService is a scripted AuthService.
type fakeAuthService struct {
	loginRes *services.LoginResult
	loginErr error
	lastReq  services.LoginRequest

	verifyAdmin *models.Admin
	verifyErr   error
	lastToken   string
}

func (f *fakeAuthService) Login(ctx context.Context, req services.LoginRequest) (*services.LoginResult, error) {
	f.lastReq = req
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginRes, nil
}

func (f *fakeAuthService) Verify(ctx context.Context, token string) (*models.Admin, error) {
	f.lastToken = token
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.verifyAdmin, nil
}

type fakePinger struct {
	err error
}

func (p fakePinger) PingContext(context.Context) error { return p.err }

// newTestServer wires the real router around the given service.
func newTestServer(t *testing.T, cfg *config.Config, svc AuthService, tokens TokenVerifier, db Pinger) http.Handler {
	t.Helper()
	s, err := NewServer(cfg, svc, tokens, db, logging.Nop{})
	require.NoError(t, err)
	return s.Handler()
}

func do(h http.Handler, r *http.Request) *http.Response {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec.Result()
}
