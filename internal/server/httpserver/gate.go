package httpserver

import (
	"context"
	"net/http"
	"path"
	"strings"

	"github.com/smartscan/admingate/internal/logging"
	"github.com/smartscan/admingate/internal/server/auth"
)

const (
	loginPagePath = "/auth/login"
	adminHomePath = "/admin"
)

var publicPrefixes = []string{
	"/about",
	"/auth/login",
	"/auth/forgot-password",
	"/auth/reset-password",
	"/api/auth/login",
	"/api/auth/logout",
	"/api/auth/verify",
}

var protectedUIPrefixes = []string{
	"/admin",
	"/dashboard",
}

const apiPrefix = "/api"

type routeClass int

const (
	routeOpen routeClass = iota
	routePublic
	routeProtectedUI
	routeProtectedAPI
)

func (c routeClass) String() string {
	switch c {
	case routePublic:
		return "public"
	case routeProtectedUI:
		return "protected_ui"
	case routeProtectedAPI:
		return "protected_api"
	default:
		return "open"
	}
}

// hasSegmentPrefix reports whether p equals prefix or continues it with a
// new path segment, so "/admin" matches "/admin/x" but not "/administrator".
func hasSegmentPrefix(p, prefix string) bool {
	if !strings.HasPrefix(p, prefix) {
		return false
	}
	return len(p) == len(prefix) || p[len(prefix)] == '/'
}

func hasAnyPrefix(p string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if hasSegmentPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// cleanPath normalises the request path before classification so dot
// segments cannot slip a protected path past the public list.
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	return path.Clean(p)
}

// classify applies the ordered policy: public, protected UI, protected API,
// then everything else. Every /api/auth path outside the public list is a
// protected API route; it is not passed through unauthenticated.
func classify(p string) routeClass {
	switch {
	case p == "/" || hasAnyPrefix(p, publicPrefixes):
		return routePublic
	case hasAnyPrefix(p, protectedUIPrefixes):
		return routeProtectedUI
	case hasSegmentPrefix(p, apiPrefix):
		return routeProtectedAPI
	default:
		return routeOpen
	}
}

// hasEncodedSeparator reports whether an escaped path smuggles a slash or
// backslash as %2F or %5C. Such paths decode to a different structure than
// the one an upstream would route on.
func hasEncodedSeparator(escaped string) bool {
	lower := strings.ToLower(escaped)
	return strings.Contains(lower, "%2f") || strings.Contains(lower, "%5c")
}

// withPath returns r addressed to the cleaned path p, so the handler after
// the gate (and any upstream) sees the exact path that was classified. A
// trailing slash on the incoming path is kept.
func withPath(r *http.Request, p string) *http.Request {
	target := p
	if p != "/" && strings.HasSuffix(r.URL.Path, "/") {
		target += "/"
	}
	if r.URL.Path == target && r.URL.RawPath == "" {
		return r
	}
	u := *r.URL
	u.Path = target
	u.RawPath = ""
	r2 := r.WithContext(r.Context())
	r2.URL = &u
	return r2
}

// TokenVerifier checks a session token's signature and expiry.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type claimsKey struct{}

// ClaimsFromContext returns the claims the gate attached to a protected
// request.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return c, ok
}

// Gate decides, for every request, whether it may proceed, must be
// redirected to the login page or is refused. It never touches the store.
type Gate struct {
	tokens TokenVerifier
	secure bool
	log    logging.Logger
}

func NewGate(tokens TokenVerifier, secureCookies bool, log logging.Logger) *Gate {
	return &Gate{tokens: tokens, secure: secureCookies, log: log.With("module", "gate")}
}

func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hasEncodedSeparator(r.URL.EscapedPath()) {
			g.log.Debug(r.Context(), "encoded path separator refused", "path", r.URL.EscapedPath())
			writeError(w, http.StatusBadRequest, "Bad request")
			return
		}
		p := cleanPath(r.URL.Path)
		r = withPath(r, p)

		switch classify(p) {
		case routePublic:
			if p == loginPagePath {
				g.loginPage(w, r, next)
				return
			}
			next.ServeHTTP(w, r)

		case routeProtectedUI:
			claims, ok := g.check(r, routeProtectedUI)
			if !ok {
				if sessionToken(r) != "" {
					clearSessionCookie(w, g.secure)
				}
				http.Redirect(w, r, loginPagePath, http.StatusTemporaryRedirect)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))

		case routeProtectedAPI:
			claims, ok := g.check(r, routeProtectedAPI)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))

		default:
			next.ServeHTTP(w, r)
		}
	})
}

// loginPage sends an already signed-in visitor to the dashboard. A stale
// cookie is dropped and the login page served as usual.
func (g *Gate) loginPage(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if sessionToken(r) == "" {
		next.ServeHTTP(w, r)
		return
	}
	if _, ok := g.check(r, routePublic); ok {
		http.Redirect(w, r, adminHomePath, http.StatusTemporaryRedirect)
		return
	}
	clearSessionCookie(w, g.secure)
	next.ServeHTTP(w, r)
}

func (g *Gate) check(r *http.Request, class routeClass) (*auth.Claims, bool) {
	token := sessionToken(r)
	if token == "" {
		g.log.Debug(r.Context(), "no session cookie", "path", r.URL.Path, "route", class.String())
		return nil, false
	}
	claims, err := g.tokens.Verify(token)
	if err != nil {
		g.log.Debug(r.Context(), "session rejected", "path", r.URL.Path, "route", class.String(), "reason", err.Error())
		return nil, false
	}
	return claims, true
}
