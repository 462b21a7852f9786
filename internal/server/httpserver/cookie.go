package httpserver

import (
	"net/http"
	"time"

	"github.com/smartscan/admingate/internal/common"
)

// sessionToken returns the auth-token cookie value, or "" when absent.
func sessionToken(r *http.Request) string {
	c, err := r.Cookie(common.AuthCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// setSessionCookie stores token for ttl. Secure is only set in production so
// plain-http development keeps working.
func setSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.AuthCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(ttl / time.Second),
	})
}

// clearSessionCookie tells the browser to drop the cookie (Max-Age=0).
func clearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.AuthCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}
