package common

const (
	// AuthCookieName is the cookie carrying the session token.
	AuthCookieName = "auth-token"

	// AdminRole is the fixed role claim issued to administrators.
	AdminRole = "admin"
)
