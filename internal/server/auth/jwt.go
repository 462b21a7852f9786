// Package auth issues and verifies session tokens and hashes administrator
// passwords.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/smartscan/admingate/internal/common"
	"github.com/smartscan/admingate/internal/server/models"
)

// KeySource yields the HMAC signing secret. It is consulted on every
// Issue/Verify so the secret can change without touching call sites.
type KeySource interface {
	SigningKey() []byte
}

// StaticKey is a fixed KeySource.
type StaticKey []byte

func (k StaticKey) SigningKey() []byte { return k }

// Claims are the session token claims: the registered set plus the
// administrator's identity and role.
type Claims struct {
	jwt.RegisteredClaims
	AdminID int64  `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Role    string `json:"role"`
}

// TokenService signs and checks HS256 session tokens.
type TokenService struct {
	keys     KeySource
	validity time.Duration
	now      func() time.Time
}

func NewTokenService(keys KeySource, validity time.Duration) *TokenService {
	return &TokenService{keys: keys, validity: validity, now: time.Now}
}

// Validity is the lifetime of issued tokens.
func (s *TokenService) Validity() time.Duration {
	return s.validity
}

// Issue signs a token for the administrator that expires after the
// configured validity window.
func (s *TokenService) Issue(admin *models.Admin) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.validity)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(admin.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		AdminID: admin.ID,
		Email:   admin.Email,
		Name:    admin.Name,
		Role:    common.AdminRole,
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.keys.SigningKey())
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Verify checks signature and expiry. It returns common.ErrTokenExpired for
// a token past its window and common.ErrInvalidToken for anything else.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return s.keys.SigningKey(), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id != claims.AdminID {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
