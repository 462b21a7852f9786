package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/smartscan/admingate/internal/common"
	"github.com/smartscan/admingate/internal/logging"
	"github.com/smartscan/admingate/internal/server/models"
	"github.com/smartscan/admingate/internal/server/services"
)

const maxLoginBody = 1 << 20

// AuthService is the part of services.AdminService the handlers need.
type AuthService interface {
	Login(ctx context.Context, req services.LoginRequest) (*services.LoginResult, error)
	Verify(ctx context.Context, token string) (*models.Admin, error)
}

// Pinger reports whether the credential store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type loginResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	User    models.PublicProfile `json:"user"`
}

type verifyResponse struct {
	Success bool                  `json:"success"`
	User    models.SessionProfile `json:"user"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type handlers struct {
	svc    AuthService
	db     Pinger
	secure bool
	ttl    time.Duration
	log    logging.Logger
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.svc.Login(r.Context(), req)
	if err != nil {
		var ve *common.ValidationError
		switch {
		case errors.As(err, &ve):
			writeError(w, http.StatusBadRequest, ve.Message)
		case errors.Is(err, common.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
		default:
			h.log.Error(r.Context(), "login failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	setSessionCookie(w, res.Token, h.ttl, h.secure)
	writeJSON(w, http.StatusOK, loginResponse{
		Success: true,
		Message: "Login successful",
		User:    res.Admin.Profile(),
	})
}

func (h *handlers) verify(w http.ResponseWriter, r *http.Request) {
	admin, err := h.svc.Verify(r.Context(), sessionToken(r))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUnauthenticated):
			writeError(w, http.StatusUnauthorized, "No authentication token provided")
		case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
			clearSessionCookie(w, h.secure)
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		case errors.Is(err, common.ErrorNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			h.log.Error(r.Context(), "session verification failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{Success: true, User: admin.SessionProfile()})
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w, h.secure)
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Logout successful"})
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		h.log.Warn(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
