package http

import (
	"log/slog"
	"net/http"

	"github.com/codenexus/storefront/internal/auth"
	"github.com/codenexus/storefront/pkg/httputil"
	"github.com/codenexus/storefront/pkg/middleware"
)

// AuthHandler handles the simulated sign-in.
type AuthHandler struct {
	service *auth.Service
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *auth.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, logger: logger}
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	session, err := h.service.Login(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, session)
}

// authenticator adapts the auth service to the visitor middleware.
func authenticator(svc *auth.Service) middleware.Authenticator {
	return func(token string) (middleware.Identity, error) {
		u, err := svc.Authenticate(token)
		if err != nil {
			return middleware.Identity{}, err
		}
		return middleware.Identity{VisitorID: u.ID, Role: u.Role}, nil
	}
}
