package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/codenexus/storefront/pkg/errors"
	"github.com/codenexus/storefront/pkg/httputil"
	"github.com/codenexus/storefront/pkg/logger"
)

type contextKeyType string

const (
	visitorIDKey contextKeyType = "visitor_id"
	roleKey      contextKeyType = "role"
)

// VisitorHeader carries the id of an anonymous visitor.
const VisitorHeader = "X-Visitor-ID"

const maxVisitorIDLen = 64

// Identity is the caller resolved from a bearer token.
type Identity struct {
	VisitorID string
	Role      string
}

// Authenticator validates a bearer token. The storefront injects its JWT
// validation here so this package stays free of token formats.
type Authenticator func(token string) (Identity, error)

// Visitor resolves who is calling. A bearer token takes precedence; without
// one the X-Visitor-ID header names an anonymous visitor. Requests with
// neither, or with a bad token, get 401.
func Visitor(authenticate Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id Identity

			if authHeader := r.Header.Get("Authorization"); authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
					httputil.WriteError(w, r, apperrors.Unauthorized("invalid authorization header format"), nil)
					return
				}
				var err error
				if id, err = authenticate(parts[1]); err != nil {
					httputil.WriteError(w, r, apperrors.Unauthorized("invalid or expired token"), nil)
					return
				}
			} else {
				id.VisitorID = strings.TrimSpace(r.Header.Get(VisitorHeader))
				if !validVisitorID(id.VisitorID) {
					httputil.WriteError(w, r, apperrors.Unauthorized("missing or malformed "+VisitorHeader+" header"), nil)
					return
				}
			}

			ctx := WithIdentity(r.Context(), id)
			if logger.VisitorIDFromContext(ctx) != id.VisitorID {
				ctx = logger.WithVisitorID(ctx, id.VisitorID)
				ctx = logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("visitor_id", id.VisitorID)))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers whose role is not one of roles with 403.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := roleSet[RoleFromContext(r.Context())]; !ok {
				httputil.WriteError(w, r, apperrors.Forbidden("insufficient permissions"), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = context.WithValue(ctx, visitorIDKey, id.VisitorID)
	return context.WithValue(ctx, roleKey, id.Role)
}

// VisitorIDFromContext extracts the visitor ID from the request context.
func VisitorIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(visitorIDKey).(string); ok {
		return id
	}
	return ""
}

// RoleFromContext extracts the caller's role from the request context.
func RoleFromContext(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey).(string); ok {
		return role
	}
	return ""
}

func validVisitorID(id string) bool {
	if id == "" || len(id) > maxVisitorIDLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
