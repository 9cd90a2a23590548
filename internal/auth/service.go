// Package auth implements the storefront's simulated sign-in. Any email and
// password pair is accepted after a fixed delay; the visitor gets a stable
// id derived from the email and a signed access token.
package auth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codenexus/storefront/pkg/clock"
	apperrors "github.com/codenexus/storefront/pkg/errors"
	"github.com/codenexus/storefront/pkg/task"
	"github.com/codenexus/storefront/pkg/validator"
)

// Roles carried in access tokens.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// visitorNamespace seeds the name-based UUIDs handed to signed-in visitors.
var visitorNamespace = uuid.MustParse("6f1d4c1e-8a53-4c69-9a0e-3f5d2b7c9e41")

// User is a signed-in visitor.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// IsAdmin reports whether u may use the admin endpoints.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is the result of a successful login.
type Session struct {
	User        User      `json:"user"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Config controls the simulated sign-in.
type Config struct {
	Delay       time.Duration
	AdminEmails []string
}

// Service signs visitors in.
type Service struct {
	tokens *JWTManager
	clock  clock.Clock
	delay  time.Duration
	admins map[string]struct{}
	logger *slog.Logger
}

// NewService creates an auth service. A nil clk uses the wall clock.
func NewService(tokens *JWTManager, clk clock.Clock, cfg Config, logger *slog.Logger) *Service {
	if clk == nil {
		clk = clock.New()
	}
	admins := make(map[string]struct{}, len(cfg.AdminEmails))
	for _, e := range cfg.AdminEmails {
		if e = normalizeEmail(e); e != "" {
			admins[e] = struct{}{}
		}
	}
	return &Service{
		tokens: tokens,
		clock:  clk,
		delay:  cfg.Delay,
		admins: admins,
		logger: logger,
	}
}

// Login validates req and, once the configured delay has elapsed, returns a
// session for the visitor. Cancelling ctx abandons the pending login.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	pending := task.After(s.clock, s.delay, func() (*Session, error) {
		return s.issue(req.Email)
	})

	session, err := pending.Wait(ctx)
	if err != nil {
		pending.Cancel()
		return nil, err
	}

	s.logger.InfoContext(ctx, "visitor signed in",
		slog.String("visitor_id", session.User.ID),
		slog.String("role", session.User.Role),
	)
	return session, nil
}

// Authenticate validates an access token and returns the user it names.
func (s *Service) Authenticate(token string) (User, error) {
	claims, err := s.tokens.ValidateAccessToken(token)
	if err != nil {
		return User{}, apperrors.Unauthorized("invalid or expired token")
	}
	return User{ID: claims.VisitorID, Email: claims.Email, Name: claims.Name, Role: claims.Role}, nil
}

func (s *Service) issue(email string) (*Session, error) {
	email = normalizeEmail(email)
	u := User{
		ID:    uuid.NewSHA1(visitorNamespace, []byte(email)).String(),
		Email: email,
		Name:  strings.SplitN(email, "@", 2)[0],
		Role:  RoleUser,
	}
	if _, ok := s.admins[email]; ok {
		u.Role = RoleAdmin
	}

	token, expires, err := s.tokens.GenerateAccessToken(u)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &Session{User: u, AccessToken: token, ExpiresAt: expires}, nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
