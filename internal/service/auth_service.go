package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/kimbucha/roomiesBolt-sub000/internal/auth"
	"github.com/kimbucha/roomiesBolt-sub000/internal/metrics"
	"github.com/kimbucha/roomiesBolt-sub000/internal/models"
	"github.com/kimbucha/roomiesBolt-sub000/internal/remote"
	"github.com/kimbucha/roomiesBolt-sub000/internal/validation"
)

// Session is the result of a successful signup or login.
type Session struct {
	Account *models.AccountRecord
	Token   string
}

// AuthService handles signup, login and password reset.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	remote        remote.Backend
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, backend remote.Backend, m *metrics.Metrics, logger *slog.Logger) *AuthService {
	if authenticator == nil || jwtManager == nil {
		stateViolation("NewAuthService", "authenticator and JWT manager are required")
	}
	if backend == nil {
		backend = remote.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		remote:        backend,
		metrics:       m,
		logger:        logger,
	}
}

// Signup creates the minimal account record and opens a session. The
// backend is told about the new account; a backend failure is logged and
// does not undo the signup.
func (s *AuthService) Signup(ctx context.Context, email, name, password string) (*Session, error) {
	s.logger.Info("Signup request", "email", email)

	patch := models.AccountPatch{Email: &email, Name: &name}
	if err := validation.ValidateOnboardingStep(models.StepAccount, patch).Err(); err != nil {
		s.metrics.IncValidationFailure("signup")
		return nil, err
	}

	acct, err := s.authenticator.Register(ctx, email, name, password)
	if err != nil {
		s.logger.Error("Registration failed", "email", email, "error", err)
		return nil, err
	}

	token, err := s.jwtManager.Generate(acct)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", acct.ID, "error", err)
		return nil, err
	}

	s.notifyRemote(ctx, remote.OpSignup, acct.ID, map[string]string{"email": acct.Email, "name": acct.Name})

	s.logger.Info("Account registered successfully", "user_id", acct.ID, "email", acct.Email)
	return &Session{Account: acct, Token: token}, nil
}

// Login authenticates and opens a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	s.logger.Info("Login request", "email", email)

	if strings.TrimSpace(email) == "" || password == "" {
		return nil, auth.ErrInvalidCredentials
	}

	acct, err := s.authenticator.Authenticate(ctx, models.NormalizeEmail(email), password)
	if err != nil {
		s.logger.Warn("Login failed", "email", email, "error", err)
		return nil, auth.ErrInvalidCredentials
	}

	token, err := s.jwtManager.Generate(acct)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", acct.ID, "error", err)
		return nil, err
	}

	s.notifyRemote(ctx, remote.OpLogin, acct.ID, nil)

	s.logger.Info("Logged in successfully", "user_id", acct.ID, "email", acct.Email)
	return &Session{Account: acct, Token: token}, nil
}

// RequestPasswordReset asks the backend to send a reset link. Backend
// errors are returned as *remote.Error.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	s.logger.Info("Password reset request", "email", email)

	if res := validation.ValidateAccountMutation(models.AccountPatch{Email: &email}); !res.IsValid {
		return res.Err()
	}
	err := s.remote.Call(ctx, remote.OpResetPassword, "", map[string]string{"email": email}).ErrFor(remote.OpResetPassword)
	if err != nil {
		s.metrics.IncRemoteError(string(remote.OpResetPassword))
		s.logger.Warn("Password reset failed", "email", email, "error", err)
		return err
	}
	return nil
}

func (s *AuthService) notifyRemote(ctx context.Context, op remote.Op, userID string, payload any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err := s.remote.Call(ctx, op, userID, payload).ErrFor(op)
	var rerr *remote.Error
	if errors.As(err, &rerr) {
		s.metrics.IncRemoteError(string(op))
		s.logger.Warn("Remote call failed", "op", op, "user_id", userID, "status", rerr.Status, "error", rerr.Message)
	}
}
