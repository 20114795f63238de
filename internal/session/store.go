// Package session holds the authenticated admin session. Every authenticated
// request reads the token through Store at call time.
package session

import (
	"context"
	"time"

	"casting-admin/internal/common/auth"
	"casting-admin/internal/common/errors"
	"casting-admin/internal/common/logger"
	"casting-admin/internal/models"
)

// Authenticator performs the login exchange.
type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) (*auth.LoginResult, error)
}

// Store is the process-wide session holder.
type Store struct {
	backend Backend
	auth    Authenticator
	ttl     time.Duration
	logger  logger.Logger
	now     func() time.Time
}

func NewStore(backend Backend, authenticator Authenticator, ttl time.Duration, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Store{
		backend: backend,
		auth:    authenticator,
		ttl:     ttl,
		logger:  log,
		now:     time.Now,
	}
}

// Login authenticates and stores the new session, replacing any previous one.
func (s *Store) Login(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	result, err := s.auth.Login(ctx, creds)
	if err != nil {
		s.logger.Warn("Login failed", map[string]interface{}{
			"email":     creds.Email,
			"errorCode": string(errors.CodeOf(err)),
		})
		return nil, err
	}

	now := s.now().UTC()
	sess := &models.Session{
		Token:     result.Token,
		AdminID:   result.AdminID,
		CreatedAt: now,
	}
	if s.ttl > 0 {
		sess.ExpiresAt = now.Add(s.ttl)
	}

	if err := s.backend.Save(ctx, sess); err != nil {
		return nil, errors.NewInternalError(err)
	}

	s.logger.Info("Admin logged in", map[string]interface{}{"adminId": sess.AdminID})
	return sess, nil
}

// Current returns the stored session, if any and not expired.
func (s *Store) Current(ctx context.Context) (*models.Session, bool) {
	sess, err := s.backend.Load(ctx)
	if err != nil {
		s.logger.Error("Failed to read session", map[string]interface{}{"error": err.Error()})
		return nil, false
	}
	if sess == nil {
		return nil, false
	}
	if sess.IsExpired(s.now()) {
		_ = s.backend.Clear(ctx)
		return nil, false
	}
	return sess, true
}

// CurrentToken returns the bearer token at the moment of the call.
func (s *Store) CurrentToken(ctx context.Context) (string, bool) {
	sess, ok := s.Current(ctx)
	if !ok {
		return "", false
	}
	return sess.Token, true
}

// AdminID returns the id of the logged in admin.
func (s *Store) AdminID(ctx context.Context) (string, bool) {
	sess, ok := s.Current(ctx)
	if !ok || sess.AdminID == "" {
		return "", false
	}
	return sess.AdminID, true
}

// IsAuthenticated gates authenticated routes.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	_, ok := s.CurrentToken(ctx)
	return ok
}

// Logout clears the session. Navigating to the login screen is up to the caller.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.backend.Clear(ctx); err != nil {
		return errors.NewInternalError(err)
	}
	s.logger.Info("Admin logged out", nil)
	return nil
}

// Invalidate drops the session after the API reported it unauthorized.
func (s *Store) Invalidate(ctx context.Context) {
	if err := s.backend.Clear(ctx); err != nil {
		s.logger.Error("Failed to clear session", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Warn("Session invalidated by unauthorized response", nil)
}
