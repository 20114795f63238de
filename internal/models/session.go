package models

import "time"

// Canonical session keys. Every backend stores the session under these names.
const (
	SessionKeyToken   = "accessToken"
	SessionKeyAdminID = "adminId"
)

// Session is the authenticated admin identity.
type Session struct {
	Token     string    `json:"token" validate:"required"`
	AdminID   string    `json:"adminId" validate:"required"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// IsExpired reports whether the session has an expiry that already passed.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Credentials are the login form values.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
