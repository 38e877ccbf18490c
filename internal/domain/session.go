package domain

import "time"

// Session identifies the signed-in staff member behind a request. It is
// passed explicitly to whatever needs the caller's role.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsSuperadmin reports whether the session may manage staff and roles.
func (s *Session) IsSuperadmin() bool {
	return s != nil && s.Role == RoleSuperadmin
}

// IsStaff reports whether the session belongs to dashboard staff.
func (s *Session) IsStaff() bool {
	return s != nil && s.Role.IsStaff()
}

// DisplayName prefers the username and falls back to the email.
func (s *Session) DisplayName() string {
	if s == nil {
		return ""
	}
	if s.Username != "" {
		return s.Username
	}
	return s.Email
}
