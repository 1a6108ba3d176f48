package model

// Session is a signed-in identity. The role is copied from the user at
// login and is not refreshed afterwards.
type Session struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the session carries the admin role.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// IsStaff reports whether the session is staff or admin.
func (s *Session) IsStaff() bool {
	return s != nil && RoleAtLeast(s.Role, RoleStaff)
}
