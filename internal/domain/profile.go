package domain

import "strings"

// Role is the access level stored on a profile.
type Role string

// Known roles. Users are the product's readers; admins and superadmins are
// dashboard staff.
const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// StaffRoles are the roles allowed to sign in to the dashboard.
var StaffRoles = []Role{RoleAdmin, RoleSuperadmin}

// ParseRole normalises s into a known Role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleUser, RoleAdmin, RoleSuperadmin:
		return r, true
	}
	return "", false
}

// IsStaff reports whether r may use the dashboard.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}

// Label is the human-readable role name.
func (r Role) Label() string {
	switch r {
	case RoleSuperadmin:
		return "Super Admin"
	case RoleAdmin:
		return "Admin"
	case RoleUser:
		return "User"
	}
	return string(r)
}

// Profile is an account row. Regular users and staff share one table and
// are told apart by Role.
type Profile struct {
	BaseModel
	Username     string `gorm:"size:100;index" json:"username"`
	Name         string `gorm:"size:100" json:"name"`
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone        string `gorm:"size:32" json:"phone"`
	Bio          string `gorm:"size:1000" json:"bio"`
	Role         Role   `gorm:"size:20;not null;index" json:"role"`
	Blocked      bool   `gorm:"not null;default:false" json:"blocked"`
	PasswordHash string `gorm:"size:255" json:"-"`
}

// TableName binds Profile to the user_profiles table.
func (Profile) TableName() string {
	return "user_profiles"
}

// ProfileID returns the record id; used as the list controller's key func.
func ProfileID(p Profile) string {
	return p.ID
}
