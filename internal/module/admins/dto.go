package admins

import (
	"strings"

	"github.com/simp-lee/newsdesk/internal/domain"
)

const allFieldsRequired = "All fields (Email, Username, Role, Password) are required!"

// CreateAdminRequest is the body of a staff account creation.
type CreateAdminRequest struct {
	Email    string `json:"email" form:"email" binding:"omitempty,email,max=255"`
	Username string `json:"username" form:"username" binding:"max=100"`
	Password string `json:"password" form:"password" binding:"max=72"`
	Role     string `json:"role" form:"role"`
	Bio      string `json:"bio" form:"bio" binding:"max=1000"`
}

// Draft returns the profile the request describes. An unknown role is left
// empty for ValidateDraft to reject.
func (r CreateAdminRequest) Draft() domain.Profile {
	role, _ := domain.ParseRole(r.Role)
	username := strings.TrimSpace(r.Username)
	return domain.Profile{
		Username: username,
		Name:     username,
		Email:    strings.ToLower(strings.TrimSpace(r.Email)),
		Bio:      strings.TrimSpace(r.Bio),
		Role:     role,
	}
}

// UpdateAdminRequest is the body of a staff account update. Only the fields
// present are changed.
type UpdateAdminRequest struct {
	Username *string `json:"username" form:"username" binding:"omitempty,min=1,max=100"`
	Email    *string `json:"email" form:"email" binding:"omitempty,email,max=255"`
	Bio      *string `json:"bio" form:"bio" binding:"omitempty,max=1000"`
	Role     *string `json:"role" form:"role"`
	Blocked  *bool   `json:"blocked" form:"blocked"`
}

// Patch returns the changed columns.
func (r UpdateAdminRequest) Patch() (domain.Patch, error) {
	patch := domain.Patch{}
	if r.Username != nil {
		patch["username"] = strings.TrimSpace(*r.Username)
		patch["name"] = patch["username"]
	}
	if r.Email != nil {
		patch["email"] = strings.ToLower(strings.TrimSpace(*r.Email))
	}
	if r.Bio != nil {
		patch["bio"] = strings.TrimSpace(*r.Bio)
	}
	if r.Role != nil {
		role, ok := domain.ParseRole(*r.Role)
		if !ok || !role.IsStaff() {
			return nil, domain.Validation(invalidRole)
		}
		patch["role"] = role
	}
	if r.Blocked != nil {
		patch["blocked"] = *r.Blocked
	}
	return patch, nil
}
