package users

import (
	"strings"

	"github.com/simp-lee/newsdesk/internal/domain"
)

// CreateUserRequest is the body of a user creation. Required fields are
// checked by ValidateDraft so the screen and the API report the same messages.
type CreateUserRequest struct {
	Name  string `json:"name" form:"name" binding:"max=100"`
	Email string `json:"email" form:"email" binding:"omitempty,email,max=255"`
	Phone string `json:"phone" form:"phone" binding:"max=32"`
	Bio   string `json:"bio" form:"bio" binding:"max=1000"`
}

// Draft converts the request into an unsaved profile. The full name doubles
// as the username of reader accounts.
func (r CreateUserRequest) Draft() domain.Profile {
	name := strings.TrimSpace(r.Name)
	return domain.Profile{
		Username: name,
		Name:     name,
		Email:    strings.ToLower(strings.TrimSpace(r.Email)),
		Phone:    strings.TrimSpace(r.Phone),
		Bio:      strings.TrimSpace(r.Bio),
		Role:     domain.RoleUser,
	}
}

// UpdateUserRequest is the body of a user update. Only the fields present
// are changed.
type UpdateUserRequest struct {
	Username *string `json:"username" form:"username" binding:"omitempty,min=1,max=100"`
	Name     *string `json:"name" form:"name" binding:"omitempty,max=100"`
	Email    *string `json:"email" form:"email" binding:"omitempty,email,max=255"`
	Phone    *string `json:"phone" form:"phone" binding:"omitempty,max=32"`
	Bio      *string `json:"bio" form:"bio" binding:"omitempty,max=1000"`
	Blocked  *bool   `json:"blocked" form:"blocked"`
}

// Patch returns the changed columns.
func (r UpdateUserRequest) Patch() domain.Patch {
	patch := domain.Patch{}
	set := func(col string, v *string) {
		if v != nil {
			patch[col] = strings.TrimSpace(*v)
		}
	}
	set("username", r.Username)
	set("name", r.Name)
	set("phone", r.Phone)
	set("bio", r.Bio)
	if r.Email != nil {
		patch["email"] = strings.ToLower(strings.TrimSpace(*r.Email))
	}
	if r.Blocked != nil {
		patch["blocked"] = *r.Blocked
	}
	return patch
}

// BlockRequest sets the blocked flag of a user.
type BlockRequest struct {
	Blocked bool `json:"blocked" form:"blocked"`
}
