package admins

import (
	"gorm.io/gorm"

	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/store"
)

// Name is the collection and screen name.
const Name = "admins"

var searchFields = []string{"username", "email"}

// NewCollection returns the dashboard staff: profiles with the admin or
// superadmin role.
func NewCollection(db *gorm.DB) *store.Collection[domain.Profile] {
	return store.New[domain.Profile](db, store.Spec{
		Name:       Name,
		Fixed:      []domain.Predicate{domain.In("role", domain.StaffRoles...)},
		Searchable: searchFields,
		Sortable:   []string{"updated_at", "created_at", "username"},
		Writable:   []string{"username", "name", "email", "bio", "role", "blocked"},
	})
}
