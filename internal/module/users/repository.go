package users

import (
	"gorm.io/gorm"

	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/store"
)

// Name is the collection and screen name.
const Name = "users"

// searchFields are matched by the search box, in this order.
var searchFields = []string{"email", "username", "bio"}

// NewCollection returns the product's reader accounts: every profile whose
// role is user. Staff accounts in the same table are invisible to it.
func NewCollection(db *gorm.DB) *store.Collection[domain.Profile] {
	return store.New[domain.Profile](db, store.Spec{
		Name:       Name,
		Fixed:      []domain.Predicate{domain.Eq("role", domain.RoleUser)},
		Searchable: searchFields,
		Sortable:   []string{"updated_at", "created_at", "email"},
		Writable:   []string{"username", "name", "email", "phone", "bio", "blocked"},
	})
}
