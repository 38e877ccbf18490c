package store

import (
	"gorm.io/gorm"

	"github.com/simp-lee/newsdesk/internal/domain"
)

// Migrate creates or updates the tables backing every collection.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Profile{}, &domain.Article{})
}
