package news

import (
	"gorm.io/gorm"

	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/store"
)

// Name is the collection and screen name.
const Name = "news"

var searchFields = []string{"title", "summary"}

// NewCollection returns the news articles.
func NewCollection(db *gorm.DB) *store.Collection[domain.Article] {
	return store.New[domain.Article](db, store.Spec{
		Name:       Name,
		Searchable: searchFields,
		Sortable:   []string{"published_at", "updated_at", "title"},
		Writable: []string{
			"title", "summary", "image_url", "source_url", "source", "topics",
			"categories", "headline", "notified", "published_at",
		},
	})
}
