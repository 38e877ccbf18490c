package news

import (
	"time"

	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/listctl"
	"github.com/simp-lee/newsdesk/internal/notify"
)

var messages = listctl.Messages{
	Created:         "Article added",
	Updated:         "Article updated",
	Removed:         "Article deleted",
	BulkRemoved:     "Deleted",
	BulkApplied:     "Marked notified",
	FetchFailed:     "Failed to fetch articles",
	CreateFailed:    "Failed to add article",
	UpdateFailed:    "Failed to update",
	RemoveFailed:    "Delete failed",
	BulkFailed:      "Bulk delete failed",
	BulkApplyFailed: "Bulk update failed",
}

// NewViews returns the registry of news list views.
func NewViews(svc *Service, tuning listctl.Tuning, size int, ttl time.Duration) *listctl.Registry[domain.Article] {
	return listctl.NewRegistry(Name, size, ttl, func(n notify.Notifier) *listctl.Controller[domain.Article] {
		return listctl.New(listctl.Tuned(tuning, listctl.Config[domain.Article]{
			Name:         Name,
			Collection:   svc.Collection(),
			Notifier:     n,
			ID:           domain.ArticleID,
			SearchFields: searchFields,
			OrderBy:      "published_at",
			Validate:     ValidateDraft,
			Messages:     messages,
		}))
	})
}
