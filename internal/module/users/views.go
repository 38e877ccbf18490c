package users

import (
	"context"
	"time"

	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/listctl"
	"github.com/simp-lee/newsdesk/internal/notify"
)

var messages = listctl.Messages{
	Created:      "User created",
	Updated:      "User updated",
	Removed:      "User deleted",
	BulkRemoved:  "Users deleted",
	FetchFailed:  "Failed to fetch users",
	CreateFailed: "Failed to create user",
	UpdateFailed: "Failed to update user",
	RemoveFailed: "Delete failed",
	BulkFailed:   "Bulk delete failed",
}

// NewViews returns the registry of users list views.
func NewViews(svc *Service, tuning listctl.Tuning, size int, ttl time.Duration) *listctl.Registry[domain.Profile] {
	return listctl.NewRegistry(Name, size, ttl, func(n notify.Notifier) *listctl.Controller[domain.Profile] {
		return listctl.New(listctl.Tuned(tuning, listctl.Config[domain.Profile]{
			Name:         Name,
			Collection:   svc.Collection(),
			Notifier:     n,
			ID:           domain.ProfileID,
			SearchFields: searchFields,
			OrderBy:      "updated_at",
			Validate:     ValidateDraft,
			Insert: func(ctx context.Context, draft domain.Profile) error {
				_, err := svc.Create(ctx, draft)
				return err
			},
			Messages: messages,
		}))
	})
}
