package admins

import (
	"context"
	"time"

	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/listctl"
	"github.com/simp-lee/newsdesk/internal/notify"
)

var messages = listctl.Messages{
	Updated:      "Admin Updated!",
	Removed:      "Admin Deleted!",
	BulkRemoved:  "Admins deleted",
	FetchFailed:  "Failed to fetch admins",
	CreateFailed: "Failed to create admin",
	UpdateFailed: "Failed to update admin",
	RemoveFailed: "Delete failed",
	BulkFailed:   "Bulk delete failed",
}

// NewViews returns the registry of admins list views. Creating through a
// view needs the password, see PageHandler.Create.
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
			// Without a password the request is rejected before sign-up.
			Insert: func(ctx context.Context, draft domain.Profile) error {
				_, err := svc.Create(ctx, CreateAdminRequest{
					Email: draft.Email, Username: draft.Username, Role: string(draft.Role), Bio: draft.Bio,
				})
				return err
			},
			CreatedMessage: func(draft domain.Profile) string {
				return draft.Role.Label() + " created successfully!"
			},
			Messages: messages,
		}))
	})
}
