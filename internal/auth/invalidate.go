package auth

import (
	"context"

	"github.com/simp-lee/newsdesk/internal/domain"
)

// Forgetter drops cached profiles.
type Forgetter interface {
	Forget(id string)
}

// invalidating evicts every profile it writes from the session cache, so a
// block, role change or deletion applies to open sessions right away.
type invalidating struct {
	domain.Collection[domain.Profile]
	cache Forgetter
}

// Invalidating wraps profiles so writes through it reach open sessions.
func Invalidating(profiles domain.Collection[domain.Profile], cache Forgetter) domain.Collection[domain.Profile] {
	return &invalidating{Collection: profiles, cache: cache}
}

func (c *invalidating) Update(ctx context.Context, id string, patch domain.Patch) error {
	err := c.Collection.Update(ctx, id, patch)
	c.cache.Forget(id)
	return err
}

func (c *invalidating) Delete(ctx context.Context, id string) error {
	err := c.Collection.Delete(ctx, id)
	c.cache.Forget(id)
	return err
}

func (c *invalidating) BulkUpdate(ctx context.Context, ids []string, patch domain.Patch) error {
	err := c.Collection.BulkUpdate(ctx, ids, patch)
	c.forgetAll(ids)
	return err
}

func (c *invalidating) BulkDelete(ctx context.Context, ids []string) error {
	err := c.Collection.BulkDelete(ctx, ids)
	c.forgetAll(ids)
	return err
}

func (c *invalidating) forgetAll(ids []string) {
	for _, id := range ids {
		c.cache.Forget(id)
	}
}
