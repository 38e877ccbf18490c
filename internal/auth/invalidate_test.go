package auth

import (
	"context"
	"slices"
	"testing"

	"github.com/simp-lee/newsdesk/internal/domain"
)

type recordingForgetter []string

func (r *recordingForgetter) Forget(id string) { *r = append(*r, id) }

// nopProfiles fails every write with err.
type nopProfiles struct{ err error }

func (n nopProfiles) Query(context.Context, domain.QueryOptions) ([]domain.Profile, int64, error) {
	return nil, 0, n.err
}
func (n nopProfiles) Insert(context.Context, *domain.Profile) error            { return n.err }
func (n nopProfiles) Update(context.Context, string, domain.Patch) error       { return n.err }
func (n nopProfiles) Delete(context.Context, string) error                     { return n.err }
func (n nopProfiles) BulkUpdate(context.Context, []string, domain.Patch) error { return n.err }
func (n nopProfiles) BulkDelete(context.Context, []string) error               { return n.err }

func TestInvalidating_ForgetsWrittenProfiles(t *testing.T) {
	for _, failing := range []error{nil, domain.ErrNotFound} {
		var forgot recordingForgetter
		c := Invalidating(nopProfiles{err: failing}, &forgot)
		ctx := context.Background()

		_ = c.Update(ctx, "a", domain.Patch{"blocked": true})
		_ = c.Delete(ctx, "b")
		_ = c.BulkUpdate(ctx, []string{"c", "d"}, domain.Patch{"role": "admin"})
		_ = c.BulkDelete(ctx, []string{"e"})
		_ = c.Insert(ctx, &domain.Profile{})

		want := []string{"a", "b", "c", "d", "e"}
		if !slices.Equal(forgot, want) {
			t.Errorf("err %v: forgot %v; want %v", failing, forgot, want)
		}
	}
}

func TestInvalidating_ProviderSeesBlockImmediately(t *testing.T) {
	p, profiles := newTestProvider(t, nil)
	ctx := context.Background()

	id := signUpStaff(t, p, "ops@example.com", domain.RoleAdmin)
	creds, err := p.SignIn(ctx, "ops@example.com", "password123")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if _, err := p.CurrentSession(ctx, creds.Token); err != nil {
		t.Fatalf("CurrentSession: %v", err)
	}

	block := blockingCollection{profiles: profiles}
	if err := Invalidating(block, p).Update(ctx, id, domain.Patch{"blocked": true}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := p.CurrentSession(ctx, creds.Token); !domain.IsUnauthorized(err) {
		t.Errorf("err = %v; want unauthorized right after the block", err)
	}
}

// blockingCollection applies the blocked flag to the fake store.
type blockingCollection struct {
	nopProfiles
	profiles *fakeProfiles
}

func (b blockingCollection) Update(_ context.Context, id string, patch domain.Patch) error {
	b.profiles.set(id, func(p *domain.Profile) { p.Blocked = patch["blocked"] == true })
	return nil
}
