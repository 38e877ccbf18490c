package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/simp-lee/newsdesk/internal/domain"
)

const testSecret = "a-very-long-test-secret-for-hs256-tokens"

// fakeProfiles is an in-memory ProfileStore.
type fakeProfiles struct {
	mu       sync.Mutex
	byID     map[string]domain.Profile
	gets     int
	failNext error
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{byID: make(map[string]domain.Profile)}
}

func (f *fakeProfiles) Insert(_ context.Context, p *domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	for _, existing := range f.byID {
		if existing.Email == p.Email {
			return domain.NewAppError(domain.CodeAlreadyExists, "already exists", nil)
		}
	}
	if p.ID == "" {
		p.ID = "id-" + p.Email
	}
	f.byID[p.ID] = *p
	return nil
}

func (f *fakeProfiles) Get(_ context.Context, id string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	p, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProfiles) FindOne(_ context.Context, preds ...domain.Predicate) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if len(preds) == 1 && preds[0].Column == "email" && preds[0].Value == p.Email {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProfiles) set(id string, mutate func(*domain.Profile)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.byID[id]
	mutate(&p)
	f.byID[id] = p
}

func newTestProvider(t *testing.T, revoker Revoker) (*Provider, *fakeProfiles) {
	t.Helper()
	profiles := newFakeProfiles()
	if revoker == nil {
		revoker = NewMemoryRevoker(100, time.Hour)
	}
	p := NewProvider(profiles, NewTokenIssuer(testSecret, time.Hour), revoker, Options{
		CacheTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	})
	return p, profiles
}

func signUpStaff(t *testing.T, p *Provider, email string, role domain.Role) string {
	t.Helper()
	id, err := p.SignUp(context.Background(), email, "password123", domain.SignUpAttributes{Username: "staff", Role: role})
	if err != nil {
		t.Fatalf("SignUp(%s): %v", email, err)
	}
	return id
}

func TestSignUp_Validation(t *testing.T) {
	p, profiles := newTestProvider(t, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		role     domain.Role
		wantMsg  string
	}{
		{"missing email", "", "password123", domain.RoleAdmin, "email is required"},
		{"bad email", "Alice <alice@example.com>", "password123", domain.RoleAdmin, "email must be a valid email address"},
		{"short password", "a@example.com", "short", domain.RoleAdmin, "password must be at least 8 characters"},
		{"long password", "a@example.com", strings.Repeat("x", 73), domain.RoleAdmin, "password must not exceed 72 characters"},
		{"unknown role", "a@example.com", "password123", domain.Role("owner"), "role is invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.SignUp(ctx, tt.email, tt.password, domain.SignUpAttributes{Role: tt.role})
			if !domain.IsValidation(err) {
				t.Fatalf("SignUp() error = %v; want validation error", err)
			}
			var appErr *domain.AppError
			if errors.As(err, &appErr) && appErr.Message != tt.wantMsg {
				t.Errorf("message = %q; want %q", appErr.Message, tt.wantMsg)
			}
		})
	}
	if len(profiles.byID) != 0 {
		t.Fatal("validation failures must not reach the store")
	}
}

func TestSignUp_StoresHashedProfile(t *testing.T) {
	p, profiles := newTestProvider(t, nil)
	id, err := p.SignUp(context.Background(), " admin@example.com ", "password123", domain.SignUpAttributes{
		Username: "boss", Name: "The Boss", Role: domain.RoleSuperadmin,
	})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	stored := profiles.byID[id]
	if stored.Email != "admin@example.com" || stored.Role != domain.RoleSuperadmin || stored.Username != "boss" {
		t.Errorf("stored = %+v", stored)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password123")) != nil {
		t.Error("password hash does not match")
	}

	_, err = p.SignUp(context.Background(), "admin@example.com", "password123", domain.SignUpAttributes{Role: domain.RoleAdmin})
	if !domain.IsAlreadyExists(err) || domain.PublicMessage(err, "") != "email already registered" {
		t.Errorf("duplicate SignUp error = %v", err)
	}
}

func TestSignIn(t *testing.T) {
	p, profiles := newTestProvider(t, nil)
	ctx := context.Background()

	adminID := signUpStaff(t, p, "admin@example.com", domain.RoleAdmin)
	signUpStaff(t, p, "reader@example.com", domain.RoleUser)
	blockedID := signUpStaff(t, p, "blocked@example.com", domain.RoleAdmin)
	profiles.set(blockedID, func(pr *domain.Profile) { pr.Blocked = true })

	creds, err := p.SignIn(ctx, "admin@example.com", "password123")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if creds.Token == "" || creds.Session.UserID != adminID || creds.Session.Role != domain.RoleAdmin {
		t.Errorf("credentials = %+v", creds)
	}
	if creds.Session.TokenID == "" || !creds.ExpiresAt.After(time.Now()) {
		t.Errorf("session = %+v", creds.Session)
	}

	refused := []struct{ email, password string }{
		{"admin@example.com", "wrong-password"},
		{"nobody@example.com", "password123"},
		{"reader@example.com", "password123"},
		{"blocked@example.com", "password123"},
	}
	for _, r := range refused {
		if _, err := p.SignIn(ctx, r.email, r.password); !domain.IsUnauthorized(err) {
			t.Errorf("SignIn(%s) error = %v; want unauthorized", r.email, err)
		}
	}
}

func TestCurrentSession(t *testing.T) {
	p, profiles := newTestProvider(t, nil)
	ctx := context.Background()
	id := signUpStaff(t, p, "admin@example.com", domain.RoleAdmin)
	creds, err := p.SignIn(ctx, "admin@example.com", "password123")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	sess, err := p.CurrentSession(ctx, creds.Token)
	if err != nil || sess.UserID != id {
		t.Fatalf("CurrentSession() = %+v, %v", sess, err)
	}

	// Role changes are served from cache until forgotten.
	profiles.set(id, func(pr *domain.Profile) { pr.Role = domain.RoleSuperadmin })
	if sess, _ := p.CurrentSession(ctx, creds.Token); sess.Role != domain.RoleAdmin {
		t.Errorf("role = %q; want cached admin", sess.Role)
	}
	p.Forget(id)
	if sess, _ := p.CurrentSession(ctx, creds.Token); sess.Role != domain.RoleSuperadmin {
		t.Errorf("role = %q; want superadmin after Forget", sess.Role)
	}

	profiles.set(id, func(pr *domain.Profile) { pr.Blocked = true })
	p.Forget(id)
	if _, err := p.CurrentSession(ctx, creds.Token); !domain.IsUnauthorized(err) {
		t.Errorf("blocked account session error = %v", err)
	}

	for _, bad := range []string{"", "not-a-token", creds.Token + "x"} {
		if _, err := p.CurrentSession(ctx, bad); !domain.IsUnauthorized(err) {
			t.Errorf("CurrentSession(%q) error = %v; want unauthorized", bad, err)
		}
	}
}

func TestSignOut_RevokesToken(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	revokers := map[string]Revoker{
		"memory": NewMemoryRevoker(100, time.Hour),
		"redis":  NewRedisRevoker(client),
	}
	for name, revoker := range revokers {
		t.Run(name, func(t *testing.T) {
			p, _ := newTestProvider(t, revoker)
			ctx := context.Background()
			signUpStaff(t, p, name+"@example.com", domain.RoleAdmin)
			creds, err := p.SignIn(ctx, name+"@example.com", "password123")
			if err != nil {
				t.Fatalf("SignIn: %v", err)
			}

			if err := p.SignOut(ctx, creds.Token); err != nil {
				t.Fatalf("SignOut: %v", err)
			}
			if _, err := p.CurrentSession(ctx, creds.Token); !domain.IsUnauthorized(err) {
				t.Errorf("CurrentSession after SignOut error = %v", err)
			}
			if err := p.SignOut(ctx, "garbage"); err != nil {
				t.Errorf("SignOut(garbage) = %v; want nil", err)
			}
		})
	}

	if keys := srv.Keys(); len(keys) != 1 || !strings.HasPrefix(keys[0], revokedKeyPrefix) {
		t.Errorf("redis keys = %v", keys)
	}
}

func TestRedisRevoker_SkipsExpired(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	r := NewRedisRevoker(client)
	if err := r.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if len(srv.Keys()) != 0 {
		t.Error("expired token should not be stored")
	}

	if err := r.Revoke(context.Background(), "fresh", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if ttl := srv.TTL(revokedKeyPrefix + "fresh"); ttl <= 0 || ttl > time.Minute {
		t.Errorf("ttl = %v", ttl)
	}
}
