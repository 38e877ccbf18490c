package admins

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/simp-lee/newsdesk/internal/auth"
	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/store"
)

// setupTestDB creates an in-memory SQLite database with every table migrated.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*Service, *auth.Provider, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	profiles := store.New[domain.Profile](db, store.Spec{Name: "profiles"})
	provider := auth.NewProvider(profiles,
		auth.NewTokenIssuer("admins-test-secret-with-enough-length", time.Hour),
		auth.NewMemoryRevoker(100, time.Hour),
		auth.Options{BcryptCost: bcrypt.MinCost})
	return NewService(NewCollection(db), provider, provider), provider, db
}

func seedAdmins(t *testing.T, svc *Service, n int, role domain.Role) []domain.Profile {
	t.Helper()
	out := make([]domain.Profile, 0, n)
	for i := range n {
		p, err := svc.Create(context.Background(), CreateAdminRequest{
			Email:    fmt.Sprintf("%s%02d@example.com", role, i),
			Username: fmt.Sprintf("%s-%02d", role, i),
			Password: "password123",
			Role:     string(role),
		})
		if err != nil {
			t.Fatalf("seed %s %d: %v", role, i, err)
		}
		out = append(out, *p)
	}
	return out
}

func TestValidateRequest(t *testing.T) {
	valid := CreateAdminRequest{Email: "a@example.com", Username: "a", Password: "password123", Role: "admin"}
	tests := []struct {
		name    string
		mutate  func(*CreateAdminRequest)
		wantMsg string
	}{
		{"valid", func(*CreateAdminRequest) {}, ""},
		{"no email", func(r *CreateAdminRequest) { r.Email = "" }, allFieldsRequired},
		{"no username", func(r *CreateAdminRequest) { r.Username = " " }, allFieldsRequired},
		{"no password", func(r *CreateAdminRequest) { r.Password = "" }, allFieldsRequired},
		{"no role", func(r *CreateAdminRequest) { r.Role = "" }, allFieldsRequired},
		{"reader role", func(r *CreateAdminRequest) { r.Role = "user" }, invalidRole},
		{"unknown role", func(r *CreateAdminRequest) { r.Role = "owner" }, allFieldsRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := ValidateRequest(req)
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if domain.PublicMessage(err, "") != tt.wantMsg {
				t.Fatalf("err = %v; want %q", err, tt.wantMsg)
			}
		})
	}
}

func TestService_CreateSignsUp(t *testing.T) {
	svc, provider, _ := newTestService(t)
	ctx := context.Background()

	admin := seedAdmins(t, svc, 1, domain.RoleSuperadmin)[0]
	if admin.Role != domain.RoleSuperadmin || admin.PasswordHash == "" {
		t.Fatalf("created = %+v", admin)
	}
	creds, err := provider.SignIn(ctx, admin.Email, "password123")
	if err != nil {
		t.Fatalf("new account cannot sign in: %v", err)
	}
	if creds.Session.Role != domain.RoleSuperadmin {
		t.Errorf("session role = %q", creds.Session.Role)
	}

	_, err = svc.Create(ctx, CreateAdminRequest{Email: admin.Email, Username: "again", Password: "password123", Role: "admin"})
	if !domain.IsAlreadyExists(err) {
		t.Errorf("duplicate err = %v", err)
	}
}

func TestService_ListOnlyStaff(t *testing.T) {
	svc, _, db := newTestService(t)
	seedAdmins(t, svc, 2, domain.RoleAdmin)
	seedAdmins(t, svc, 1, domain.RoleSuperadmin)
	if err := db.Create(&domain.Profile{Username: "reader", Email: "reader@example.com", Role: domain.RoleUser}).Error; err != nil {
		t.Fatalf("seed reader: %v", err)
	}

	page, err := svc.List(context.Background(), domain.Query{SearchTerm: "example", Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.TotalCount != 3 {
		t.Fatalf("total = %d; want 3 staff", page.TotalCount)
	}
}

func TestService_SelfProtection(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	me := seedAdmins(t, svc, 1, domain.RoleSuperadmin)[0]
	other := seedAdmins(t, svc, 1, domain.RoleAdmin)[0]
	actor := &domain.Session{UserID: me.ID, Role: domain.RoleSuperadmin}

	if err := svc.Delete(ctx, actor, me.ID); !domain.IsForbidden(err) {
		t.Errorf("self delete = %v; want forbidden", err)
	}
	if _, err := svc.Update(ctx, actor, me.ID, domain.Patch{"role": domain.RoleAdmin}); !domain.IsForbidden(err) {
		t.Errorf("self demotion = %v; want forbidden", err)
	}
	if _, err := svc.Update(ctx, actor, me.ID, domain.Patch{"bio": "hi"}); err != nil {
		t.Errorf("own bio update: %v", err)
	}

	promoted, err := svc.Update(ctx, actor, other.ID, domain.Patch{"role": domain.RoleSuperadmin})
	if err != nil || promoted.Role != domain.RoleSuperadmin {
		t.Fatalf("promote = %+v, %v", promoted, err)
	}
	if err := svc.Delete(ctx, actor, other.ID); err != nil {
		t.Fatalf("Delete other: %v", err)
	}
}

func TestService_RoleChangeReachesSession(t *testing.T) {
	svc, provider, _ := newTestService(t)
	ctx := context.Background()
	me := seedAdmins(t, svc, 1, domain.RoleSuperadmin)[0]
	other := seedAdmins(t, svc, 1, domain.RoleAdmin)[0]

	creds, err := provider.SignIn(ctx, other.Email, "password123")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if _, err := provider.CurrentSession(ctx, creds.Token); err != nil {
		t.Fatalf("CurrentSession: %v", err)
	}

	actor := &domain.Session{UserID: me.ID, Role: domain.RoleSuperadmin}
	if _, err := svc.Update(ctx, actor, other.ID, domain.Patch{"role": domain.RoleSuperadmin}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	sess, err := provider.CurrentSession(ctx, creds.Token)
	if err != nil || sess.Role != domain.RoleSuperadmin {
		t.Fatalf("session after promotion = %+v, %v", sess, err)
	}
}

func TestUpdateAdminRequest_Patch(t *testing.T) {
	role := "SuperAdmin"
	patch, err := UpdateAdminRequest{Role: &role}.Patch()
	if err != nil || patch["role"] != domain.RoleSuperadmin {
		t.Fatalf("patch = %v, %v", patch, err)
	}
	bad := "user"
	if _, err := (UpdateAdminRequest{Role: &bad}).Patch(); !domain.IsValidation(err) {
		t.Fatalf("reader role err = %v", err)
	}
}
