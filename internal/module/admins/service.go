package admins

import (
	"context"
	"strconv"
	"strings"

	"github.com/simp-lee/newsdesk/internal/auth"
	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/export"
	"github.com/simp-lee/newsdesk/internal/store"
)

const invalidRole = "Role must be admin or superadmin."

// Service implements the admins screen. Accounts are created through the
// auth provider so they can sign in.
type Service struct {
	records  *store.Collection[domain.Profile]
	writes   domain.Collection[domain.Profile]
	accounts domain.AuthProvider
}

// NewService creates a Service. Writes evict the touched profiles from
// sessions when cache is not nil. Panics if records or accounts is nil.
func NewService(records *store.Collection[domain.Profile], accounts domain.AuthProvider, cache auth.Forgetter) *Service {
	if records == nil || accounts == nil {
		panic("admins.NewService: collection and auth provider must not be nil")
	}
	var writes domain.Collection[domain.Profile] = records
	if cache != nil {
		writes = auth.Invalidating(records, cache)
	}
	return &Service{records: records, writes: writes, accounts: accounts}
}

// Collection returns the collection list views read and write through.
func (s *Service) Collection() domain.Collection[domain.Profile] {
	return s.writes
}

// ValidateDraft checks the profile fields of a new staff account.
func ValidateDraft(p domain.Profile) error {
	if p.Email == "" || p.Username == "" || p.Role == "" {
		return domain.Validation(allFieldsRequired)
	}
	if !p.Role.IsStaff() {
		return domain.Validation(invalidRole)
	}
	return nil
}

// ValidateRequest checks a creation request, password included.
func ValidateRequest(req CreateAdminRequest) error {
	if strings.TrimSpace(req.Role) == "" || req.Password == "" {
		return domain.Validation(allFieldsRequired)
	}
	return ValidateDraft(req.Draft())
}

// List returns one page of staff accounts, most recently updated first.
func (s *Service) List(ctx context.Context, q domain.Query) (*domain.PageResult[domain.Profile], error) {
	records, total, err := s.records.Query(ctx, domain.QueryOptions{
		Search:       q.SearchTerm,
		SearchFields: searchFields,
		OrderBy:      "updated_at",
		Offset:       q.Offset(),
		Limit:        q.Limit,
	})
	if err != nil {
		return nil, err
	}
	return domain.NewPageResult(records, total, q), nil
}

// Get returns one staff account.
func (s *Service) Get(ctx context.Context, id string) (*domain.Profile, error) {
	return s.records.Get(ctx, id)
}

// Create signs up a staff account and returns its profile.
func (s *Service) Create(ctx context.Context, req CreateAdminRequest) (*domain.Profile, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	draft := req.Draft()
	id, err := s.accounts.SignUp(ctx, draft.Email, req.Password, domain.SignUpAttributes{
		Username: draft.Username,
		Name:     draft.Name,
		Bio:      draft.Bio,
		Role:     draft.Role,
	})
	if err != nil {
		return nil, err
	}
	return s.records.Get(ctx, id)
}

// CheckUpdate rejects changes an actor may not make to id.
func CheckUpdate(actor *domain.Session, id string, patch domain.Patch) error {
	if len(patch) == 0 {
		return domain.Validation("nothing to update")
	}
	for _, col := range []string{"email", "username"} {
		if v, ok := patch[col]; ok && v == "" {
			return domain.Validation(col + " must not be empty")
		}
	}
	if actor != nil && actor.UserID == id {
		if _, ok := patch["role"]; ok {
			return domain.NewAppError(domain.CodeForbidden, "You cannot change your own role.", nil)
		}
		if _, ok := patch["blocked"]; ok {
			return domain.NewAppError(domain.CodeForbidden, "You cannot block your own account.", nil)
		}
	}
	return nil
}

// CheckDelete rejects an actor deleting their own account.
func CheckDelete(actor *domain.Session, id string) error {
	if actor != nil && actor.UserID == id {
		return domain.NewAppError(domain.CodeForbidden, "You cannot delete your own account.", nil)
	}
	return nil
}

// Update applies patch to a staff account on behalf of actor.
func (s *Service) Update(ctx context.Context, actor *domain.Session, id string, patch domain.Patch) (*domain.Profile, error) {
	if err := CheckUpdate(actor, id, patch); err != nil {
		return nil, err
	}
	if err := s.writes.Update(ctx, id, patch); err != nil {
		return nil, err
	}
	return s.records.Get(ctx, id)
}

// Delete removes a staff account on behalf of actor.
func (s *Service) Delete(ctx context.Context, actor *domain.Session, id string) error {
	if err := CheckDelete(actor, id); err != nil {
		return err
	}
	return s.writes.Delete(ctx, id)
}

// Export returns every staff account, most recently updated first.
func (s *Service) Export(ctx context.Context) (export.Table, error) {
	records, err := s.records.List(ctx, domain.QueryOptions{OrderBy: "updated_at"})
	if err != nil {
		return export.Table{}, err
	}
	t := export.Table{
		Title:   "Admins",
		Headers: []string{"ID", "Username", "Email", "Role", "Bio", "Blocked", "Updated At"},
		Rows:    make([][]string, 0, len(records)),
	}
	for _, p := range records {
		t.Rows = append(t.Rows, []string{
			p.ID, p.Username, p.Email, p.Role.Label(), p.Bio,
			strconv.FormatBool(p.Blocked), p.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return t, nil
}
