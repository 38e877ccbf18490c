package users

import (
	"context"
	"net/mail"
	"strconv"

	"github.com/simp-lee/newsdesk/internal/auth"
	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/export"
	"github.com/simp-lee/newsdesk/internal/store"
)

// Service implements the users screen on top of the users collection.
type Service struct {
	records *store.Collection[domain.Profile]
	writes  domain.Collection[domain.Profile]
}

// NewService creates a Service. Writes evict the touched profiles from
// sessions when cache is not nil.
func NewService(records *store.Collection[domain.Profile], cache auth.Forgetter) *Service {
	if records == nil {
		panic("users.NewService: collection must not be nil")
	}
	var writes domain.Collection[domain.Profile] = records
	if cache != nil {
		writes = auth.Invalidating(records, cache)
	}
	return &Service{records: records, writes: writes}
}

// Collection returns the collection list views read and write through.
func (s *Service) Collection() domain.Collection[domain.Profile] {
	return s.writes
}

// ValidateDraft checks the fields a new user must have.
func ValidateDraft(p domain.Profile) error {
	switch {
	case p.Phone == "":
		return domain.Validation("Phone number is required.")
	case p.Email == "":
		return domain.Validation("Email is required.")
	case p.Name == "":
		return domain.Validation("Name is required.")
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return domain.Validation("Email must be a valid email address.")
	}
	return nil
}

// List returns one page of users, most recently updated first.
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

// Get returns one user.
func (s *Service) Get(ctx context.Context, id string) (*domain.Profile, error) {
	return s.records.Get(ctx, id)
}

// Create validates and stores draft as a reader account.
func (s *Service) Create(ctx context.Context, draft domain.Profile) (*domain.Profile, error) {
	draft.Role = domain.RoleUser
	if err := ValidateDraft(draft); err != nil {
		return nil, err
	}
	if err := s.records.Insert(ctx, &draft); err != nil {
		if domain.IsAlreadyExists(err) {
			return nil, domain.NewAppError(domain.CodeAlreadyExists, "A user with this email already exists.", err)
		}
		return nil, err
	}
	return &draft, nil
}

// Update applies patch to a user and returns the stored record.
func (s *Service) Update(ctx context.Context, id string, patch domain.Patch) (*domain.Profile, error) {
	if err := ValidatePatch(patch); err != nil {
		return nil, err
	}
	if err := s.writes.Update(ctx, id, patch); err != nil {
		return nil, err
	}
	return s.records.Get(ctx, id)
}

// ValidatePatch rejects blanking the fields a user must keep.
func ValidatePatch(patch domain.Patch) error {
	for _, col := range []string{"email", "username"} {
		if v, ok := patch[col]; ok && v == "" {
			return domain.Validation(col + " must not be empty")
		}
	}
	return nil
}

// SetBlocked blocks or unblocks a user.
func (s *Service) SetBlocked(ctx context.Context, id string, blocked bool) error {
	return s.writes.Update(ctx, id, domain.Patch{"blocked": blocked})
}

// Delete removes a user.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.writes.Delete(ctx, id)
}

// Export returns every user, most recently updated first.
func (s *Service) Export(ctx context.Context) (export.Table, error) {
	records, err := s.records.List(ctx, domain.QueryOptions{OrderBy: "updated_at"})
	if err != nil {
		return export.Table{}, err
	}
	t := export.Table{
		Title:   "Users",
		Headers: []string{"ID", "Name", "Username", "Email", "Phone", "Bio", "Blocked", "Updated At"},
		Rows:    make([][]string, 0, len(records)),
	}
	for _, p := range records {
		t.Rows = append(t.Rows, []string{
			p.ID, p.Name, p.Username, p.Email, p.Phone, p.Bio,
			strconv.FormatBool(p.Blocked), p.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return t, nil
}
