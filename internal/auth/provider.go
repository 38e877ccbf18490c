package auth

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/crypto/bcrypt"

	"github.com/simp-lee/newsdesk/internal/domain"
)

// ProfileStore is the part of the profiles collection the provider needs.
type ProfileStore interface {
	Insert(ctx context.Context, p *domain.Profile) error
	Get(ctx context.Context, id string) (*domain.Profile, error)
	FindOne(ctx context.Context, preds ...domain.Predicate) (*domain.Profile, error)
}

// Options tune a Provider.
type Options struct {
	CacheSize int
	CacheTTL  time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	Logger     *slog.Logger
}

// Provider is the dashboard's domain.AuthProvider.
//
// Sessions are stateless tokens; the role and blocked flag behind a session
// are re-read from the store through a short-lived cache, so role changes
// and blocks take effect within the cache TTL.
type Provider struct {
	profiles ProfileStore
	tokens   *TokenIssuer
	revoked  Revoker
	cache    *expirable.LRU[string, domain.Profile]
	cost     int
	log      *slog.Logger
}

var _ domain.AuthProvider = (*Provider)(nil)

// NewProvider creates a provider. Panics if a collaborator is nil.
func NewProvider(profiles ProfileStore, tokens *TokenIssuer, revoked Revoker, opts Options) *Provider {
	if profiles == nil || tokens == nil || revoked == nil {
		panic("auth.NewProvider: profiles, tokens and revoker must not be nil")
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 1024
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Provider{
		profiles: profiles,
		tokens:   tokens,
		revoked:  revoked,
		cache:    expirable.NewLRU[string, domain.Profile](opts.CacheSize, nil, opts.CacheTTL),
		cost:     opts.BcryptCost,
		log:      opts.Logger,
	}
}

// SignUp creates an account and returns its id.
func (p *Provider) SignUp(ctx context.Context, email, password string, attrs domain.SignUpAttributes) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateCredentials(email, password); err != nil {
		return "", err
	}
	role := attrs.Role
	if role == "" {
		role = domain.RoleUser
	}
	if _, ok := domain.ParseRole(string(role)); !ok {
		return "", domain.Validation("role is invalid")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", domain.NewAppError(domain.CodeInternal, "failed to hash password", err)
	}

	profile := domain.Profile{
		Username:     strings.TrimSpace(attrs.Username),
		Name:         strings.TrimSpace(attrs.Name),
		Email:        email,
		Phone:        strings.TrimSpace(attrs.Phone),
		Bio:          strings.TrimSpace(attrs.Bio),
		Role:         role,
		PasswordHash: string(hash),
	}
	if err := p.profiles.Insert(ctx, &profile); err != nil {
		if domain.IsAlreadyExists(err) {
			return "", domain.NewAppError(domain.CodeAlreadyExists, "email already registered", err)
		}
		return "", err
	}

	p.log.InfoContext(ctx, "account created", slog.String("user_id", profile.ID), slog.String("role", string(role)))
	return profile.ID, nil
}

// SignIn checks email and password and issues a session token. Only staff
// accounts that are not blocked may sign in; every refusal looks the same.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*domain.Credentials, error) {
	profile, err := p.profiles.FindOne(ctx, domain.Eq("email", strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if profile.Blocked || !profile.Role.IsStaff() {
		p.log.WarnContext(ctx, "sign-in refused", slog.String("user_id", profile.ID), slog.Bool("blocked", profile.Blocked))
		return nil, domain.ErrUnauthorized
	}

	token, claims, err := p.tokens.Issue(profile)
	if err != nil {
		return nil, err
	}
	p.cache.Add(profile.ID, *profile)

	return &domain.Credentials{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		Session:   sessionFrom(profile, claims),
	}, nil
}

// SignOut revokes token. Signing out an invalid or expired token is a no-op.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	claims, err := p.tokens.Parse(token)
	if err != nil {
		return nil
	}
	return p.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// CurrentSession resolves token to a session carrying the account's current
// role. Revoked tokens and blocked or demoted accounts are Unauthorized.
func (p *Provider) CurrentSession(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := p.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	revoked, err := p.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, domain.ErrUnauthorized
	}

	profile, err := p.profile(ctx, claims.Subject)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if profile.Blocked || !profile.Role.IsStaff() {
		return nil, domain.ErrUnauthorized
	}
	return sessionFrom(&profile, claims), nil
}

// Forget drops the cached profile of id so the next lookup reads the store.
func (p *Provider) Forget(id string) {
	p.cache.Remove(id)
}

func (p *Provider) profile(ctx context.Context, id string) (domain.Profile, error) {
	if cached, ok := p.cache.Get(id); ok {
		return cached, nil
	}
	profile, err := p.profiles.Get(ctx, id)
	if err != nil {
		return domain.Profile{}, err
	}
	p.cache.Add(id, *profile)
	return *profile, nil
}

func sessionFrom(p *domain.Profile, c *Claims) *domain.Session {
	return &domain.Session{
		UserID:    p.ID,
		Email:     p.Email,
		Username:  p.Username,
		Role:      p.Role,
		TokenID:   c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}
}

// validateCredentials checks email syntax and the bcrypt password bounds.
func validateCredentials(email, password string) error {
	if email == "" {
		return domain.Validation("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return domain.Validation("email must be a valid email address")
	}
	if len(password) < 8 {
		return domain.Validation("password must be at least 8 characters")
	}
	if len(password) > 72 {
		return domain.Validation("password must not exceed 72 characters")
	}
	return nil
}
