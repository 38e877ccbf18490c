package domain

import (
	"context"
	"time"
)

// Op is a comparison operator of a Predicate.
type Op string

// Supported predicate operators.
const (
	OpEq  Op = "="
	OpIn  Op = "IN"
	OpLTE Op = "<="
	OpGTE Op = ">="
)

// Predicate is a single column condition.
type Predicate struct {
	Column string
	Op     Op
	Value  any
}

// Eq matches column = v.
func Eq(column string, v any) Predicate { return Predicate{Column: column, Op: OpEq, Value: v} }

// In matches column IN (vs...).
func In[V any](column string, vs ...V) Predicate {
	return Predicate{Column: column, Op: OpIn, Value: vs}
}

// LTE matches column <= v.
func LTE(column string, v any) Predicate { return Predicate{Column: column, Op: OpLTE, Value: v} }

// GTE matches column >= v.
func GTE(column string, v any) Predicate { return Predicate{Column: column, Op: OpGTE, Value: v} }

// QueryOptions describes one paged read against a collection.
type QueryOptions struct {
	Where        []Predicate
	Search       string
	SearchFields []string
	OrderBy      string
	Ascending    bool
	Offset       int
	Limit        int
}

// Collection is the data capability a list screen needs from the backing store.
type Collection[T any] interface {
	Query(ctx context.Context, opts QueryOptions) ([]T, int64, error)
	Insert(ctx context.Context, record *T) error
	Update(ctx context.Context, id string, patch Patch) error
	Delete(ctx context.Context, id string) error
	BulkUpdate(ctx context.Context, ids []string, patch Patch) error
	BulkDelete(ctx context.Context, ids []string) error
}

// BlobStore stores uploaded files and returns their public URL.
type BlobStore interface {
	Upload(ctx context.Context, bucket, path string, data []byte) (string, error)
}

// SignUpAttributes are the profile fields set when an account is created.
type SignUpAttributes struct {
	Username string
	Name     string
	Phone    string
	Bio      string
	Role     Role
}

// Credentials is the result of a successful sign-in.
type Credentials struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Session   *Session  `json:"session"`
}

// AuthProvider creates accounts and manages dashboard sessions.
type AuthProvider interface {
	SignUp(ctx context.Context, email, password string, attrs SignUpAttributes) (string, error)
	SignIn(ctx context.Context, email, password string) (*Credentials, error)
	SignOut(ctx context.Context, token string) error
	CurrentSession(ctx context.Context, token string) (*Session, error)
}
