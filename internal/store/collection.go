// Package store implements the record collections behind every list screen
// on top of GORM.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/pkg"
)

// validColumn matches only alphanumeric characters and underscores.
var validColumn = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Spec configures a named collection over one table.
//
// Fixed predicates are applied to every read and write, so two collections
// can expose disjoint record sets of the same table. Only Searchable columns
// take part in free-text search, only Sortable columns can order results and
// only Writable columns can be patched.
type Spec struct {
	Name       string
	Fixed      []domain.Predicate
	Searchable []string
	Sortable   []string
	Writable   []string
}

// Collection is a GORM-backed domain.Collection.
type Collection[T any] struct {
	db   *gorm.DB
	spec Spec
}

var _ domain.Collection[domain.Profile] = (*Collection[domain.Profile])(nil)

// New creates a collection of T described by spec.
func New[T any](db *gorm.DB, spec Spec) *Collection[T] {
	return &Collection[T]{db: db, spec: spec}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.spec.Name
}

// scoped starts a statement on T with the fixed predicates applied.
func (c *Collection[T]) scoped(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).Model(new(T)).Scopes(where(c.spec.Fixed))
}

// Query returns one page of records and the total number of matches.
func (c *Collection[T]) Query(ctx context.Context, opts domain.QueryOptions) ([]T, int64, error) {
	base := c.scoped(ctx, c.db).Scopes(where(opts.Where), c.search(opts.Search, opts.SearchFields))

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, mapError(err)
	}

	records := make([]T, 0, max(opts.Limit, 0))
	q := base.Scopes(c.order(opts.OrderBy, opts.Ascending))
	if opts.Limit > 0 {
		q = q.Offset(max(opts.Offset, 0)).Limit(opts.Limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, 0, mapError(err)
	}
	return records, total, nil
}

// List returns every matching record in order. When columns are given only
// those are loaded.
func (c *Collection[T]) List(ctx context.Context, opts domain.QueryOptions, columns ...string) ([]T, error) {
	q := c.scoped(ctx, c.db).Scopes(where(opts.Where), c.search(opts.Search, opts.SearchFields), c.order(opts.OrderBy, opts.Ascending))
	if len(columns) > 0 {
		for _, col := range columns {
			if !validColumn.MatchString(col) {
				return nil, domain.Validation(fmt.Sprintf("invalid column %q", col))
			}
		}
		q = q.Select(columns)
	}
	var records []T
	if err := q.Find(&records).Error; err != nil {
		return nil, mapError(err)
	}
	return records, nil
}

// Get returns the record with the given id.
func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	var record T
	if err := c.scoped(ctx, c.db).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, mapError(err)
	}
	return &record, nil
}

// FindOne returns the first record matching all predicates.
func (c *Collection[T]) FindOne(ctx context.Context, preds ...domain.Predicate) (*T, error) {
	var record T
	if err := c.scoped(ctx, c.db).Scopes(where(preds)).First(&record).Error; err != nil {
		return nil, mapError(err)
	}
	return &record, nil
}

// Count returns the number of records matching all predicates.
func (c *Collection[T]) Count(ctx context.Context, preds ...domain.Predicate) (int64, error) {
	var n int64
	if err := c.scoped(ctx, c.db).Scopes(where(preds)).Count(&n).Error; err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

// Insert stores a new record. A record the fixed predicates would hide is a
// ValidationError and is rolled back.
func (c *Collection[T]) Insert(ctx context.Context, record *T) error {
	return pkg.WithTx(ctx, c.db, func(tx *gorm.DB) error {
		res := tx.Create(record)
		if res.Error != nil {
			return mapError(res.Error)
		}
		if len(c.spec.Fixed) == 0 {
			return nil
		}
		pk := res.Statement.Schema.PrioritizedPrimaryField
		if pk == nil {
			return fmt.Errorf("%s: model has no primary key", c.spec.Name)
		}
		id, _ := pk.ValueOf(ctx, res.Statement.ReflectValue)
		var n int64
		if err := c.scoped(ctx, tx).Where(pk.DBName+" = ?", id).Count(&n).Error; err != nil {
			return mapError(err)
		}
		if n == 0 {
			return domain.Validation(fmt.Sprintf("record does not belong to %s", c.spec.Name))
		}
		return nil
	})
}

// Update applies patch to the record with the given id.
func (c *Collection[T]) Update(ctx context.Context, id string, patch domain.Patch) error {
	values, err := c.values(patch)
	if err != nil {
		return err
	}
	res := c.scoped(ctx, c.db).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the record with the given id.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	res := c.scoped(ctx, c.db).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// BulkUpdate applies patch to every id. Either all ids are updated or none:
// an id outside the collection aborts the whole batch with ErrNotFound.
func (c *Collection[T]) BulkUpdate(ctx context.Context, ids []string, patch domain.Patch) error {
	if len(ids) == 0 {
		return nil
	}
	values, err := c.values(patch)
	if err != nil {
		return err
	}
	ids = uniqueIDs(ids)
	return pkg.WithTx(ctx, c.db, func(tx *gorm.DB) error {
		res := c.scoped(ctx, tx).Where("id IN ?", ids).Updates(values)
		if res.Error != nil {
			return mapError(res.Error)
		}
		if res.RowsAffected != int64(len(ids)) {
			return domain.NewAppError(domain.CodeNotFound, "some records no longer exist", nil)
		}
		return nil
	})
}

// BulkDelete removes every id, all or nothing.
func (c *Collection[T]) BulkDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	ids = uniqueIDs(ids)
	return pkg.WithTx(ctx, c.db, func(tx *gorm.DB) error {
		res := c.scoped(ctx, tx).Where("id IN ?", ids).Delete(new(T))
		if res.Error != nil {
			return mapError(res.Error)
		}
		if res.RowsAffected != int64(len(ids)) {
			return domain.NewAppError(domain.CodeNotFound, "some records no longer exist", nil)
		}
		return nil
	})
}

// values checks patch against the writable columns and stamps updated_at.
func (c *Collection[T]) values(patch domain.Patch) (map[string]any, error) {
	if len(patch) == 0 {
		return nil, domain.Validation("nothing to update")
	}
	values := make(map[string]any, len(patch)+1)
	for col, v := range patch {
		if !slices.Contains(c.spec.Writable, col) {
			return nil, domain.Validation(fmt.Sprintf("field %q cannot be changed", col))
		}
		values[col] = v
	}
	values["updated_at"] = time.Now()
	return values, nil
}

// search returns a scope matching term case-insensitively as a substring of
// any of the requested fields. An empty term adds no condition.
func (c *Collection[T]) search(term string, fields []string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(term)
		if term == "" {
			return db
		}
		if len(fields) == 0 {
			fields = c.spec.Searchable
		}

		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		conds := make([]string, 0, len(fields))
		args := make([]any, 0, len(fields))
		for _, f := range fields {
			if !validColumn.MatchString(f) || !slices.Contains(c.spec.Searchable, f) {
				continue
			}
			conds = append(conds, "LOWER("+f+`) LIKE ? ESCAPE '\'`)
			args = append(args, pattern)
		}
		if len(conds) == 0 {
			return db
		}
		return db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
}

// order returns a scope ordering by column when it is sortable.
func (c *Collection[T]) order(column string, ascending bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if column == "" || !validColumn.MatchString(column) || !slices.Contains(c.spec.Sortable, column) {
			return db
		}
		dir := " DESC"
		if ascending {
			dir = " ASC"
		}
		return db.Order(column + dir).Order("id" + dir)
	}
}

// where returns a scope applying every predicate. Predicates with an invalid
// column name are skipped.
func where(preds []domain.Predicate) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, p := range preds {
			if !validColumn.MatchString(p.Column) {
				continue
			}
			switch p.Op {
			case domain.OpEq, domain.OpLTE, domain.OpGTE:
				db = db.Where(p.Column+" "+string(p.Op)+" ?", p.Value)
			case domain.OpIn:
				db = db.Where(p.Column+" IN ?", p.Value)
			}
		}
		return db
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func uniqueIDs(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// mapError converts GORM errors to domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKeyError(err) {
		return domain.NewAppError(domain.CodeAlreadyExists, "already exists", err)
	}
	return domain.NewAppError(domain.CodeInternal, "database error", err)
}

// isDuplicateKeyError detects unique constraint violations by message, since
// the pure-Go SQLite driver does not translate them to gorm.ErrDuplicatedKey.
func isDuplicateKeyError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
