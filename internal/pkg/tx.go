package pkg

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// WithTx runs fn inside one transaction bound to ctx. A returned error or a
// panic in fn rolls everything back; bulk writes rely on this to stay all or
// nothing.
func WithTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error, opts ...*sql.TxOptions) error {
	return db.WithContext(ctx).Transaction(fn, opts...)
}
