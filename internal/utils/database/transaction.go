package database

import (
	"context"

	"gorm.io/gorm"
)

// TxRunner runs fn inside one database transaction; an error from fn rolls
// every write back. Services hold one of these instead of opening
// transactions on a *gorm.DB directly.
type TxRunner func(ctx context.Context, fn func(tx *gorm.DB) error) error

func GormTxRunner(db *gorm.DB) TxRunner {
	return func(ctx context.Context, fn func(tx *gorm.DB) error) error {
		return db.WithContext(ctx).Transaction(fn)
	}
}
