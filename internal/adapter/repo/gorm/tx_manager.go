package gormrepo

import (
	"context"

	"villagemap/internal/app/ports"

	"gorm.io/gorm"
)

// TxManager scopes a load -> mutate -> persist cycle to one database
// transaction. Repos pick the transaction up from the context.
type TxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) TxManager {
	return TxManager{db: db}
}

func (t TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFromCtx(ctx); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(withTx(ctx, tx))
	})
}

var _ ports.TxManager = TxManager{}
