package postgres

import (
	"context"

	"gorm.io/gorm"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type base struct {
	db *gorm.DB
}

// getDB returns tx when a transaction is in flight, otherwise the base connection.
func (b base) getDB(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return b.db.WithContext(ctx)
}

func paginate(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return query.Limit(limit).Offset(offset)
}
