package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dealer-transfers-api/internal/domain"
	"gorm.io/gorm"
)

// mapErr converts driver errors into domain sentinels so services never see gorm types.
func mapErr(err error, what string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return fmt.Errorf("%s already exists: %w", what, domain.ErrConflict)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

// updateOne applies updates to the row matching key=id and reports ErrNotFound when nothing matched.
func updateOne(tx *gorm.DB, model any, key, id string, updates map[string]interface{}, what string) error {
	if len(updates) == 0 {
		return fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}
	res := tx.Model(model).Where(key+" = ?", id).Updates(updates)
	if res.Error != nil {
		return mapErr(res.Error, what)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}

func paginate(q *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	return q
}
