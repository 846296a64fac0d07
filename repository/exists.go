package repository

import (
	"context"
	"fmt"

	"github.com/camden-git/dancereg/database"
	"gorm.io/gorm"
)

// exists reports whether table has a row with column=value other than excludeID.
func exists(ctx context.Context, db *gorm.DB, table, column, value string, excludeID uint) (bool, error) {
	query, args, err := database.ExistsQuery(table, column, value, excludeID)
	if err != nil {
		return false, err
	}
	var found bool
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&found).Error; err != nil {
		return false, fmt.Errorf("failed to check %s.%s uniqueness: %w", table, column, err)
	}
	return found, nil
}
