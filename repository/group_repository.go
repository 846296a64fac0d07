package repository

import (
	"context"
	"fmt"

	"github.com/camden-git/dancereg/models"
	"gorm.io/gorm"
)

type GormGroupRepository struct {
	db *gorm.DB
}

func NewGormGroupRepository(db *gorm.DB) GroupRepository {
	return &GormGroupRepository{db: db}
}

func (r *GormGroupRepository) Create(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *GormGroupRepository) GetByName(ctx context.Context, name string) (*models.Group, error) {
	var group models.Group
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// GetByIDs loads the groups with the given ids. It fails when any id is unknown.
func (r *GormGroupRepository) GetByIDs(ctx context.Context, ids []uint) ([]*models.Group, error) {
	groups := make([]*models.Group, 0, len(ids))
	if len(ids) == 0 {
		return groups, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}
	if len(groups) != len(uniqueIDs(ids)) {
		return nil, fmt.Errorf("unknown group in %v: %w", ids, gorm.ErrRecordNotFound)
	}
	return groups, nil
}

func (r *GormGroupRepository) ListAll(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.WithContext(ctx).Order("name ASC").Find(&groups).Error
	return groups, err
}

func (r *GormGroupRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// delete the memberships first
		if err := tx.Where("group_id = ?", id).Delete(&models.UserGroup{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Group{}, id).Error
	})
}

func uniqueIDs(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
