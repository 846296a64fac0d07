package repository

import (
	"context"
	"fmt"

	"github.com/camden-git/dancereg/models"
	"gorm.io/gorm"
)

var userUniqueColumns = map[string]string{
	"username": "username",
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit("Person").Create(user).Error
}

func (r *GormUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Preload("Groups").Preload("Person").First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Preload("Groups").Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update saves the user's own columns. Group membership changes through ReplaceGroups.
func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit("Groups", "Person").Save(user).Error
}

func (r *GormUserRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.UserGroup{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *GormUserRepository) ListAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Preload("Groups").Order("username ASC").Find(&users).Error
	return users, err
}

// ReplaceGroups sets the user's memberships to exactly groups.
func (r *GormUserRepository) ReplaceGroups(ctx context.Context, user *models.User, groups []*models.Group) error {
	assoc := r.db.WithContext(ctx).Model(user).Association("Groups")
	var err error
	if len(groups) == 0 {
		err = assoc.Clear()
	} else {
		err = assoc.Replace(groups)
	}
	if err != nil {
		return fmt.Errorf("failed to replace groups of user %d: %w", user.ID, err)
	}
	user.Groups = groups
	return nil
}

func (r *GormUserRepository) IsTaken(ctx context.Context, attribute, value string, excludeID uint) (bool, error) {
	column, ok := userUniqueColumns[attribute]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnsupportedAttribute, attribute)
	}
	return exists(ctx, r.db, "users", column, value, excludeID)
}

// Transaction runs fn with a repository bound to a single database transaction.
func (r *GormUserRepository) Transaction(ctx context.Context, fn func(repo UserRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormUserRepository{db: tx})
	})
}
