package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/camden-git/dancereg/models"
	"gorm.io/gorm"
)

type AddressRepository struct {
	DB *gorm.DB
}

func NewAddressRepository(db *gorm.DB) *AddressRepository {
	return &AddressRepository{DB: db}
}

func (r *AddressRepository) GetDefault(ctx context.Context, ownerType string, ownerID uint) (*models.Address, error) {
	var addr models.Address
	err := r.DB.WithContext(ctx).
		Where("relatedmodel = ? AND relatedmodel_id = ? AND type = ?", ownerType, ownerID, models.AddressTypeDefault).
		First(&addr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get default address of %s %d: %w", ownerType, ownerID, err)
	}
	return &addr, nil
}

// SaveDefault inserts or replaces the owner's default address. address.ID is set from
// the stored row.
func (r *AddressRepository) SaveDefault(ctx context.Context, address *models.Address) error {
	address.Type = models.AddressTypeDefault
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Address
		err := tx.Where("relatedmodel = ? AND relatedmodel_id = ? AND type = ?",
			address.RelatedModelType, address.RelatedModelID, models.AddressTypeDefault).
			First(&existing).Error
		switch {
		case err == nil:
			address.ID = existing.ID
			address.CreatedAt = existing.CreatedAt
		case errors.Is(err, gorm.ErrRecordNotFound):
			address.ID = 0
		default:
			return fmt.Errorf("failed to look up default address: %w", err)
		}
		if err := tx.Save(address).Error; err != nil {
			return fmt.Errorf("failed to save default address of %s %d: %w", address.RelatedModelType, address.RelatedModelID, err)
		}
		return nil
	})
}
