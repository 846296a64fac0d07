package models

import "time"

// AddressType distinguishes the addresses a single owner may have.
type AddressType int

const (
	AddressTypeDefault  AddressType = 1
	AddressTypeBilling  AddressType = 2
	AddressTypeShipping AddressType = 3
)

// Address is shared by several owner models. The owner is identified by the
// (relatedmodel, relatedmodel_id) pair and the kind of address by Type.
type Address struct {
	ID               uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	RelatedModelID   uint        `gorm:"column:relatedmodel_id;index:idx_address_owner" json:"relatedmodel_id"`
	RelatedModelType string      `gorm:"column:relatedmodel;size:64;index:idx_address_owner" json:"relatedmodel"`
	Type             AddressType `gorm:"not null;default:1;index:idx_address_owner" json:"type"`
	Address1         string      `json:"address1"`
	Address2         string      `json:"address2"`
	City             string      `json:"city"`
	State            string      `json:"state"`
	Country          string      `gorm:"size:2" json:"country"`
	PostalCode       string      `json:"postal_code"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// TableName explicitly sets the table name for GORM.
func (Address) TableName() string {
	return "addresses"
}
