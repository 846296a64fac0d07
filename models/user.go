package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// UserStatus mirrors the account states offered by the status dropdown.
type UserStatus int

const (
	UserStatusInactive UserStatus = 0
	UserStatusActive   UserStatus = 1
	UserStatusPending  UserStatus = 2
)

// UserTypeSystem is the only account type the account form submits.
const UserTypeSystem = "system"

// UserStatuses lists the selectable account states in display order.
var UserStatuses = []UserStatus{UserStatusActive, UserStatusInactive, UserStatusPending}

// Label is the English source text of the status, used as a translation key.
func (s UserStatus) Label() string {
	switch s {
	case UserStatusActive:
		return "Active"
	case UserStatusPending:
		return "Pending"
	default:
		return "Inactive"
	}
}

// Customer types offered by the account form.
const (
	CustomerTypeDefault   = "default"
	CustomerTypeRetail    = "retail"
	CustomerTypeWholesale = "wholesale"
)

// CustomerTypes lists the customer type keys in display order.
var CustomerTypes = []string{CustomerTypeDefault, CustomerTypeRetail, CustomerTypeWholesale}

// User is the login account that may own a Person record.
type User struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Username     string     `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"not null"` // "-" means don't include in JSON responses
	Status       UserStatus `json:"status" gorm:"not null;default:0"`
	CustomerType string     `json:"customer_type"`
	Timezone     string     `json:"timezone"`
	Type         string     `json:"type" gorm:"not null;default:system"`
	PersonID     *uint      `json:"person_id,omitempty" gorm:"index"`
	Person       *Person    `json:"person,omitempty" gorm:"foreignKey:PersonID"`
	Groups       []*Group   `json:"groups,omitempty" gorm:"many2many:user_groups;"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// SetPassword hashes the given password and sets it on the user model.
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the given password matches the user's hashed password.
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// GroupIDs returns the ids of the loaded groups.
func (u *User) GroupIDs() []uint {
	ids := make([]uint, 0, len(u.Groups))
	for _, g := range u.Groups {
		if g == nil {
			continue
		}
		ids = append(ids, g.ID)
	}
	return ids
}
