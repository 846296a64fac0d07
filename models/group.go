package models

import "time"

// Group is a named set of users, offered in the account form's groups dropdown.
type Group struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Users     []*User   `json:"-" gorm:"many2many:user_groups;"`
}

// UserGroup is the join table for the many-to-many relationship between users and groups.
type UserGroup struct {
	UserID  uint `json:"user_id" gorm:"primaryKey"`
	GroupID uint `json:"group_id" gorm:"primaryKey"`
}

// TableName overrides the table name for UserGroup to be `user_groups`
func (UserGroup) TableName() string {
	return "user_groups"
}
