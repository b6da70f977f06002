package models

import "time"

// User represents a user in the system
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null;size:100" json:"username"`
	Password  string    `gorm:"not null" json:"-"` // bcrypt hash
	Email     string    `gorm:"uniqueIndex;not null;size:254" json:"email"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	Todos    []Todo   `gorm:"foreignKey:UserID" json:"-"`
	Branches []Branch `gorm:"foreignKey:UserID" json:"-"`
}
