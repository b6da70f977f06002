package models

import "time"

const (
	RoleRoot    = "root"
	RoleLink    = "link"
	RoleDefault = "default"
)

// ValidRole reports whether role is one of the display tags a node may carry.
func ValidRole(role string) bool {
	switch role {
	case RoleRoot, RoleLink, RoleDefault:
		return true
	}
	return false
}

// Node is a positioned point on a branch canvas. X and Y are unbounded.
type Node struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	UserID   uint    `gorm:"not null;index" json:"-"`
	BranchID uint    `gorm:"not null;index" json:"branch_id"`
	Name     string  `gorm:"not null;size:200" json:"name"`
	X        float64 `gorm:"not null;default:0" json:"x"`
	Y        float64 `gorm:"not null;default:0" json:"y"`
	Role     string  `gorm:"not null;size:16;default:default" json:"role"`

	// Version only moves forward; stale writes are rejected.
	Version int64 `gorm:"not null;default:0" json:"version"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
