package models

import "time"

const DefaultBranchName = "Root Branch"

// Branch is a named workspace holding nodes and the connections between them
type Branch struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"-"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
	Name      string    `gorm:"not null;size:100" json:"name"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	Nodes       []Node       `gorm:"foreignKey:BranchID;constraint:OnDelete:CASCADE;" json:"-"`
	Connections []Connection `gorm:"foreignKey:BranchID;constraint:OnDelete:CASCADE;" json:"-"`
}
