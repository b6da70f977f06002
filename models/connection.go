package models

import "time"

// Connection is a directed edge between two nodes of the same branch
type Connection struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BranchID   uint      `gorm:"not null;index" json:"branch_id"`
	FromNodeID uint      `gorm:"not null;index" json:"from_node_id"`
	ToNodeID   uint      `gorm:"not null;index" json:"to_node_id"`
	CreatedAt  time.Time `json:"-"`

	// References
	From Node `gorm:"foreignKey:FromNodeID;constraint:OnDelete:CASCADE;" json:"-"`
	To   Node `gorm:"foreignKey:ToNodeID;constraint:OnDelete:CASCADE;" json:"-"`
}
