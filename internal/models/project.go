package models

import (
	"time"
)

// Project represents a scrum project owned by exactly one user.
type Project struct {
	ID          string    `gorm:"type:char(36);primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	EndGoal     string    `gorm:"column:end_goal;type:text" json:"endGoal"`
	OwnerID     string    `gorm:"type:char(36);not null;index" json:"ownerId"`
	// Custom board column names beyond the todo/in-progress/done defaults,
	// stored as a JSON array of strings.
	BoardColumns JSON      `gorm:"type:json" json:"boardColumns,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// IsCollaboration is derived at load time: true only when the project is
	// visible to the current viewer through a collaborator record rather than
	// ownership. Never persisted.
	IsCollaboration bool `gorm:"-" json:"isCollaboration"`
}

// TableName overrides the table name for Project
func (Project) TableName() string {
	return "projects"
}
