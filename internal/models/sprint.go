package models

import (
	"time"
)

// Sprint status values. A sprint is in exactly one state at any time; the
// workflow transitions are enforced client-side, not by the schema.
const (
	SprintStatusPlanned    = "planned"
	SprintStatusInProgress = "in-progress"
	SprintStatusCompleted  = "completed"
)

// Sprint represents a time-boxed iteration belonging to one project.
type Sprint struct {
	ID          string    `gorm:"type:char(36);primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	ProjectID   string    `gorm:"type:char(36);not null;index" json:"projectId"`
	UserID      string    `gorm:"type:char(36);not null;index" json:"userId"`
	StartDate   time.Time `gorm:"type:date;not null" json:"startDate"`
	EndDate     time.Time `gorm:"type:date;not null" json:"endDate"`
	Status      string    `gorm:"size:32;not null;default:planned" json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName overrides the table name for Sprint
func (Sprint) TableName() string {
	return "sprints"
}
