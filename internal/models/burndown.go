package models

import (
	"time"
)

// BurndownPoint is one day of a project's ideal/actual remaining story-point
// series. The series is partitioned per viewing user, so the unique key is
// (project_id, user_id, date). Rows are regenerated wholesale, never patched.
type BurndownPoint struct {
	ID           string    `gorm:"type:char(36);primaryKey" json:"id"`
	ProjectID    string    `gorm:"type:char(36);not null;uniqueIndex:idx_burndown_project_user_date,priority:1" json:"projectId"`
	UserID       string    `gorm:"type:char(36);not null;uniqueIndex:idx_burndown_project_user_date,priority:2" json:"userId"`
	Date         time.Time `gorm:"type:date;not null;uniqueIndex:idx_burndown_project_user_date,priority:3" json:"date"`
	IdealPoints  int       `gorm:"not null;default:0" json:"idealPoints"`
	ActualPoints int       `gorm:"not null;default:0" json:"actualPoints"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName overrides the table name for BurndownPoint
func (BurndownPoint) TableName() string {
	return "burndown_data"
}
