package models

import (
	"time"
)

// Default board columns. Beyond these, column names are free-form strings
// defined per project, so Status is not a closed enum.
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in-progress"
	TaskStatusReview     = "review"
	TaskStatusDone       = "done"
	TaskStatusBacklog    = "backlog"
)

// Task represents a unit of work on a board or in the project backlog.
// Invariant: SprintID is empty exactly when Status is "backlog".
type Task struct {
	ID          string `gorm:"type:char(36);primaryKey" json:"id"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Status      string `gorm:"size:64;not null;default:todo" json:"status"`
	// AssignedTo is the single canonical in-memory name for the assign_to
	// column; the snake_case spelling never leaves this mapping boundary.
	AssignedTo     string     `gorm:"column:assign_to;type:char(36)" json:"assignedTo,omitempty"`
	StoryPoints    int        `gorm:"not null;default:0" json:"storyPoints"`
	Priority       string     `gorm:"size:32" json:"priority,omitempty"`
	SprintID       string     `gorm:"type:char(36);index" json:"sprintId"`
	ProjectID      string     `gorm:"type:char(36);not null;index" json:"projectId"`
	UserID         string     `gorm:"type:char(36);not null;index" json:"userId"`
	CompletionDate *time.Time `gorm:"type:date" json:"completionDate,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// TableName overrides the table name for Task
func (Task) TableName() string {
	return "tasks"
}

// InBacklog reports whether the task sits in the project backlog.
func (t *Task) InBacklog() bool {
	return t.SprintID == "" && t.Status == TaskStatusBacklog
}
