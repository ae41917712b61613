package models

import (
	"time"
)

// Collaborator grants a non-owner user one role on a project. The
// (project_id, user_id) pair is unique; a user holds at most one role per
// project. The owner is never represented as a collaborator row.
type Collaborator struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	ProjectID string    `gorm:"type:char(36);not null;uniqueIndex:idx_collab_project_user,priority:1" json:"projectId"`
	UserID    string    `gorm:"type:char(36);not null;uniqueIndex:idx_collab_project_user,priority:2" json:"userId"`
	Role      string    `gorm:"size:32;not null" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName overrides the table name for Collaborator
func (Collaborator) TableName() string {
	return "collaborators"
}

// CollaboratorWithUser is the read shape for collaborator listings, joining
// the username and email of the collaborating account.
type CollaboratorWithUser struct {
	Collaborator
	Username string `json:"username"`
	Email    string `json:"email"`
}
