package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/localnerve/scrumdb/internal/models"
	"github.com/localnerve/scrumdb/internal/store"
	"github.com/localnerve/scrumdb/internal/types"
	"gorm.io/gorm"
)

// Collaborator role vocabulary. This is the canonical three-role scrum set;
// legacy viewer/member/admin values are not recognized.
const (
	RoleProductOwner = "product_owner"
	RoleTeamMember   = "team_member"
	RoleScrumMaster  = "scrum_master"
)

// ValidRole reports whether s is a recognized collaborator role.
func ValidRole(s string) bool {
	switch s {
	case RoleProductOwner, RoleTeamMember, RoleScrumMaster:
		return true
	}
	return false
}

// CollaboratorInput is the payload for granting a role on a project.
type CollaboratorInput struct {
	UserID string `json:"userId"`
	// Identifier may be given instead of UserID: an email or username to
	// resolve against the users table.
	Identifier string `json:"identifier"`
	Role       string `json:"role"`
}

// FetchCollaborators lists the collaborators of a project together with each
// account's username and email.
func FetchCollaborators(ctx context.Context, db *gorm.DB, projectID string) ([]models.CollaboratorWithUser, error) {
	collabs, err := store.WithRetry(ctx, func() ([]models.CollaboratorWithUser, error) {
		var out []models.CollaboratorWithUser
		err := db.WithContext(ctx).
			Table("collaborators").
			Select("collaborators.*, users.username, users.email").
			Joins("JOIN users ON users.id = collaborators.user_id").
			Where("collaborators.project_id = ?", projectID).
			Order("collaborators.created_at").
			Scan(&out).Error
		return out, err
	})
	if err != nil {
		return nil, types.Opf("collaborator", "fetch", classify(err))
	}
	return collabs, nil
}

// AddCollaborator grants a role on a project the viewer owns. The unique
// (project_id, user_id) constraint rejects a second role for the same user.
func AddCollaborator(ctx context.Context, db *gorm.DB, viewerID, projectID string, input CollaboratorInput) (*models.Collaborator, error) {
	if !ValidRole(input.Role) {
		return nil, types.Opf("collaborator", "create",
			fmt.Errorf("%w: unknown role %q", types.ErrValidation, input.Role))
	}

	userID := input.UserID
	if userID == "" && input.Identifier != "" {
		user, err := FindUserByIdentifier(ctx, db, input.Identifier)
		if err != nil {
			return nil, types.Opf("collaborator", "create", types.ErrNotFound)
		}
		userID = user.ID
	}
	if userID == "" {
		return nil, types.Opf("collaborator", "create",
			fmt.Errorf("%w: userId or identifier is required", types.ErrValidation))
	}

	collab := models.Collaborator{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		UserID:    userID,
		Role:      input.Role,
	}

	_, err := store.WithRetry(ctx, func() (struct{}, error) {
		return struct{}{}, db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var project models.Project
			if err := tx.Where("id = ? AND owner_id = ?", projectID, viewerID).
				First(&project).Error; err != nil {
				return err
			}
			// The owner already holds full privileges and never appears as a
			// collaborator row for themselves.
			if userID == project.OwnerID {
				return fmt.Errorf("%w: project owner cannot be a collaborator", types.ErrValidation)
			}
			return tx.Create(&collab).Error
		})
	})
	if err != nil {
		return nil, types.Opf("collaborator", "create", classify(err))
	}

	return &collab, nil
}

// UpdateCollaboratorRole changes the role of an existing collaborator on a
// project the viewer owns.
func UpdateCollaboratorRole(ctx context.Context, db *gorm.DB, viewerID, collaboratorID, role string) (*models.Collaborator, error) {
	if !ValidRole(role) {
		return nil, types.Opf("collaborator", "update",
			fmt.Errorf("%w: unknown role %q", types.ErrValidation, role))
	}

	collab, err := store.WithRetry(ctx, func() (models.Collaborator, error) {
		var out models.Collaborator

		result := db.WithContext(ctx).Model(&models.Collaborator{}).
			Where("id = ? AND project_id IN (?)", collaboratorID, ownedProjectIDs(db, viewerID)).
			Update("role", role)
		if result.Error != nil {
			return out, result.Error
		}
		if result.RowsAffected == 0 {
			return out, gorm.ErrRecordNotFound
		}

		err := db.WithContext(ctx).Where("id = ?", collaboratorID).First(&out).Error
		return out, err
	})
	if err != nil {
		return nil, types.Opf("collaborator", "update", classify(err))
	}
	return &collab, nil
}

// RemoveCollaborator revokes a collaborator's role on a project the viewer
// owns.
func RemoveCollaborator(ctx context.Context, db *gorm.DB, viewerID, collaboratorID string) error {
	_, err := store.WithRetry(ctx, func() (struct{}, error) {
		result := db.WithContext(ctx).
			Where("id = ? AND project_id IN (?)", collaboratorID, ownedProjectIDs(db, viewerID)).
			Delete(&models.Collaborator{})
		if result.Error != nil {
			return struct{}{}, result.Error
		}
		if result.RowsAffected == 0 {
			return struct{}{}, gorm.ErrRecordNotFound
		}
		return struct{}{}, nil
	})
	if err != nil {
		return types.Opf("collaborator", "delete", classify(err))
	}
	return nil
}

// FetchCollaboratorRole returns the role the user holds on a project, or
// ErrNotFound when no collaborator row exists.
func FetchCollaboratorRole(ctx context.Context, db *gorm.DB, projectID, userID string) (string, error) {
	role, err := store.WithRetry(ctx, func() (string, error) {
		var collab models.Collaborator
		err := db.WithContext(ctx).
			Where("project_id = ? AND user_id = ?", projectID, userID).
			First(&collab).Error
		return collab.Role, err
	})
	if err != nil {
		return "", types.Opf("collaborator", "fetch", classify(err))
	}
	return role, nil
}
