// project_service.go
//
// A scalable, high performance drop-in replacement for the scrumflow nodejs data layer
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of scrumdb.
// scrumdb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// scrumdb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with scrumdb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

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

// ProjectInput is the payload for project creation and update.
type ProjectInput struct {
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	EndGoal      string      `json:"endGoal"`
	BoardColumns models.JSON `json:"boardColumns"`
}

// FetchOwnedProjects returns every project owned by the viewer, newest first.
func FetchOwnedProjects(ctx context.Context, db *gorm.DB, viewerID string) ([]models.Project, error) {
	projects, err := store.WithRetry(ctx, func() ([]models.Project, error) {
		var out []models.Project
		err := db.WithContext(ctx).
			Where("owner_id = ?", viewerID).
			Order("created_at DESC").
			Find(&out).Error
		return out, err
	})
	if err != nil {
		return nil, types.Opf("project", "fetch", classify(err))
	}
	return projects, nil
}

// FetchCollaborativeProjects returns projects visible to the viewer through a
// collaborator record. Each is flagged IsCollaboration.
func FetchCollaborativeProjects(ctx context.Context, db *gorm.DB, viewerID string) ([]models.Project, error) {
	projects, err := store.WithRetry(ctx, func() ([]models.Project, error) {
		var out []models.Project
		err := db.WithContext(ctx).
			Where("id IN (?)", collaboratorProjectIDs(db, viewerID)).
			Order("created_at DESC").
			Find(&out).Error
		return out, err
	})
	if err != nil {
		return nil, types.Opf("project", "fetch", classify(err))
	}

	for i := range projects {
		projects[i].IsCollaboration = true
	}
	return projects, nil
}

// CreateProject inserts a project owned by the viewer and returns the
// canonical row.
func CreateProject(ctx context.Context, db *gorm.DB, viewerID string, input ProjectInput) (*models.Project, error) {
	if input.Title == "" {
		return nil, types.Opf("project", "create",
			fmt.Errorf("%w: title is required", types.ErrValidation))
	}

	project := models.Project{
		ID:           uuid.NewString(),
		Title:        input.Title,
		Description:  input.Description,
		EndGoal:      input.EndGoal,
		BoardColumns: input.BoardColumns,
		OwnerID:      viewerID,
	}

	_, err := store.WithRetry(ctx, func() (struct{}, error) {
		return struct{}{}, db.WithContext(ctx).Create(&project).Error
	})
	if err != nil {
		return nil, types.Opf("project", "create", classify(err))
	}

	return &project, nil
}

// UpdateProject applies partial changes to a project the viewer owns. The
// ownership predicate rides in the WHERE clause of the update itself.
func UpdateProject(ctx context.Context, db *gorm.DB, viewerID, projectID string, changes map[string]interface{}) (*models.Project, error) {
	project, err := store.WithRetry(ctx, func() (models.Project, error) {
		var out models.Project

		result := db.WithContext(ctx).Model(&models.Project{}).
			Where("id = ? AND owner_id = ?", projectID, viewerID).
			Updates(changes)
		if result.Error != nil {
			return out, result.Error
		}
		if result.RowsAffected == 0 {
			return out, gorm.ErrRecordNotFound
		}

		err := db.WithContext(ctx).Where("id = ?", projectID).First(&out).Error
		return out, err
	})
	if err != nil {
		return nil, types.Opf("project", "update", classify(err))
	}
	return &project, nil
}

// DeleteProject removes an owned project and everything hanging off it.
// Tasks go before sprints to satisfy referential order, then the burndown
// series and collaborator rows, then the project itself. The whole cascade
// runs inside one transaction so a partial failure rolls back instead of
// leaving orphaned rows.
func DeleteProject(ctx context.Context, db *gorm.DB, viewerID, projectID string) error {
	_, err := store.WithRetry(ctx, func() (struct{}, error) {
		return struct{}{}, db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var project models.Project
			if err := tx.Where("id = ? AND owner_id = ?", projectID, viewerID).
				First(&project).Error; err != nil {
				return err
			}

			if err := tx.Where("project_id = ?", projectID).
				Delete(&models.Task{}).Error; err != nil {
				return err
			}
			if err := tx.Where("project_id = ?", projectID).
				Delete(&models.Sprint{}).Error; err != nil {
				return err
			}
			if err := tx.Where("project_id = ?", projectID).
				Delete(&models.BurndownPoint{}).Error; err != nil {
				return err
			}
			if err := tx.Where("project_id = ?", projectID).
				Delete(&models.Collaborator{}).Error; err != nil {
				return err
			}

			return tx.Delete(&project).Error
		})
	})
	if err != nil {
		return types.Opf("project", "delete", classify(err))
	}
	return nil
}
