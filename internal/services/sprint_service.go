package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/scrumdb/internal/models"
	"github.com/localnerve/scrumdb/internal/store"
	"github.com/localnerve/scrumdb/internal/types"
	"gorm.io/gorm"
)

// Sprint duration bounds in days, inclusive.
const (
	MinSprintDays = 1
	MaxSprintDays = 28
)

// SprintInput is the payload for sprint creation and update.
type SprintInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	StartDate   types.FlexDate `json:"startDate"`
	EndDate     types.FlexDate `json:"endDate"`
	Status      string         `json:"status"`
}

// ValidateSprintWindow rejects out-of-bound sprint date ranges before any
// store write. The span must be 1..28 days for create and edit alike; the
// today-or-future start rule applies to new sprints only.
func ValidateSprintWindow(start, end time.Time, isNew bool) error {
	s := types.DateOnly(start)
	e := types.DateOnly(end)

	days := int(e.Sub(s).Hours() / 24)
	if days < MinSprintDays || days > MaxSprintDays {
		return fmt.Errorf("%w: sprint duration must be between %d and %d days, got %d",
			types.ErrValidation, MinSprintDays, MaxSprintDays, days)
	}

	if isNew {
		today := types.DateOnly(time.Now())
		if s.Before(today) {
			return fmt.Errorf("%w: sprint start date must be today or later", types.ErrValidation)
		}
	}

	return nil
}

// FetchSprintsByProject returns all sprints of one project ordered by start
// date.
func FetchSprintsByProject(ctx context.Context, db *gorm.DB, projectID string) ([]models.Sprint, error) {
	sprints, err := store.WithRetry(ctx, func() ([]models.Sprint, error) {
		var out []models.Sprint
		err := db.WithContext(ctx).
			Where("project_id = ?", projectID).
			Order("start_date").
			Find(&out).Error
		return out, err
	})
	if err != nil {
		return nil, types.Opf("sprint", "fetch", classify(err))
	}
	return sprints, nil
}

// CreateSprint validates the window and inserts a sprint into a project the
// viewer can write to.
func CreateSprint(ctx context.Context, db *gorm.DB, viewerID, projectID string, input SprintInput) (*models.Sprint, error) {
	if input.Title == "" {
		return nil, types.Opf("sprint", "create",
			fmt.Errorf("%w: title is required", types.ErrValidation))
	}
	if err := ValidateSprintWindow(input.StartDate.Time(), input.EndDate.Time(), true); err != nil {
		return nil, types.Opf("sprint", "create", err)
	}

	status := input.Status
	if status == "" {
		status = models.SprintStatusPlanned
	}

	sprint := models.Sprint{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		ProjectID:   projectID,
		UserID:      viewerID,
		StartDate:   input.StartDate.Time(),
		EndDate:     input.EndDate.Time(),
		Status:      status,
	}

	_, err := store.WithRetry(ctx, func() (struct{}, error) {
		return struct{}{}, db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// Viewer must own or collaborate on the target project.
			var n int64
			if err := tx.Model(&models.Project{}).
				Where("id = ? AND (id IN (?) OR id IN (?))", projectID,
					ownedProjectIDs(tx, viewerID), collaboratorProjectIDs(tx, viewerID)).
				Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return gorm.ErrRecordNotFound
			}
			return tx.Create(&sprint).Error
		})
	})
	if err != nil {
		return nil, types.Opf("sprint", "create", classify(err))
	}

	return &sprint, nil
}

// UpdateSprint applies partial changes to a sprint, re-validating the span
// against the resulting window. The write predicate holds the viewer scope.
func UpdateSprint(ctx context.Context, db *gorm.DB, viewerID, sprintID string, input SprintInput) (*models.Sprint, error) {
	sprint, err := store.WithRetry(ctx, func() (models.Sprint, error) {
		var out models.Sprint

		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var current models.Sprint
			if err := tx.
				Where("id = ? AND (project_id IN (?) OR project_id IN (?))", sprintID,
					ownedProjectIDs(tx, viewerID), collaboratorProjectIDs(tx, viewerID)).
				First(&current).Error; err != nil {
				return err
			}

			start := current.StartDate
			end := current.EndDate
			if !input.StartDate.IsZero() {
				start = input.StartDate.Time()
			}
			if !input.EndDate.IsZero() {
				end = input.EndDate.Time()
			}
			if err := ValidateSprintWindow(start, end, false); err != nil {
				return err
			}

			changes := map[string]interface{}{
				"start_date": start,
				"end_date":   end,
			}
			if input.Title != "" {
				changes["title"] = input.Title
			}
			if input.Description != "" {
				changes["description"] = input.Description
			}
			if input.Status != "" {
				changes["status"] = input.Status
			}

			if err := tx.Model(&current).Updates(changes).Error; err != nil {
				return err
			}

			return tx.Where("id = ?", sprintID).First(&out).Error
		})
		return out, err
	})
	if err != nil {
		return nil, types.Opf("sprint", "update", classify(err))
	}
	return &sprint, nil
}

// DeleteSprint removes a sprint the viewer can write to. Tasks still attached
// to the sprint are first returned to the project backlog so no task is
// orphaned by the delete.
func DeleteSprint(ctx context.Context, db *gorm.DB, viewerID, sprintID string) error {
	_, err := store.WithRetry(ctx, func() (struct{}, error) {
		return struct{}{}, db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var sprint models.Sprint
			if err := tx.
				Where("id = ? AND (project_id IN (?) OR project_id IN (?))", sprintID,
					ownedProjectIDs(tx, viewerID), collaboratorProjectIDs(tx, viewerID)).
				First(&sprint).Error; err != nil {
				return err
			}

			if err := tx.Model(&models.Task{}).
				Where("sprint_id = ?", sprintID).
				Updates(map[string]interface{}{
					"sprint_id": "",
					"status":    models.TaskStatusBacklog,
				}).Error; err != nil {
				return err
			}

			return tx.Delete(&sprint).Error
		})
	})
	if err != nil {
		return types.Opf("sprint", "delete", classify(err))
	}
	return nil
}
