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

// TaskInput is the payload for task creation.
type TaskInput struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      string        `json:"status"`
	AssignedTo  string        `json:"assignedTo"`
	StoryPoints types.FlexInt `json:"storyPoints"`
	Priority    string        `json:"priority"`
	SprintID    string        `json:"sprintId"`
}

// TaskPatch carries partial task changes. Nil fields are left untouched, so a
// title-only update never disturbs the completion date.
type TaskPatch struct {
	Title          *string         `json:"title"`
	Description    *string         `json:"description"`
	Status         *string         `json:"status"`
	AssignedTo     *string         `json:"assignedTo"`
	StoryPoints    *types.FlexInt  `json:"storyPoints"`
	Priority       *string         `json:"priority"`
	SprintID       *string         `json:"sprintId"`
	CompletionDate *types.FlexDate `json:"completionDate"`
}

// normalizeBoardState forces the backlog invariant: an empty sprint id means
// backlog status, a sprint assignment means a non-backlog status.
func normalizeBoardState(sprintID, status string) (string, string) {
	if sprintID == "" {
		return "", models.TaskStatusBacklog
	}
	if status == "" || status == models.TaskStatusBacklog {
		return sprintID, models.TaskStatusTodo
	}
	return sprintID, status
}

// FetchTasksBySprint returns all tasks attached to one sprint.
func FetchTasksBySprint(ctx context.Context, db *gorm.DB, sprintID string) ([]models.Task, error) {
	tasks, err := store.WithRetry(ctx, func() ([]models.Task, error) {
		var out []models.Task
		err := db.WithContext(ctx).
			Where("sprint_id = ?", sprintID).
			Order("created_at").
			Find(&out).Error
		return out, err
	})
	if err != nil {
		return nil, types.Opf("task", "fetch", classify(err))
	}
	return tasks, nil
}

// FetchBacklogTasks returns the project's unassigned tasks: empty sprint id
// and backlog status.
func FetchBacklogTasks(ctx context.Context, db *gorm.DB, projectID string) ([]models.Task, error) {
	tasks, err := store.WithRetry(ctx, func() ([]models.Task, error) {
		var out []models.Task
		err := db.WithContext(ctx).
			Where("project_id = ? AND (sprint_id = ? OR sprint_id IS NULL) AND status = ?",
				projectID, "", models.TaskStatusBacklog).
			Order("created_at").
			Find(&out).Error
		return out, err
	})
	if err != nil {
		return nil, types.Opf("task", "fetch", classify(err))
	}
	return tasks, nil
}

// CreateTask inserts a task into a project the viewer can write to and
// returns the canonical row.
func CreateTask(ctx context.Context, db *gorm.DB, viewerID, projectID string, input TaskInput) (*models.Task, error) {
	if input.Title == "" {
		return nil, types.Opf("task", "create",
			fmt.Errorf("%w: title is required", types.ErrValidation))
	}
	if input.StoryPoints.Int() < 0 {
		return nil, types.Opf("task", "create",
			fmt.Errorf("%w: story points must not be negative", types.ErrValidation))
	}

	sprintID, status := normalizeBoardState(input.SprintID, input.Status)

	task := models.Task{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		Status:      status,
		AssignedTo:  input.AssignedTo,
		StoryPoints: input.StoryPoints.Int(),
		Priority:    input.Priority,
		SprintID:    sprintID,
		ProjectID:   projectID,
		UserID:      viewerID,
	}

	// A task born done counts as its own first transition.
	if status == models.TaskStatusDone {
		stamp := types.DateOnly(time.Now())
		task.CompletionDate = &stamp
	}

	_, err := store.WithRetry(ctx, func() (struct{}, error) {
		return struct{}{}, db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
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
			return tx.Create(&task).Error
		})
	})
	if err != nil {
		return nil, types.Opf("task", "create", classify(err))
	}

	return &task, nil
}

// UpdateTask applies a partial patch to a task the viewer can write to. The
// first transition to done stamps completion_date with today's date unless
// the patch sets one explicitly; later updates leave it untouched.
func UpdateTask(ctx context.Context, db *gorm.DB, viewerID, taskID string, patch TaskPatch) (*models.Task, error) {
	task, err := store.WithRetry(ctx, func() (models.Task, error) {
		var out models.Task

		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var current models.Task
			if err := tx.
				Where("id = ? AND (project_id IN (?) OR project_id IN (?))", taskID,
					ownedProjectIDs(tx, viewerID), collaboratorProjectIDs(tx, viewerID)).
				First(&current).Error; err != nil {
				return err
			}

			changes := map[string]interface{}{}
			if patch.Title != nil {
				changes["title"] = *patch.Title
			}
			if patch.Description != nil {
				changes["description"] = *patch.Description
			}
			if patch.AssignedTo != nil {
				changes["assign_to"] = *patch.AssignedTo
			}
			if patch.StoryPoints != nil {
				if patch.StoryPoints.Int() < 0 {
					return fmt.Errorf("%w: story points must not be negative", types.ErrValidation)
				}
				changes["story_points"] = patch.StoryPoints.Int()
			}
			if patch.Priority != nil {
				changes["priority"] = *patch.Priority
			}

			sprintID := current.SprintID
			status := current.Status
			if patch.SprintID != nil {
				sprintID = *patch.SprintID
			}
			if patch.Status != nil {
				status = *patch.Status
			}
			if patch.SprintID != nil || patch.Status != nil {
				sprintID, status = normalizeBoardState(sprintID, status)
				changes["sprint_id"] = sprintID
				changes["status"] = status
			}

			if patch.CompletionDate != nil {
				changes["completion_date"] = patch.CompletionDate.Time()
			} else if status == models.TaskStatusDone &&
				current.Status != models.TaskStatusDone &&
				current.CompletionDate == nil {
				changes["completion_date"] = types.DateOnly(time.Now())
			}

			if err := tx.Model(&current).Updates(changes).Error; err != nil {
				return err
			}

			return tx.Where("id = ?", taskID).First(&out).Error
		})
		return out, err
	})
	if err != nil {
		return nil, types.Opf("task", "update", classify(err))
	}
	return &task, nil
}

// DeleteTask removes a task the viewer can write to.
func DeleteTask(ctx context.Context, db *gorm.DB, viewerID, taskID string) error {
	_, err := store.WithRetry(ctx, func() (struct{}, error) {
		result := db.WithContext(ctx).
			Where("id = ? AND (project_id IN (?) OR project_id IN (?))", taskID,
				ownedProjectIDs(db, viewerID), collaboratorProjectIDs(db, viewerID)).
			Delete(&models.Task{})
		if result.Error != nil {
			return struct{}{}, result.Error
		}
		if result.RowsAffected == 0 {
			return struct{}{}, gorm.ErrRecordNotFound
		}
		return struct{}{}, nil
	})
	if err != nil {
		return types.Opf("task", "delete", classify(err))
	}
	return nil
}
