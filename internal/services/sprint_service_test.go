package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/localnerve/scrumdb/internal/models"
	"github.com/localnerve/scrumdb/internal/types"
)

// futureSprintInput builds a sprint payload starting tomorrow spanning the
// given number of days, so the today-or-future rule always holds.
func futureSprintInput(title string, spanDays int) SprintInput {
	start := types.DateOnly(time.Now()).AddDate(0, 0, 1)
	return SprintInput{
		Title:     title,
		StartDate: types.FlexDate(start),
		EndDate:   types.FlexDate(start.AddDate(0, 0, spanDays)),
	}
}

func TestValidateSprintWindow(t *testing.T) {
	day := func(s string) time.Time {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.Fatalf("Bad test date %s: %v", s, err)
		}
		return d
	}

	cases := []struct {
		name  string
		start string
		end   string
		ok    bool
	}{
		{"one day", "2024-03-01", "2024-03-02", true},
		{"two weeks", "2024-03-01", "2024-03-15", true},
		{"four weeks", "2024-03-01", "2024-03-29", true},
		{"zero days", "2024-03-01", "2024-03-01", false},
		{"end before start", "2024-03-15", "2024-03-01", false},
		{"twenty-nine days", "2024-03-01", "2024-03-30", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSprintWindow(day(tc.start), day(tc.end), false)
			if tc.ok && err != nil {
				t.Errorf("Expected valid window, got %v", err)
			}
			if !tc.ok && !errors.Is(err, types.ErrValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestValidateSprintWindowFutureStart(t *testing.T) {
	yesterday := types.DateOnly(time.Now()).AddDate(0, 0, -1)

	err := ValidateSprintWindow(yesterday, yesterday.AddDate(0, 0, 7), true)
	if !errors.Is(err, types.ErrValidation) {
		t.Errorf("Expected validation error for past start on create, got %v", err)
	}

	// The same window is fine on edit.
	if err := ValidateSprintWindow(yesterday, yesterday.AddDate(0, 0, 7), false); err != nil {
		t.Errorf("Expected past start accepted on edit, got %v", err)
	}
}

func TestCreateSprintVisibility(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	owner := registerTestUser(t, db, "alice")
	collab := registerTestUser(t, db, "bob")
	stranger := registerTestUser(t, db, "mallory")
	project := createTestProject(t, db, owner.ID, "Apollo")

	_, err := AddCollaborator(ctx, db, owner.ID, project.ID, CollaboratorInput{
		UserID: collab.ID,
		Role:   RoleScrumMaster,
	})
	if err != nil {
		t.Fatalf("Failed to add collaborator: %v", err)
	}

	if _, err := CreateSprint(ctx, db, owner.ID, project.ID, futureSprintInput("By owner", 14)); err != nil {
		t.Errorf("Owner create failed: %v", err)
	}
	if _, err := CreateSprint(ctx, db, collab.ID, project.ID, futureSprintInput("By collaborator", 14)); err != nil {
		t.Errorf("Collaborator create failed: %v", err)
	}

	_, err = CreateSprint(ctx, db, stranger.ID, project.ID, futureSprintInput("By stranger", 14))
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Expected not found for stranger create, got %v", err)
	}
}

func TestCreateSprintDefaultsStatus(t *testing.T) {
	db := openTestDB(t)
	owner := registerTestUser(t, db, "alice")
	project := createTestProject(t, db, owner.ID, "Apollo")

	sprint, err := CreateSprint(context.Background(), db, owner.ID, project.ID,
		futureSprintInput("Sprint 1", 7))
	if err != nil {
		t.Fatalf("Failed to create sprint: %v", err)
	}
	if sprint.Status != models.SprintStatusPlanned {
		t.Errorf("Expected status planned, got %s", sprint.Status)
	}
}

func TestUpdateSprintRevalidatesWindow(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	owner := registerTestUser(t, db, "alice")
	project := createTestProject(t, db, owner.ID, "Apollo")

	sprint, err := CreateSprint(ctx, db, owner.ID, project.ID, futureSprintInput("Sprint 1", 14))
	if err != nil {
		t.Fatalf("Failed to create sprint: %v", err)
	}

	// Pushing the end date past the four-week bound is rejected.
	_, err = UpdateSprint(ctx, db, owner.ID, sprint.ID, SprintInput{
		EndDate: types.FlexDate(types.DateOnly(sprint.StartDate).AddDate(0, 0, 40)),
	})
	if !errors.Is(err, types.ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}

	updated, err := UpdateSprint(ctx, db, owner.ID, sprint.ID, SprintInput{
		Title:  "Sprint 1 renamed",
		Status: models.SprintStatusInProgress,
	})
	if err != nil {
		t.Fatalf("Failed to update sprint: %v", err)
	}
	if updated.Title != "Sprint 1 renamed" || updated.Status != models.SprintStatusInProgress {
		t.Errorf("Canonical row not updated: %+v", updated)
	}
}

func TestDeleteSprintReturnsTasksToBacklog(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	owner := registerTestUser(t, db, "alice")
	project := createTestProject(t, db, owner.ID, "Apollo")

	sprint, err := CreateSprint(ctx, db, owner.ID, project.ID, futureSprintInput("Sprint 1", 7))
	if err != nil {
		t.Fatalf("Failed to create sprint: %v", err)
	}
	task, err := CreateTask(ctx, db, owner.ID, project.ID, TaskInput{
		Title:    "On the board",
		SprintID: sprint.ID,
		Status:   models.TaskStatusInProgress,
	})
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	if err := DeleteSprint(ctx, db, owner.ID, sprint.ID); err != nil {
		t.Fatalf("Failed to delete sprint: %v", err)
	}

	var after models.Task
	if err := db.Where("id = ?", task.ID).First(&after).Error; err != nil {
		t.Fatalf("Task vanished with the sprint: %v", err)
	}
	if !after.InBacklog() {
		t.Errorf("Expected task back in backlog, got sprint %q status %q",
			after.SprintID, after.Status)
	}
}

func TestFetchSprintsOrderedByStart(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	owner := registerTestUser(t, db, "alice")
	project := createTestProject(t, db, owner.ID, "Apollo")

	later := futureSprintInput("Later", 7)
	later.StartDate = types.FlexDate(later.StartDate.Time().AddDate(0, 0, 30))
	later.EndDate = types.FlexDate(later.EndDate.Time().AddDate(0, 0, 30))

	if _, err := CreateSprint(ctx, db, owner.ID, project.ID, later); err != nil {
		t.Fatalf("Failed to create sprint: %v", err)
	}
	if _, err := CreateSprint(ctx, db, owner.ID, project.ID, futureSprintInput("Sooner", 7)); err != nil {
		t.Fatalf("Failed to create sprint: %v", err)
	}

	sprints, err := FetchSprintsByProject(ctx, db, project.ID)
	if err != nil {
		t.Fatalf("Failed to fetch sprints: %v", err)
	}
	if len(sprints) != 2 {
		t.Fatalf("Expected 2 sprints, got %d", len(sprints))
	}
	if sprints[0].Title != "Sooner" || sprints[1].Title != "Later" {
		t.Errorf("Expected start-date order, got %s then %s", sprints[0].Title, sprints[1].Title)
	}
}
