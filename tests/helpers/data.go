// data.go
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

package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/localnerve/scrumdb/internal/models"
	"github.com/localnerve/scrumdb/internal/services"
	"github.com/localnerve/scrumdb/internal/types"
	"gorm.io/gorm"
)

// CreateTestUser registers a user and returns the stored row
func CreateTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	user, err := services.RegisterUser(context.Background(), db, services.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret-" + username,
	})
	if err != nil {
		t.Fatalf("Failed to register user %s: %v", username, err)
	}
	return user
}

// CreateTestProject creates a project owned by ownerID
func CreateTestProject(t *testing.T, db *gorm.DB, ownerID, title string) *models.Project {
	project, err := services.CreateProject(context.Background(), db, ownerID, services.ProjectInput{
		Title: title,
	})
	if err != nil {
		t.Fatalf("Failed to create project %s: %v", title, err)
	}
	return project
}

// CreateTestSprint creates a sprint starting tomorrow spanning spanDays
func CreateTestSprint(t *testing.T, db *gorm.DB, viewerID, projectID, title string, spanDays int) *models.Sprint {
	start := time.Now().AddDate(0, 0, 1)
	end := start.AddDate(0, 0, spanDays-1)
	sprint, err := services.CreateSprint(context.Background(), db, viewerID, projectID, services.SprintInput{
		Title:     title,
		StartDate: types.FlexDate(start),
		EndDate:   types.FlexDate(end),
	})
	if err != nil {
		t.Fatalf("Failed to create sprint %s: %v", title, err)
	}
	return sprint
}

// CreateTestTask creates a task; empty sprintID puts it in the backlog
func CreateTestTask(t *testing.T, db *gorm.DB, viewerID, projectID, sprintID, title string, points int) *models.Task {
	input := services.TaskInput{
		Title:       title,
		StoryPoints: types.FlexInt(points),
	}
	if sprintID != "" {
		input.SprintID = sprintID
	}
	task, err := services.CreateTask(context.Background(), db, viewerID, projectID, input)
	if err != nil {
		t.Fatalf("Failed to create task %s: %v", title, err)
	}
	return task
}

// AddTestCollaborator adds a user to a project under the given role
func AddTestCollaborator(t *testing.T, db *gorm.DB, ownerID, projectID, userID, role string) {
	_, err := services.AddCollaborator(context.Background(), db, ownerID, projectID, services.CollaboratorInput{
		UserID: userID,
		Role:   role,
	})
	if err != nil {
		t.Fatalf("Failed to add collaborator %s: %v", userID, err)
	}
}
