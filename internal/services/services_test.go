package services

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/localnerve/scrumdb/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB opens a private in-memory database with the full schema
// migrated. The pool is pinned to one connection so every statement sees the
// same memory store.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Sprint{},
		&models.Task{},
		&models.Collaborator{},
		&models.BurndownPoint{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate schema: %v", err)
	}

	return db
}

func registerTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user, err := RegisterUser(context.Background(), db, RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret-" + username,
	})
	if err != nil {
		t.Fatalf("Failed to register user %s: %v", username, err)
	}
	return user
}

func createTestProject(t *testing.T, db *gorm.DB, ownerID, title string) *models.Project {
	t.Helper()

	project, err := CreateProject(context.Background(), db, ownerID, ProjectInput{
		Title: title,
	})
	if err != nil {
		t.Fatalf("Failed to create project %s: %v", title, err)
	}
	return project
}
