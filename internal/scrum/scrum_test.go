package scrum

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/localnerve/scrumdb/internal/models"
	"github.com/localnerve/scrumdb/internal/services"
	"github.com/localnerve/scrumdb/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "correct horse battery staple"

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

	user, err := services.RegisterUser(context.Background(), db, services.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: testPassword,
	})
	if err != nil {
		t.Fatalf("Failed to register user %s: %v", username, err)
	}
	return user
}

// futureSprint builds a sprint payload starting tomorrow spanning the given
// number of days.
func futureSprint(title string, spanDays int) services.SprintInput {
	start := types.DateOnly(time.Now()).AddDate(0, 0, 1)
	return services.SprintInput{
		Title:     title,
		StartDate: types.FlexDate(start),
		EndDate:   types.FlexDate(start.AddDate(0, 0, spanDays)),
	}
}

// loginSession registers nothing; it logs an existing user into a fresh
// session against the shared database.
func loginSession(t *testing.T, db *gorm.DB, username string) *Session {
	t.Helper()

	session := NewSession(db)
	if _, err := session.Login(context.Background(), username, testPassword); err != nil {
		t.Fatalf("Failed to log in %s: %v", username, err)
	}
	return session
}
