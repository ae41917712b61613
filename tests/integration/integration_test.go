package integration_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/scrumdb/internal/config"
	"github.com/localnerve/scrumdb/internal/database"
	"github.com/localnerve/scrumdb/internal/handlers"
	"github.com/localnerve/scrumdb/internal/middleware"
	"github.com/localnerve/scrumdb/internal/models"
	"github.com/localnerve/scrumdb/internal/scrum"
	"github.com/localnerve/scrumdb/internal/services"
	"github.com/localnerve/scrumdb/internal/types"
	"github.com/localnerve/scrumdb/tests/helpers"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// TestWithMariaDB tests the data layer with a real MariaDB container
func TestWithMariaDB(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// Start MariaDB container
	mariadbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        os.Getenv("DB_IMAGE"),
			ExposedPorts: []string{"3306/tcp"},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": "rootpass",
				"MYSQL_DATABASE":      "testdb",
				"MYSQL_USER":          "testuser",
				"MYSQL_PASSWORD":      "testpass",
			},
			WaitingFor: wait.ForLog("ready for connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start MariaDB container: %v", err)
	}
	defer func() {
		if err := mariadbContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate MariaDB container: %v", err)
		}
	}()

	// Get container host and port
	host, err := mariadbContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := mariadbContainer.MappedPort(ctx, "3306")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	// Create config
	cfg := &config.Config{
		DBType:            "mysql",
		DBHost:            host,
		DBPort:            port.Port(),
		DBDatabase:        "testdb",
		DBUser:            "testuser",
		DBPassword:        "testpass",
		DBConnectionLimit: 5,
	}

	// Wait for database to be ready
	time.Sleep(5 * time.Second)

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	// Run tests
	t.Run("SessionLifecycle", func(t *testing.T) {
		testSessionLifecycle(t, db)
	})

	t.Run("ProjectCascade", func(t *testing.T) {
		testProjectCascade(t, db)
	})

	t.Run("SprintTaskBurndown", func(t *testing.T) {
		testSprintTaskBurndown(t, db)
	})

	t.Run("HandlerSessionGate", func(t *testing.T) {
		testHandlerSessionGate(t, db)
	})
}

// TestWithPostgreSQL tests the data layer with a real PostgreSQL container
func TestWithPostgreSQL(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// Start PostgreSQL container
	postgresContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        os.Getenv("POSTGRES_IMAGE"),
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_PASSWORD": "testpass",
				"POSTGRES_USER":     "testuser",
				"POSTGRES_DB":       "testdb",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}()

	// Get container host and port
	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgresContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	// Create config
	cfg := &config.Config{
		DBType:            "postgres",
		DBHost:            host,
		DBPort:            port.Port(),
		DBDatabase:        "testdb",
		DBUser:            "testuser",
		DBPassword:        "testpass",
		DBConnectionLimit: 5,
	}

	// Wait for database to be ready
	time.Sleep(2 * time.Second)

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	// Run tests
	t.Run("SessionLifecycle", func(t *testing.T) {
		testSessionLifecycle(t, db)
	})

	t.Run("ProjectCascade", func(t *testing.T) {
		testProjectCascade(t, db)
	})

	t.Run("SprintTaskBurndown", func(t *testing.T) {
		testSprintTaskBurndown(t, db)
	})

	t.Run("HandlerSessionGate", func(t *testing.T) {
		testHandlerSessionGate(t, db)
	})
}

func flexDate(t time.Time) types.FlexDate {
	return types.FlexDate(t)
}

// testSessionLifecycle tests register, login, lookup and logout
func testSessionLifecycle(t *testing.T, db *gorm.DB) {
	user := helpers.CreateTestUser(t, db, "int-alice")

	manager := scrum.NewSessionManager(db, time.Hour)
	token, session := manager.Create()
	if token == "" {
		t.Fatal("Expected a non-empty session token")
	}

	logged, err := session.Login(context.Background(), "int-alice@example.com", "secret-int-alice")
	if err != nil {
		t.Fatalf("Failed to login: %v", err)
	}
	if logged.ID != user.ID {
		t.Errorf("Expected logged in user %s, got %s", user.ID, logged.ID)
	}

	found := manager.Lookup(token)
	if found == nil || found.User() == nil || found.User().ID != user.ID {
		t.Error("Expected lookup to return the logged in session")
	}

	manager.Destroy(token)
	if manager.Lookup(token) != nil {
		t.Error("Expected destroyed token to be unknown")
	}
	if session.User() != nil {
		t.Error("Expected destroy to log the session out")
	}
}

// testProjectCascade tests that a project delete removes all dependents
func testProjectCascade(t *testing.T, db *gorm.DB) {
	owner := helpers.CreateTestUser(t, db, "int-bob")
	member := helpers.CreateTestUser(t, db, "int-carol")

	manager := scrum.NewSessionManager(db, time.Hour)
	token, session := manager.Create()
	defer manager.Destroy(token)

	if _, err := session.Login(context.Background(), "int-bob", "secret-int-bob"); err != nil {
		t.Fatalf("Failed to login: %v", err)
	}

	project, err := session.CreateProject(context.Background(), services.ProjectInput{Title: "Cascade"})
	if err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}
	if _, err := session.ViewProject(context.Background(), project.ID); err != nil {
		t.Fatalf("Failed to view project: %v", err)
	}

	sprint := helpers.CreateTestSprint(t, db, owner.ID, project.ID, "Cascade Sprint", 14)
	helpers.CreateTestTask(t, db, owner.ID, project.ID, sprint.ID, "Cascade Task", 5)
	helpers.CreateTestTask(t, db, owner.ID, project.ID, "", "Cascade Backlog", 3)
	helpers.AddTestCollaborator(t, db, owner.ID, project.ID, member.ID, "team_member")

	if err := session.DeleteProject(context.Background(), project.ID); err != nil {
		t.Fatalf("Failed to delete project: %v", err)
	}

	tables := map[string]interface{}{
		"sprints":       &models.Sprint{},
		"tasks":         &models.Task{},
		"collaborators": &models.Collaborator{},
		"burndown":      &models.BurndownPoint{},
	}
	for name, model := range tables {
		var count int64
		if err := db.Model(model).Where("project_id = ?", project.ID).Count(&count).Error; err != nil {
			t.Fatalf("Failed to count %s: %v", name, err)
		}
		if count != 0 {
			t.Errorf("Expected no %s rows after project delete, got %d", name, count)
		}
	}
}

// testSprintTaskBurndown tests the sprint and task lifecycle and that
// mutations persist a burndown series
func testSprintTaskBurndown(t *testing.T, db *gorm.DB) {
	owner := helpers.CreateTestUser(t, db, "int-dave")

	manager := scrum.NewSessionManager(db, time.Hour)
	token, session := manager.Create()
	defer manager.Destroy(token)

	if _, err := session.Login(context.Background(), "int-dave", "secret-int-dave"); err != nil {
		t.Fatalf("Failed to login: %v", err)
	}

	project, err := session.CreateProject(context.Background(), services.ProjectInput{Title: "Velocity"})
	if err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}
	if _, err := session.ViewProject(context.Background(), project.ID); err != nil {
		t.Fatalf("Failed to view project: %v", err)
	}

	start := time.Now().AddDate(0, 0, 1)
	sprint, err := session.CreateSprint(context.Background(), project.ID, services.SprintInput{
		Title:     "Sprint 1",
		StartDate: flexDate(start),
		EndDate:   flexDate(start.AddDate(0, 0, 13)),
	})
	if err != nil {
		t.Fatalf("Failed to create sprint: %v", err)
	}

	task, err := session.CreateTask(context.Background(), project.ID, services.TaskInput{
		Title:       "Implement",
		StoryPoints: 8,
		SprintID:    sprint.ID,
	})
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}
	if task.Status != models.TaskStatusTodo {
		t.Errorf("Expected sprint task to default to todo, got %s", task.Status)
	}

	done := models.TaskStatusDone
	updated, err := session.UpdateTask(context.Background(), project.ID, task.ID, services.TaskPatch{
		Status: &done,
	})
	if err != nil {
		t.Fatalf("Failed to update task: %v", err)
	}
	if updated.CompletionDate == nil {
		t.Error("Expected done task to carry a completion date")
	}

	series, err := services.FetchBurndown(context.Background(), db, project.ID, owner.ID)
	if err != nil {
		t.Fatalf("Failed to fetch burndown: %v", err)
	}
	if len(series) == 0 {
		t.Error("Expected task mutations to persist a burndown series")
	}

	if err := session.DeleteSprint(context.Background(), project.ID, sprint.ID); err != nil {
		t.Fatalf("Failed to delete sprint: %v", err)
	}
	var reloaded models.Task
	if err := db.Where("id = ?", task.ID).First(&reloaded).Error; err != nil {
		t.Fatalf("Failed to reload task: %v", err)
	}
	if !reloaded.InBacklog() {
		t.Errorf("Expected task to return to backlog after sprint delete, got status %s", reloaded.Status)
	}
}

// testHandlerSessionGate tests the HTTP surface against a real database
func testHandlerSessionGate(t *testing.T, db *gorm.DB) {
	helpers.CreateTestUser(t, db, "int-erin")

	manager := scrum.NewSessionManager(db, time.Hour)
	authHandler := &handlers.AuthHandler{DB: db, Manager: manager}
	projectHandler := &handlers.ProjectHandler{}

	app := fiber.New()
	app.Post("/api/auth/login", authHandler.Login)
	api := app.Group("/api", middleware.RequireSession(manager))
	api.Get("/projects", projectHandler.GetProjects)
	api.Post("/projects", projectHandler.CreateProject)

	// No token -> 403
	req := httptest.NewRequest("GET", "/api/projects", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	helpers.AssertStatus(t, resp, 403)

	// Login
	req = httptest.NewRequest("POST", "/api/auth/login",
		bytes.NewBufferString(`{"identifier":"int-erin","password":"secret-int-erin"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	helpers.AssertStatus(t, resp, 200)

	var login struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	helpers.ParseJSON(t, resp, &login)
	if login.Token == "" {
		t.Fatal("Expected a session token from login")
	}

	// Create a project over HTTP
	req = httptest.NewRequest("POST", "/api/projects",
		bytes.NewBufferString(`{"title":"Gate Project"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Token", login.Token)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	helpers.AssertStatus(t, resp, 201)

	var created models.Project
	helpers.ParseJSON(t, resp, &created)
	if created.ID == "" || created.Title != "Gate Project" {
		t.Errorf("Unexpected created project: %+v", created)
	}

	// List shows it
	req = httptest.NewRequest("GET", "/api/projects", nil)
	req.Header.Set("X-Session-Token", login.Token)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	helpers.AssertStatus(t, resp, 200)

	var projects []models.Project
	helpers.ParseJSON(t, resp, &projects)
	found := false
	for _, p := range projects {
		if p.ID == created.ID {
			found = true
		}
	}
	if !found {
		t.Error("Expected project list to contain the created project")
	}
}

// TestHealthCheck tests the health check functionality
func TestHealthCheck(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// Start MariaDB container
	mariadbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        os.Getenv("DB_IMAGE"),
			ExposedPorts: []string{"3306/tcp"},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": "rootpass",
				"MYSQL_DATABASE":      "testdb",
				"MYSQL_USER":          "testuser",
				"MYSQL_PASSWORD":      "testpass",
			},
			WaitingFor: wait.ForLog("ready for connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start MariaDB container: %v", err)
	}
	defer func() {
		if err := mariadbContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate MariaDB container: %v", err)
		}
	}()

	host, err := mariadbContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := mariadbContainer.MappedPort(ctx, "3306")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cfg := &config.Config{
		DBType:     "mysql",
		DBHost:     host,
		DBPort:     port.Port(),
		DBDatabase: "testdb",
		DBUser:     "testuser",
		DBPassword: "testpass",
	}

	time.Sleep(5 * time.Second)

	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run health check
	result := services.HealthCheck(cfg, db)

	if result.Database != "ok" {
		t.Errorf("Expected database to be ok, got: %s", result.Database)
	}

	if result.Status != "healthy" {
		t.Errorf("Expected status to be healthy, got: %s", result.Status)
	}
}
