package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/scrumdb/internal/handlers"
	"github.com/localnerve/scrumdb/internal/middleware"
	"github.com/localnerve/scrumdb/internal/models"
	"github.com/localnerve/scrumdb/internal/scrum"
	"github.com/localnerve/scrumdb/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestApp wires the full route table against an in-memory SQLite
// database, with the same error handler mapping the server uses.
func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB, *scrum.SessionManager) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
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
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var customErr *types.CustomError
			if errors.As(err, &customErr) {
				return c.Status(customErr.Code).JSON(customErr)
			}
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				return c.Status(fiberErr.Code).JSON(fiber.Map{"message": fiberErr.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		},
	})

	manager := scrum.NewSessionManager(db, time.Hour)
	authHandler := &handlers.AuthHandler{DB: db, Manager: manager}
	projectHandler := &handlers.ProjectHandler{}
	sprintHandler := &handlers.SprintHandler{}
	taskHandler := &handlers.TaskHandler{}
	collabHandler := &handlers.CollaboratorHandler{}
	burndownHandler := &handlers.BurndownHandler{DB: db}

	api := app.Group("/api")
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/logout", middleware.RequireSession(manager), authHandler.Logout)

	projects := api.Group("/projects", middleware.RequireSession(manager))
	projects.Get("/", projectHandler.GetProjects)
	projects.Post("/", projectHandler.CreateProject)
	projects.Post("/:projectId/view", projectHandler.ViewProject)
	projects.Put("/:projectId", projectHandler.UpdateProject)
	projects.Delete("/:projectId", projectHandler.DeleteProject)
	projects.Get("/:projectId/sprints", sprintHandler.GetSprints)
	projects.Post("/:projectId/sprints", sprintHandler.CreateSprint)
	projects.Get("/:projectId/backlog", taskHandler.GetBacklog)
	projects.Post("/:projectId/tasks", taskHandler.CreateTasks)
	projects.Put("/:projectId/tasks/:taskId", taskHandler.UpdateTask)
	projects.Get("/:projectId/collaborators", collabHandler.GetCollaborators)
	projects.Get("/:projectId/burndown", burndownHandler.GetBurndown)

	return app, db, manager
}

func request(t *testing.T, app *fiber.App, method, target, token, body string) (int, []byte) {
	t.Helper()
	r := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("X-Session-Token", token)
	}
	resp, err := app.Test(r)
	if err != nil {
		t.Fatalf("Failed to execute %s %s: %v", method, target, err)
	}
	defer resp.Body.Close()
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	return resp.StatusCode, buf.Bytes()
}

func registerAndLogin(t *testing.T, app *fiber.App, username string) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"email":"%s@example.com","password":"secret-%s"}`,
		username, username, username)
	if status, out := request(t, app, "POST", "/api/auth/register", "", body); status != 201 {
		t.Fatalf("Expected 201 from register, got %d: %s", status, out)
	}

	loginBody := fmt.Sprintf(`{"identifier":%q,"password":"secret-%s"}`, username, username)
	status, out := request(t, app, "POST", "/api/auth/login", "", loginBody)
	if status != 200 {
		t.Fatalf("Expected 200 from login, got %d: %s", status, out)
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(out, &login); err != nil {
		t.Fatalf("Failed to decode login response: %v", err)
	}
	if login.Token == "" {
		t.Fatal("Expected a session token from login")
	}
	return login.Token
}

func createProjectHTTP(t *testing.T, app *fiber.App, token, title string) models.Project {
	t.Helper()
	status, out := request(t, app, "POST", "/api/projects/", token, fmt.Sprintf(`{"title":%q}`, title))
	if status != 201 {
		t.Fatalf("Expected 201 from project create, got %d: %s", status, out)
	}
	var project models.Project
	if err := json.Unmarshal(out, &project); err != nil {
		t.Fatalf("Failed to decode project: %v", err)
	}
	if status, out := request(t, app, "POST", "/api/projects/"+project.ID+"/view", token, ""); status != 200 {
		t.Fatalf("Expected 200 from project view, got %d: %s", status, out)
	}
	return project
}

func TestRegisterLoginLogout(t *testing.T) {
	app, _, _ := setupTestApp(t)

	token := registerAndLogin(t, app, "alice")

	// Duplicate register rejected
	body := `{"username":"alice","email":"other@example.com","password":"pw12345"}`
	if status, _ := request(t, app, "POST", "/api/auth/register", "", body); status != 409 {
		t.Errorf("Expected 409 for duplicate username, got %d", status)
	}

	// Logout kills the token
	if status, _ := request(t, app, "POST", "/api/auth/logout", token, ""); status != 200 {
		t.Errorf("Expected 200 from logout, got %d", status)
	}
	if status, _ := request(t, app, "GET", "/api/projects/", token, ""); status != 403 {
		t.Errorf("Expected 403 after logout, got %d", status)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	app, _, _ := setupTestApp(t)
	registerAndLogin(t, app, "bob")

	status, _ := request(t, app, "POST", "/api/auth/login", "",
		`{"identifier":"bob","password":"wrong"}`)
	if status != 404 {
		t.Errorf("Expected 404 for bad credentials, got %d", status)
	}
}

func TestRequireSessionRejectsMissingToken(t *testing.T) {
	app, _, _ := setupTestApp(t)

	for _, target := range []string{"/api/projects/", "/api/auth/logout"} {
		method := "GET"
		if target == "/api/auth/logout" {
			method = "POST"
		}
		if status, _ := request(t, app, method, target, "", ""); status != 403 {
			t.Errorf("Expected 403 for %s without token, got %d", target, status)
		}
	}

	if status, _ := request(t, app, "GET", "/api/projects/", "no-such-token", ""); status != 403 {
		t.Errorf("Expected 403 for unknown token, got %d", status)
	}
}

func TestProjectRoundTrip(t *testing.T) {
	app, _, _ := setupTestApp(t)
	token := registerAndLogin(t, app, "carol")

	project := createProjectHTTP(t, app, token, "Apollo")

	// View derives owner access
	status, out := request(t, app, "POST", "/api/projects/"+project.ID+"/view", token, "")
	if status != 200 {
		t.Fatalf("Expected 200 from view, got %d: %s", status, out)
	}
	var access scrum.Access
	if err := json.Unmarshal(out, &access); err != nil {
		t.Fatalf("Failed to decode access: %v", err)
	}
	if !access.IsOwner {
		t.Error("Expected owner access for the creating user")
	}

	// Update
	status, out = request(t, app, "PUT", "/api/projects/"+project.ID, token,
		`{"title":"Apollo 11"}`)
	if status != 200 {
		t.Fatalf("Expected 200 from update, got %d: %s", status, out)
	}
	var updated models.Project
	if err := json.Unmarshal(out, &updated); err != nil {
		t.Fatalf("Failed to decode project: %v", err)
	}
	if updated.Title != "Apollo 11" {
		t.Errorf("Expected updated title, got %s", updated.Title)
	}

	// List contains it
	status, out = request(t, app, "GET", "/api/projects/", token, "")
	if status != 200 {
		t.Fatalf("Expected 200 from list, got %d: %s", status, out)
	}
	var projects []models.Project
	if err := json.Unmarshal(out, &projects); err != nil {
		t.Fatalf("Failed to decode project list: %v", err)
	}
	if len(projects) != 1 || projects[0].ID != project.ID {
		t.Errorf("Expected list to contain the project, got %+v", projects)
	}
}

func TestUpdateProjectBoardColumns(t *testing.T) {
	app, _, _ := setupTestApp(t)
	token := registerAndLogin(t, app, "frank")
	project := createProjectHTTP(t, app, token, "Boards")

	// Body with nothing recognized is rejected
	status, _ := request(t, app, "PUT", "/api/projects/"+project.ID, token, `{}`)
	if status != 400 {
		t.Errorf("Expected 400 for empty update, got %d", status)
	}

	// Columns-only update applies without touching the title
	status, out := request(t, app, "PUT", "/api/projects/"+project.ID, token,
		`{"boardColumns":["todo","qa","done"]}`)
	if status != 200 {
		t.Fatalf("Expected 200 from board columns update, got %d: %s", status, out)
	}
	var updated models.Project
	if err := json.Unmarshal(out, &updated); err != nil {
		t.Fatalf("Failed to decode project: %v", err)
	}
	if updated.Title != "Boards" {
		t.Errorf("Expected title untouched, got %s", updated.Title)
	}
	var columns []string
	if err := json.Unmarshal([]byte(updated.BoardColumns.JSON), &columns); err != nil {
		t.Fatalf("Failed to decode board columns: %v", err)
	}
	if len(columns) != 3 || columns[1] != "qa" {
		t.Errorf("Expected custom columns persisted, got %v", columns)
	}
}

func TestCreateTasksAcceptsObjectOrArray(t *testing.T) {
	app, _, _ := setupTestApp(t)
	token := registerAndLogin(t, app, "dave")
	project := createProjectHTTP(t, app, token, "Backlog Fill")

	// Single object
	status, out := request(t, app, "POST", "/api/projects/"+project.ID+"/tasks", token,
		`{"title":"Lone task","storyPoints":3}`)
	if status != 201 {
		t.Fatalf("Expected 201 from single task create, got %d: %s", status, out)
	}
	var created []models.Task
	if err := json.Unmarshal(out, &created); err != nil {
		t.Fatalf("Failed to decode tasks: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("Expected 1 created task, got %d", len(created))
	}
	if created[0].Status != models.TaskStatusBacklog {
		t.Errorf("Expected sprintless task in backlog, got %s", created[0].Status)
	}

	// Array
	status, out = request(t, app, "POST", "/api/projects/"+project.ID+"/tasks", token,
		`[{"title":"First","storyPoints":1},{"title":"Second","storyPoints":"2"}]`)
	if status != 201 {
		t.Fatalf("Expected 201 from bulk task create, got %d: %s", status, out)
	}
	created = nil
	if err := json.Unmarshal(out, &created); err != nil {
		t.Fatalf("Failed to decode tasks: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("Expected 2 created tasks, got %d", len(created))
	}
	if created[1].StoryPoints != 2 {
		t.Errorf("Expected string story points to coerce to 2, got %d", created[1].StoryPoints)
	}

	// All three show up in the backlog
	status, out = request(t, app, "GET", "/api/projects/"+project.ID+"/backlog", token, "")
	if status != 200 {
		t.Fatalf("Expected 200 from backlog, got %d: %s", status, out)
	}
	var backlog []models.Task
	if err := json.Unmarshal(out, &backlog); err != nil {
		t.Fatalf("Failed to decode backlog: %v", err)
	}
	if len(backlog) != 3 {
		t.Errorf("Expected 3 backlog tasks, got %d", len(backlog))
	}
}

func TestBurndownAfterTaskMutations(t *testing.T) {
	app, _, _ := setupTestApp(t)
	token := registerAndLogin(t, app, "erin")
	project := createProjectHTTP(t, app, token, "Burn")

	start := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	end := time.Now().AddDate(0, 0, 14).Format("2006-01-02")
	status, out := request(t, app, "POST", "/api/projects/"+project.ID+"/sprints", token,
		fmt.Sprintf(`{"title":"Sprint 1","startDate":%q,"endDate":%q}`, start, end))
	if status != 201 {
		t.Fatalf("Expected 201 from sprint create, got %d: %s", status, out)
	}
	var sprint models.Sprint
	if err := json.Unmarshal(out, &sprint); err != nil {
		t.Fatalf("Failed to decode sprint: %v", err)
	}

	status, out = request(t, app, "POST", "/api/projects/"+project.ID+"/tasks", token,
		fmt.Sprintf(`{"title":"Heavy","storyPoints":8,"sprintId":%q}`, sprint.ID))
	if status != 201 {
		t.Fatalf("Expected 201 from task create, got %d: %s", status, out)
	}

	status, out = request(t, app, "GET", "/api/projects/"+project.ID+"/burndown", token, "")
	if status != 200 {
		t.Fatalf("Expected 200 from burndown, got %d: %s", status, out)
	}
	var series []models.BurndownPoint
	if err := json.Unmarshal(out, &series); err != nil {
		t.Fatalf("Failed to decode burndown series: %v", err)
	}
	if len(series) == 0 {
		t.Error("Expected a burndown series after task mutations")
	}
	for _, point := range series {
		if point.ProjectID != project.ID {
			t.Errorf("Expected series scoped to project, got %s", point.ProjectID)
		}
	}
}
