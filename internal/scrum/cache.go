package scrum

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/localnerve/scrumdb/internal/models"
	"github.com/localnerve/scrumdb/internal/services"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// storeCallTimeout bounds every store round-trip issued by the cache.
const storeCallTimeout = 10 * time.Second

// Cache is the in-memory mirror of every project, sprint, task and burndown
// series visible to one viewer: the union of owned and collaborative
// projects. It is the single source of truth for readers.
//
// Writes are never optimistic: each mutation issues the store write first and
// folds the returned canonical row into the mirror only after success, so the
// mirror lags the store until the write completes and no rollback is needed.
type Cache struct {
	mu       sync.RWMutex
	db       *gorm.DB
	viewerID string

	projects []models.Project
	sprints  []models.Sprint
	tasks    []models.Task
	burndown map[string][]models.BurndownPoint
}

// NewCache creates an empty cache over the store connection.
func NewCache(db *gorm.DB) *Cache {
	return &Cache{
		db:       db,
		burndown: make(map[string][]models.BurndownPoint),
	}
}

// Load bulk-loads the viewer's whole world: owned projects first, then
// collaborative ones de-duplicated by project id with the owner relationship
// winning, fanning out sprint and task fetches per project. Read failures
// degrade to empty collections rather than failing the load.
func (c *Cache) Load(ctx context.Context, viewerID string) error {
	c.mu.Lock()
	c.viewerID = viewerID
	c.projects = nil
	c.sprints = nil
	c.tasks = nil
	c.burndown = make(map[string][]models.BurndownPoint)
	c.mu.Unlock()

	owned := c.fetchProjects(ctx, services.FetchOwnedProjects)
	c.appendProjects(owned)
	if err := c.loadChildren(ctx, owned); err != nil {
		return err
	}

	collaborative := c.fetchProjects(ctx, services.FetchCollaborativeProjects)
	fresh := c.appendProjects(collaborative)
	return c.loadChildren(ctx, fresh)
}

type projectFetch func(context.Context, *gorm.DB, string) ([]models.Project, error)

func (c *Cache) fetchProjects(ctx context.Context, fetch projectFetch) []models.Project {
	callCtx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	projects, err := fetch(callCtx, c.db, c.viewerID)
	if err != nil {
		log.Printf("Failed to fetch projects: %v", err)
		return nil
	}
	return projects
}

// appendProjects merges new projects into the mirror, skipping ids already
// present, and returns the ones actually added.
func (c *Cache) appendProjects(projects []models.Project) []models.Project {
	c.mu.Lock()
	defer c.mu.Unlock()

	present := make(map[string]bool, len(c.projects))
	for _, p := range c.projects {
		present[p.ID] = true
	}

	var added []models.Project
	for _, p := range projects {
		if present[p.ID] {
			continue
		}
		present[p.ID] = true
		c.projects = append(c.projects, p)
		added = append(added, p)
	}
	return added
}

// loadChildren fans out sprint and task loading across projects. Ordering
// across projects is not guaranteed, only eventual completeness.
func (c *Cache) loadChildren(ctx context.Context, projects []models.Project) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range projects {
		projectID := p.ID
		g.Go(func() error {
			return c.loadProject(gctx, projectID)
		})
	}
	return g.Wait()
}

// loadProject refreshes one project's sprints, sprint tasks and backlog
// tasks. Cached sprints and tasks for the project are replaced, not merged,
// so repeated loads are idempotent.
func (c *Cache) loadProject(ctx context.Context, projectID string) error {
	callCtx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	sprints, err := services.FetchSprintsByProject(callCtx, c.db, projectID)
	if err != nil {
		log.Printf("Failed to fetch sprints for project %s: %v", projectID, err)
		sprints = nil
	}

	var (
		taskMu sync.Mutex
		tasks  []models.Task
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range sprints {
		sprintID := s.ID
		g.Go(func() error {
			tctx, tcancel := context.WithTimeout(gctx, storeCallTimeout)
			defer tcancel()

			fetched, err := services.FetchTasksBySprint(tctx, c.db, sprintID)
			if err != nil {
				log.Printf("Failed to fetch tasks for sprint %s: %v", sprintID, err)
				return nil
			}
			taskMu.Lock()
			tasks = append(tasks, fetched...)
			taskMu.Unlock()
			return nil
		})
	}
	g.Go(func() error {
		bctx, bcancel := context.WithTimeout(gctx, storeCallTimeout)
		defer bcancel()

		backlog, err := services.FetchBacklogTasks(bctx, c.db, projectID)
		if err != nil {
			log.Printf("Failed to fetch backlog for project %s: %v", projectID, err)
			return nil
		}
		taskMu.Lock()
		tasks = append(tasks, backlog...)
		taskMu.Unlock()
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	c.mu.Lock()
	c.sprints = filterSprints(c.sprints, projectID)
	c.sprints = append(c.sprints, sprints...)
	c.tasks = filterTasks(c.tasks, projectID)
	c.tasks = append(c.tasks, tasks...)
	c.mu.Unlock()

	return nil
}

// ReloadSprints re-fetches one project's sprints and tasks, replacing the
// cached entries for that project.
func (c *Cache) ReloadSprints(ctx context.Context, projectID string) error {
	return c.loadProject(ctx, projectID)
}

// Reset drops every cached collection. Called on logout so no state leaks
// across sessions.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewerID = ""
	c.projects = nil
	c.sprints = nil
	c.tasks = nil
	c.burndown = make(map[string][]models.BurndownPoint)
}

// --- snapshot readers ---

// Projects returns a copy of all visible projects.
func (c *Cache) Projects() []models.Project {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Project, len(c.projects))
	copy(out, c.projects)
	return out
}

// Project returns one cached project by id.
func (c *Cache) Project(projectID string) (models.Project, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.projects {
		if p.ID == projectID {
			return p, true
		}
	}
	return models.Project{}, false
}

// SprintsForProject returns the cached sprints of one project.
func (c *Cache) SprintsForProject(projectID string) []models.Sprint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Sprint
	for _, s := range c.sprints {
		if s.ProjectID == projectID {
			out = append(out, s)
		}
	}
	return out
}

// TasksForSprint returns the cached tasks attached to one sprint.
func (c *Cache) TasksForSprint(sprintID string) []models.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Task
	for _, t := range c.tasks {
		if t.SprintID == sprintID {
			out = append(out, t)
		}
	}
	return out
}

// BacklogTasks returns the cached backlog of one project.
func (c *Cache) BacklogTasks(projectID string) []models.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Task
	for _, t := range c.tasks {
		if t.ProjectID == projectID && t.InBacklog() {
			out = append(out, t)
		}
	}
	return out
}

// TasksForProject returns every cached task of one project.
func (c *Cache) TasksForProject(projectID string) []models.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Task
	for _, t := range c.tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out
}

// Sprint returns the mirrored sprint row by id.
func (c *Cache) Sprint(sprintID string) (models.Sprint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.sprints {
		if s.ID == sprintID {
			return s, true
		}
	}
	return models.Sprint{}, false
}

// Task returns the mirrored task row by id.
func (c *Cache) Task(taskID string) (models.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tasks {
		if t.ID == taskID {
			return t, true
		}
	}
	return models.Task{}, false
}

// BurndownSeries returns the cached series of one project.
func (c *Cache) BurndownSeries(projectID string) []models.BurndownPoint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	series := c.burndown[projectID]
	out := make([]models.BurndownPoint, len(series))
	copy(out, series)
	return out
}

// --- mutations ---

// CreateProject writes a project and mirrors the canonical row.
func (c *Cache) CreateProject(ctx context.Context, input services.ProjectInput) (*models.Project, error) {
	callCtx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	project, err := services.CreateProject(callCtx, c.db, c.viewerID, input)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.projects = append(c.projects, *project)
	c.mu.Unlock()
	return project, nil
}

// UpdateProject writes partial project changes and mirrors the canonical row.
func (c *Cache) UpdateProject(ctx context.Context, projectID string, changes map[string]interface{}) (*models.Project, error) {
	callCtx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	project, err := services.UpdateProject(callCtx, c.db, c.viewerID, projectID, changes)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for i := range c.projects {
		if c.projects[i].ID == project.ID {
			keep := c.projects[i].IsCollaboration
			c.projects[i] = *project
			c.projects[i].IsCollaboration = keep
		}
	}
	c.mu.Unlock()
	return project, nil
}

// DeleteProject cascades the delete in the store, then drops the project and
// all of its children from the mirror.
func (c *Cache) DeleteProject(ctx context.Context, projectID string) error {
	callCtx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	if err := services.DeleteProject(callCtx, c.db, c.viewerID, projectID); err != nil {
		return err
	}

	c.mu.Lock()
	var projects []models.Project
	for _, p := range c.projects {
		if p.ID != projectID {
			projects = append(projects, p)
		}
	}
	c.projects = projects
	c.sprints = filterSprints(c.sprints, projectID)
	c.tasks = filterTasks(c.tasks, projectID)
	delete(c.burndown, projectID)
	c.mu.Unlock()
	return nil
}

// CreateSprint writes a sprint, mirrors it, and regenerates the project's
// burndown series.
func (c *Cache) CreateSprint(ctx context.Context, projectID string, input services.SprintInput) (*models.Sprint, error) {
	callCtx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	sprint, err := services.CreateSprint(callCtx, c.db, c.viewerID, projectID, input)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.sprints = append(c.sprints, *sprint)
	c.mu.Unlock()

	c.refreshBurndown(ctx, projectID)
	return sprint, nil
}

// UpdateSprint writes sprint changes, mirrors the canonical row, and
// regenerates the burndown series.
func (c *Cache) UpdateSprint(ctx context.Context, sprintID string, input services.SprintInput) (*models.Sprint, error) {
	callCtx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	sprint, err := services.UpdateSprint(callCtx, c.db, c.viewerID, sprintID, input)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for i := range c.sprints {
		if c.sprints[i].ID == sprint.ID {
			c.sprints[i] = *sprint
		}
	}
	c.mu.Unlock()

	c.refreshBurndown(ctx, sprint.ProjectID)
	return sprint, nil
}

// DeleteSprint removes a sprint; its tasks return to the backlog in the
// store and in the mirror alike.
func (c *Cache) DeleteSprint(ctx context.Context, projectID, sprintID string) error {
	callCtx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	if err := services.DeleteSprint(callCtx, c.db, c.viewerID, sprintID); err != nil {
		return err
	}

	c.mu.Lock()
	var sprints []models.Sprint
	for _, s := range c.sprints {
		if s.ID != sprintID {
			sprints = append(sprints, s)
		}
	}
	c.sprints = sprints
	for i := range c.tasks {
		if c.tasks[i].SprintID == sprintID {
			c.tasks[i].SprintID = ""
			c.tasks[i].Status = models.TaskStatusBacklog
		}
	}
	c.mu.Unlock()

	c.refreshBurndown(ctx, projectID)
	return nil
}

// CreateTask writes a task, mirrors the canonical row, and regenerates the
// burndown series.
func (c *Cache) CreateTask(ctx context.Context, projectID string, input services.TaskInput) (*models.Task, error) {
	callCtx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	task, err := services.CreateTask(callCtx, c.db, c.viewerID, projectID, input)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.tasks = append(c.tasks, *task)
	c.mu.Unlock()

	c.refreshBurndown(ctx, projectID)
	return task, nil
}

// UpdateTask writes a partial task patch, mirrors the canonical row, and
// regenerates the burndown series.
func (c *Cache) UpdateTask(ctx context.Context, taskID string, patch services.TaskPatch) (*models.Task, error) {
	callCtx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	task, err := services.UpdateTask(callCtx, c.db, c.viewerID, taskID, patch)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for i := range c.tasks {
		if c.tasks[i].ID == task.ID {
			c.tasks[i] = *task
		}
	}
	c.mu.Unlock()

	c.refreshBurndown(ctx, task.ProjectID)
	return task, nil
}

// DeleteTask removes a task from the store and the mirror, then regenerates
// the burndown series.
func (c *Cache) DeleteTask(ctx context.Context, projectID, taskID string) error {
	callCtx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	if err := services.DeleteTask(callCtx, c.db, c.viewerID, taskID); err != nil {
		return err
	}

	c.mu.Lock()
	var tasks []models.Task
	for _, t := range c.tasks {
		if t.ID != taskID {
			tasks = append(tasks, t)
		}
	}
	c.tasks = tasks
	c.mu.Unlock()

	c.refreshBurndown(ctx, projectID)
	return nil
}

// refreshBurndown regenerates and persists the series for one project from
// the mirrored sprint/task state. A persistence failure is logged, not
// propagated: the mutation that triggered the refresh already succeeded.
func (c *Cache) refreshBurndown(ctx context.Context, projectID string) {
	c.mu.RLock()
	viewerID := c.viewerID
	sprints := make([]models.Sprint, 0)
	for _, s := range c.sprints {
		if s.ProjectID == projectID {
			sprints = append(sprints, s)
		}
	}
	tasks := make([]models.Task, 0)
	for _, t := range c.tasks {
		if t.ProjectID == projectID {
			tasks = append(tasks, t)
		}
	}
	c.mu.RUnlock()

	callCtx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	points, err := RecomputeBurndown(callCtx, c.db, projectID, viewerID, sprints, tasks)
	if err != nil {
		log.Printf("Failed to regenerate burndown for project %s: %v", projectID, err)
		return
	}

	c.mu.Lock()
	c.burndown[projectID] = points
	c.mu.Unlock()
}

// Watch appends tasks announced on a realtime channel to the mirror, skipping
// rows for invisible projects or ids already present. The returned
// subscription must be released on scope exit.
func (c *Cache) Watch(ch Channel) Subscription {
	return ch.Subscribe(func(ev InsertEvent) {
		if ev.Task == nil {
			return
		}

		c.mu.Lock()
		defer c.mu.Unlock()

		visible := false
		for _, p := range c.projects {
			if p.ID == ev.Task.ProjectID {
				visible = true
				break
			}
		}
		if !visible {
			return
		}
		for _, t := range c.tasks {
			if t.ID == ev.Task.ID {
				return
			}
		}
		c.tasks = append(c.tasks, *ev.Task)
	})
}

func filterSprints(sprints []models.Sprint, projectID string) []models.Sprint {
	var out []models.Sprint
	for _, s := range sprints {
		if s.ProjectID != projectID {
			out = append(out, s)
		}
	}
	return out
}

func filterTasks(tasks []models.Task, projectID string) []models.Task {
	var out []models.Task
	for _, t := range tasks {
		if t.ProjectID != projectID {
			out = append(out, t)
		}
	}
	return out
}
