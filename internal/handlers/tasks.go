package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/scrumdb/internal/models"
	"github.com/localnerve/scrumdb/internal/services"
	"github.com/localnerve/scrumdb/internal/types"
	"github.com/localnerve/scrumdb/internal/utils"
)

// TaskHandler handles task and backlog routes
type TaskHandler struct{}

// GetSprintTasks handles GET /api/projects/:projectId/sprints/:sprintId/tasks
// @Summary List sprint tasks
// @Description List the cached tasks attached to one sprint
// @Tags Tasks
// @Produce json
// @Param projectId path string true "Project ID"
// @Param sprintId path string true "Sprint ID"
// @Success 200 {array} models.Task
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects/{projectId}/sprints/{sprintId}/tasks [get]
func (h *TaskHandler) GetSprintTasks(c *fiber.Ctx) error {
	session, err := getSession(c)
	if err != nil {
		return utils.ForbiddenResponse(c, err.Error(), "scrum.authorization.session")
	}

	tasks := session.Cache().TasksForSprint(c.Params("sprintId"))
	return utils.SuccessResponse(c, tasks, fiber.StatusOK)
}

// GetBacklog handles GET /api/projects/:projectId/backlog
// @Summary List backlog tasks
// @Description List the viewed project's unscheduled tasks
// @Tags Tasks
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {array} models.Task
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects/{projectId}/backlog [get]
func (h *TaskHandler) GetBacklog(c *fiber.Ctx) error {
	session, err := getSession(c)
	if err != nil {
		return utils.ForbiddenResponse(c, err.Error(), "scrum.authorization.session")
	}

	tasks := session.Cache().BacklogTasks(c.Params("projectId"))
	return utils.SuccessResponse(c, tasks, fiber.StatusOK)
}

// CreateTasks handles POST /api/projects/:projectId/tasks
// @Summary Create tasks
// @Description Create one or more tasks; the body may be a single task object or an array
// @Tags Tasks
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param body body services.TaskInput true "Task details, single object or array"
// @Success 201 {array} models.Task
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects/{projectId}/tasks [post]
func (h *TaskHandler) CreateTasks(c *fiber.Ctx) error {
	session, err := getSession(c)
	if err != nil {
		return utils.ForbiddenResponse(c, err.Error(), "scrum.authorization.session")
	}

	var body types.FlexList[services.TaskInput]
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "scrum.validation.input")
	}
	if len(body) == 0 {
		return utils.ErrorResponse(c, "No tasks given", fiber.StatusBadRequest, "scrum.validation.input")
	}

	projectID := c.Params("projectId")
	created := make([]*models.Task, 0, len(body))
	for _, input := range body.Slice() {
		task, err := session.CreateTask(c.Context(), projectID, input)
		if err != nil {
			return serviceErrorResponse(c, err, "createTask")
		}
		created = append(created, task)
	}

	return utils.SuccessResponse(c, created, fiber.StatusCreated)
}

// UpdateTask handles PUT /api/projects/:projectId/tasks/:taskId
// @Summary Update a task
// @Description Apply a partial patch; the first transition to done stamps the completion date
// @Tags Tasks
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param taskId path string true "Task ID"
// @Param body body services.TaskPatch true "Fields to change"
// @Success 200 {object} models.Task
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects/{projectId}/tasks/{taskId} [put]
func (h *TaskHandler) UpdateTask(c *fiber.Ctx) error {
	session, err := getSession(c)
	if err != nil {
		return utils.ForbiddenResponse(c, err.Error(), "scrum.authorization.session")
	}

	var body services.TaskPatch
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "scrum.validation.input")
	}

	task, err := session.UpdateTask(c.Context(), c.Params("projectId"), c.Params("taskId"), body)
	if err != nil {
		return serviceErrorResponse(c, err, "updateTask")
	}

	return utils.SuccessResponse(c, task, fiber.StatusOK)
}

// DeleteTask handles DELETE /api/projects/:projectId/tasks/:taskId
// @Summary Delete a task
// @Description Delete a task from the viewed project
// @Tags Tasks
// @Produce json
// @Param projectId path string true "Project ID"
// @Param taskId path string true "Task ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects/{projectId}/tasks/{taskId} [delete]
func (h *TaskHandler) DeleteTask(c *fiber.Ctx) error {
	session, err := getSession(c)
	if err != nil {
		return utils.ForbiddenResponse(c, err.Error(), "scrum.authorization.session")
	}

	if err := session.DeleteTask(c.Context(), c.Params("projectId"), c.Params("taskId")); err != nil {
		return serviceErrorResponse(c, err, "deleteTask")
	}

	return utils.MutationSuccessResponse(c, 1)
}
