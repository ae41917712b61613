package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/scrumdb/internal/services"
	"github.com/localnerve/scrumdb/internal/utils"
)

// SprintHandler handles sprint routes
type SprintHandler struct{}

// GetSprints handles GET /api/projects/:projectId/sprints
// @Summary List sprints
// @Description List the cached sprints of the viewed project
// @Tags Sprints
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {array} models.Sprint
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects/{projectId}/sprints [get]
func (h *SprintHandler) GetSprints(c *fiber.Ctx) error {
	session, err := getSession(c)
	if err != nil {
		return utils.ForbiddenResponse(c, err.Error(), "scrum.authorization.session")
	}

	sprints := session.Cache().SprintsForProject(c.Params("projectId"))
	return utils.SuccessResponse(c, sprints, fiber.StatusOK)
}

// CreateSprint handles POST /api/projects/:projectId/sprints
// @Summary Create a sprint
// @Description Create a sprint in the viewed project; duration must be 1 to 28 days
// @Tags Sprints
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param body body services.SprintInput true "Sprint details"
// @Success 201 {object} models.Sprint
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects/{projectId}/sprints [post]
func (h *SprintHandler) CreateSprint(c *fiber.Ctx) error {
	session, err := getSession(c)
	if err != nil {
		return utils.ForbiddenResponse(c, err.Error(), "scrum.authorization.session")
	}

	var body services.SprintInput
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "scrum.validation.input")
	}

	sprint, err := session.CreateSprint(c.Context(), c.Params("projectId"), body)
	if err != nil {
		return serviceErrorResponse(c, err, "createSprint")
	}

	return utils.SuccessResponse(c, sprint, fiber.StatusCreated)
}

// UpdateSprint handles PUT /api/projects/:projectId/sprints/:sprintId
// @Summary Update a sprint
// @Description Apply partial changes to a sprint; the resulting window is re-validated
// @Tags Sprints
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param sprintId path string true "Sprint ID"
// @Param body body services.SprintInput true "Fields to change"
// @Success 200 {object} models.Sprint
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects/{projectId}/sprints/{sprintId} [put]
func (h *SprintHandler) UpdateSprint(c *fiber.Ctx) error {
	session, err := getSession(c)
	if err != nil {
		return utils.ForbiddenResponse(c, err.Error(), "scrum.authorization.session")
	}

	var body services.SprintInput
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "scrum.validation.input")
	}

	sprint, err := session.UpdateSprint(c.Context(), c.Params("projectId"), c.Params("sprintId"), body)
	if err != nil {
		return serviceErrorResponse(c, err, "updateSprint")
	}

	return utils.SuccessResponse(c, sprint, fiber.StatusOK)
}

// DeleteSprint handles DELETE /api/projects/:projectId/sprints/:sprintId
// @Summary Delete a sprint
// @Description Delete a sprint; its tasks return to the project backlog
// @Tags Sprints
// @Produce json
// @Param projectId path string true "Project ID"
// @Param sprintId path string true "Sprint ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects/{projectId}/sprints/{sprintId} [delete]
func (h *SprintHandler) DeleteSprint(c *fiber.Ctx) error {
	session, err := getSession(c)
	if err != nil {
		return utils.ForbiddenResponse(c, err.Error(), "scrum.authorization.session")
	}

	if err := session.DeleteSprint(c.Context(), c.Params("projectId"), c.Params("sprintId")); err != nil {
		return serviceErrorResponse(c, err, "deleteSprint")
	}

	return utils.MutationSuccessResponse(c, 1)
}
