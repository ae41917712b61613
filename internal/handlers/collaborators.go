package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/scrumdb/internal/services"
	"github.com/localnerve/scrumdb/internal/utils"
)

// CollaboratorHandler handles collaborator routes
type CollaboratorHandler struct{}

// GetCollaborators handles GET /api/projects/:projectId/collaborators
// @Summary List collaborators
// @Description List the viewed project's collaborators with username and email
// @Tags Collaborators
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {array} models.CollaboratorWithUser
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects/{projectId}/collaborators [get]
func (h *CollaboratorHandler) GetCollaborators(c *fiber.Ctx) error {
	session, err := getSession(c)
	if err != nil {
		return utils.ForbiddenResponse(c, err.Error(), "scrum.authorization.session")
	}

	collabs, err := session.Collaborators(c.Context(), c.Params("projectId"))
	if err != nil {
		return serviceErrorResponse(c, err, "getCollaborators")
	}

	return utils.SuccessResponse(c, collabs, fiber.StatusOK)
}

// AddCollaborator handles POST /api/projects/:projectId/collaborators
// @Summary Add a collaborator
// @Description Grant a user a role on the viewed project; owner only
// @Tags Collaborators
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param body body services.CollaboratorInput true "User and role"
// @Success 201 {object} models.Collaborator
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects/{projectId}/collaborators [post]
func (h *CollaboratorHandler) AddCollaborator(c *fiber.Ctx) error {
	session, err := getSession(c)
	if err != nil {
		return utils.ForbiddenResponse(c, err.Error(), "scrum.authorization.session")
	}

	var body services.CollaboratorInput
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "scrum.validation.input")
	}

	collab, err := session.AddCollaborator(c.Context(), c.Params("projectId"), body)
	if err != nil {
		return serviceErrorResponse(c, err, "addCollaborator")
	}

	return utils.SuccessResponse(c, collab, fiber.StatusCreated)
}

// UpdateCollaborator handles PUT /api/projects/:projectId/collaborators/:collaboratorId
// @Summary Change a collaborator's role
// @Description Change the role of an existing collaborator; owner only
// @Tags Collaborators
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param collaboratorId path string true "Collaborator ID"
// @Param body body object true "New role"
// @Success 200 {object} models.Collaborator
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects/{projectId}/collaborators/{collaboratorId} [put]
func (h *CollaboratorHandler) UpdateCollaborator(c *fiber.Ctx) error {
	session, err := getSession(c)
	if err != nil {
		return utils.ForbiddenResponse(c, err.Error(), "scrum.authorization.session")
	}

	var body struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "scrum.validation.input")
	}

	collab, err := session.UpdateCollaboratorRole(c.Context(),
		c.Params("projectId"), c.Params("collaboratorId"), body.Role)
	if err != nil {
		return serviceErrorResponse(c, err, "updateCollaborator")
	}

	return utils.SuccessResponse(c, collab, fiber.StatusOK)
}

// RemoveCollaborator handles DELETE /api/projects/:projectId/collaborators/:collaboratorId
// @Summary Remove a collaborator
// @Description Revoke a collaborator's role on the viewed project; owner only
// @Tags Collaborators
// @Produce json
// @Param projectId path string true "Project ID"
// @Param collaboratorId path string true "Collaborator ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects/{projectId}/collaborators/{collaboratorId} [delete]
func (h *CollaboratorHandler) RemoveCollaborator(c *fiber.Ctx) error {
	session, err := getSession(c)
	if err != nil {
		return utils.ForbiddenResponse(c, err.Error(), "scrum.authorization.session")
	}

	err = session.RemoveCollaborator(c.Context(), c.Params("projectId"), c.Params("collaboratorId"))
	if err != nil {
		return serviceErrorResponse(c, err, "removeCollaborator")
	}

	return utils.MutationSuccessResponse(c, 1)
}
