// projects.go
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

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/scrumdb/internal/services"
	"github.com/localnerve/scrumdb/internal/utils"
)

// ProjectHandler handles project routes
type ProjectHandler struct{}

// GetProjects handles GET /api/projects
// @Summary List visible projects
// @Description List the session user's owned and collaborative projects
// @Tags Projects
// @Produce json
// @Success 200 {array} models.Project
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects [get]
func (h *ProjectHandler) GetProjects(c *fiber.Ctx) error {
	session, err := getSession(c)
	if err != nil {
		return utils.ForbiddenResponse(c, err.Error(), "scrum.authorization.session")
	}

	return utils.SuccessResponse(c, session.Cache().Projects(), fiber.StatusOK)
}

// CreateProject handles POST /api/projects
// @Summary Create a project
// @Description Create a project owned by the session user
// @Tags Projects
// @Accept json
// @Produce json
// @Param body body services.ProjectInput true "Project details"
// @Success 201 {object} models.Project
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects [post]
func (h *ProjectHandler) CreateProject(c *fiber.Ctx) error {
	session, err := getSession(c)
	if err != nil {
		return utils.ForbiddenResponse(c, err.Error(), "scrum.authorization.session")
	}

	var body services.ProjectInput
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "scrum.validation.input")
	}

	project, err := session.CreateProject(c.Context(), body)
	if err != nil {
		return serviceErrorResponse(c, err, "createProject")
	}

	return utils.SuccessResponse(c, project, fiber.StatusCreated)
}

// ViewProject handles POST /api/projects/:projectId/view
// @Summary View a project
// @Description Switch the session to a project and derive the viewer's access
// @Tags Projects
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {object} scrum.Access
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects/{projectId}/view [post]
func (h *ProjectHandler) ViewProject(c *fiber.Ctx) error {
	session, err := getSession(c)
	if err != nil {
		return utils.ForbiddenResponse(c, err.Error(), "scrum.authorization.session")
	}

	access, err := session.ViewProject(c.Context(), c.Params("projectId"))
	if err != nil {
		return serviceErrorResponse(c, err, "viewProject")
	}

	return utils.SuccessResponse(c, access, fiber.StatusOK)
}

// UpdateProject handles PUT /api/projects/:projectId
// @Summary Update a project
// @Description Apply partial changes to a project the session user owns
// @Tags Projects
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param body body services.ProjectInput true "Fields to change"
// @Success 200 {object} models.Project
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects/{projectId} [put]
func (h *ProjectHandler) UpdateProject(c *fiber.Ctx) error {
	session, err := getSession(c)
	if err != nil {
		return utils.ForbiddenResponse(c, err.Error(), "scrum.authorization.session")
	}

	var body services.ProjectInput
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "scrum.validation.input")
	}

	changes := map[string]interface{}{}
	if body.Title != "" {
		changes["title"] = body.Title
	}
	if body.Description != "" {
		changes["description"] = body.Description
	}
	if body.EndGoal != "" {
		changes["end_goal"] = body.EndGoal
	}
	if len(body.BoardColumns.JSON) > 0 {
		changes["board_columns"] = body.BoardColumns
	}
	if len(changes) == 0 {
		return utils.ErrorResponse(c, "Nothing to update", fiber.StatusBadRequest, "scrum.validation.input")
	}

	project, err := session.UpdateProject(c.Context(), c.Params("projectId"), changes)
	if err != nil {
		return serviceErrorResponse(c, err, "updateProject")
	}

	return utils.SuccessResponse(c, project, fiber.StatusOK)
}

// DeleteProject handles DELETE /api/projects/:projectId
// @Summary Delete a project
// @Description Delete a project and all of its sprints, tasks, collaborators and burndown data
// @Tags Projects
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects/{projectId} [delete]
func (h *ProjectHandler) DeleteProject(c *fiber.Ctx) error {
	session, err := getSession(c)
	if err != nil {
		return utils.ForbiddenResponse(c, err.Error(), "scrum.authorization.session")
	}

	if err := session.DeleteProject(c.Context(), c.Params("projectId")); err != nil {
		return serviceErrorResponse(c, err, "deleteProject")
	}

	return utils.MutationSuccessResponse(c, 1)
}
