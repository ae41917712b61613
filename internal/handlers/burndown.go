package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/scrumdb/internal/services"
	"github.com/localnerve/scrumdb/internal/utils"
	"gorm.io/gorm"
)

// BurndownHandler handles burndown chart routes
type BurndownHandler struct {
	DB *gorm.DB
}

// GetBurndown handles GET /api/projects/:projectId/burndown
// @Summary Get the burndown series
// @Description Get the daily ideal/actual remaining-points series for the viewed project
// @Tags Burndown
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {array} models.BurndownPoint
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects/{projectId}/burndown [get]
func (h *BurndownHandler) GetBurndown(c *fiber.Ctx) error {
	session, err := getSession(c)
	if err != nil {
		return utils.ForbiddenResponse(c, err.Error(), "scrum.authorization.session")
	}

	projectID := c.Params("projectId")

	// The cache holds the series after any mutation; fall back to the stored
	// rows right after login.
	series := session.Cache().BurndownSeries(projectID)
	if len(series) == 0 && session.User() != nil {
		stored, err := services.FetchBurndown(c.Context(), h.DB, projectID, session.User().ID)
		if err != nil {
			return serviceErrorResponse(c, err, "getBurndown")
		}
		series = stored
	}

	return utils.SuccessResponse(c, series, fiber.StatusOK)
}
