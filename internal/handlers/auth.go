package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/scrumdb/internal/middleware"
	"github.com/localnerve/scrumdb/internal/scrum"
	"github.com/localnerve/scrumdb/internal/services"
	"github.com/localnerve/scrumdb/internal/utils"
	"gorm.io/gorm"
)

// AuthHandler handles account and session routes
type AuthHandler struct {
	DB      *gorm.DB
	Manager *scrum.SessionManager
}

// Register handles POST /api/auth/register
// @Summary Register an account
// @Description Create a new account with username, email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.RegisterInput true "Account details"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var body services.RegisterInput
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "scrum.validation.input")
	}

	user, err := services.RegisterUser(c.Context(), h.DB, body)
	if err != nil {
		return serviceErrorResponse(c, err, "registerUser")
	}

	return utils.SuccessResponse(c, user, fiber.StatusCreated)
}

// Login handles POST /api/auth/login
// @Summary Log in
// @Description Verify credentials, load the user's projects and issue a session token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body object true "Identifier (email or username) and password"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "scrum.validation.input")
	}
	if body.Identifier == "" || body.Password == "" {
		return utils.ErrorResponse(c, "Identifier and password are required",
			fiber.StatusBadRequest, "scrum.validation.input")
	}

	token, session := h.Manager.Create()
	user, err := session.Login(c.Context(), body.Identifier, body.Password)
	if err != nil {
		h.Manager.Destroy(token)
		return serviceErrorResponse(c, err, "login")
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		HTTPOnly: true,
		SameSite: "Strict",
		Expires:  time.Now().Add(24 * time.Hour),
	})

	return utils.SuccessResponse(c, fiber.Map{
		"token": token,
		"user":  user,
	}, fiber.StatusOK)
}

// Logout handles POST /api/auth/logout
// @Summary Log out
// @Description Destroy the session and clear all cached state
// @Tags Auth
// @Produce json
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token, _ := c.Locals("sessionToken").(string)
	h.Manager.Destroy(token)

	c.ClearCookie(middleware.SessionCookie)

	return utils.MutationSuccessResponse(c, 1)
}

// Me handles GET /api/auth/me
// @Summary Current user
// @Description Get the session user
// @Tags Auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	session, err := getSession(c)
	if err != nil {
		return utils.ForbiddenResponse(c, err.Error(), "scrum.authorization.session")
	}

	return utils.SuccessResponse(c, session.User(), fiber.StatusOK)
}
