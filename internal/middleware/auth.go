package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/scrumdb/internal/scrum"
	"github.com/localnerve/scrumdb/internal/types"
)

// SessionCookie is the cookie carrying the opaque session token. The same
// token is also accepted in the X-Session-Token header for non-browser
// clients.
const SessionCookie = "scrumdb_session"

// RequireSession resolves the request's session token against the manager
// and stores the live session in context for the handlers.
func RequireSession(manager *scrum.SessionManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookie)
		if token == "" {
			token = c.Get("X-Session-Token")
		}
		if token == "" {
			return &types.CustomError{
				Code:    fiber.StatusForbidden,
				Message: "Session token not found",
				Type:    "scrum.authorization.session",
			}
		}

		session := manager.Lookup(token)
		if session == nil {
			return &types.CustomError{
				Code:    fiber.StatusForbidden,
				Message: "Session expired or unknown",
				Type:    "scrum.authorization.session",
			}
		}

		c.Locals("session", session)
		c.Locals("sessionToken", token)

		return c.Next()
	}
}
