// common.go
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
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/scrumdb/internal/scrum"
	"github.com/localnerve/scrumdb/internal/types"
	"github.com/localnerve/scrumdb/internal/utils"
)

// getSession extracts the live session from context (set by auth middleware).
func getSession(c *fiber.Ctx) (*scrum.Session, error) {
	session, ok := c.Locals("session").(*scrum.Session)
	if !ok || session == nil {
		return nil, fmt.Errorf("session not found in context")
	}
	return session, nil
}

// serviceErrorResponse maps the sentinel failure classes onto HTTP statuses
// with the operation label as the error type.
func serviceErrorResponse(c *fiber.Ctx, err error, errorType string) error {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return utils.NotFoundResponse(c, "Resource not found")
	case errors.Is(err, types.ErrForbidden):
		return utils.ForbiddenResponse(c, "Operation not permitted for your role", errorType)
	case errors.Is(err, types.ErrValidation):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, errorType)
	case errors.Is(err, types.ErrDuplicate):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusConflict, errorType)
	}
	return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, errorType)
}
