package server

import (
	"charitydesk/internal/access"
	"charitydesk/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFeatures handles GET /api/features, evaluated for the calling account.
func (s *Server) GetFeatures(c *fiber.Ctx) error {
	return c.JSON(s.flags.Snapshot(principalOf(c).ID))
}

// requireFeature answers 404 while the named flag is off for the caller. A
// caller who lacks capability is denied first, so a flag never turns a 403
// into a 404.
func (s *Server) requireFeature(name string, capability access.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := principalOf(c)
		if s.flags.Enabled(name, p.ID) {
			return c.Next()
		}
		if err := access.Require(p, capability); err != nil {
			return respondError(c, err)
		}
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Feature", name))
	}
}
