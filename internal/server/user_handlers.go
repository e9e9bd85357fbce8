package server

import (
	"charitydesk/internal/access"
	"charitydesk/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.users.Me(c.UserContext(), principalOf(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req service.UpdateProfileInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.users.UpdateOwnProfile(c.UserContext(), principalOf(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// ListUsers handles GET /api/users?role=&q=
func (s *Server) ListUsers(c *fiber.Ctx) error {
	page := parsePagination(c)
	result, err := s.users.List(c.UserContext(), principalOf(c), service.ListUsersInput{
		Role:   c.Query("role"),
		Query:  c.Query("q"),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// ListStaff handles GET /api/users/staff
func (s *Server) ListStaff(c *fiber.Ctx) error {
	staff, err := s.users.ListStaff(c.UserContext(), principalOf(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(staff)
}

// AssignRole handles PUT /api/users/:id/role
func (s *Server) AssignRole(c *fiber.Ctx) error {
	id, err := parseID(c, "id", access.ModerateUsers)
	if err != nil {
		return nil
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.users.AssignRole(c.UserContext(), principalOf(c), id, req.Role)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// VerifyUserEmail handles POST /api/users/:id/verify-email
func (s *Server) VerifyUserEmail(c *fiber.Ctx) error {
	id, err := parseID(c, "id", access.ModerateUsers)
	if err != nil {
		return nil
	}
	user, err := s.users.VerifyEmail(c.UserContext(), principalOf(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// DeleteUser handles DELETE /api/users/:id
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id", access.ModerateUsers)
	if err != nil {
		return nil
	}
	if err := s.users.DeleteUser(c.UserContext(), principalOf(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
