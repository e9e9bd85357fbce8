package server

import (
	"charitydesk/internal/models"
	"charitydesk/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Signup handles POST /api/auth/signup.
// New accounts are unverified guests. Outside production the response also
// carries the verification token, since no mail is sent.
func (s *Server) Signup(c *fiber.Ctx) error {
	var req service.SignupInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.users.Signup(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	body := fiber.Map{
		"token": token,
		"user":  user,
	}
	if !s.config.IsProduction() {
		body["verification_token"] = user.VerificationToken
	}
	return c.Status(fiber.StatusCreated).JSON(body)
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.users.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// ConfirmEmail handles POST /api/auth/verify-email
func (s *Server) ConfirmEmail(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.Token == "" {
		return respondError(c, models.NewFieldValidationError(map[string]string{
			"token": "The token field is required.",
		}))
	}

	user, err := s.users.ConfirmEmail(c.UserContext(), req.Token)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}
