package server

import (
	"charitydesk/internal/access"
	"charitydesk/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListBanks handles GET /api/banks
func (s *Server) ListBanks(c *fiber.Ctx) error {
	banks, err := s.backOffice.ListBanks(c.UserContext(), principalOf(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(banks)
}

// GetBank handles GET /api/banks/:id
func (s *Server) GetBank(c *fiber.Ctx) error {
	id, err := parseID(c, "id", access.ViewPublicContent)
	if err != nil {
		return nil
	}
	bank, err := s.backOffice.GetBank(c.UserContext(), principalOf(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(bank)
}

// CreateBank handles POST /api/banks
func (s *Server) CreateBank(c *fiber.Ctx) error {
	var req service.BankInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	bank, err := s.backOffice.CreateBank(c.UserContext(), principalOf(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(bank)
}

// UpdateBank handles PUT /api/banks/:id
func (s *Server) UpdateBank(c *fiber.Ctx) error {
	id, err := parseID(c, "id", access.ManageBackOffice)
	if err != nil {
		return nil
	}
	var req service.BankInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	bank, err := s.backOffice.UpdateBank(c.UserContext(), principalOf(c), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(bank)
}

// DeleteBank handles DELETE /api/banks/:id
func (s *Server) DeleteBank(c *fiber.Ctx) error {
	id, err := parseID(c, "id", access.ManageBackOffice)
	if err != nil {
		return nil
	}
	if err := s.backOffice.DeleteBank(c.UserContext(), principalOf(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SubmitContact handles POST /api/contact
func (s *Server) SubmitContact(c *fiber.Ctx) error {
	var req service.ContactInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	msg, err := s.backOffice.SubmitContact(c.UserContext(), principalOf(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      msg.ID,
		"message": "Thank you, we will get back to you soon.",
	})
}

// ListContacts handles GET /api/contact?unread=true
func (s *Server) ListContacts(c *fiber.Ctx) error {
	page := parsePagination(c)
	result, err := s.backOffice.ListContacts(c.UserContext(), principalOf(c),
		c.QueryBool("unread", false), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// ShowContact handles GET /api/contact/:id
func (s *Server) ShowContact(c *fiber.Ctx) error {
	id, err := parseID(c, "id", access.ManageBackOffice)
	if err != nil {
		return nil
	}
	msg, err := s.backOffice.ShowContact(c.UserContext(), principalOf(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(msg)
}

// DeleteContact handles DELETE /api/contact/:id
func (s *Server) DeleteContact(c *fiber.Ctx) error {
	id, err := parseID(c, "id", access.ManageBackOffice)
	if err != nil {
		return nil
	}
	if err := s.backOffice.DeleteContact(c.UserContext(), principalOf(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SubmitDonation handles POST /api/donations
func (s *Server) SubmitDonation(c *fiber.Ctx) error {
	var req service.DonationInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	donation, err := s.backOffice.SubmitDonation(c.UserContext(), principalOf(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(donation)
}

// ListDonations handles GET /api/donations?kind=
func (s *Server) ListDonations(c *fiber.Ctx) error {
	page := parsePagination(c)
	result, err := s.backOffice.ListDonations(c.UserContext(), principalOf(c),
		c.Query("kind"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GetDonation handles GET /api/donations/:reference
func (s *Server) GetDonation(c *fiber.Ctx) error {
	donation, err := s.backOffice.GetDonation(c.UserContext(), principalOf(c), c.Params("reference"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(donation)
}
