package server

import (
	"charitydesk/internal/access"
	"charitydesk/internal/service"

	"github.com/gofiber/fiber/v2"
)

// contentHandlers serves the routes shared by news and stories.
type contentHandlers struct {
	server *Server
	svc    *service.ContentService
}

// List handles GET /api/{news,stories}
func (h contentHandlers) List(c *fiber.Ctx) error {
	page := parsePagination(c)
	result, err := h.svc.List(c.UserContext(), principalOf(c), service.ListContentInput{
		Limit:    page.Limit,
		Offset:   page.Offset,
		Query:    c.Query("q"),
		Archived: c.Query("archived"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// Show handles GET /api/{news,stories}/:id
func (h contentHandlers) Show(c *fiber.Ctx) error {
	id, err := parseID(c, "id", access.ViewPublicContent)
	if err != nil {
		return nil
	}
	item, err := h.svc.Show(c.UserContext(), principalOf(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// Create handles POST /api/{news,stories}
func (h contentHandlers) Create(c *fiber.Ctx) error {
	var req service.ContentInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	item, err := h.svc.Create(c.UserContext(), principalOf(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// Update handles PUT /api/{news,stories}/:id
func (h contentHandlers) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id", access.CreateContent)
	if err != nil {
		return nil
	}
	var req service.ContentInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	item, err := h.svc.Update(c.UserContext(), principalOf(c), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// Delete handles DELETE /api/{news,stories}/:id
func (h contentHandlers) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id", access.DeleteContent)
	if err != nil {
		return nil
	}
	if err := h.svc.Delete(c.UserContext(), principalOf(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListComments handles GET /api/{news,stories}/:id/comments
func (h contentHandlers) ListComments(c *fiber.Ctx) error {
	id, err := parseID(c, "id", access.ViewPublicContent)
	if err != nil {
		return nil
	}
	page := parsePagination(c)
	result, err := h.server.interactions.ListComments(c.UserContext(), principalOf(c),
		h.svc.Kind(), id, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// AddComment handles POST /api/{news,stories}/:id/comments
func (h contentHandlers) AddComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id", access.CommentOnContent)
	if err != nil {
		return nil
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	comment, err := h.server.interactions.AddComment(c.UserContext(), principalOf(c), service.AddCommentInput{
		Kind:   h.svc.Kind(),
		ItemID: id,
		Text:   req.Text,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// RemoveComment handles DELETE /api/{news,stories}/:id/comments/:commentId
func (h contentHandlers) RemoveComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id", access.DeleteContent)
	if err != nil {
		return nil
	}
	commentID, err := parseID(c, "commentId", access.DeleteContent)
	if err != nil {
		return nil
	}
	if err := h.server.interactions.RemoveComment(c.UserContext(), principalOf(c), service.RemoveCommentInput{
		Kind:      h.svc.Kind(),
		ItemID:    id,
		CommentID: commentID,
	}); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleLike handles POST /api/{news,stories}/:id/like
func (h contentHandlers) ToggleLike(c *fiber.Ctx) error {
	id, err := parseID(c, "id", access.LikeContent)
	if err != nil {
		return nil
	}
	var req struct {
		Emoji string `json:"emoji"`
	}
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return nil
		}
	}
	result, err := h.server.interactions.ToggleLike(c.UserContext(), principalOf(c), service.ToggleLikeInput{
		Kind:   h.svc.Kind(),
		ItemID: id,
		Emoji:  req.Emoji,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// ArchiveNews handles POST /api/news/:id/archive
func (s *Server) ArchiveNews(c *fiber.Ctx) error {
	return s.setNewsArchived(c, true)
}

// UnarchiveNews handles POST /api/news/:id/unarchive
func (s *Server) UnarchiveNews(c *fiber.Ctx) error {
	return s.setNewsArchived(c, false)
}

func (s *Server) setNewsArchived(c *fiber.Ctx, archived bool) error {
	id, err := parseID(c, "id", access.ArchiveContent)
	if err != nil {
		return nil
	}
	change := s.news.Archive
	if !archived {
		change = s.news.Unarchive
	}
	item, err := change(c.UserContext(), principalOf(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}
