package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"charitydesk/internal/access"
	"charitydesk/internal/cache"
	"charitydesk/internal/middleware"
	"charitydesk/internal/models"
	"charitydesk/internal/observability"
	"charitydesk/internal/repository"
)

// Interaction limits.
const (
	MaxCommentLength = 1000
	maxEmojiLength   = 16
)

// InteractionService records comments and likes against news and stories.
type InteractionService struct {
	comments repository.CommentRepository
	likes    repository.LikeRepository
	content  repository.ContentRepository
	cache    *cache.ContentCache
}

type AddCommentInput struct {
	Kind   models.ContentKind
	ItemID uint
	Text   string
}

type ToggleLikeInput struct {
	Kind   models.ContentKind
	ItemID uint
	Emoji  string
}

type RemoveCommentInput struct {
	Kind      models.ContentKind
	ItemID    uint
	CommentID uint
}

// CommentPage is one page of an item's comments, newest first.
type CommentPage struct {
	Items  []*models.Comment `json:"items"`
	Total  int64             `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

func NewInteractionService(
	comments repository.CommentRepository,
	likes repository.LikeRepository,
	content repository.ContentRepository,
	c *cache.ContentCache,
) *InteractionService {
	return &InteractionService{
		comments: comments,
		likes:    likes,
		content:  content,
		cache:    c,
	}
}

// AddComment appends a comment to an active item. Authorization is checked
// before the item is looked up.
func (s *InteractionService) AddComment(ctx context.Context, p access.Principal, in AddCommentInput) (comment *models.Comment, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "interaction", "add_comment")
	defer func() { observability.EndSpan(span, err) }()

	if err = access.Require(p, access.CommentOnContent); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewFieldValidationError(map[string]string{"text": "Comment text is required"})
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return nil, models.NewFieldValidationError(map[string]string{
			"text": fmt.Sprintf("Comment too long (max %d characters)", MaxCommentLength),
		})
	}

	authorID := p.ID
	comment = &models.Comment{
		ContentItemID: in.ItemID,
		AuthorID:      &authorID,
		Text:          text,
	}
	if err = s.comments.CreateOnActive(ctx, in.Kind, comment); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, string(in.Kind))
	middleware.ContentEvents.WithLabelValues(string(in.Kind), "commented").Inc()
	middleware.Logger.InfoContext(ctx, "comment added",
		slog.String("kind", string(in.Kind)),
		slog.Uint64("content_id", uint64(in.ItemID)),
		slog.Uint64("comment_id", uint64(comment.ID)),
	)
	return comment, nil
}

// ToggleLike likes an active item, or removes the principal's like if one exists.
func (s *InteractionService) ToggleLike(ctx context.Context, p access.Principal, in ToggleLikeInput) (result *models.LikeResult, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "interaction", "toggle_like")
	defer func() { observability.EndSpan(span, err) }()

	if err = access.Require(p, access.LikeContent); err != nil {
		return nil, err
	}
	emoji := strings.TrimSpace(in.Emoji)
	if utf8.RuneCountInString(emoji) > maxEmojiLength {
		return nil, models.NewFieldValidationError(map[string]string{"emoji": "Emoji is too long"})
	}

	result, err = s.likes.Toggle(ctx, in.Kind, in.ItemID, p.ID, emoji)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, string(in.Kind))
	middleware.LikeToggles.WithLabelValues(string(result.State)).Inc()
	if result.ConflictIgnored {
		middleware.Logger.InfoContext(ctx, "concurrent like discarded",
			slog.Uint64("content_id", uint64(in.ItemID)),
			slog.Uint64("user_id", uint64(p.ID)),
		)
	}
	return result, nil
}

// RemoveComment deletes a comment. The comment must belong to the given item.
func (s *InteractionService) RemoveComment(ctx context.Context, p access.Principal, in RemoveCommentInput) (err error) {
	ctx, span := observability.StartServiceSpan(ctx, "interaction", "remove_comment")
	defer func() { observability.EndSpan(span, err) }()

	if err = access.Require(p, access.DeleteContent); err != nil {
		return err
	}
	if err = s.comments.DeleteFromItem(ctx, in.Kind, in.ItemID, in.CommentID); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, string(in.Kind))
	middleware.ContentEvents.WithLabelValues(string(in.Kind), "comment_removed").Inc()
	middleware.Logger.InfoContext(ctx, "comment removed",
		slog.Uint64("content_id", uint64(in.ItemID)),
		slog.Uint64("comment_id", uint64(in.CommentID)),
		slog.Uint64("actor_id", uint64(p.ID)),
	)
	return nil
}

// ListComments returns an item's comments. The item is visible under the
// same rules as Show.
func (s *InteractionService) ListComments(ctx context.Context, p access.Principal, kind models.ContentKind, itemID uint, limit, offset int) (*CommentPage, error) {
	if err := access.Require(p, access.ViewPublicContent); err != nil {
		return nil, err
	}
	scope := repository.Scope{Kind: kind, IncludeArchived: access.Can(p, access.ArchiveContent)}
	if _, err := s.content.GetByID(ctx, scope, itemID, 0); err != nil {
		return nil, err
	}

	limit, offset = normalizePage(limit, offset)
	items, total, err := s.comments.ListByItem(ctx, itemID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &CommentPage{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}
