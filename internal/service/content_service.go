// Package service holds the application's business rules. Every operation
// takes the acting principal explicitly and checks it before touching storage.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"charitydesk/internal/access"
	"charitydesk/internal/cache"
	"charitydesk/internal/media"
	"charitydesk/internal/middleware"
	"charitydesk/internal/models"
	"charitydesk/internal/observability"
	"charitydesk/internal/repository"
)

// Pagination bounds shared by every list operation.
const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// AttachmentInput is one carousel entry as submitted by an editor.
// A nil DisplayOrder takes the entry's position in the list.
type AttachmentInput struct {
	Kind         string `json:"kind"`
	URL          string `json:"url"`
	DisplayOrder *int   `json:"display_order"`
}

type ContentInput struct {
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Attachments []AttachmentInput `json:"attachments"`
}

type ListContentInput struct {
	Limit    int
	Offset   int
	Query    string
	Archived string
}

// ContentPage is one page of a content listing.
type ContentPage struct {
	Items  []*models.ContentItem `json:"items"`
	Total  int64                 `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

// ContentService is the lifecycle shared by news and stories: create, update,
// delete, list and show. Archiving is only exposed by NewsService.
type ContentService struct {
	kind    models.ContentKind
	content repository.ContentRepository
	cache   *cache.ContentCache
}

func newContentService(kind models.ContentKind, content repository.ContentRepository, c *cache.ContentCache) *ContentService {
	return &ContentService{kind: kind, content: content, cache: c}
}

// Kind returns the content kind this service manages.
func (s *ContentService) Kind() models.ContentKind {
	return s.kind
}

func (s *ContentService) span(ctx context.Context, operation string) (context.Context, func(error)) {
	ctx, span := observability.StartServiceSpan(ctx, string(s.kind), operation)
	return ctx, func(err error) { observability.EndSpan(span, err) }
}

func (s *ContentService) recordEvent(ctx context.Context, action string, id uint, actor access.Principal) {
	s.cache.Invalidate(ctx, string(s.kind))
	middleware.ContentEvents.WithLabelValues(string(s.kind), action).Inc()
	middleware.Logger.InfoContext(ctx, "content "+action,
		slog.String("kind", string(s.kind)),
		slog.Uint64("content_id", uint64(id)),
		slog.Uint64("actor_id", uint64(actor.ID)),
	)
}

func (s *ContentService) Create(ctx context.Context, p access.Principal, in ContentInput) (item *models.ContentItem, err error) {
	ctx, end := s.span(ctx, "create")
	defer func() { end(err) }()

	if err = access.Require(p, access.CreateContent); err != nil {
		return nil, err
	}
	title, body, attachments, err := validateContentInput(in)
	if err != nil {
		return nil, err
	}

	item = &models.ContentItem{
		Kind:        s.kind,
		Title:       title,
		Body:        body,
		Attachments: attachments,
	}
	if p.ID != 0 {
		authorID := p.ID
		item.AuthorID = &authorID
	}
	if err = s.content.Create(ctx, item); err != nil {
		return nil, err
	}
	s.recordEvent(ctx, "created", item.ID, p)

	return s.reload(ctx, item.ID, p)
}

// Update replaces title, body and the full attachment list of an item.
func (s *ContentService) Update(ctx context.Context, p access.Principal, id uint, in ContentInput) (item *models.ContentItem, err error) {
	ctx, end := s.span(ctx, "update")
	defer func() { end(err) }()

	if err = access.Require(p, access.CreateContent); err != nil {
		return nil, err
	}
	title, body, attachments, err := validateContentInput(in)
	if err != nil {
		return nil, err
	}
	if err = s.content.Update(ctx, s.kind, id, title, body, attachments); err != nil {
		return nil, err
	}
	s.recordEvent(ctx, "updated", id, p)

	return s.reload(ctx, id, p)
}

// Delete removes the item with its attachments, comments and likes.
func (s *ContentService) Delete(ctx context.Context, p access.Principal, id uint) (err error) {
	ctx, end := s.span(ctx, "delete")
	defer func() { end(err) }()

	if err = access.Require(p, access.DeleteContent); err != nil {
		return err
	}
	if err = s.content.Delete(ctx, s.kind, id); err != nil {
		return err
	}
	s.recordEvent(ctx, "deleted", id, p)
	return nil
}

// List returns one page of items, newest first. Only principals that may
// archive content can ask for archived items; everyone else sees active ones.
func (s *ContentService) List(ctx context.Context, p access.Principal, in ListContentInput) (*ContentPage, error) {
	if err := access.Require(p, access.ViewPublicContent); err != nil {
		return nil, err
	}
	limit, offset := normalizePage(in.Limit, in.Offset)
	filter := repository.ContentFilter{
		Kind:     s.kind,
		Archived: repository.ArchivedExclude,
		Query:    strings.TrimSpace(in.Query),
		Limit:    limit,
		Offset:   offset,
	}
	if access.Can(p, access.ArchiveContent) {
		filter.Archived = repository.ParseArchivedFilter(in.Archived)
	}

	load := func(ctx context.Context) (*ContentPage, error) {
		items, total, err := s.content.List(ctx, filter, p.ID)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			item.Excerpt = media.Excerpt(item.Body, media.DefaultExcerptLength)
		}
		return &ContentPage{Items: items, Total: total, Limit: limit, Offset: offset}, nil
	}

	if p.Role != access.RoleNone {
		return load(ctx)
	}
	return cache.Aside(ctx, s.cache, string(s.kind)+"_list",
		func(ctx context.Context) (string, error) {
			return s.cache.ListKey(ctx, string(s.kind), limit, offset, strings.ToLower(filter.Query))
		}, load)
}

// Show returns one item with its attachments, counts and the principal's liked flag.
func (s *ContentService) Show(ctx context.Context, p access.Principal, id uint) (*models.ContentItem, error) {
	if err := access.Require(p, access.ViewPublicContent); err != nil {
		return nil, err
	}
	scope := repository.Scope{Kind: s.kind, IncludeArchived: access.Can(p, access.ArchiveContent)}

	load := func(ctx context.Context) (*models.ContentItem, error) {
		return s.content.GetByID(ctx, scope, id, p.ID)
	}
	if p.Role != access.RoleNone {
		return load(ctx)
	}
	return cache.Aside(ctx, s.cache, string(s.kind)+"_item",
		func(ctx context.Context) (string, error) {
			return s.cache.ItemKey(ctx, string(s.kind), id)
		}, load)
}

func (s *ContentService) reload(ctx context.Context, id uint, p access.Principal) (*models.ContentItem, error) {
	return s.content.GetByID(ctx, repository.Scope{Kind: s.kind, IncludeArchived: true}, id, p.ID)
}

// NewsService is the news lifecycle: Active and Archived, plus terminal deletion.
type NewsService struct {
	*ContentService
}

func NewNewsService(content repository.ContentRepository, c *cache.ContentCache) *NewsService {
	return &NewsService{ContentService: newContentService(models.ContentKindNews, content, c)}
}

// Archive hides an active news item from public listings. Archiving an
// archived item succeeds without changes.
func (s *NewsService) Archive(ctx context.Context, p access.Principal, id uint) (*models.ContentItem, error) {
	return s.setArchived(ctx, p, id, true)
}

// Unarchive makes an archived news item public again. Idempotent.
func (s *NewsService) Unarchive(ctx context.Context, p access.Principal, id uint) (*models.ContentItem, error) {
	return s.setArchived(ctx, p, id, false)
}

func (s *NewsService) setArchived(ctx context.Context, p access.Principal, id uint, archived bool) (item *models.ContentItem, err error) {
	action := "archived"
	if !archived {
		action = "unarchived"
	}
	ctx, end := s.span(ctx, action)
	defer func() { end(err) }()

	if err = access.Require(p, access.ArchiveContent); err != nil {
		return nil, err
	}
	changed, err := s.content.SetArchived(ctx, s.kind, id, archived)
	if err != nil {
		return nil, err
	}
	if changed {
		s.recordEvent(ctx, action, id, p)
	}
	return s.reload(ctx, id, p)
}

// StoryService is the story lifecycle. Stories are never archived.
type StoryService struct {
	*ContentService
}

func NewStoryService(content repository.ContentRepository, c *cache.ContentCache) *StoryService {
	return &StoryService{ContentService: newContentService(models.ContentKindStory, content, c)}
}

func validateContentInput(in ContentInput) (string, string, []models.Attachment, error) {
	const maxTitleLen = 255
	const maxBodyLen = 50000

	fields := map[string]string{}
	title := strings.TrimSpace(in.Title)
	body := strings.TrimSpace(in.Body)

	switch {
	case title == "":
		fields["title"] = "Title is required"
	case utf8.RuneCountInString(title) > maxTitleLen:
		fields["title"] = fmt.Sprintf("Title too long (max %d characters)", maxTitleLen)
	}
	switch {
	case body == "":
		fields["body"] = "Body is required"
	case utf8.RuneCountInString(body) > maxBodyLen:
		fields["body"] = fmt.Sprintf("Body too long (max %d characters)", maxBodyLen)
	}

	attachments := make([]models.Attachment, 0, len(in.Attachments))
	for i, a := range in.Attachments {
		att, field, msg := buildAttachment(i, a)
		if field != "" {
			fields[field] = msg
			continue
		}
		attachments = append(attachments, att)
	}

	if len(fields) > 0 {
		return "", "", nil, models.NewFieldValidationError(fields)
	}
	return title, body, attachments, nil
}

func buildAttachment(i int, in AttachmentInput) (models.Attachment, string, string) {
	att := models.Attachment{DisplayOrder: i}
	if in.DisplayOrder != nil {
		att.DisplayOrder = *in.DisplayOrder
	}
	raw := strings.TrimSpace(in.URL)

	switch models.AttachmentKind(strings.ToLower(strings.TrimSpace(in.Kind))) {
	case models.AttachmentKindImage:
		if !isHTTPURL(raw) {
			return att, fmt.Sprintf("attachments.%d.url", i), "Image URL must be an absolute http(s) URL"
		}
		att.Kind = models.AttachmentKindImage
		att.URL = raw
	case models.AttachmentKindVideo:
		video, err := media.NormalizeVideoURL(raw)
		if err != nil {
			return att, fmt.Sprintf("attachments.%d.url", i), "Invalid video URL"
		}
		att.Kind = models.AttachmentKindVideo
		att.URL = video.EmbedURL
		att.VideoID = video.ID
	default:
		return att, fmt.Sprintf("attachments.%d.kind", i), "Attachment kind must be image or video"
	}
	return att, "", ""
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
