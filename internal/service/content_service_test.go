package service

import (
	"context"
	"strings"
	"testing"

	"charitydesk/internal/access"
	"charitydesk/internal/media"
	"charitydesk/internal/models"
	"charitydesk/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contentRepoStub is a stub for repository.ContentRepository.
type contentRepoStub struct {
	createFn      func(context.Context, *models.ContentItem) error
	getByIDFn     func(context.Context, repository.Scope, uint, uint) (*models.ContentItem, error)
	listFn        func(context.Context, repository.ContentFilter, uint) ([]*models.ContentItem, int64, error)
	updateFn      func(context.Context, models.ContentKind, uint, string, string, []models.Attachment) error
	setArchivedFn func(context.Context, models.ContentKind, uint, bool) (bool, error)
	deleteFn      func(context.Context, models.ContentKind, uint) error
}

func (s *contentRepoStub) Create(ctx context.Context, item *models.ContentItem) error {
	return s.createFn(ctx, item)
}
func (s *contentRepoStub) GetByID(ctx context.Context, scope repository.Scope, id, viewerID uint) (*models.ContentItem, error) {
	return s.getByIDFn(ctx, scope, id, viewerID)
}
func (s *contentRepoStub) List(ctx context.Context, f repository.ContentFilter, viewerID uint) ([]*models.ContentItem, int64, error) {
	return s.listFn(ctx, f, viewerID)
}
func (s *contentRepoStub) Update(ctx context.Context, kind models.ContentKind, id uint, title, body string, atts []models.Attachment) error {
	return s.updateFn(ctx, kind, id, title, body, atts)
}
func (s *contentRepoStub) SetArchived(ctx context.Context, kind models.ContentKind, id uint, archived bool) (bool, error) {
	return s.setArchivedFn(ctx, kind, id, archived)
}
func (s *contentRepoStub) Delete(ctx context.Context, kind models.ContentKind, id uint) error {
	return s.deleteFn(ctx, kind, id)
}

// failingContentRepo fails the test if any persistence call is made.
func failingContentRepo(t *testing.T) *contentRepoStub {
	fail := func() { t.Errorf("repository must not be called") }
	return &contentRepoStub{
		createFn: func(context.Context, *models.ContentItem) error { fail(); return nil },
		getByIDFn: func(context.Context, repository.Scope, uint, uint) (*models.ContentItem, error) {
			fail()
			return nil, nil
		},
		listFn: func(context.Context, repository.ContentFilter, uint) ([]*models.ContentItem, int64, error) {
			fail()
			return nil, 0, nil
		},
		updateFn: func(context.Context, models.ContentKind, uint, string, string, []models.Attachment) error {
			fail()
			return nil
		},
		setArchivedFn: func(context.Context, models.ContentKind, uint, bool) (bool, error) { fail(); return false, nil },
		deleteFn:      func(context.Context, models.ContentKind, uint) error { fail(); return nil },
	}
}

var (
	guest  = access.Principal{ID: 10, Role: access.RoleGuest}
	editor = access.Principal{ID: 20, Role: access.RoleEditor, EmailVerified: true}
	admin  = access.Principal{ID: 30, Role: access.RoleAdmin, EmailVerified: true}
)

func TestContentService_DeniedBeforeStorage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	in := ContentInput{Title: "t", Body: "b"}

	t.Run("guest cannot create", func(t *testing.T) {
		t.Parallel()
		svc := NewNewsService(failingContentRepo(t), nil)
		_, err := svc.Create(ctx, guest, in)
		assertDenied(t, err)
	})

	t.Run("unverified guest cannot archive", func(t *testing.T) {
		t.Parallel()
		svc := NewNewsService(failingContentRepo(t), nil)
		_, err := svc.Archive(ctx, access.Principal{ID: 1, Role: access.RoleGuest}, 5)
		assertDenied(t, err)
	})

	t.Run("editor cannot delete", func(t *testing.T) {
		t.Parallel()
		svc := NewStoryService(failingContentRepo(t), nil)
		assertDenied(t, svc.Delete(ctx, editor, 5))
	})

	t.Run("anonymous cannot update missing item", func(t *testing.T) {
		t.Parallel()
		svc := NewNewsService(failingContentRepo(t), nil)
		_, err := svc.Update(ctx, access.Anonymous, 9999, in)
		assertDenied(t, err)
	})
}

func TestContentService_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewNewsService(failingContentRepo(t), nil)

	tests := []struct {
		name  string
		in    ContentInput
		field string
	}{
		{"empty title", ContentInput{Body: "b"}, "title"},
		{"blank title", ContentInput{Title: "   ", Body: "b"}, "title"},
		{"title too long", ContentInput{Title: strings.Repeat("é", 256), Body: "b"}, "title"},
		{"empty body", ContentInput{Title: "t"}, "body"},
		{"unknown attachment kind", ContentInput{Title: "t", Body: "b", Attachments: []AttachmentInput{
			{Kind: "audio", URL: "https://example.com/a.mp3"},
		}}, "attachments.0.kind"},
		{"relative image url", ContentInput{Title: "t", Body: "b", Attachments: []AttachmentInput{
			{Kind: "image", URL: "/uploads/a.jpg"},
		}}, "attachments.0.url"},
		{"invalid video at index 2", ContentInput{Title: "t", Body: "b", Attachments: []AttachmentInput{
			{Kind: "image", URL: "https://example.com/a.jpg"},
			{Kind: "video", URL: "https://youtu.be/dQw4w9WgXcQ"},
			{Kind: "video", URL: "not a url"},
		}}, "attachments.2.url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.Create(ctx, editor, tt.in)
			assertValidationError(t, err)
			fields := fieldErrors(t, err)
			assert.Contains(t, fields, tt.field)
			assert.Len(t, fields, 1)
		})
	}
}

func TestContentService_CreateNormalizesVideos(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var created *models.ContentItem
	repo := failingContentRepo(t)
	repo.createFn = func(_ context.Context, item *models.ContentItem) error {
		item.ID = 7
		created = item
		return nil
	}
	repo.getByIDFn = func(_ context.Context, scope repository.Scope, id, viewer uint) (*models.ContentItem, error) {
		assert.True(t, scope.IncludeArchived)
		assert.Equal(t, models.ContentKindStory, scope.Kind)
		assert.Equal(t, editor.ID, viewer)
		return created, nil
	}

	order := 5
	svc := NewStoryService(repo, nil)
	item, err := svc.Create(ctx, editor, ContentInput{
		Title: "  A story ",
		Body:  "Once",
		Attachments: []AttachmentInput{
			{Kind: "VIDEO", URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42"},
			{Kind: "image", URL: "https://cdn.example.org/p.png", DisplayOrder: &order},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "A story", item.Title)
	assert.Equal(t, models.ContentKindStory, item.Kind)
	require.NotNil(t, item.AuthorID)
	assert.Equal(t, editor.ID, *item.AuthorID)
	require.Len(t, item.Attachments, 2)
	assert.Equal(t, media.EmbedURL("dQw4w9WgXcQ"), item.Attachments[0].URL)
	assert.Equal(t, "dQw4w9WgXcQ", item.Attachments[0].VideoID)
	assert.Equal(t, 0, item.Attachments[0].DisplayOrder)
	assert.Equal(t, 5, item.Attachments[1].DisplayOrder)
}

func TestContentService_ListFilters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name         string
		principal    access.Principal
		in           ListContentInput
		wantArchived repository.ArchivedFilter
		wantLimit    int
	}{
		{"anonymous ignores archived filter", access.Anonymous, ListContentInput{Archived: "only"}, repository.ArchivedExclude, DefaultPageSize},
		{"guest ignores archived filter", guest, ListContentInput{Archived: "include", Limit: 5}, repository.ArchivedExclude, 5},
		{"editor sees archived only", editor, ListContentInput{Archived: "only"}, repository.ArchivedOnly, DefaultPageSize},
		{"admin includes archived", admin, ListContentInput{Archived: "include", Limit: 1000}, repository.ArchivedInclude, MaxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo := failingContentRepo(t)
			repo.listFn = func(_ context.Context, f repository.ContentFilter, viewer uint) ([]*models.ContentItem, int64, error) {
				assert.Equal(t, tt.wantArchived, f.Archived)
				assert.Equal(t, tt.wantLimit, f.Limit)
				assert.Equal(t, models.ContentKindNews, f.Kind)
				assert.Equal(t, tt.principal.ID, viewer)
				return []*models.ContentItem{{ID: 1, Body: "<p>Hello <b>world</b></p>"}}, 1, nil
			}
			page, err := NewNewsService(repo, nil).List(ctx, tt.principal, tt.in)
			require.NoError(t, err)
			assert.Equal(t, int64(1), page.Total)
			assert.Equal(t, "Hello world", page.Items[0].Excerpt)
		})
	}
}

func TestNewsService_ArchiveLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStack(t, nil)
	ed, ad, gu := s.cast(t)

	item, err := s.news.Create(ctx, ed, ContentInput{Title: "Gala", Body: "Tickets on sale"})
	require.NoError(t, err)
	assert.False(t, item.Archived)

	for i := 0; i < 2; i++ {
		archived, err := s.news.Archive(ctx, ed, item.ID)
		require.NoError(t, err, "archive attempt %d", i+1)
		assert.True(t, archived.Archived)
	}

	_, err = s.news.Show(ctx, gu, item.ID)
	assertNotFound(t, err)
	page, err := s.news.List(ctx, access.Anonymous, ListContentInput{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	shown, err := s.news.Show(ctx, ed, item.ID)
	require.NoError(t, err)
	assert.True(t, shown.Archived)

	for i := 0; i < 2; i++ {
		active, err := s.news.Unarchive(ctx, ad, item.ID)
		require.NoError(t, err, "unarchive attempt %d", i+1)
		assert.False(t, active.Archived)
	}

	_, err = s.news.Archive(ctx, ed, 4242)
	assertNotFound(t, err)
}

func TestNewsService_ArchiveIgnoresStories(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStack(t, nil)
	ed, ad, _ := s.cast(t)

	story, err := s.stories.Create(ctx, ed, ContentInput{Title: "Anna's year", Body: "Thanks to you"})
	require.NoError(t, err)

	_, err = s.news.Archive(ctx, ad, story.ID)
	assertNotFound(t, err)
}

func TestContentService_UpdateAndDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStack(t, nil)
	ed, ad, _ := s.cast(t)

	item, err := s.news.Create(ctx, ed, ContentInput{
		Title:       "Old",
		Body:        "Old body",
		Attachments: []AttachmentInput{{Kind: "image", URL: "https://example.com/1.jpg"}},
	})
	require.NoError(t, err)

	updated, err := s.news.Update(ctx, ed, item.ID, ContentInput{
		Title: "New",
		Body:  "New body",
		Attachments: []AttachmentInput{
			{Kind: "video", URL: "youtu.be/dQw4w9WgXcQ"},
			{Kind: "image", URL: "https://example.com/2.jpg"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
	require.Len(t, updated.Attachments, 2)
	assert.Equal(t, models.AttachmentKindVideo, updated.Attachments[0].Kind)

	_, err = s.stories.Update(ctx, ed, item.ID, ContentInput{Title: "x", Body: "y"})
	assertNotFound(t, err)

	require.NoError(t, s.news.Delete(ctx, ad, item.ID))
	assertNotFound(t, s.news.Delete(ctx, ad, item.ID))

	var remaining int64
	require.NoError(t, s.db.Model(&models.Attachment{}).Where("content_item_id = ?", item.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestContentService_AnonymousCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, _ := setupContentCache(t)
	s := newStack(t, c)
	ed, _, gu := s.cast(t)

	first, err := s.news.Create(ctx, ed, ContentInput{Title: "First", Body: "one"})
	require.NoError(t, err)

	page, err := s.news.List(ctx, access.Anonymous, ListContentInput{})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)

	// A write that bypasses the service is not visible until the kind is invalidated.
	require.NoError(t, s.db.Create(&models.ContentItem{Kind: models.ContentKindNews, Title: "Direct", Body: "x"}).Error)
	cached, err := s.news.List(ctx, access.Anonymous, ListContentInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached.Total)

	fresh, err := s.news.List(ctx, gu, ListContentInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), fresh.Total)

	_, err = s.news.Archive(ctx, ed, first.ID)
	require.NoError(t, err)
	after, err := s.news.List(ctx, access.Anonymous, ListContentInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), after.Total)
	assert.Equal(t, "Direct", after.Items[0].Title)
}
