// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"strings"
	"time"

	"charitydesk/internal/access"
	"charitydesk/internal/media"
	"charitydesk/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "Charity-Demo-2024"

var youtubeIDs = []string{"dQw4w9WgXcQ", "9bZkp7q19f0", "3JZ_D3ELwOQ", "L_jWHffIx5E", "kXYiU_JCYtU"}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by Run and by tests.
type Factory struct {
	db       *gorm.DB
	opts     Options
	faker    *gofakeit.Faker
	password string
	now      time.Time
}

// NewFactory creates a Factory bound to db. A zero opts.RandSeed seeds from the clock.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{db: db, opts: opts, faker: gofakeit.New(seed), now: time.Now()}
}

func (f *Factory) hashedPassword() (string, error) {
	if f.password != "" {
		return f.password, nil
	}
	cost := bcrypt.DefaultCost
	if f.opts.FastHash {
		cost = bcrypt.MinCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), cost)
	if err != nil {
		return "", fmt.Errorf("hash demo password: %w", err)
	}
	f.password = string(hashed)
	return f.password, nil
}

// createdAt spreads timestamps over the last MaxDays days.
func (f *Factory) createdAt() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.faker.Number(0, maxDays*24*60)) * time.Minute
	return f.now.Add(-back)
}

// CreateUser persists a user with the given role. Staff accounts are always
// verified, since staff roles require a verified email.
func (f *Factory) CreateUser(role access.Role, verified bool, overrides ...func(*models.User)) (*models.User, error) {
	hashed, err := f.hashedPassword()
	if err != nil {
		return nil, err
	}

	first, last := f.faker.FirstName(), f.faker.LastName()
	user := &models.User{
		Name:     first + " " + last,
		Email:    strings.ToLower(fmt.Sprintf("%s.%s.%d@charity.test", first, last, f.faker.Number(1000, 9999))),
		Password: hashed,
		Role:     role.String(),
	}
	user.CreatedAt = f.createdAt()
	if verified || role.IsStaff() {
		at := user.CreatedAt.Add(time.Hour)
		user.EmailVerifiedAt = &at
	}

	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Email, err)
	}
	return user, nil
}

// BuildContent constructs an unsaved content item with up to maxAttachments
// carousel entries (images and YouTube videos).
func (f *Factory) BuildContent(kind models.ContentKind, author *models.User, maxAttachments int) *models.ContentItem {
	paragraphs := f.faker.Number(1, 4)
	var body strings.Builder
	for i := 0; i < paragraphs; i++ {
		fmt.Fprintf(&body, "<p>%s</p>\n", f.faker.Paragraph(1, 4, 12, " "))
	}

	item := &models.ContentItem{
		Kind:  kind,
		Title: strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 8)), "."),
		Body:  body.String(),
	}
	if author != nil {
		item.AuthorID = &author.ID
	}
	item.CreatedAt = f.createdAt()

	n := 0
	if maxAttachments > 0 {
		n = f.faker.Number(0, maxAttachments)
	}
	for i := 0; i < n; i++ {
		att := models.Attachment{DisplayOrder: i}
		if f.faker.Number(1, 4) == 1 {
			video := youtubeIDs[f.faker.Number(0, len(youtubeIDs)-1)]
			v, err := media.NormalizeVideoURL("https://www.youtube.com/watch?v=" + video)
			if err != nil {
				continue
			}
			att.Kind = models.AttachmentKindVideo
			att.URL = v.EmbedURL
			att.VideoID = v.ID
		} else {
			att.Kind = models.AttachmentKindImage
			att.URL = fmt.Sprintf("https://picsum.photos/seed/%s/1200/800", f.faker.UUID())
		}
		item.Attachments = append(item.Attachments, att)
	}
	return item
}

// CreateContent builds and persists a content item with its attachments.
func (f *Factory) CreateContent(kind models.ContentKind, author *models.User, archived bool, overrides ...func(*models.ContentItem)) (*models.ContentItem, error) {
	item := f.BuildContent(kind, author, f.opts.MaxAttachments)
	item.Archived = archived && kind == models.ContentKindNews
	for _, override := range overrides {
		override(item)
	}
	if err := f.db.Create(item).Error; err != nil {
		return nil, fmt.Errorf("create %s: %w", kind, err)
	}
	return item, nil
}

// CreateComment persists a comment by author on item.
func (f *Factory) CreateComment(item *models.ContentItem, author *models.User) (*models.Comment, error) {
	comment := &models.Comment{
		ContentItemID: item.ID,
		AuthorID:      &author.ID,
		Text:          f.faker.Sentence(f.faker.Number(4, 20)),
	}
	comment.CreatedAt = item.CreatedAt.Add(time.Duration(f.faker.Number(1, 72*60)) * time.Minute)
	if err := f.db.Create(comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// CreateLike persists author's like of item.
func (f *Factory) CreateLike(item *models.ContentItem, author *models.User) (*models.Like, error) {
	like := &models.Like{ContentItemID: item.ID, AuthorID: author.ID}
	if f.faker.Bool() {
		like.Emoji = f.faker.RandomString([]string{"❤️", "👏", "🙏", "🎉"})
	}
	if err := f.db.Create(like).Error; err != nil {
		return nil, fmt.Errorf("create like: %w", err)
	}
	return like, nil
}

// Sample returns up to n distinct users from pool, in random order.
func (f *Factory) Sample(pool []*models.User, n int) []*models.User {
	if n > len(pool) {
		n = len(pool)
	}
	idx := make([]int, len(pool))
	for i := range idx {
		idx[i] = i
	}
	f.faker.ShuffleInts(idx)
	out := make([]*models.User, 0, n)
	for _, i := range idx[:n] {
		out = append(out, pool[i])
	}
	return out
}
