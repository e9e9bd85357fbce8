package seed

import (
	"context"
	"fmt"
	"log/slog"

	"charitydesk/internal/access"
	"charitydesk/internal/middleware"
	"charitydesk/internal/models"

	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	Editors int
	Guests  int
	News    int
	Stories int
	// ArchiveEvery archives every n-th news post; zero archives none.
	ArchiveEvery       int
	MaxAttachments     int
	MaxCommentsPerItem int
	MaxLikesPerItem    int
	MaxDays            int
	// Clean deletes existing demo content and accounts first.
	Clean bool
	// FastHash hashes the demo password with the minimum bcrypt cost.
	FastHash bool
	RandSeed int64
	// Fixtures, when non-nil, is applied after the generated data.
	Fixtures *Fixtures
}

// DefaultOptions returns a small, browsable data set.
func DefaultOptions() Options {
	return Options{
		Editors:            2,
		Guests:             12,
		News:               16,
		Stories:            8,
		ArchiveEvery:       4,
		MaxAttachments:     3,
		MaxCommentsPerItem: 5,
		MaxLikesPerItem:    8,
		MaxDays:            120,
	}
}

// Summary counts what a run created.
type Summary struct {
	Users    int
	News     int
	Archived int
	Stories  int
	Comments int
	Likes    int
	Banks    int
}

// Run seeds one admin, the configured editors and guests, news and stories,
// then comments and likes from guests. Every step runs in one transaction.
func Run(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	sum := &Summary{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if opts.Clean {
			if err := Clean(tx); err != nil {
				return err
			}
		}
		f := NewFactory(tx, opts)

		admin, err := f.CreateUser(access.RoleAdmin, true, func(u *models.User) {
			u.Name = "Demo Admin"
			u.Email = "admin@charity.test"
		})
		if err != nil {
			return err
		}
		staff := []*models.User{admin}
		for i := 0; i < opts.Editors; i++ {
			editor, err := f.CreateUser(access.RoleEditor, true)
			if err != nil {
				return err
			}
			staff = append(staff, editor)
		}

		guests := make([]*models.User, 0, opts.Guests)
		for i := 0; i < opts.Guests; i++ {
			guest, err := f.CreateUser(access.RoleGuest, f.faker.Number(1, 3) > 1)
			if err != nil {
				return err
			}
			guests = append(guests, guest)
		}
		sum.Users = len(staff) + len(guests)

		var items []*models.ContentItem
		for i := 0; i < opts.News; i++ {
			archived := opts.ArchiveEvery > 0 && (i+1)%opts.ArchiveEvery == 0
			item, err := f.CreateContent(models.ContentKindNews, staff[i%len(staff)], archived)
			if err != nil {
				return err
			}
			sum.News++
			if item.Archived {
				sum.Archived++
			}
			items = append(items, item)
		}
		for i := 0; i < opts.Stories; i++ {
			item, err := f.CreateContent(models.ContentKindStory, staff[i%len(staff)], false)
			if err != nil {
				return err
			}
			sum.Stories++
			items = append(items, item)
		}

		for _, item := range items {
			for _, author := range f.Sample(guests, f.faker.Number(0, opts.MaxCommentsPerItem)) {
				if _, err := f.CreateComment(item, author); err != nil {
					return err
				}
				sum.Comments++
			}
			for _, author := range f.Sample(guests, f.faker.Number(0, opts.MaxLikesPerItem)) {
				if _, err := f.CreateLike(item, author); err != nil {
					return err
				}
				sum.Likes++
			}
		}

		if opts.Fixtures != nil {
			banks, news, err := f.ApplyFixtures(opts.Fixtures, admin)
			if err != nil {
				return err
			}
			sum.Banks = banks
			sum.News += news
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "seed complete",
		slog.Int("users", sum.Users),
		slog.Int("news", sum.News),
		slog.Int("archived", sum.Archived),
		slog.Int("stories", sum.Stories),
		slog.Int("comments", sum.Comments),
		slog.Int("likes", sum.Likes),
		slog.Int("banks", sum.Banks),
	)
	return sum, nil
}

// Clean removes all rows from the seeded tables, children first.
func Clean(db *gorm.DB) error {
	tables := []interface{}{
		&models.Like{},
		&models.Comment{},
		&models.Attachment{},
		&models.ContentItem{},
		&models.Donation{},
		&models.Bank{},
		&models.ContactMessage{},
		&models.User{},
	}
	for _, t := range tables {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(t).Error; err != nil {
			return fmt.Errorf("clean %T: %w", t, err)
		}
	}
	return nil
}
