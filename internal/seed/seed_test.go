package seed

import (
	"context"
	"testing"

	"charitydesk/internal/database"
	"charitydesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const fixturesYAML = `
banks:
  - name: Civic Bank
    account_holder: Charity e.V.
    iban: de89 3704 0044 0532 0130 00
    swift: cobadeff
    display_order: 1
news:
  - title: Annual report published
    body: <p>Read how your donations helped this year.</p>
    images:
      - https://example.org/report.png
    videos:
      - https://youtu.be/dQw4w9WgXcQ
`

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Guests = 4
	opts.News = 8
	opts.Stories = 3
	opts.FastHash = true
	opts.RandSeed = 42
	return opts
}

func count(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func TestRun(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	sum, err := Run(context.Background(), db, testOptions())
	require.NoError(t, err)

	assert.Equal(t, 7, sum.Users)
	assert.Equal(t, 8, sum.News)
	assert.Equal(t, 2, sum.Archived)
	assert.Equal(t, 3, sum.Stories)

	assert.Equal(t, int64(8), count(t, db, &models.ContentItem{}, "kind = ?", models.ContentKindNews))
	assert.Equal(t, int64(2), count(t, db, &models.ContentItem{}, "archived = ?", true))
	assert.Zero(t, count(t, db, &models.ContentItem{}, "kind = ? AND archived = ?", models.ContentKindStory, true))
	assert.Equal(t, int64(sum.Comments), count(t, db, &models.Comment{}, ""))
	assert.Equal(t, int64(sum.Likes), count(t, db, &models.Like{}, ""))

	// Staff roles always carry a verified email.
	assert.Zero(t, count(t, db, &models.User{}, "role IN ? AND email_verified_at IS NULL",
		[]string{models.RoleNameAdmin, models.RoleNameEditor}))

	var admin models.User
	require.NoError(t, db.Where("email = ?", "admin@charity.test").Take(&admin).Error)
	assert.Equal(t, models.RoleNameAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(DemoPassword)))

	var attachments []models.Attachment
	require.NoError(t, db.Where("kind = ?", models.AttachmentKindVideo).Find(&attachments).Error)
	for _, a := range attachments {
		assert.NotEmpty(t, a.VideoID)
	}
}

func TestRun_CleanReplacesData(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := Run(ctx, db, testOptions())
	require.NoError(t, err)

	_, err = Run(ctx, db, testOptions())
	require.Error(t, err, "admin email is unique without Clean")

	opts := testOptions()
	opts.Clean = true
	_, err = Run(ctx, db, opts)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count(t, db, &models.User{}, "role = ?", models.RoleNameAdmin))
	assert.Equal(t, int64(11), count(t, db, &models.ContentItem{}, ""))
}

func TestParseFixtures(t *testing.T) {
	t.Parallel()

	fx, err := ParseFixtures([]byte(fixturesYAML))
	require.NoError(t, err)
	require.Len(t, fx.Banks, 1)
	assert.Equal(t, "DE89370400440532013000", fx.Banks[0].IBAN)
	assert.Equal(t, "COBADEFF", fx.Banks[0].SWIFT)
	require.Len(t, fx.News, 1)

	_, err = ParseFixtures([]byte("banks:\n  - name: Broken\n    iban: DE1\n"))
	assert.Error(t, err)

	_, err = ParseFixtures([]byte("news:\n  - body: untitled\n"))
	assert.Error(t, err)

	_, err = ParseFixtures([]byte("banks: [unclosed"))
	assert.Error(t, err)
}

func TestApplyFixtures_Idempotent(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	fx, err := ParseFixtures([]byte(fixturesYAML))
	require.NoError(t, err)

	opts := testOptions()
	opts.Guests, opts.News, opts.Stories = 0, 0, 0
	opts.Fixtures = fx
	sum, err := Run(context.Background(), db, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Banks)
	assert.Equal(t, 1, sum.News)

	f := NewFactory(db, opts)
	fx.Banks[0].Name = "Civic Bank Renamed"
	banks, news, err := f.ApplyFixtures(fx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, banks)
	assert.Zero(t, news)

	var bank models.Bank
	require.NoError(t, db.Take(&bank).Error)
	assert.Equal(t, "Civic Bank Renamed", bank.Name)
	assert.Equal(t, int64(1), count(t, db, &models.Bank{}, ""))

	var item models.ContentItem
	require.NoError(t, db.Preload("Attachments", func(db *gorm.DB) *gorm.DB {
		return db.Order("display_order")
	}).Where("title = ?", "Annual report published").Take(&item).Error)
	require.Len(t, item.Attachments, 2)
	assert.Equal(t, models.AttachmentKindVideo, item.Attachments[1].Kind)
	assert.Equal(t, "dQw4w9WgXcQ", item.Attachments[1].VideoID)
}

func TestFactory_Sample(t *testing.T) {
	t.Parallel()
	f := NewFactory(nil, Options{RandSeed: 7})
	pool := []*models.User{{ID: 1}, {ID: 2}, {ID: 3}}

	got := f.Sample(pool, 5)
	assert.Len(t, got, 3)

	seen := map[uint]bool{}
	for _, u := range f.Sample(pool, 2) {
		assert.False(t, seen[u.ID])
		seen[u.ID] = true
	}
	assert.Len(t, seen, 2)
}
