package seed

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"charitydesk/internal/media"
	"charitydesk/internal/models"
	"charitydesk/internal/validation"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Fixtures is the optional YAML file of fixed demo records.
type Fixtures struct {
	Banks []BankFixture `yaml:"banks"`
	News  []NewsFixture `yaml:"news"`
}

// BankFixture is one donation bank account.
type BankFixture struct {
	Name          string `yaml:"name"`
	AccountHolder string `yaml:"account_holder"`
	IBAN          string `yaml:"iban"`
	SWIFT         string `yaml:"swift"`
	DisplayOrder  int    `yaml:"display_order"`
}

// NewsFixture is a pinned news post, matched by title.
type NewsFixture struct {
	Title    string   `yaml:"title"`
	Body     string   `yaml:"body"`
	Archived bool     `yaml:"archived"`
	Images   []string `yaml:"images"`
	Videos   []string `yaml:"videos"`
}

// LoadFixtures reads and parses a fixtures file.
func LoadFixtures(path string) (*Fixtures, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return ParseFixtures(raw)
}

// ParseFixtures decodes fixtures and validates bank IBANs.
func ParseFixtures(raw []byte) (*Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	for i := range fx.Banks {
		b := &fx.Banks[i]
		b.IBAN = validation.NormalizeIBAN(b.IBAN)
		b.SWIFT = strings.ToUpper(strings.TrimSpace(b.SWIFT))
		if err := validation.ValidateIBAN(b.IBAN); err != nil {
			return nil, fmt.Errorf("bank %q: %w", b.Name, err)
		}
	}
	for _, n := range fx.News {
		if strings.TrimSpace(n.Title) == "" {
			return nil, errors.New("news fixture without title")
		}
	}
	return &fx, nil
}

// ApplyFixtures upserts banks by IBAN and creates news posts whose title
// is not present yet. Running it twice is a no-op.
func (f *Factory) ApplyFixtures(fx *Fixtures, author *models.User) (banks, news int, err error) {
	err = f.db.Transaction(func(tx *gorm.DB) error {
		for _, b := range fx.Banks {
			bank := models.Bank{
				Name:          b.Name,
				AccountHolder: b.AccountHolder,
				IBAN:          b.IBAN,
				SWIFT:         b.SWIFT,
				DisplayOrder:  b.DisplayOrder,
			}
			var row models.Bank
			res := tx.Where(models.Bank{IBAN: b.IBAN}).Assign(bank).FirstOrCreate(&row)
			if res.Error != nil {
				return fmt.Errorf("upsert bank %s: %w", b.IBAN, res.Error)
			}
			banks++
		}

		for _, n := range fx.News {
			var count int64
			if err := tx.Model(&models.ContentItem{}).
				Where("kind = ? AND title = ?", models.ContentKindNews, n.Title).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			item := fixtureNews(n, author)
			if err := tx.Create(item).Error; err != nil {
				return fmt.Errorf("create news %q: %w", n.Title, err)
			}
			news++
		}
		return nil
	})
	return banks, news, err
}

func fixtureNews(n NewsFixture, author *models.User) *models.ContentItem {
	item := &models.ContentItem{
		Kind:     models.ContentKindNews,
		Title:    n.Title,
		Body:     n.Body,
		Archived: n.Archived,
	}
	if author != nil {
		item.AuthorID = &author.ID
	}
	for _, u := range n.Images {
		item.Attachments = append(item.Attachments, models.Attachment{
			Kind: models.AttachmentKindImage, URL: u, DisplayOrder: len(item.Attachments),
		})
	}
	for _, u := range n.Videos {
		video, err := media.NormalizeVideoURL(u)
		if err != nil {
			continue
		}
		item.Attachments = append(item.Attachments, models.Attachment{
			Kind: models.AttachmentKindVideo, URL: video.EmbedURL, VideoID: video.ID, DisplayOrder: len(item.Attachments),
		})
	}
	return item
}
