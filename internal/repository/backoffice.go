package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"charitydesk/internal/database"
	"charitydesk/internal/models"

	"gorm.io/gorm"
)

// BankRepository defines persistence operations for donation bank accounts.
type BankRepository interface {
	List(ctx context.Context) ([]models.Bank, error)
	GetByID(ctx context.Context, id uint) (*models.Bank, error)
	Create(ctx context.Context, bank *models.Bank) error
	Update(ctx context.Context, bank *models.Bank) error
	Delete(ctx context.Context, id uint) error
}

type bankRepository struct {
	db *gorm.DB
}

// NewBankRepository creates a new bank repository
func NewBankRepository(db *gorm.DB) BankRepository {
	return &bankRepository{db: db}
}

func (r *bankRepository) List(ctx context.Context) ([]models.Bank, error) {
	var banks []models.Bank
	if err := r.db.WithContext(ctx).Order("display_order ASC, id ASC").Find(&banks).Error; err != nil {
		return nil, fmt.Errorf("list banks: %w", err)
	}
	return banks, nil
}

func (r *bankRepository) GetByID(ctx context.Context, id uint) (*models.Bank, error) {
	var bank models.Bank
	if err := r.db.WithContext(ctx).Take(&bank, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Bank", id)
		}
		return nil, fmt.Errorf("get bank %d: %w", id, err)
	}
	return &bank, nil
}

func bankWriteError(err error) error {
	if database.IsUniqueViolation(err) {
		return models.NewFieldValidationError(map[string]string{"iban": "This IBAN is already registered"})
	}
	return fmt.Errorf("save bank: %w", err)
}

func (r *bankRepository) Create(ctx context.Context, bank *models.Bank) error {
	if err := r.db.WithContext(ctx).Create(bank).Error; err != nil {
		return bankWriteError(err)
	}
	return nil
}

func (r *bankRepository) Update(ctx context.Context, bank *models.Bank) error {
	res := r.db.WithContext(ctx).Model(&models.Bank{ID: bank.ID}).Updates(map[string]interface{}{
		"name":           bank.Name,
		"account_holder": bank.AccountHolder,
		"iban":           bank.IBAN,
		"swift":          bank.SWIFT,
		"display_order":  bank.DisplayOrder,
	})
	if res.Error != nil {
		return bankWriteError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Bank", bank.ID)
	}
	return nil
}

func (r *bankRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Donation{}).Where("bank_id = ?", id).Update("bank_id", nil).Error; err != nil {
			return fmt.Errorf("detach donations from bank %d: %w", id, err)
		}
		res := tx.Delete(&models.Bank{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete bank %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Bank", id)
		}
		return nil
	})
}

// ContactRepository defines persistence operations for contact form messages.
type ContactRepository interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
	List(ctx context.Context, unreadOnly bool, limit, offset int) ([]models.ContactMessage, int64, error)
	GetByID(ctx context.Context, id uint) (*models.ContactMessage, error)
	MarkRead(ctx context.Context, id uint, at time.Time) error
	Delete(ctx context.Context, id uint) error
}

type contactRepository struct {
	db *gorm.DB
}

// NewContactRepository creates a new contact message repository
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(ctx context.Context, msg *models.ContactMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("create contact message: %w", err)
	}
	return nil
}

func (r *contactRepository) List(ctx context.Context, unreadOnly bool, limit, offset int) ([]models.ContactMessage, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.ContactMessage{})
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count contact messages: %w", err)
	}

	var msgs []models.ContactMessage
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&msgs).Error; err != nil {
		return nil, 0, fmt.Errorf("list contact messages: %w", err)
	}
	return msgs, total, nil
}

func (r *contactRepository) GetByID(ctx context.Context, id uint) (*models.ContactMessage, error) {
	var msg models.ContactMessage
	if err := r.db.WithContext(ctx).Take(&msg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Contact message", id)
		}
		return nil, fmt.Errorf("get contact message %d: %w", id, err)
	}
	return &msg, nil
}

func (r *contactRepository) MarkRead(ctx context.Context, id uint, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.ContactMessage{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", at).Error
	if err != nil {
		return fmt.Errorf("mark contact message %d read: %w", id, err)
	}
	return nil
}

func (r *contactRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.ContactMessage{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete contact message %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Contact message", id)
	}
	return nil
}

// DonationFilter narrows a donation listing.
type DonationFilter struct {
	Kind   models.DonationKind
	Limit  int
	Offset int
}

// DonationRepository defines persistence operations for donation and membership submissions.
type DonationRepository interface {
	Create(ctx context.Context, d *models.Donation) error
	List(ctx context.Context, filter DonationFilter) ([]models.Donation, int64, error)
	GetByReference(ctx context.Context, ref string) (*models.Donation, error)
}

type donationRepository struct {
	db *gorm.DB
}

// NewDonationRepository creates a new donation repository
func NewDonationRepository(db *gorm.DB) DonationRepository {
	return &donationRepository{db: db}
}

func (r *donationRepository) Create(ctx context.Context, d *models.Donation) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		if database.IsForeignKeyViolation(err) && d.BankID != nil {
			return models.NewFieldValidationError(map[string]string{"bank_id": "Unknown bank"})
		}
		return fmt.Errorf("create donation: %w", err)
	}
	return nil
}

func (r *donationRepository) List(ctx context.Context, filter DonationFilter) ([]models.Donation, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Donation{})
	if filter.Kind != "" {
		q = q.Where("kind = ?", string(filter.Kind))
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count donations: %w", err)
	}

	var out []models.Donation
	if err := q.Preload("Bank").Order("created_at DESC, id DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&out).Error; err != nil {
		return nil, 0, fmt.Errorf("list donations: %w", err)
	}
	return out, total, nil
}

func (r *donationRepository) GetByReference(ctx context.Context, ref string) (*models.Donation, error) {
	var d models.Donation
	if err := r.db.WithContext(ctx).Preload("Bank").Where("reference = ?", ref).Take(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Donation", ref)
		}
		return nil, fmt.Errorf("get donation %s: %w", ref, err)
	}
	return &d, nil
}
