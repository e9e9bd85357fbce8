package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"charitydesk/internal/access"
	"charitydesk/internal/middleware"
	"charitydesk/internal/models"
	"charitydesk/internal/repository"
	"charitydesk/internal/validation"

	"github.com/google/uuid"
)

// BackOfficeService manages bank accounts, contact messages and donation intake.
type BackOfficeService struct {
	banks     repository.BankRepository
	contacts  repository.ContactRepository
	donations repository.DonationRepository
	now       func() time.Time
}

type BankInput struct {
	Name          string `json:"name"`
	AccountHolder string `json:"account_holder"`
	IBAN          string `json:"iban"`
	SWIFT         string `json:"swift"`
	DisplayOrder  int    `json:"display_order"`
}

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type DonationInput struct {
	Kind        string `json:"kind"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	AmountCents int64  `json:"amount_cents"`
	BankID      *uint  `json:"bank_id"`
}

// ContactPage is one page of contact messages, newest first.
type ContactPage struct {
	Items  []models.ContactMessage `json:"items"`
	Total  int64                   `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
}

// DonationPage is one page of donation submissions, newest first.
type DonationPage struct {
	Items  []models.Donation `json:"items"`
	Total  int64             `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

func NewBackOfficeService(
	banks repository.BankRepository,
	contacts repository.ContactRepository,
	donations repository.DonationRepository,
) *BackOfficeService {
	return &BackOfficeService{
		banks:     banks,
		contacts:  contacts,
		donations: donations,
		now:       time.Now,
	}
}

func checkLength(fields map[string]string, field, value string, max int, label string) {
	switch {
	case value == "":
		fields[field] = label + " is required"
	case utf8.RuneCountInString(value) > max:
		fields[field] = label + " is too long"
	}
}

// ListBanks is public: donors need the accounts to transfer to.
func (s *BackOfficeService) ListBanks(ctx context.Context, p access.Principal) ([]models.Bank, error) {
	if err := access.Require(p, access.ViewPublicContent); err != nil {
		return nil, err
	}
	return s.banks.List(ctx)
}

func (s *BackOfficeService) GetBank(ctx context.Context, p access.Principal, id uint) (*models.Bank, error) {
	if err := access.Require(p, access.ViewPublicContent); err != nil {
		return nil, err
	}
	return s.banks.GetByID(ctx, id)
}

func buildBank(in BankInput) (*models.Bank, error) {
	fields := map[string]string{}
	bank := &models.Bank{
		Name:          strings.TrimSpace(in.Name),
		AccountHolder: strings.TrimSpace(in.AccountHolder),
		IBAN:          validation.NormalizeIBAN(in.IBAN),
		SWIFT:         strings.ToUpper(strings.TrimSpace(in.SWIFT)),
		DisplayOrder:  in.DisplayOrder,
	}
	checkLength(fields, "name", bank.Name, 120, "Name")
	checkLength(fields, "account_holder", bank.AccountHolder, 160, "Account holder")
	if err := validation.ValidateIBAN(bank.IBAN); err != nil {
		fields["iban"] = err.Error()
	}
	if err := validation.ValidateSWIFT(bank.SWIFT); err != nil {
		fields["swift"] = err.Error()
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}
	return bank, nil
}

func (s *BackOfficeService) CreateBank(ctx context.Context, p access.Principal, in BankInput) (*models.Bank, error) {
	if err := access.Require(p, access.ManageBackOffice); err != nil {
		return nil, err
	}
	bank, err := buildBank(in)
	if err != nil {
		return nil, err
	}
	if err := s.banks.Create(ctx, bank); err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "bank created", slog.Uint64("bank_id", uint64(bank.ID)))
	return bank, nil
}

func (s *BackOfficeService) UpdateBank(ctx context.Context, p access.Principal, id uint, in BankInput) (*models.Bank, error) {
	if err := access.Require(p, access.ManageBackOffice); err != nil {
		return nil, err
	}
	bank, err := buildBank(in)
	if err != nil {
		return nil, err
	}
	bank.ID = id
	if err := s.banks.Update(ctx, bank); err != nil {
		return nil, err
	}
	return s.banks.GetByID(ctx, id)
}

// DeleteBank removes an account. Donations that named it keep existing.
func (s *BackOfficeService) DeleteBank(ctx context.Context, p access.Principal, id uint) error {
	if err := access.Require(p, access.ManageBackOffice); err != nil {
		return err
	}
	if err := s.banks.Delete(ctx, id); err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "bank deleted", slog.Uint64("bank_id", uint64(id)))
	return nil
}

// SubmitContact stores a message from the public contact form.
func (s *BackOfficeService) SubmitContact(ctx context.Context, p access.Principal, in ContactInput) (*models.ContactMessage, error) {
	if err := access.Require(p, access.SubmitPublicForms); err != nil {
		return nil, err
	}
	msg := &models.ContactMessage{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.ToLower(strings.TrimSpace(in.Email)),
		Subject: strings.TrimSpace(in.Subject),
		Message: strings.TrimSpace(in.Message),
	}

	fields := map[string]string{}
	checkLength(fields, "name", msg.Name, 120, "Name")
	if err := validation.ValidateEmail(msg.Email); err != nil {
		fields["email"] = err.Error()
	}
	checkLength(fields, "subject", msg.Subject, 200, "Subject")
	checkLength(fields, "message", msg.Message, 5000, "Message")
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	if err := s.contacts.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *BackOfficeService) ListContacts(ctx context.Context, p access.Principal, unreadOnly bool, limit, offset int) (*ContactPage, error) {
	if err := access.Require(p, access.ManageBackOffice); err != nil {
		return nil, err
	}
	limit, offset = normalizePage(limit, offset)
	items, total, err := s.contacts.List(ctx, unreadOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	return &ContactPage{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// ShowContact returns a message and marks it read on first view.
func (s *BackOfficeService) ShowContact(ctx context.Context, p access.Principal, id uint) (*models.ContactMessage, error) {
	if err := access.Require(p, access.ManageBackOffice); err != nil {
		return nil, err
	}
	msg, err := s.contacts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg.ReadAt == nil {
		if err := s.contacts.MarkRead(ctx, id, s.now()); err != nil {
			return nil, err
		}
		return s.contacts.GetByID(ctx, id)
	}
	return msg, nil
}

func (s *BackOfficeService) DeleteContact(ctx context.Context, p access.Principal, id uint) error {
	if err := access.Require(p, access.ManageBackOffice); err != nil {
		return err
	}
	return s.contacts.Delete(ctx, id)
}

func newDonationReference() string {
	return "CD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// SubmitDonation records a donation pledge or membership request and returns
// it with its reference code.
func (s *BackOfficeService) SubmitDonation(ctx context.Context, p access.Principal, in DonationInput) (*models.Donation, error) {
	if err := access.Require(p, access.SubmitPublicForms); err != nil {
		return nil, err
	}

	d := &models.Donation{
		Kind:        models.DonationKind(strings.ToLower(strings.TrimSpace(in.Kind))),
		FullName:    strings.TrimSpace(in.FullName),
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:       strings.TrimSpace(in.Phone),
		AmountCents: in.AmountCents,
		BankID:      in.BankID,
	}

	fields := map[string]string{}
	switch d.Kind {
	case models.DonationKindDonation:
		if d.AmountCents <= 0 {
			fields["amount_cents"] = "Amount must be greater than zero"
		}
	case models.DonationKindMembership:
		if d.AmountCents < 0 {
			fields["amount_cents"] = "Amount cannot be negative"
		}
	default:
		fields["kind"] = "Kind must be donation or membership"
	}
	checkLength(fields, "full_name", d.FullName, 160, "Full name")
	if err := validation.ValidateEmail(d.Email); err != nil {
		fields["email"] = err.Error()
	}
	if utf8.RuneCountInString(d.Phone) > 32 {
		fields["phone"] = "Phone is too long"
	}
	if d.BankID != nil {
		if _, err := s.banks.GetByID(ctx, *d.BankID); err != nil {
			if !models.IsNotFound(err) {
				return nil, err
			}
			fields["bank_id"] = "Unknown bank"
		}
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	d.Reference = newDonationReference()
	if err := s.donations.Create(ctx, d); err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "donation submitted",
		slog.String("kind", string(d.Kind)),
		slog.String("reference", d.Reference),
	)
	return d, nil
}

func (s *BackOfficeService) ListDonations(ctx context.Context, p access.Principal, kind string, limit, offset int) (*DonationPage, error) {
	if err := access.Require(p, access.ManageBackOffice); err != nil {
		return nil, err
	}
	filter := repository.DonationFilter{Kind: models.DonationKind(strings.ToLower(strings.TrimSpace(kind)))}
	switch filter.Kind {
	case "", models.DonationKindDonation, models.DonationKindMembership:
	default:
		return nil, models.NewFieldValidationError(map[string]string{"kind": "Kind must be donation or membership"})
	}
	filter.Limit, filter.Offset = normalizePage(limit, offset)

	items, total, err := s.donations.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &DonationPage{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *BackOfficeService) GetDonation(ctx context.Context, p access.Principal, reference string) (*models.Donation, error) {
	if err := access.Require(p, access.ManageBackOffice); err != nil {
		return nil, err
	}
	return s.donations.GetByReference(ctx, strings.TrimSpace(reference))
}
