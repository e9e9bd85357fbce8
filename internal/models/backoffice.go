package models

import "time"

// Bank is an account donors can transfer to.
type Bank struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"type:varchar(120);not null" json:"name"`
	AccountHolder string    `gorm:"type:varchar(160);not null" json:"account_holder"`
	IBAN          string    `gorm:"column:iban;type:varchar(34);uniqueIndex;not null" json:"iban"`
	SWIFT         string    `gorm:"column:swift;type:varchar(11)" json:"swift,omitempty"`
	DisplayOrder  int       `gorm:"not null;default:0" json:"display_order"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ContactMessage is a message left through the public contact form.
type ContactMessage struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"type:varchar(120);not null" json:"name"`
	Email     string     `gorm:"type:varchar(255);not null" json:"email"`
	Subject   string     `gorm:"type:varchar(200);not null" json:"subject"`
	Message   string     `gorm:"type:text;not null" json:"message"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// DonationKind distinguishes one-off donations from membership sign-ups.
type DonationKind string

const (
	DonationKindDonation   DonationKind = "donation"
	DonationKindMembership DonationKind = "membership"
)

// Donation is a submission of the public donation / membership form.
type Donation struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Kind        DonationKind `gorm:"type:varchar(12);not null;index" json:"kind"`
	Reference   string       `gorm:"type:varchar(32);uniqueIndex;not null" json:"reference"`
	FullName    string       `gorm:"type:varchar(160);not null" json:"full_name"`
	Email       string       `gorm:"type:varchar(255);not null" json:"email"`
	Phone       string       `gorm:"type:varchar(32)" json:"phone,omitempty"`
	AmountCents int64        `gorm:"not null;default:0" json:"amount_cents"`
	BankID      *uint        `gorm:"index" json:"bank_id,omitempty"`
	Bank        *Bank        `gorm:"foreignKey:BankID;constraint:OnDelete:SET NULL" json:"bank,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}
