// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Stored role names. The access package owns their meaning.
const (
	RoleNameAdmin  = "admin"
	RoleNameEditor = "editor"
	RoleNameGuest  = "guest"
)

// User is a registered account. Anonymous visitors have no row.
type User struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Name              string     `gorm:"type:varchar(120);not null" json:"name"`
	Email             string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password          string     `gorm:"not null" json:"-"`
	Role              string     `gorm:"type:varchar(20);not null;default:'guest';index" json:"role"`
	EmailVerifiedAt   *time.Time `json:"email_verified_at,omitempty"`
	VerificationToken string     `gorm:"type:varchar(64);index" json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// EmailVerified reports whether the account confirmed its email address.
func (u *User) EmailVerified() bool {
	return u != nil && u.EmailVerifiedAt != nil
}

// Byline is the public face of an author shown next to content and comments.
type Byline struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// BylineOf projects u to its byline. A nil user yields nil.
func BylineOf(u *User) *Byline {
	if u == nil {
		return nil
	}
	return &Byline{ID: u.ID, Name: u.Name}
}

// bylineColumns limits author preloads to what a byline shows.
func bylineColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name")
}

// PreloadAuthor preloads the Author relation with byline columns only.
func PreloadAuthor(db *gorm.DB) *gorm.DB {
	return db.Preload("Author", bylineColumns)
}
