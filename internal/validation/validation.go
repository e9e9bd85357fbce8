// Package validation holds format checks shared by services.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minPasswordLength = 12
	maxPasswordLength = 128
	maxEmailLength    = 254
	maxLocalPart      = 64
	maxNameLength     = 120
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[A-Za-z0-9.!#$%&'*+/=?^_{|}~-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?$`)
	ibanRegex        = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{11,30}$`)
	swiftRegex       = regexp.MustCompile(`^[A-Z]{6}[A-Z0-9]{2}([A-Z0-9]{3})?$`)
)

// ValidatePassword requires 12-128 characters with upper and lower case
// letters, a digit and a symbol.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if n > maxPasswordLength {
		return fmt.Errorf("password must be at most %d characters", maxPasswordLength)
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return errors.New("password must contain upper and lower case letters, a digit and a symbol")
	}
	return nil
}

// ValidateEmail performs a structural check of an email address.
func ValidateEmail(email string) error {
	if len(email) > maxEmailLength {
		return fmt.Errorf("email must be at most %d characters", maxEmailLength)
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return errors.New("invalid email format")
	}
	if len(local) > maxLocalPart || !emailLocalRegex.MatchString(local) {
		return errors.New("invalid email format")
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return errors.New("invalid email format")
	}
	for _, label := range labels {
		if !emailDomainRegex.MatchString(label) {
			return errors.New("invalid email format")
		}
	}
	return nil
}

// ValidateName requires a non-blank display name of at most 120 characters.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return fmt.Errorf("name must be at most %d characters", maxNameLength)
	}
	return nil
}

// NormalizeIBAN strips spaces and upper-cases an IBAN.
func NormalizeIBAN(iban string) string {
	return strings.ToUpper(strings.Join(strings.Fields(iban), ""))
}

// ValidateIBAN checks a normalized IBAN: country code, check digits and an
// 11-30 character account part.
func ValidateIBAN(iban string) error {
	if !ibanRegex.MatchString(iban) {
		return errors.New("IBAN must be 2 letters, 2 digits and 11 to 30 letters or digits")
	}
	return nil
}

// ValidateSWIFT checks a BIC/SWIFT code of 8 or 11 characters. Empty is allowed.
func ValidateSWIFT(code string) error {
	if code == "" {
		return nil
	}
	if !swiftRegex.MatchString(code) {
		return errors.New("SWIFT code must be 8 or 11 letters or digits")
	}
	return nil
}
