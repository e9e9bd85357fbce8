package access

import (
	"fmt"

	"charitydesk/internal/models"
)

// Capability is a named permission checked by the gate.
type Capability string

const (
	ViewPublicContent     Capability = "viewPublicContent"
	CreateContent         Capability = "createContent"
	ArchiveContent        Capability = "archiveContent"
	DeleteContent         Capability = "deleteContent"
	ModerateUsers         Capability = "moderateUsers"
	CommentOnContent      Capability = "commentOnContent"
	LikeContent           Capability = "likeContent"
	ManageOwnGuestProfile Capability = "manageOwnGuestProfile"
	SubmitPublicForms     Capability = "submitPublicForms"
	ManageBackOffice      Capability = "manageBackOffice"
)

// Capabilities lists every capability known to the gate.
var Capabilities = []Capability{
	ViewPublicContent,
	CreateContent,
	ArchiveContent,
	DeleteContent,
	ModerateUsers,
	CommentOnContent,
	LikeContent,
	ManageOwnGuestProfile,
	SubmitPublicForms,
	ManageBackOffice,
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Authorize decides whether p may exercise c. It is a pure function of the
// principal's role and the capability.
func Authorize(p Principal, c Capability) Decision {
	if allowed(p.Role, c) {
		return Decision{Allowed: true}
	}
	if p.Role == RoleNone {
		return Decision{Reason: fmt.Sprintf("authentication required for %s", c)}
	}
	return Decision{Reason: fmt.Sprintf("role %s lacks %s", p.Role, c)}
}

// Require returns a FORBIDDEN AppError when p may not exercise c.
func Require(p Principal, c Capability) error {
	d := Authorize(p, c)
	if d.Allowed {
		return nil
	}
	deniedTotal.WithLabelValues(p.Role.String(), string(c)).Inc()
	return models.NewDeniedError(d.Reason)
}

// Can is shorthand for Authorize(p, c).Allowed.
func Can(p Principal, c Capability) bool {
	return Authorize(p, c).Allowed
}

func allowed(r Role, c Capability) bool {
	switch r {
	case RoleAdmin:
		return isKnown(c)
	case RoleEditor:
		switch c {
		case ViewPublicContent, CreateContent, ArchiveContent, CommentOnContent, LikeContent, SubmitPublicForms:
			return true
		}
		return false
	case RoleGuest:
		switch c {
		case ViewPublicContent, CommentOnContent, LikeContent, ManageOwnGuestProfile, SubmitPublicForms:
			return true
		}
		return false
	case RoleNone:
		return c == ViewPublicContent || c == SubmitPublicForms
	default:
		return false
	}
}

func isKnown(c Capability) bool {
	for _, known := range Capabilities {
		if known == c {
			return true
		}
	}
	return false
}
