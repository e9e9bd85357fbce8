package repository

import (
	"strings"

	"charitydesk/internal/models"

	sq "github.com/Masterminds/squirrel"
)

// ArchivedFilter selects which archive states a content query returns.
type ArchivedFilter int

const (
	// ArchivedExclude returns active items only.
	ArchivedExclude ArchivedFilter = iota
	// ArchivedOnly returns archived items only.
	ArchivedOnly
	// ArchivedInclude returns both.
	ArchivedInclude
)

// ParseArchivedFilter maps the "archived" query parameter. Unknown values exclude.
func ParseArchivedFilter(v string) ArchivedFilter {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "only":
		return ArchivedOnly
	case "include", "all":
		return ArchivedInclude
	default:
		return ArchivedExclude
	}
}

// ContentFilter narrows a content listing.
type ContentFilter struct {
	Kind     models.ContentKind
	Archived ArchivedFilter
	// Query matches title or body, case-insensitively.
	Query  string
	Limit  int
	Offset int
}

// where renders the filter as a WHERE fragment with ? placeholders for GORM.
func (f ContentFilter) where() (string, []interface{}, error) {
	cond := sq.And{sq.Eq{"content_items.kind": string(f.Kind)}}

	switch f.Archived {
	case ArchivedOnly:
		cond = append(cond, sq.Eq{"content_items.archived": true})
	case ArchivedInclude:
	default:
		cond = append(cond, sq.Eq{"content_items.archived": false})
	}

	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		pattern := "%" + q + "%"
		cond = append(cond, sq.Or{
			sq.Like{"LOWER(content_items.title)": pattern},
			sq.Like{"LOWER(content_items.body)": pattern},
		})
	}

	return cond.ToSql()
}

// Scope identifies a single content item and whether archived rows are visible.
type Scope struct {
	Kind            models.ContentKind
	IncludeArchived bool
}

func (s Scope) where(id uint) (string, []interface{}, error) {
	cond := sq.And{
		sq.Eq{"content_items.id": id},
		sq.Eq{"content_items.kind": string(s.Kind)},
	}
	if !s.IncludeArchived {
		cond = append(cond, sq.Eq{"content_items.archived": false})
	}
	return cond.ToSql()
}
