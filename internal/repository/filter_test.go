package repository

import (
	"testing"

	"charitydesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentFilter_Where(t *testing.T) {
	tests := []struct {
		name     string
		filter   ContentFilter
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:     "active only by default",
			filter:   ContentFilter{Kind: models.ContentKindNews},
			wantSQL:  "(content_items.kind = ? AND content_items.archived = ?)",
			wantArgs: []interface{}{"news", false},
		},
		{
			name:     "archived only",
			filter:   ContentFilter{Kind: models.ContentKindNews, Archived: ArchivedOnly},
			wantSQL:  "(content_items.kind = ? AND content_items.archived = ?)",
			wantArgs: []interface{}{"news", true},
		},
		{
			name:     "include archived",
			filter:   ContentFilter{Kind: models.ContentKindStory, Archived: ArchivedInclude},
			wantSQL:  "(content_items.kind = ?)",
			wantArgs: []interface{}{"story"},
		},
		{
			name:     "search is lowercased",
			filter:   ContentFilter{Kind: models.ContentKindNews, Query: "  Shelter "},
			wantSQL:  "(content_items.kind = ? AND content_items.archived = ? AND (LOWER(content_items.title) LIKE ? OR LOWER(content_items.body) LIKE ?))",
			wantArgs: []interface{}{"news", false, "%shelter%", "%shelter%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.filter.where()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestParseArchivedFilter(t *testing.T) {
	assert.Equal(t, ArchivedOnly, ParseArchivedFilter("only"))
	assert.Equal(t, ArchivedInclude, ParseArchivedFilter("INCLUDE"))
	assert.Equal(t, ArchivedInclude, ParseArchivedFilter("all"))
	assert.Equal(t, ArchivedExclude, ParseArchivedFilter(""))
	assert.Equal(t, ArchivedExclude, ParseArchivedFilter("yes please"))
}
