// Package draft keeps the locally authored letters that have not been
// uploaded yet, persisted as a JSON array under a single storage key.
package draft

import (
	"strings"
	"time"
)

const (
	// PreviewLength is the number of characters kept in Draft.Preview.
	PreviewLength = 30

	// TimestampLayout formats Draft.UpdatedAt for display.
	TimestampLayout = "1/2/2006, 3:04:05 PM"
)

// Draft is a letter saved on this device.
type Draft struct {
	ID        int64  `json:"id"`
	Content   string `json:"content"`
	Preview   string `json:"preview"`
	UpdatedAt string `json:"updatedAt"`
}

// NewDraft builds a draft whose ID is the creation instant in Unix milliseconds.
func NewDraft(content string, now time.Time) Draft {
	return Draft{
		ID:        now.UnixMilli(),
		Content:   content,
		Preview:   MakePreview(content),
		UpdatedAt: now.Format(TimestampLayout),
	}
}

// MakePreview returns the first PreviewLength characters of content,
// followed by "..." when content is longer than that.
func MakePreview(content string) string {
	runes := []rune(content)
	if len(runes) <= PreviewLength {
		return content
	}
	return string(runes[:PreviewLength]) + "..."
}

// IsBlank reports whether content is empty or whitespace only.
func IsBlank(content string) bool {
	return strings.TrimSpace(content) == ""
}

// valid reports whether d looks like a record this package wrote.
func (d Draft) valid() bool {
	return d.ID != 0
}
