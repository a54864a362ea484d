package lorebook

import (
	"time"

	"github.com/cockroachdb/errors"
)

// Entry is a single lorebook entry: persistent world or character text the
// story model reads as context.
type Entry struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Name returns the display name, or "Entry" when none is set.
func (e Entry) Name() string {
	if e.DisplayName == "" {
		return "Entry"
	}
	return e.DisplayName
}

var ErrNotFound = errors.New("entry not found")
var ErrIDTaken = errors.New("entry id already in use")
