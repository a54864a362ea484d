package story

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"shed/store"
)

const sectionsKey = "story-sections"

// Section is one narrative paragraph of the story document.
type Section struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Document is the ordered list of story paragraphs.
type Document struct {
	mu       sync.RWMutex
	sections []Section
	st       store.Store
	onAppend []func(added int)
}

// NewDocument loads the sections persisted in st.
func NewDocument(ctx context.Context, st store.Store) (*Document, error) {
	d := &Document{st: st}
	if _, err := st.Get(ctx, sectionsKey, &d.sections); err != nil {
		return nil, errors.Wrap(err, "load story document")
	}
	return d, nil
}

// Scan returns a copy of every section in story order.
func (d *Document) Scan(_ context.Context) ([]Section, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Section, len(d.sections))
	copy(out, d.sections)
	return out, nil
}

// Append adds paragraphs to the end of the story and notifies observers.
func (d *Document) Append(ctx context.Context, texts ...string) ([]Section, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	d.mu.Lock()
	added := make([]Section, 0, len(texts))
	for _, text := range texts {
		added = append(added, Section{
			ID:        uuid.New().String(),
			Text:      text,
			CreatedAt: time.Now(),
		})
	}
	next := append(append([]Section(nil), d.sections...), added...)
	if err := d.st.Set(ctx, sectionsKey, next); err != nil {
		d.mu.Unlock()
		return nil, errors.Wrap(err, "save story document")
	}
	d.sections = next
	observers := slices.Clone(d.onAppend)
	d.mu.Unlock()

	for _, fn := range observers {
		fn(len(added))
	}
	return added, nil
}

// OnAppend registers fn to be called after paragraphs are appended.
func (d *Document) OnAppend(fn func(added int)) {
	d.mu.Lock()
	d.onAppend = append(d.onAppend, fn)
	d.mu.Unlock()
}

// Recent returns the text of the last n sections, oldest first.
func Recent(sections []Section, n int) []string {
	if n > len(sections) {
		n = len(sections)
	}
	if n < 0 {
		n = 0
	}
	out := make([]string, 0, n)
	for _, s := range sections[len(sections)-n:] {
		out = append(out, s.Text)
	}
	return out
}
