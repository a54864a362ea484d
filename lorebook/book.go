package lorebook

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"shed/store"
)

const entriesKey = "lorebook-entries"

// Book holds the lorebook entries in memory and persists every mutation
// through a store.
type Book struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	st      store.Store
	now     func() time.Time
}

// NewBook loads the entries persisted in st.
func NewBook(ctx context.Context, st store.Store) (*Book, error) {
	b := &Book{
		entries: make(map[string]*Entry),
		st:      st,
		now:     time.Now,
	}
	var saved []Entry
	if _, err := st.Get(ctx, entriesKey, &saved); err != nil {
		return nil, errors.Wrap(err, "load lorebook")
	}
	for i := range saved {
		e := saved[i]
		b.entries[e.ID] = &e
	}
	return b, nil
}

// Create adds an entry. An empty id gets a generated one.
func (b *Book) Create(ctx context.Context, id, displayName, text string) (Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if id == "" {
		id = uuid.New().String()
	}
	if _, ok := b.entries[id]; ok {
		return Entry{}, ErrIDTaken
	}

	now := b.now()
	e := &Entry{
		ID:          id,
		DisplayName: displayName,
		Text:        text,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.entries[id] = e
	if err := b.persist(ctx); err != nil {
		delete(b.entries, id)
		return Entry{}, err
	}
	return *e, nil
}

// List returns the entries ordered by creation time.
func (b *Book) List() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	list := make([]Entry, 0, len(b.entries))
	for _, e := range b.entries {
		list = append(list, *e)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

// Entry returns a copy of the entry with id.
func (b *Book) Entry(_ context.Context, id string) (Entry, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.entries[id]
	if !ok {
		return Entry{}, false, nil
	}
	return *e, true, nil
}

// UpdateText replaces the live text of an entry.
func (b *Book) UpdateText(ctx context.Context, id, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[id]
	if !ok {
		return ErrNotFound
	}
	prev := *e
	e.Text = text
	e.UpdatedAt = b.now()
	if err := b.persist(ctx); err != nil {
		*e = prev
		return err
	}
	return nil
}

// Remove deletes an entry.
func (b *Book) Remove(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[id]
	if !ok {
		return ErrNotFound
	}
	delete(b.entries, id)
	if err := b.persist(ctx); err != nil {
		b.entries[id] = e
		return err
	}
	return nil
}

// persist writes all entries. Caller must hold b.mu.
func (b *Book) persist(ctx context.Context) error {
	list := make([]Entry, 0, len(b.entries))
	for _, e := range b.entries {
		list = append(list, *e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return errors.Wrap(b.st.Set(ctx, entriesKey, list), "save lorebook")
}
