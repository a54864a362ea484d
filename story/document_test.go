package story_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shed/store"
	"shed/story"
)

func TestAppendScanAndReload(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewFileStore(t.TempDir() + "/document.json")
	require.NoError(t, err)

	doc, err := story.NewDocument(ctx, st)
	require.NoError(t, err)

	added, err := doc.Append(ctx, "The forge roars.", "Marcus feels his arm stiffen.")
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.NotEmpty(t, added[0].ID)

	reloaded, err := story.NewDocument(ctx, st)
	require.NoError(t, err)
	sections, err := reloaded.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "The forge roars.", sections[0].Text)
	assert.Equal(t, "Marcus feels his arm stiffen.", sections[1].Text)
}

func TestAppendNotifiesObservers(t *testing.T) {
	ctx := context.Background()
	doc, err := story.NewDocument(ctx, store.NewMemoryStore())
	require.NoError(t, err)

	var seen []int
	doc.OnAppend(func(n int) { seen = append(seen, n) })

	doc.Append(ctx, "one")
	doc.Append(ctx, "two", "three")
	doc.Append(ctx)

	assert.Equal(t, []int{1, 2}, seen)
}

func TestObserversRunAfterUnlock(t *testing.T) {
	ctx := context.Background()
	doc, err := story.NewDocument(ctx, store.NewMemoryStore())
	require.NoError(t, err)

	var lengths []int
	doc.OnAppend(func(int) {
		sections, err := doc.Scan(ctx)
		require.NoError(t, err)
		lengths = append(lengths, len(sections))
		// Registering from inside an observer must not affect this round.
		doc.OnAppend(func(int) { lengths = append(lengths, -1) })
	})

	_, err = doc.Append(ctx, "one", "two")
	require.NoError(t, err)
	assert.Equal(t, []int{2}, lengths)

	_, err = doc.Append(ctx, "three")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, -1}, lengths)
}

func TestRecent(t *testing.T) {
	var sections []story.Section
	for i := 1; i <= 25; i++ {
		sections = append(sections, story.Section{Text: fmt.Sprintf("p%d", i)})
	}

	tests := []struct {
		name string
		n    int
		want int
		head string
	}{
		{"window smaller than story", 20, 20, "p6"},
		{"window larger than story", 40, 25, "p1"},
		{"exact", 25, 25, "p1"},
		{"zero", 0, 0, ""},
		{"negative", -3, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := story.Recent(sections, tt.n)
			require.Len(t, got, tt.want)
			if tt.want > 0 {
				assert.Equal(t, tt.head, got[0])
				assert.Equal(t, "p25", got[len(got)-1])
			}
		})
	}
}
