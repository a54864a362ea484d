package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func recv(t *testing.T, ch <-chan Toast) Toast {
	t.Helper()
	select {
	case toast, ok := <-ch:
		require.True(t, ok, "channel closed")
		return toast
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for toast")
		return Toast{}
	}
}

func TestHubFansOut(t *testing.T) {
	h := NewHub()
	a, cancelA := h.Subscribe()
	defer cancelA()
	b, cancelB := h.Subscribe()
	defer cancelB()

	h.Notify(Toast{Kind: Success, Message: "🐍 Shed complete!", ID: "shed-progress"})

	for _, ch := range []<-chan Toast{a, b} {
		got := recv(t, ch)
		assert.Equal(t, "shed-progress", got.ID)
		assert.Equal(t, Success, got.Kind)
		assert.False(t, got.At.IsZero())
	}
}

func TestHubAssignsID(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Notify(Toast{Kind: Info, Message: "hello"})
	assert.NotEmpty(t, recv(t, ch).ID)

	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, "hello", last.Message)
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+10; i++ {
		h.Notify(Toast{Kind: Info, Message: "spam"})
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestCancelClosesChannelOnce(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)

	// Publishing after cancel must not panic.
	h.Notify(Toast{Kind: Warning, Message: "late"})
}

func TestCloseThenCancel(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	h.Close()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
}

func TestLastEmpty(t *testing.T) {
	_, ok := NewHub().Last()
	assert.False(t, ok)
}
