package shed

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"shed/lorebook"
)

// Lister enumerates lorebook entries.
type Lister interface {
	List() []lorebook.Entry
}

// Watcher molts enabled entries automatically as the story grows: once an
// entry has seen MoltInterval new paragraphs since its last automatic molt,
// a molt runs in the background.
type Watcher struct {
	engine *Engine
	lister Lister
	logger *zap.SugaredLogger

	mu     sync.Mutex
	counts map[string]int
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWatcher(engine *Engine, lister Lister, logger *zap.SugaredLogger) *Watcher {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		engine: engine,
		lister: lister,
		logger: logger,
		counts: make(map[string]int),
		ctx:    ctx,
		cancel: cancel,
	}
}

// ParagraphsAdded records that added paragraphs were appended to the story.
// Its signature matches story.Document.OnAppend.
func (w *Watcher) ParagraphsAdded(added int) {
	if added <= 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	for _, entry := range w.lister.List() {
		cfg, err := w.engine.Config(w.ctx, entry.ID)
		if err != nil {
			w.logger.Warnw("Read shed config", "entry_id", entry.ID, "error", err)
			continue
		}
		if !cfg.Enabled || cfg.Pattern == "" || cfg.MoltInterval <= 0 {
			delete(w.counts, entry.ID)
			continue
		}

		w.counts[entry.ID] += added
		if w.counts[entry.ID] < cfg.MoltInterval {
			continue
		}
		w.counts[entry.ID] = 0

		id := entry.ID
		w.logger.Infow("Automatic molt due", "entry_id", id, "interval", cfg.MoltInterval)
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			// ShedNow already reports failures as toasts.
			_ = w.engine.ShedNow(w.ctx, id)
		}()
	}
}

// Pending reports the paragraphs counted toward an entry's next automatic molt.
func (w *Watcher) Pending(id string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.counts[id]
}

// Wait blocks until background molts started so far have finished.
func (w *Watcher) Wait() {
	w.wg.Wait()
}

// Close cancels in-flight molts and waits for them.
func (w *Watcher) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.cancel()
	w.wg.Wait()
}
