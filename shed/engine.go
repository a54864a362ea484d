package shed

import (
	"context"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"shed/generate"
	"shed/lorebook"
	"shed/notify"
	"shed/store"
	"shed/story"
)

// MinSkinLength is the shortest generated text, in characters, accepted as a
// new skin.
const MinSkinLength = 10

// ProgressToastID is shared by the in-progress and result toasts of a manual
// molt so the result replaces the progress message.
const ProgressToastID = "shed-progress"

var (
	ErrEntryNotFound = errors.New("entry not found")
	ErrNoPattern     = errors.New("no shed pattern defined")
	ErrTooShort      = errors.New("generation returned empty or too-short result")
	ErrNoSlough      = errors.New("no slough saved — nothing to revert to")
)

// Lorebook is the entry capability the engine needs.
type Lorebook interface {
	Entry(ctx context.Context, id string) (lorebook.Entry, bool, error)
	UpdateText(ctx context.Context, id, text string) error
}

// Document exposes the story paragraphs.
type Document interface {
	Scan(ctx context.Context) ([]story.Section, error)
}

// Deps are the host capabilities an Engine operates on.
type Deps struct {
	Lorebook  Lorebook
	Document  Document
	Stores    store.Namespaces
	Settings  Settings // nil = defaults only
	Generator generate.Generator
	Notifier  notify.Notifier    // nil = discard
	Logger    *zap.SugaredLogger // nil = nop
}

// Engine runs molts and the enable/pattern/unshed lifecycle for lorebook
// entries. Operations on one entry are serialized; different entries proceed
// independently.
type Engine struct {
	book     Lorebook
	doc      Document
	stores   store.Namespaces
	settings Settings
	gen      generate.Generator
	notifier notify.Notifier
	logger   *zap.SugaredLogger

	locks    *keyedMutex
	flight   singleflight.Group
	inflight sync.WaitGroup
}

func New(d Deps) *Engine {
	if d.Notifier == nil {
		d.Notifier = notify.Discard
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop().Sugar()
	}
	return &Engine{
		book:     d.Lorebook,
		doc:      d.Document,
		stores:   d.Stores,
		settings: d.Settings,
		gen:      d.Generator,
		notifier: d.Notifier,
		logger:   d.Logger,
		locks:    newKeyedMutex(),
	}
}

// Molt asks the generator to rewrite the entry according to its pattern and
// stores the result as both the live text and the skin. It returns the new
// skin.
func (e *Engine) Molt(ctx context.Context, id string) (string, error) {
	unlock := e.locks.Lock(id)
	defer unlock()
	return e.molt(ctx, id)
}

func (e *Engine) molt(ctx context.Context, id string) (string, error) {
	entry, err := e.entry(ctx, id)
	if err != nil {
		return "", err
	}
	st, err := e.loadState(ctx, id)
	if err != nil {
		return "", err
	}
	if st.cfg.Pattern == "" {
		return "", errors.WithHint(ErrNoPattern, "describe how this entry should change in its shed pattern")
	}

	slough, err := e.ensureSlough(ctx, id, st, entry.Text)
	if err != nil {
		return "", err
	}

	settings := ResolveSettings(e.settings)
	sections, err := e.doc.Scan(ctx)
	if err != nil {
		return "", errors.Wrap(err, "scan story")
	}
	messages := BuildMessages(settings.SystemPrompt, PromptInput{
		Slough:  slough,
		Current: entry.Text,
		Pattern: st.cfg.Pattern,
		Recent:  story.Recent(sections, settings.ContextParagraphs),
	})

	resp, err := e.gen.Generate(ctx, messages, generate.Params{
		Model:       settings.Model,
		MaxTokens:   settings.MaxTokens,
		Temperature: settings.Temperature,
	})
	if err != nil {
		return "", errors.Wrap(err, "generate")
	}

	skin := strings.TrimSpace(resp.FirstText())
	if n := utf8.RuneCountInString(skin); n < MinSkinLength {
		return "", errors.WithDetailf(ErrTooShort, "got %d characters", n)
	}

	if err := e.book.UpdateText(ctx, id, skin); err != nil {
		return "", errors.Wrap(err, "update entry")
	}
	if err := e.stores.History.Set(ctx, SkinKey(id), skin); err != nil {
		return "", errors.Wrap(err, "save skin")
	}

	e.logger.Infof("Shed: %s has shed (%d chars)", entry.Name(), utf8.RuneCountInString(skin))
	return skin, nil
}

// ShedNow is the manual trigger: it reports progress and the outcome as
// toasts. Concurrent calls for the same entry share one molt. The shared molt
// is detached from the callers' cancellation; a caller whose ctx ends stops
// waiting but the molt runs on and still reports its outcome.
func (e *Engine) ShedNow(ctx context.Context, id string) error {
	e.notifier.Notify(notify.Toast{ID: ProgressToastID, Kind: notify.Info, Message: "🐍 Shedding..."})

	ch := e.flight.DoChan(id, func() (any, error) {
		e.inflight.Add(1)
		defer e.inflight.Done()
		_, err := e.Molt(context.WithoutCancel(ctx), id)
		if err != nil {
			e.logger.Warnw("Molt failed", "entry_id", id, "error", err)
			e.notifier.Notify(notify.Toast{ID: ProgressToastID, Kind: notify.Error, Message: "🐍 " + UserMessage(err)})
			return nil, err
		}
		e.notifier.Notify(notify.Toast{ID: ProgressToastID, Kind: notify.Success, Message: "🐍 Shed complete!"})
		return nil, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			e.logger.Debugw("Joined in-flight molt", "entry_id", id)
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every molt started by ShedNow has finished.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

// SetEnabled turns shedding on or off. On captures a missing slough and
// restores the last skin; off restores the slough.
func (e *Engine) SetEnabled(ctx context.Context, id string, enabled bool) error {
	unlock := e.locks.Lock(id)
	defer unlock()

	entry, err := e.entry(ctx, id)
	if err != nil {
		return err
	}
	st, err := e.loadState(ctx, id)
	if err != nil {
		return err
	}

	st.cfg.Enabled = enabled
	if err := e.saveConfig(ctx, id, st.cfg); err != nil {
		return err
	}
	if err := e.stores.Temp.Set(ctx, EnabledKey(id), enabled); err != nil {
		return errors.Wrap(err, "save enabled control")
	}

	if enabled {
		switch st.phase() {
		case PhaseNoSlough:
			if _, err := e.ensureSlough(ctx, id, st, entry.Text); err != nil {
				return err
			}
		case PhaseShedDisabled, PhaseShedEnabled:
			if err := e.book.UpdateText(ctx, id, *st.skin); err != nil {
				return errors.Wrap(err, "restore skin")
			}
		}
		e.notifier.Notify(notify.Toast{Kind: notify.Info, Message: "🐍 Shedding resumed"})
		return nil
	}

	if st.phase() != PhaseNoSlough {
		if err := e.book.UpdateText(ctx, id, *st.slough); err != nil {
			return errors.Wrap(err, "restore slough")
		}
	}
	e.notifier.Notify(notify.Toast{Kind: notify.Info, Message: "🐍 Shedding paused — original restored"})
	return nil
}

// SetPattern stores the author's transformation intent.
func (e *Engine) SetPattern(ctx context.Context, id, pattern string) error {
	unlock := e.locks.Lock(id)
	defer unlock()

	if _, err := e.entry(ctx, id); err != nil {
		return err
	}
	st, err := e.loadState(ctx, id)
	if err != nil {
		return err
	}
	st.cfg.Pattern = pattern
	if err := e.saveConfig(ctx, id, st.cfg); err != nil {
		return err
	}
	return errors.Wrap(e.stores.Temp.Set(ctx, PatternKey(id), pattern), "save pattern control")
}

// SetMoltInterval stores the automatic molt interval.
func (e *Engine) SetMoltInterval(ctx context.Context, id string, interval int) error {
	unlock := e.locks.Lock(id)
	defer unlock()

	if _, err := e.entry(ctx, id); err != nil {
		return err
	}
	st, err := e.loadState(ctx, id)
	if err != nil {
		return err
	}
	st.cfg.MoltInterval = interval
	return e.saveConfig(ctx, id, st.cfg)
}

// Unshed restores the slough, drops the skin and turns shedding off. Without
// a slough it only warns.
func (e *Engine) Unshed(ctx context.Context, id string) error {
	unlock := e.locks.Lock(id)
	defer unlock()

	st, err := e.loadState(ctx, id)
	if err != nil {
		return err
	}
	if st.phase() == PhaseNoSlough {
		e.notifier.Notify(notify.Toast{Kind: notify.Warning, Message: UserMessage(ErrNoSlough)})
		return ErrNoSlough
	}

	if err := e.book.UpdateText(ctx, id, *st.slough); err != nil {
		if errors.Is(err, lorebook.ErrNotFound) {
			return ErrEntryNotFound
		}
		return errors.Wrap(err, "restore slough")
	}
	if err := e.stores.History.Remove(ctx, SkinKey(id)); err != nil {
		return errors.Wrap(err, "remove skin")
	}
	st.cfg.Enabled = false
	if err := e.saveConfig(ctx, id, st.cfg); err != nil {
		return err
	}
	if err := e.stores.Temp.Set(ctx, EnabledKey(id), false); err != nil {
		return errors.Wrap(err, "save enabled control")
	}

	e.notifier.Notify(notify.Toast{Kind: notify.Info, Message: "↩ Unshed — fully reset to original"})
	return nil
}

// Snapshot reports the stored state of an entry.
func (e *Engine) Snapshot(ctx context.Context, id string) (Snapshot, error) {
	entry, err := e.entry(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	st, err := e.loadState(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Entry:  entry,
		Config: st.cfg,
		Slough: st.slough,
		Skin:   st.skin,
		Phase:  st.phase(),
	}, nil
}

// Config returns the entry's shed config, or the default when none is stored.
func (e *Engine) Config(ctx context.Context, id string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := e.stores.Story.Get(ctx, ConfigKey(id), &cfg); err != nil {
		return Config{}, errors.Wrap(err, "load shed config")
	}
	return cfg, nil
}

// Forget removes every stored key of an entry, returning it to no-slough.
func (e *Engine) Forget(ctx context.Context, id string) error {
	unlock := e.locks.Lock(id)
	defer unlock()

	removals := []struct {
		st  store.Store
		key string
	}{
		{e.stores.Story, ConfigKey(id)},
		{e.stores.Story, SloughKey(id)},
		{e.stores.History, SkinKey(id)},
		{e.stores.Temp, EnabledKey(id)},
		{e.stores.Temp, PatternKey(id)},
	}
	for _, r := range removals {
		if err := r.st.Remove(ctx, r.key); err != nil {
			return errors.Wrapf(err, "remove %s", r.key)
		}
	}
	return nil
}

func (e *Engine) entry(ctx context.Context, id string) (lorebook.Entry, error) {
	entry, ok, err := e.book.Entry(ctx, id)
	if err != nil {
		return lorebook.Entry{}, errors.Wrap(err, "load entry")
	}
	if !ok {
		return lorebook.Entry{}, ErrEntryNotFound
	}
	return entry, nil
}

// ensureSlough captures text as the slough unless one is already stored, and
// returns the slough in effect.
func (e *Engine) ensureSlough(ctx context.Context, id string, st entryState, text string) (string, error) {
	if st.slough != nil {
		return *st.slough, nil
	}
	if err := e.stores.Story.Set(ctx, SloughKey(id), text); err != nil {
		return "", errors.Wrap(err, "save slough")
	}
	e.logger.Debugw("Captured slough", "entry_id", id, "chars", utf8.RuneCountInString(text))
	return text, nil
}

func (e *Engine) saveConfig(ctx context.Context, id string, cfg Config) error {
	return errors.Wrap(e.stores.Story.Set(ctx, ConfigKey(id), cfg), "save shed config")
}

// UserMessage renders err for a notification: the outermost message with its
// first letter capitalized.
func UserMessage(err error) string {
	msg := err.Error()
	switch {
	case errors.Is(err, ErrEntryNotFound):
		msg = ErrEntryNotFound.Error()
	case errors.Is(err, ErrNoPattern):
		msg = ErrNoPattern.Error()
	case errors.Is(err, ErrTooShort):
		msg = ErrTooShort.Error()
	case errors.Is(err, ErrNoSlough):
		msg = ErrNoSlough.Error()
	}
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}
