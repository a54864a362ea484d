// Package tui is a terminal front end for the Shed panel.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"shed/lorebook"
	"shed/notify"
	"shed/shed"
)

// Engine is the part of shed.Engine the panel drives.
type Engine interface {
	Snapshot(ctx context.Context, id string) (shed.Snapshot, error)
	SetEnabled(ctx context.Context, id string, enabled bool) error
	SetPattern(ctx context.Context, id, pattern string) error
	ShedNow(ctx context.Context, id string) error
	Unshed(ctx context.Context, id string) error
}

type snapshotMsg struct {
	id   string
	snap shed.Snapshot
	err  error
}

type opDoneMsg struct {
	op  string
	id  string
	err error
}

type toastMsg notify.Toast

type toastsClosedMsg struct{}

type entryItem struct {
	entry lorebook.Entry
}

func (i entryItem) Title() string { return i.entry.Name() }
func (i entryItem) Description() string {
	line, _, _ := strings.Cut(i.entry.Text, "\n")
	return line
}
func (i entryItem) FilterValue() string { return i.entry.Name() }

// Model is the bubbletea model: an entry list beside the selected entry's
// Shed panel.
type Model struct {
	ctx    context.Context
	lister shed.Lister
	engine Engine
	toasts <-chan notify.Toast

	entries list.Model
	editor  textarea.Model
	editing bool

	selected   string
	snap       *shed.Snapshot
	sloughOpen bool
	shedding   map[string]bool

	status notify.Toast
	// loadErr is the last snapshot failure; opErr the last failed action.
	// A later successful load does not hide a failed action.
	loadErr error
	opErr   error

	width  int
	height int
}

// New builds the model. toasts may be nil.
func New(ctx context.Context, lister shed.Lister, engine Engine, toasts <-chan notify.Toast) Model {
	delegate := list.NewDefaultDelegate()
	entries := list.New(items(lister.List()), delegate, 0, 0)
	entries.Title = "🐍 Lorebook"
	entries.SetShowStatusBar(false)
	entries.SetFilteringEnabled(false)
	entries.SetShowHelp(false)

	editor := textarea.New()
	editor.Placeholder = `e.g., "Marcus is slowly transforming into a rock elemental..."`
	editor.ShowLineNumbers = false
	editor.CharLimit = 0

	m := Model{
		ctx:      ctx,
		lister:   lister,
		engine:   engine,
		toasts:   toasts,
		entries:  entries,
		editor:   editor,
		shedding: make(map[string]bool),
	}
	m.selected = m.currentID()
	return m
}

func items(entries []lorebook.Entry) []list.Item {
	out := make([]list.Item, len(entries))
	for i, e := range entries {
		out[i] = entryItem{entry: e}
	}
	return out
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.listenToasts(), m.loadSnapshot(m.selected))
}

func (m Model) currentID() string {
	if it, ok := m.entries.SelectedItem().(entryItem); ok {
		return it.entry.ID
	}
	return ""
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.entries.SetSize(msg.Width/3, msg.Height-2)
		m.editor.SetWidth(max(20, msg.Width-msg.Width/3-6))
		m.editor.SetHeight(5)
		return m, nil

	case snapshotMsg:
		if msg.id != m.selected {
			return m, nil
		}
		if msg.err != nil {
			m.loadErr = msg.err
			m.snap = nil
			return m, nil
		}
		m.loadErr = nil
		snap := msg.snap
		m.snap = &snap
		return m, nil

	case opDoneMsg:
		if msg.op == "shed" {
			delete(m.shedding, msg.id)
		}
		if msg.id == m.selected {
			m.opErr = msg.err
		}
		m.entries.SetItems(items(m.lister.List()))
		return m, m.loadSnapshot(msg.id)

	case toastMsg:
		m.status = notify.Toast(msg)
		return m, m.listenToasts()

	case toastsClosedMsg:
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditor(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+s":
		m.editing = false
		m.editor.Blur()
		pattern := m.editor.Value()
		return m, m.run("pattern", m.selected, func(ctx context.Context, id string) error {
			return m.engine.SetPattern(ctx, id, pattern)
		})
	case "esc":
		m.editing = false
		m.editor.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.selected
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "o":
		m.sloughOpen = !m.sloughOpen
		return m, nil
	}

	if id != "" && m.snap != nil {
		switch msg.String() {
		case " ":
			enabled := !m.snap.Config.Enabled
			return m, m.run("enabled", id, func(ctx context.Context, id string) error {
				return m.engine.SetEnabled(ctx, id, enabled)
			})
		case "e":
			m.editing = true
			m.editor.SetValue(m.snap.Config.Pattern)
			return m, m.editor.Focus()
		case "s":
			if m.shedding[id] {
				return m, nil
			}
			m.shedding[id] = true
			return m, m.run("shed", id, m.engine.ShedNow)
		case "u":
			return m, m.run("unshed", id, m.engine.Unshed)
		}
	}

	var cmd tea.Cmd
	m.entries, cmd = m.entries.Update(msg)
	if next := m.currentID(); next != m.selected {
		m.selected = next
		m.snap = nil
		m.opErr = nil
		m.sloughOpen = false
		return m, tea.Batch(cmd, m.loadSnapshot(next))
	}
	return m, cmd
}

func (m Model) run(op, id string, fn func(ctx context.Context, id string) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, id: id, err: fn(ctx, id)}
	}
}

func (m Model) loadSnapshot(id string) tea.Cmd {
	if id == "" {
		return nil
	}
	ctx, engine := m.ctx, m.engine
	return func() tea.Msg {
		snap, err := engine.Snapshot(ctx, id)
		return snapshotMsg{id: id, snap: snap, err: err}
	}
}

func (m Model) listenToasts() tea.Cmd {
	if m.toasts == nil {
		return nil
	}
	toasts := m.toasts
	return func() tea.Msg {
		t, ok := <-toasts
		if !ok {
			return toastsClosedMsg{}
		}
		return toastMsg(t)
	}
}

// Run starts the terminal UI and blocks until the user quits.
func Run(ctx context.Context, lister shed.Lister, engine Engine, hub *notify.Hub) error {
	toasts, cancel := hub.Subscribe()
	defer cancel()
	_, err := tea.NewProgram(New(ctx, lister, engine, toasts), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
