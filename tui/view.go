package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"shed/notify"
	"shed/panel"
	"shed/shed"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7FB069"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#777777"))
	buttonStyle  = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder())
	busyStyle    = buttonStyle.Foreground(lipgloss.Color("#555555"))
	panelStyle   = lipgloss.NewStyle().Padding(0, 2)

	toastStyles = map[notify.Kind]lipgloss.Style{
		notify.Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("#8AB4F8")),
		notify.Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#7FB069")),
		notify.Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#E6C229")),
		notify.Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F25F5C")),
	}
)

const keyHelp = "space toggle · e edit pattern · s shed · u unshed · o slough · q quit"

func (m Model) View() string {
	left := m.entries.View()
	right := panelStyle.Render(m.panelView())
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusLine())
}

func (m Model) panelView() string {
	if m.selected == "" || m.snap == nil {
		out := renderParts(panel.Empty(), m.renderOpts())
		if m.loadErr != nil {
			out += "\n\n" + errorLine(m.loadErr)
		}
		return out
	}
	out := renderParts(panel.Build(panel.FromSnapshot(*m.snap)), m.renderOpts())
	if m.opErr != nil {
		out += "\n\n" + errorLine(m.opErr)
	}
	if m.editing {
		out += "\n\n" + m.editor.View() + "\n" + subtleStyle.Render("ctrl+s save · esc cancel")
	}
	return out
}

func errorLine(err error) string {
	return toastStyles[notify.Error].Render("🐍 " + shed.UserMessage(err))
}

type renderOpts struct {
	sloughOpen bool
	busy       bool
}

func (m Model) renderOpts() renderOpts {
	return renderOpts{sloughOpen: m.sloughOpen, busy: m.shedding[m.selected]}
}

// renderParts draws a panel part tree as terminal text.
func renderParts(parts []panel.Part, opts renderOpts) string {
	var lines []string
	for _, p := range parts {
		switch p.Type {
		case panel.TypeText:
			lines = append(lines, renderText(p))
		case panel.TypeCheckbox:
			box := "[ ]"
			if on, _ := p.Value.(bool); on {
				box = "[x]"
			}
			lines = append(lines, box+" "+p.Label)
		case panel.TypeMultilineText:
			if v, _ := p.Value.(string); v != "" {
				lines = append(lines, v)
			} else {
				lines = append(lines, subtleStyle.Render(p.Placeholder))
			}
		case panel.TypeRow:
			var buttons []string
			for _, c := range p.Content {
				style := buttonStyle
				if c.DisableWhileCallbackRunning && opts.busy {
					style = busyStyle
				}
				buttons = append(buttons, style.Render(c.Text))
			}
			lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, buttons...))
		case panel.TypeCollapsible:
			if !opts.sloughOpen {
				lines = append(lines, "▸ "+p.Title)
				continue
			}
			lines = append(lines, "▾ "+p.Title, renderParts(p.Content, opts))
		}
	}
	return strings.Join(lines, "\n")
}

func renderText(p panel.Part) string {
	if !p.Markdown {
		return p.Text
	}
	var out []string
	for _, line := range strings.Split(p.Text, "\n") {
		switch {
		case strings.HasPrefix(line, "### "):
			out = append(out, headingStyle.Render(strings.TrimPrefix(line, "### ")))
		case strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**") && len(line) > 4:
			out = append(out, lipgloss.NewStyle().Bold(true).Render(strings.Trim(line, "*")))
		case strings.HasPrefix(line, "*") && strings.HasSuffix(line, "*") && len(line) > 2:
			out = append(out, subtleStyle.Italic(true).Render(strings.Trim(line, "*")))
		default:
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func (m Model) statusLine() string {
	if m.status.Message == "" {
		return subtleStyle.Render(keyHelp)
	}
	style, ok := toastStyles[m.status.Kind]
	if !ok {
		style = subtleStyle
	}
	return style.Render(m.status.Message) + "  " + subtleStyle.Render(keyHelp)
}
