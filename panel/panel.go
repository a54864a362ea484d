// Package panel describes the Shed panel as a tree of UI parts. Clients
// render the parts and send each control's action back to the HTTP API.
package panel

import (
	"net/http"

	"shed/shed"
)

// ID identifies the Shed script panel.
const ID = "shed-panel"

const (
	TypeText          = "text"
	TypeCheckbox      = "checkboxInput"
	TypeMultilineText = "multilineTextInput"
	TypeRow           = "row"
	TypeButton        = "button"
	TypeCollapsible   = "collapsibleSection"
)

// Action is the request a control dispatches. Body fields named by the
// control ("enabled", "pattern") carry its value.
type Action struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Field  string `json:"field,omitempty"`
}

// Part is one UI element.
type Part struct {
	Type                        string  `json:"type"`
	Text                        string  `json:"text,omitempty"`
	Markdown                    bool    `json:"markdown,omitempty"`
	StorageKey                  string  `json:"storageKey,omitempty"`
	Label                       string  `json:"label,omitempty"`
	Placeholder                 string  `json:"placeholder,omitempty"`
	Title                       string  `json:"title,omitempty"`
	Spacing                     string  `json:"spacing,omitempty"`
	DisableWhileCallbackRunning bool    `json:"disableWhileCallbackRunning,omitempty"`
	Value                       any     `json:"value,omitempty"`
	Action                      *Action `json:"action,omitempty"`
	Content                     []Part  `json:"content,omitempty"`
}

// View is the state a panel is rendered from.
type View struct {
	EntryID string
	Enabled bool
	Pattern string
	Slough  *string
}

// FromSnapshot prefills a view from stored state.
func FromSnapshot(s shed.Snapshot) View {
	return View{
		EntryID: s.Entry.ID,
		Enabled: s.Config.Enabled,
		Pattern: s.Config.Pattern,
		Slough:  s.Slough,
	}
}

const (
	sloughPlaceholder  = "*No slough saved yet. Slough is waiting...*"
	patternPlaceholder = `e.g., "Marcus is slowly transforming into a rock elemental..."`
)

// Build returns the panel for one lorebook entry.
func Build(v View) []Part {
	base := "/api/entries/" + v.EntryID + "/shed"

	sloughText, sloughMarkdown := sloughPlaceholder, true
	if v.Slough != nil {
		sloughText, sloughMarkdown = *v.Slough, false
	}

	return []Part{
		{Type: TypeText, Markdown: true, Text: "### 🐍 Shed"},
		{
			Type:       TypeCheckbox,
			StorageKey: shed.EnabledKey(v.EntryID),
			Label:      "Shedding",
			Value:      v.Enabled,
			Action:     &Action{Method: http.MethodPut, Path: base + "/enabled", Field: "enabled"},
		},
		{
			Type:     TypeText,
			Markdown: true,
			Text:     "**Shed Pattern**\n*Describe how this entry should change over the story.*",
		},
		{
			Type:        TypeMultilineText,
			StorageKey:  shed.PatternKey(v.EntryID),
			Placeholder: patternPlaceholder,
			Value:       v.Pattern,
			Action:      &Action{Method: http.MethodPut, Path: base + "/pattern", Field: "pattern"},
		},
		{
			Type:    TypeRow,
			Spacing: "start",
			Content: []Part{
				{
					Type:                        TypeButton,
					Text:                        "🐍 Shed Now",
					DisableWhileCallbackRunning: true,
					Action:                      &Action{Method: http.MethodPost, Path: base + "/molt"},
				},
				{
					Type:   TypeButton,
					Text:   "↩ Unshed",
					Action: &Action{Method: http.MethodPost, Path: base + "/unshed"},
				},
			},
		},
		{
			Type:  TypeCollapsible,
			Title: "🐍 Slough (original text)",
			Content: []Part{
				{Type: TypeText, Text: sloughText, Markdown: sloughMarkdown},
			},
		},
	}
}

// Empty is shown before any entry is selected.
func Empty() []Part {
	return []Part{
		{
			Type:     TypeText,
			Markdown: true,
			Text:     "*Select a lorebook entry to start Shedding.*\n\n🐍 Slough is waiting...",
		},
	}
}
