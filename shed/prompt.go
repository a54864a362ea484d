package shed

import (
	"strings"

	"shed/generate"
)

const DefaultSystemPrompt = `You are Shed, a lorebook continuity editor for an interactive story. Your job is
to rewrite a character's lorebook entry so it reflects their current state based
on recent story events.

Rules:
- Output ONLY the updated lorebook entry text. No preamble, no commentary.
- Maintain the same approximate format, length, and style as the current entry.
- Incorporate changes that have happened or clearly begun in the story.
- Preserve details that haven't changed.
- Be guided by the Shed Pattern (the author's stated intent for transformation).
- Don't leap ahead, only reflect changes actually evidenced in the story.
- Write in third person, present tense, descriptive prose.`

// PromptInput is the material a molt prompt is built from.
type PromptInput struct {
	Slough  string
	Current string
	Pattern string
	Recent  []string
}

// UserPrompt renders the user turn of a molt request.
func UserPrompt(in PromptInput) string {
	return strings.Join([]string{
		"SLOUGH (original entry, for reference):",
		in.Slough,
		"",
		"CURRENT SKIN (entry as it stands now):",
		in.Current,
		"",
		"SHED PATTERN (author's intent for how this should evolve):",
		in.Pattern,
		"",
		"RECENT STORY:",
		strings.Join(in.Recent, "\n"),
		"",
		"Write the updated lorebook entry:",
	}, "\n")
}

// BuildMessages returns the system and user turns of a molt request.
func BuildMessages(systemPrompt string, in PromptInput) []generate.Message {
	return []generate.Message{
		{Role: generate.RoleSystem, Content: systemPrompt},
		{Role: generate.RoleUser, Content: UserPrompt(in)},
	}
}
