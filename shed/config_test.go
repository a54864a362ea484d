package shed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveSettingsNil(t *testing.T) {
	s := ResolveSettings(nil)
	assert.Equal(t, GenerationSettings{
		SystemPrompt:      DefaultSystemPrompt,
		Temperature:       0.35,
		MaxTokens:         500,
		ContextParagraphs: 20,
		Model:             "glm-4-6",
	}, s)
}
