package shed

// Config is the per-entry shed configuration.
type Config struct {
	Enabled bool   `json:"enabled"`
	Pattern string `json:"pattern"`
	// MoltInterval is the number of new story paragraphs between automatic
	// molts. Zero or less disables automatic molting.
	MoltInterval int `json:"moltInterval"`
}

func DefaultConfig() Config {
	return Config{MoltInterval: 5}
}

// Settings is the global settings namespace. *viper.Viper satisfies it.
type Settings interface {
	IsSet(key string) bool
	GetString(key string) string
	GetFloat64(key string) float64
	GetInt(key string) int
}

const (
	DefaultTemperature       = 0.35
	DefaultMaxTokens         = 500
	DefaultContextParagraphs = 20
	DefaultModel             = "glm-4-6"
)

// GenerationSettings are the resolved global settings for one molt.
type GenerationSettings struct {
	SystemPrompt      string
	Temperature       float64
	MaxTokens         int
	ContextParagraphs int
	Model             string
}

// ResolveSettings reads the global settings, falling back to defaults for
// unset keys. A non-positive context_paragraphs also falls back.
func ResolveSettings(s Settings) GenerationSettings {
	out := GenerationSettings{
		SystemPrompt:      DefaultSystemPrompt,
		Temperature:       DefaultTemperature,
		MaxTokens:         DefaultMaxTokens,
		ContextParagraphs: DefaultContextParagraphs,
		Model:             DefaultModel,
	}
	if s == nil {
		return out
	}
	if s.IsSet("system_prompt") {
		out.SystemPrompt = s.GetString("system_prompt")
	}
	if s.IsSet("temperature") {
		out.Temperature = s.GetFloat64("temperature")
	}
	if s.IsSet("max_tokens") {
		out.MaxTokens = s.GetInt("max_tokens")
	}
	if s.IsSet("context_paragraphs") {
		if n := s.GetInt("context_paragraphs"); n > 0 {
			out.ContextParagraphs = n
		}
	}
	if s.IsSet("molt_model") {
		out.Model = s.GetString("molt_model")
	}
	return out
}
