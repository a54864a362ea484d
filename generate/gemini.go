package generate

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Gemini generates through Google's Gemini API.
type Gemini struct {
	client *genai.Client
	logger *zap.SugaredLogger
}

var _ Generator = (*Gemini)(nil)

func NewGemini(ctx context.Context, apiKey string, logger *zap.SugaredLogger) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.WithHint(
			errors.New("gemini API key is required"),
			"set generation.api_key or SHED_GENERATION_API_KEY",
		)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create gemini client")
	}
	return &Gemini{client: client, logger: logger}, nil
}

func (g *Gemini) Generate(ctx context.Context, messages []Message, params Params) (*Response, error) {
	contents, cfg := toGeminiRequest(messages, params)

	g.logger.Debugw("Generating", "model", params.Model, "provider", "gemini")
	result, err := g.client.Models.GenerateContent(ctx, params.Model, contents, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "gemini generate")
	}
	return fromGeminiResponse(result), nil
}

// toGeminiRequest moves system messages into the system instruction and maps
// the remaining turns onto user/model contents.
func toGeminiRequest(messages []Message, params Params) ([]*genai.Content, *genai.GenerateContentConfig) {
	var system []string
	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(params.Temperature)),
		MaxOutputTokens: int32(params.MaxTokens),
	}
	if len(system) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	return contents, cfg
}

func fromGeminiResponse(result *genai.GenerateContentResponse) *Response {
	out := &Response{}
	if result == nil {
		return out
	}
	for _, cand := range result.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var b strings.Builder
		for _, part := range cand.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			b.WriteString(part.Text)
		}
		out.Choices = append(out.Choices, Choice{
			Text:         b.String(),
			FinishReason: string(cand.FinishReason),
		})
	}
	return out
}
