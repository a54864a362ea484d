package generate

import (
	"context"

	"github.com/cockroachdb/errors"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged turn of a chat request.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Params are the sampling parameters sent with a request.
type Params struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type Choice struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason,omitempty"`
}

type Response struct {
	Choices []Choice `json:"choices"`
}

// FirstText returns the text of the first choice, or "" when there is none.
func (r *Response) FirstText() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Text
}

// Generator turns a chat request into completion choices.
type Generator interface {
	Generate(ctx context.Context, messages []Message, params Params) (*Response, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, messages []Message, params Params) (*Response, error)

func (f GeneratorFunc) Generate(ctx context.Context, messages []Message, params Params) (*Response, error) {
	return f(ctx, messages, params)
}

// ErrRetryable marks failures worth retrying later, such as rate limiting.
var ErrRetryable = errors.New("retryable generation failure")
