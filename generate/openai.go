package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.openai.com/v1"

// OpenAIConfig configures an OpenAI-compatible chat completions client.
type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration      // 0 = 120s
	Logger  *zap.SugaredLogger // nil = nop logger
	Client  *http.Client       // nil = client with Timeout
}

// OpenAI talks to any server exposing POST {base}/chat/completions.
type OpenAI struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.SugaredLogger
}

var _ Generator = (*OpenAI)(nil)

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &OpenAI{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  client,
		logger:  cfg.Logger,
	}
}

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		// Legacy completion servers put the text here.
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("generation failed: status %d: %s", e.StatusCode, e.Message)
}

func (o *OpenAI) Generate(ctx context.Context, messages []Message, params Params) (*Response, error) {
	req := chatCompletionRequest{
		Model:       params.Model,
		Messages:    messages,
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "marshal chat request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build chat request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	start := time.Now()
	o.logger.Debugw("Generating", "model", params.Model, "messages", len(messages))

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "chat request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read chat response")
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var errResp errorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Error.Message != "" {
			statusErr.Message = errResp.Error.Message
		}
		o.logger.Warnw("Generation failed", "model", params.Model, "status", resp.StatusCode, "error", statusErr.Message)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, errors.Mark(statusErr, ErrRetryable)
		}
		return nil, statusErr
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, errors.Wrap(err, "parse chat response")
	}

	out := &Response{Choices: make([]Choice, 0, len(parsed.Choices))}
	for _, c := range parsed.Choices {
		text := c.Message.Content
		if text == "" {
			text = c.Text
		}
		out.Choices = append(out.Choices, Choice{Text: text, FinishReason: c.FinishReason})
	}

	o.logger.Infow("Generation complete",
		"model", parsed.Model,
		"choices", len(out.Choices),
		"total_tokens", parsed.Usage.TotalTokens,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
