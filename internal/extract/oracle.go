package extract

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/minedocs/internal/config"
	"github.com/sells-group/minedocs/internal/resilience"
	"github.com/sells-group/minedocs/pkg/anthropic"
	"github.com/sells-group/minedocs/pkg/openai"
)

// Oracle turns a system/user prompt pair into a single text payload.
type Oracle interface {
	Complete(ctx context.Context, req OracleRequest) (*OracleResponse, error)
}

// OracleRequest is one role-annotated prompt pair.
type OracleRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int64
	// JSONObject asks the provider to answer with a single JSON object.
	JSONObject bool
}

// OracleResponse is the raw text returned by the provider.
type OracleResponse struct {
	Text         string
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// NewOracle creates the Oracle selected by cfg.Oracle.Provider.
func NewOracle(cfg *config.Config) (Oracle, error) {
	switch cfg.Oracle.Provider {
	case "openai", "":
		client := openai.NewClient(cfg.OpenAI.Key,
			openai.WithBaseURL(cfg.OpenAI.BaseURL),
			openai.WithModel(cfg.OpenAI.Model),
		)
		return NewOpenAIOracle(client, cfg.OpenAI.Model), nil
	case "anthropic":
		return NewAnthropicOracle(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model), nil
	default:
		return nil, eris.Errorf("extract: unknown oracle provider %q", cfg.Oracle.Provider)
	}
}

// OpenAIOracle calls an OpenAI-compatible chat completion endpoint.
type OpenAIOracle struct {
	client openai.Client
	model  string
}

// NewOpenAIOracle creates an OpenAIOracle. An empty model uses the client default.
func NewOpenAIOracle(client openai.Client, model string) *OpenAIOracle {
	return &OpenAIOracle{client: client, model: model}
}

func (o *OpenAIOracle) Complete(ctx context.Context, req OracleRequest) (*OracleResponse, error) {
	temp := req.Temperature
	creq := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.Message{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: &temp,
	}
	if req.MaxTokens > 0 {
		maxTokens := req.MaxTokens
		creq.MaxTokens = &maxTokens
	}
	if req.JSONObject {
		creq.ResponseFormat = openai.JSONObject
	}

	resp, err := o.client.ChatCompletion(ctx, creq)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, resilience.FromStatus(eris.Wrap(err, "extract: openai completion"), apiErr.StatusCode)
		}
		return nil, eris.Wrap(err, "extract: openai completion")
	}

	return &OracleResponse{
		Text:         resp.Content(),
		Model:        resp.Model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

// AnthropicOracle calls the Anthropic Messages API. The Messages API has no
// JSON response mode, so a JSON answer is forced by prefilling the assistant
// turn with "{".
type AnthropicOracle struct {
	client anthropic.Client
	model  string
}

// NewAnthropicOracle creates an AnthropicOracle.
func NewAnthropicOracle(client anthropic.Client, model string) *AnthropicOracle {
	return &AnthropicOracle{client: client, model: model}
}

func (o *AnthropicOracle) Complete(ctx context.Context, req OracleRequest) (*OracleResponse, error) {
	temp := req.Temperature
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	messages := []anthropic.Message{{Role: "user", Content: req.User}}
	if req.JSONObject {
		messages = append(messages, anthropic.Message{Role: "assistant", Content: "{"})
	}

	resp, err := o.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       o.model,
		MaxTokens:   maxTokens,
		System:      []anthropic.SystemBlock{{Text: req.System}},
		Messages:    messages,
		Temperature: &temp,
	})
	if err != nil {
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) {
			return nil, resilience.FromStatus(eris.Wrap(err, "extract: anthropic message"), apiErr.StatusCode)
		}
		return nil, eris.Wrap(err, "extract: anthropic message")
	}

	text := resp.Text()
	if req.JSONObject && !strings.HasPrefix(strings.TrimSpace(text), "{") {
		text = "{" + text
	}

	return &OracleResponse{
		Text:         text,
		Model:        resp.Model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}
