package extract

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/minedocs/internal/config"
	"github.com/sells-group/minedocs/internal/resilience"
	"github.com/sells-group/minedocs/pkg/anthropic"
	"github.com/sells-group/minedocs/pkg/openai"
)

type mockAnthropic struct {
	mock.Mock
}

func (m *mockAnthropic) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func TestOpenAIOracle_Complete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4-turbo-preview", body["model"])
		assert.InDelta(t, 0.1, body["temperature"], 0.0001)
		assert.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])
		msgs := body["messages"].([]any)
		require.Len(t, msgs, 2)
		assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
		assert.Equal(t, SystemPrompt, msgs[0].(map[string]any)["content"])
		assert.Equal(t, "user", msgs[1].(map[string]any)["role"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":    "chatcmpl-1",
			"model": "gpt-4-turbo-preview",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": `{"project_name":"Aurora"}`}},
			},
			"usage": map[string]any{"prompt_tokens": 900, "completion_tokens": 40},
		})
	}))
	defer ts.Close()

	o := NewOpenAIOracle(openai.NewClient("sk-test", openai.WithBaseURL(ts.URL)), "gpt-4-turbo-preview")
	resp, err := o.Complete(context.Background(), OracleRequest{
		System:      SystemPrompt,
		User:        "prompt",
		Temperature: 0.1,
		MaxTokens:   2048,
		JSONObject:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"project_name":"Aurora"}`, resp.Text)
	assert.Equal(t, "gpt-4-turbo-preview", resp.Model)
	assert.Equal(t, int64(900), resp.InputTokens)
	assert.Equal(t, int64(40), resp.OutputTokens)
}

func TestOpenAIOracle_TransientStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached"}}`))
	}))
	defer ts.Close()

	o := NewOpenAIOracle(openai.NewClient("sk-test", openai.WithBaseURL(ts.URL)), "")
	_, err := o.Complete(context.Background(), OracleRequest{User: "prompt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.True(t, resilience.IsTransient(err))
}

func TestOpenAIOracle_PermanentStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key"}}`))
	}))
	defer ts.Close()

	o := NewOpenAIOracle(openai.NewClient("bad", openai.WithBaseURL(ts.URL)), "")
	_, err := o.Complete(context.Background(), OracleRequest{User: "prompt"})
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
}

func TestAnthropicOracle_PrefillsJSON(t *testing.T) {
	mc := new(mockAnthropic)
	mc.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "claude-sonnet-4-5-20250929" &&
			req.MaxTokens == 2048 &&
			len(req.System) == 1 && req.System[0].Text == SystemPrompt &&
			len(req.Messages) == 2 &&
			req.Messages[1].Role == "assistant" && req.Messages[1].Content == "{" &&
			req.Temperature != nil && *req.Temperature == 0.1
	})).Return(&anthropic.MessageResponse{
		Model:   "claude-sonnet-4-5-20250929",
		Content: []anthropic.ContentBlock{{Type: "text", Text: `"project_name": "Aurora", "npv": 12}`}},
		Usage:   anthropic.TokenUsage{InputTokens: 1000, OutputTokens: 20},
	}, nil)

	o := NewAnthropicOracle(mc, "claude-sonnet-4-5-20250929")
	resp, err := o.Complete(context.Background(), OracleRequest{
		System:      SystemPrompt,
		User:        "prompt",
		Temperature: 0.1,
		JSONObject:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"project_name": "Aurora", "npv": 12}`, resp.Text)
	assert.Equal(t, int64(1000), resp.InputTokens)
	mc.AssertExpectations(t)
}

func TestAnthropicOracle_FullObjectNotDoubled(t *testing.T) {
	mc := new(mockAnthropic)
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: `{"project_name": "Aurora"}`}},
	}, nil)

	o := NewAnthropicOracle(mc, "claude-sonnet-4-5-20250929")
	resp, err := o.Complete(context.Background(), OracleRequest{User: "prompt", JSONObject: true})
	require.NoError(t, err)
	assert.Equal(t, `{"project_name": "Aurora"}`, resp.Text)
}

func TestAnthropicOracle_Errors(t *testing.T) {
	mc := new(mockAnthropic)
	overloaded := &anthropic.APIError{StatusCode: 529, Err: errors.New("overloaded_error")}
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, overloaded).Once()
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("invalid x-api-key")).Once()

	o := NewAnthropicOracle(mc, "claude-sonnet-4-5-20250929")

	_, err := o.Complete(context.Background(), OracleRequest{User: "prompt"})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))

	_, err = o.Complete(context.Background(), OracleRequest{User: "prompt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extract: anthropic message")
	assert.False(t, resilience.IsTransient(err))
}

func TestNewOracle(t *testing.T) {
	cfg := &config.Config{Oracle: config.OracleConfig{Provider: "openai"}, OpenAI: config.OpenAIConfig{Key: "sk"}}
	o, err := NewOracle(cfg)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIOracle{}, o)

	cfg.Oracle.Provider = "anthropic"
	o, err = NewOracle(cfg)
	require.NoError(t, err)
	assert.IsType(t, &AnthropicOracle{}, o)

	cfg.Oracle.Provider = "ollama"
	_, err = NewOracle(cfg)
	assert.ErrorContains(t, err, `unknown oracle provider "ollama"`)
}
