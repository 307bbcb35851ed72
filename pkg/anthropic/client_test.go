package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient implements Client for testing.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MessageResponse), args.Error(1)
}

func messageJSON(text string) map[string]any {
	return map[string]any{
		"id":   "msg_test_001",
		"type": "message",
		"role": "assistant",
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": "end_turn",
		"usage":       map[string]any{"input_tokens": 10, "output_tokens": 5},
	}
}

func TestSDKClient_CreateMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/messages")

		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "claude-haiku-4-5-20251001", payload["model"])
		assert.NotNil(t, payload["system"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(messageJSON("8526")) //nolint:errcheck
	}))
	defer ts.Close()

	client := NewClient("test-key", option.WithBaseURL(ts.URL))
	temp := 0.0
	resp, err := client.CreateMessage(context.Background(), MessageRequest{
		Model:       "claude-haiku-4-5-20251001",
		MaxTokens:   16,
		System:      "You are a trade expert.",
		Messages:    []Message{{Role: "user", Content: "HS code for GPS receivers?"}},
		Temperature: &temp,
	})
	require.NoError(t, err)
	assert.Equal(t, "msg_test_001", resp.ID)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, "8526", resp.Text())
	assert.Equal(t, int64(10), resp.Usage.InputTokens)
	assert.Equal(t, int64(5), resp.Usage.OutputTokens)
}

func TestSDKClient_CreateMessage_Error(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"type":  "error",
			"error": map[string]any{"type": "invalid_request_error", "message": "bad"},
		})
	}))
	defer ts.Close()

	client := NewClient("test-key", option.WithBaseURL(ts.URL), option.WithMaxRetries(0))
	_, err := client.CreateMessage(context.Background(), MessageRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 16,
		Messages:  []Message{{Role: "user", Content: "Hello"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic: create message")
}

func TestToSDKMessages(t *testing.T) {
	out := toSDKMessages([]Message{{Role: "user", Content: "a"}, {Role: "assistant", Content: "b"}, {Role: "system", Content: "c"}})
	require.Len(t, out, 3)
	assert.Equal(t, "user", string(out[0].Role))
	assert.Equal(t, "assistant", string(out[1].Role))
	assert.Equal(t, "user", string(out[2].Role), "unknown roles default to user")
	assert.Empty(t, toSDKMessages(nil))
}

func TestMessageResponse_Text(t *testing.T) {
	r := &MessageResponse{Content: []ContentBlock{
		{Type: "text", Text: "Hello "},
		{Type: "tool_use"},
		{Type: "text", Text: "world"},
	}}
	assert.Equal(t, "Hello world", r.Text())

	var nilResp *MessageResponse
	assert.Empty(t, nilResp.Text())
}

func TestComplete(t *testing.T) {
	mc := &MockClient{}
	mc.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req MessageRequest) bool {
		return len(req.Messages) == 1 && req.Messages[0].Content == "prompt" && req.Model == "m"
	})).Return(&MessageResponse{Content: []ContentBlock{{Type: "text", Text: "  answer \n"}}}, nil).Once()

	text, err := Complete(context.Background(), mc, MessageRequest{Model: "m", MaxTokens: 8}, "prompt", "test")
	require.NoError(t, err)
	assert.Equal(t, "answer", text)
	mc.AssertExpectations(t)
}

func TestComplete_Errors(t *testing.T) {
	mc := &MockClient{}
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("overloaded")).Once()
	_, err := Complete(context.Background(), mc, MessageRequest{}, "p", "classify")
	assert.EqualError(t, err, "overloaded")

	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(&MessageResponse{}, nil).Once()
	_, err = Complete(context.Background(), mc, MessageRequest{}, "p", "classify")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty classify response")
}

func TestEstimateCost(t *testing.T) {
	usage := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}
	assert.InDelta(t, 4.80, usage.EstimateCost("claude-haiku-4-5-20251001"), 0.001)
	assert.InDelta(t, 18.00, usage.EstimateCost("claude-sonnet-4-5-20250929"), 0.001)
	assert.Equal(t, 0.0, usage.EstimateCost("unknown-model"))
	assert.Equal(t, 0.0, TokenUsage{}.EstimateCost("claude-haiku-4-5-20251001"))
}

func TestLogCost_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		TokenUsage{InputTokens: 100, OutputTokens: 50}.LogCost("claude-haiku-4-5-20251001", "explain")
		TokenUsage{}.LogCost("unknown-model", "")
	})
}
