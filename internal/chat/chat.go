// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chat answers follow-up questions about a search result using an
// OpenAI-compatible chat completion endpoint. Conversation turns are kept
// in the history store.
package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/pdiddy/patent-report/internal/metrics"
	"github.com/pdiddy/patent-report/pkg/types"
)

// ErrQuotaExceeded is returned when the model provider rejects a request
// with HTTP 429.
var ErrQuotaExceeded = errors.New("chat quota exceeded, wait a few seconds and try again")

const (
	defaultModel        = "gemini-2.0-flash"
	defaultHistoryLimit = 10

	acknowledgement = "Understood. I will use the provided patent context to answer your questions accurately."
)

// MessageStore persists conversation turns. history.Store satisfies it.
type MessageStore interface {
	AppendMessage(ctx context.Context, msg types.ChatMessage) error
	Messages(ctx context.Context, conversationID string, limit int) ([]types.ChatMessage, error)
}

// Assistant holds the completion client and message store.
type Assistant struct {
	client       *openai.Client
	model        string
	historyLimit int
	store        MessageStore
	logger       *zap.Logger
}

// NewAssistant creates an assistant. cfg.BaseURL may point at any
// OpenAI-compatible endpoint.
func NewAssistant(cfg types.ChatConfig, store MessageStore, logger *zap.Logger) (*Assistant, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("chat: api_key is required")
	}
	if store == nil {
		return nil, fmt.Errorf("chat: message store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	a := &Assistant{
		client:       openai.NewClientWithConfig(clientCfg),
		model:        cfg.Model,
		historyLimit: cfg.HistoryLimit,
		store:        store,
		logger:       logger,
	}
	if a.model == "" {
		a.model = defaultModel
	}
	if a.historyLimit <= 0 {
		a.historyLimit = defaultHistoryLimit
	}
	return a, nil
}

// Ask stores the user's message, sends it with the recent conversation and
// the report context to the model, stores the reply, and returns it.
func (a *Assistant) Ask(ctx context.Context, conversationID, message, contextText string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("chat: empty message")
	}
	if conversationID == "" {
		return "", fmt.Errorf("chat: conversation id is required")
	}

	if err := a.store.AppendMessage(ctx, types.ChatMessage{
		ConversationID: conversationID,
		Role:           types.RoleUser,
		Content:        message,
	}); err != nil {
		return "", fmt.Errorf("saving user message: %w", err)
	}

	past, err := a.store.Messages(ctx, conversationID, a.historyLimit+1)
	if err != nil {
		a.logger.Warn("loading chat history failed", zap.String("conversation_id", conversationID), zap.Error(err))
		past = nil
	}
	// The newest entry is the message just stored.
	if n := len(past); n > 0 && past[n-1].Role == types.RoleUser && past[n-1].Content == message {
		past = past[:n-1]
	}
	if len(past) > a.historyLimit {
		past = past[len(past)-a.historyLimit:]
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    a.model,
		Messages: buildMessages(contextText, past, message),
	})
	if err != nil {
		metrics.ChatRequestsTotal.WithLabelValues("error").Inc()
		return "", mapError(err)
	}
	if len(resp.Choices) == 0 {
		metrics.ChatRequestsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("chat: empty completion")
	}
	metrics.ChatRequestsTotal.WithLabelValues("ok").Inc()

	reply := resp.Choices[0].Message.Content
	if err := a.store.AppendMessage(ctx, types.ChatMessage{
		ConversationID: conversationID,
		Role:           types.RoleModel,
		Content:        reply,
	}); err != nil {
		a.logger.Warn("saving model reply failed", zap.String("conversation_id", conversationID), zap.Error(err))
	}
	return reply, nil
}

// History returns the stored turns of a conversation, oldest first.
func (a *Assistant) History(ctx context.Context, conversationID string) ([]types.ChatMessage, error) {
	return a.store.Messages(ctx, conversationID, 0)
}

func buildMessages(contextText string, past []types.ChatMessage, message string) []openai.ChatCompletionMessage {
	out := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: instruction(contextText)},
		{Role: openai.ChatMessageRoleAssistant, Content: acknowledgement},
	}
	for _, m := range past {
		role := openai.ChatMessageRoleUser
		if m.Role == types.RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message})
}

func instruction(contextText string) string {
	return "Use this context to answer the user:\n" + contextText +
		"\nBe a technical expert in patents. Be direct and concise."
}

func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return ErrQuotaExceeded
		}
		return fmt.Errorf("chat API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			return ErrQuotaExceeded
		}
		return fmt.Errorf("chat API error %d: %s", reqErr.HTTPStatusCode, string(reqErr.Body))
	}
	return fmt.Errorf("chat request failed: %w", err)
}
