package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/mindfulme/backend/internal/config"
	"github.com/zhouzirui/mindfulme/backend/internal/model/chat"
)

// ErrStreamingDisabled is returned by StreamResponse when ARK_STREAM is off.
var ErrStreamingDisabled = errors.New("streaming disabled in configuration")

// Service wraps the hosted completion model behind a prompt chain.
type Service struct {
	cfg   config.AIConfig
	chain compose.Runnable[map[string]any, *schema.Message]
	log   zerolog.Logger
}

// NewService creates the model from cfg and compiles the support chain.
func NewService(ctx context.Context, cfg config.AIConfig, logger zerolog.Logger) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return newService(ctx, chatModel, cfg, logger)
}

func newService(ctx context.Context, chatModel model.BaseChatModel, cfg config.AIConfig, logger zerolog.Logger) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	if cfg.HistoryLimit < 1 {
		cfg.HistoryLimit = 1
	}

	return &Service{
		cfg:   cfg,
		chain: runnable,
		log:   logger,
	}, nil
}

// StreamingEnabled 指示是否开启流式输出。
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// GenerateResponse returns one complete reply to userMessage given the prior
// turns in history.
func (s *Service) GenerateResponse(ctx context.Context, name string, history []chat.Message, userMessage string) (string, error) {
	response, err := s.chain.Invoke(ctx, s.buildChainInput(name, history, userMessage))
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}

	s.log.Debug().Int("history", len(history)).Int("length", len(response.Content)).Msg("generated response")
	return response.Content, nil
}

// StreamResponse streams the reply chunk by chunk.
func (s *Service) StreamResponse(ctx context.Context, name string, history []chat.Message, userMessage string) (*schema.StreamReader[*schema.Message], error) {
	if !s.StreamingEnabled() {
		return nil, ErrStreamingDisabled
	}

	stream, err := s.chain.Stream(ctx, s.buildChainInput(name, history, userMessage))
	if err != nil {
		return nil, fmt.Errorf("failed to stream AI chain output: %w", err)
	}
	return stream, nil
}

func (s *Service) buildChainInput(name string, history []chat.Message, userMessage string) map[string]any {
	return map[string]any{
		"system":  BuildSystemPrompt(name),
		"history": buildHistoryMessages(history, s.cfg.HistoryLimit),
		"query":   userMessage,
	}
}

// buildHistoryMessages keeps the most recent limit turns.
func buildHistoryMessages(messages []chat.Message, limit int) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	startIdx := 0
	if len(messages) > limit {
		startIdx = len(messages) - limit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Sender {
		case chat.SenderUser:
			history = append(history, schema.UserMessage(msg.Text))
		case chat.SenderBot:
			history = append(history, schema.AssistantMessage(msg.Text, nil))
		}
	}
	return history
}
