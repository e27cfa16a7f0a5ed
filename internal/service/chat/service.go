package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/mindfulme/backend/internal/analysis/responder"
	"github.com/zhouzirui/mindfulme/backend/internal/model/chat"
	"github.com/zhouzirui/mindfulme/backend/internal/service/records"
)

var ErrEmptyMessage = errors.New("message text is required")

// Source tells which engine produced a bot reply.
type Source string

const (
	SourceLLM   Source = "llm"
	SourceRules Source = "rules"
)

// Records is the chat slice of the record store.
type Records interface {
	ListChatMessages(ctx context.Context) []chat.Message
	AddChatMessage(ctx context.Context, msg chat.Message) error
	ClearChatHistory(ctx context.Context) error
	Now() time.Time
}

// Responder picks canned replies.
type Responder interface {
	Respond(input string) responder.Response
}

// Completer is the hosted language model.
type Completer interface {
	StreamingEnabled() bool
	GenerateResponse(ctx context.Context, name string, history []chat.Message, userMessage string) (string, error)
	StreamResponse(ctx context.Context, name string, history []chat.Message, userMessage string) (*schema.StreamReader[*schema.Message], error)
}

// Reply is one completed exchange.
type Reply struct {
	User     chat.Message       `json:"userMessage"`
	Bot      chat.Message       `json:"botMessage"`
	Source   Source             `json:"source"`
	Category responder.Category `json:"category,omitempty"`
}

// Service runs the support conversation.
type Service struct {
	records   Records
	responder Responder
	completer Completer
	log       zerolog.Logger
}

// NewService wires the chat. completer may be nil, in which case every reply
// comes from the responder.
func NewService(records Records, responder Responder, completer Completer, logger zerolog.Logger) *Service {
	return &Service{
		records:   records,
		responder: responder,
		completer: completer,
		log:       logger,
	}
}

// UsesLLM reports whether a hosted model is configured.
func (s *Service) UsesLLM() bool {
	return s.completer != nil
}

// WelcomeText greets name, or "there" when unknown.
func WelcomeText(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hello %s! I'm your AI wellness companion. I'm here to listen and provide emotional support. How are you feeling today?", name)
}

// History returns the conversation. An empty history is seeded with a
// welcome message first.
func (s *Service) History(ctx context.Context, name string) []chat.Message {
	history := s.records.ListChatMessages(ctx)
	if len(history) > 0 {
		return history
	}

	welcome := s.newMessage(WelcomeText(name), chat.SenderBot)
	if err := s.records.AddChatMessage(ctx, welcome); err != nil {
		s.log.Warn().Err(err).Msg("failed to store welcome message")
	}
	return []chat.Message{welcome}
}

// Clear drops the whole conversation.
func (s *Service) Clear(ctx context.Context) error {
	return s.records.ClearChatHistory(ctx)
}

// Send stores the user's message, produces a reply and stores it too.
func (s *Service) Send(ctx context.Context, name, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, ErrEmptyMessage
	}

	prior := s.records.ListChatMessages(ctx)
	userMsg := s.store(ctx, text, chat.SenderUser)

	if s.completer != nil {
		answer, err := s.completer.GenerateResponse(ctx, name, prior, text)
		if err == nil && strings.TrimSpace(answer) != "" {
			return Reply{User: userMsg, Bot: s.store(ctx, answer, chat.SenderBot), Source: SourceLLM}, nil
		}
		s.log.Warn().Err(err).Msg("language model unavailable, using canned reply")
	}

	return s.ruleReply(ctx, userMsg, text), nil
}

// Stream is Send with incremental delivery: onDelta receives each chunk of
// the reply as it is produced. Replies that are not streamed arrive as a
// single chunk. An error from onDelta stops the stream; whatever text was
// produced so far is still stored.
func (s *Service) Stream(ctx context.Context, name, text string, onDelta func(string) error) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, ErrEmptyMessage
	}

	if s.completer == nil || !s.completer.StreamingEnabled() {
		reply, err := s.Send(ctx, name, text)
		if err != nil {
			return reply, err
		}
		return reply, onDelta(reply.Bot.Text)
	}

	prior := s.records.ListChatMessages(ctx)
	userMsg := s.store(ctx, text, chat.SenderUser)

	stream, err := s.completer.StreamResponse(ctx, name, prior, text)
	if err != nil {
		s.log.Warn().Err(err).Msg("language model stream failed, using canned reply")
		reply := s.ruleReply(ctx, userMsg, text)
		return reply, onDelta(reply.Bot.Text)
	}
	defer stream.Close()

	var (
		builder  strings.Builder
		deltaErr error
	)
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.log.Warn().Err(err).Int("received", builder.Len()).Msg("language model stream interrupted")
			break
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}
		builder.WriteString(chunk.Content)
		if deltaErr = onDelta(chunk.Content); deltaErr != nil {
			break
		}
	}

	if strings.TrimSpace(builder.String()) == "" {
		if deltaErr != nil {
			return Reply{User: userMsg}, deltaErr
		}
		reply := s.ruleReply(ctx, userMsg, text)
		return reply, onDelta(reply.Bot.Text)
	}

	reply := Reply{User: userMsg, Bot: s.store(ctx, builder.String(), chat.SenderBot), Source: SourceLLM}
	return reply, deltaErr
}

func (s *Service) ruleReply(ctx context.Context, userMsg chat.Message, text string) Reply {
	resp := s.responder.Respond(text)
	return Reply{
		User:     userMsg,
		Bot:      s.store(ctx, resp.Text, chat.SenderBot),
		Source:   SourceRules,
		Category: resp.Category,
	}
}

// store persists a message. Failures are logged; the conversation goes on.
func (s *Service) store(ctx context.Context, text string, sender chat.Sender) chat.Message {
	msg := s.newMessage(text, sender)
	if err := s.records.AddChatMessage(ctx, msg); err != nil {
		s.log.Warn().Err(err).Str("sender", string(sender)).Msg("failed to store chat message")
	}
	return msg
}

func (s *Service) newMessage(text string, sender chat.Sender) chat.Message {
	now := s.records.Now()
	return chat.Message{
		ID:        records.NewID(now),
		Text:      text,
		Sender:    sender,
		Timestamp: now.UnixMilli(),
	}
}
