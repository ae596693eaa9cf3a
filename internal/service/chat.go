// Package service provides business logic for the chat insights platform.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wavelength-ai/chat-insights/internal/apperr"
	"github.com/wavelength-ai/chat-insights/internal/events"
	"github.com/wavelength-ai/chat-insights/internal/insight"
	"github.com/wavelength-ai/chat-insights/internal/model"
	"github.com/wavelength-ai/chat-insights/internal/store"
	"github.com/wavelength-ai/chat-insights/internal/ws"
	"github.com/wavelength-ai/chat-insights/pkg/logger"
	"github.com/wavelength-ai/chat-insights/pkg/metrics"
)

// ChatService orchestrates message persistence, bot reply synthesis,
// summarization and realtime fan-out.
type ChatService struct {
	store     store.Store
	generator insight.Generator
	hub       *ws.Hub
	events    events.Publisher
	logger    *logger.Logger

	// Bot reply synthesis is serialized per conversation id so two
	// concurrent submissions to one conversation cannot both read the same
	// history and append duplicate replies. Each conversation holds its own
	// lock, so a slow generator call for one conversation never delays
	// submissions to any other.
	replyLocks *keyedLocks

	// broadcastTimeout bounds the per-message insight analysis done on the
	// fan-out path.
	broadcastTimeout time.Duration
}

// NewChatService creates the service. hub may be nil when realtime fan-out
// is disabled (e.g. in tests). A non-positive broadcastTimeout falls back to
// 15s.
func NewChatService(st store.Store, gen insight.Generator, hub *ws.Hub, pub events.Publisher, log *logger.Logger, broadcastTimeout time.Duration) *ChatService {
	if pub == nil {
		pub = events.Noop{}
	}
	if broadcastTimeout <= 0 {
		broadcastTimeout = 15 * time.Second
	}
	return &ChatService{
		store:            st,
		generator:        gen,
		hub:              hub,
		events:           pub,
		logger:           log,
		replyLocks:       newKeyedLocks(),
		broadcastTimeout: broadcastTimeout,
	}
}

// SubmitMessage validates and persists an inbound message, synthesizes a
// bot reply for non-bot senders, and fans both turns out to subscribers.
//
// The response always has the same shape: the stored message plus the bot
// reply, which is nil for bot-authored submissions or when synthesis
// degrades. Bot-authored submissions never trigger a further reply.
func (s *ChatService) SubmitMessage(ctx context.Context, msg *model.Message) (*model.SubmitMessageResponse, error) {
	if err := validateMessage(msg); err != nil {
		return nil, err
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	if err := s.store.InsertMessage(ctx, msg); err != nil {
		return nil, apperr.Storage("failed to persist message", err)
	}
	metrics.MessagesTotal.WithLabelValues(roleOf(msg)).Inc()
	s.events.MessageCreated(msg)
	s.broadcastAsync(*msg)

	if msg.IsBot() {
		return &model.SubmitMessageResponse{Message: msg}, nil
	}

	reply, err := s.synthesizeReply(ctx, msg.ConversationID)
	if err != nil {
		// The user message is already persisted; a flaky generator must not
		// reject accepted input. Degrade to a nil reply.
		s.logger.Warn("bot reply synthesis failed",
			zap.String("conversation_id", msg.ConversationID),
			zap.Error(err),
		)
		return &model.SubmitMessageResponse{Message: msg}, nil
	}

	metrics.MessagesTotal.WithLabelValues(roleOf(reply)).Inc()
	s.events.MessageCreated(reply)
	s.broadcastAsync(*reply)

	return &model.SubmitMessageResponse{Message: msg, Reply: reply}, nil
}

// synthesizeReply reads the full conversation history and persists a
// bot-authored continuation, holding the conversation's synthesis lock
// throughout.
func (s *ChatService) synthesizeReply(ctx context.Context, conversationID string) (*model.Message, error) {
	lock := s.replyLocks.acquire(conversationID)
	defer s.replyLocks.release(conversationID, lock)

	history, err := s.store.QueryMessages(ctx, store.MessageQuery{ConversationID: conversationID})
	if err != nil {
		return nil, apperr.Storage("failed to load conversation history", err)
	}

	text, err := s.generator.Reply(ctx, history)
	if err != nil {
		return nil, err
	}

	reply := &model.Message{
		ConversationID: conversationID,
		UserID:         model.BotUserID,
		Body:           text,
		CreatedAt:      time.Now().UTC(),
		Metadata:       map[string]string{},
	}
	if err := s.store.InsertMessage(ctx, reply); err != nil {
		return nil, apperr.Storage("failed to persist bot reply", err)
	}
	return reply, nil
}

// GetConversation returns a conversation's messages sorted ascending by
// timestamp, optionally filtered by search text and an inclusive time range.
func (s *ChatService) GetConversation(ctx context.Context, q store.MessageQuery) ([]model.Message, error) {
	if q.ConversationID == "" {
		return nil, apperr.Validation("conversation_id is required")
	}

	messages, err := s.store.QueryMessages(ctx, q)
	if err != nil {
		return nil, apperr.Storage("failed to query messages", err)
	}
	return messages, nil
}

// GetUserMessages returns one page of a user's messages, newest first.
func (s *ChatService) GetUserMessages(ctx context.Context, userID string, page, limit int) (*model.PaginatedMessages, error) {
	if userID == "" {
		return nil, apperr.Validation("user_id is required")
	}
	if page < 1 {
		return nil, apperr.Validation("page must be >= 1")
	}
	if limit < 1 || limit > 100 {
		return nil, apperr.Validation("limit must be between 1 and 100")
	}

	resp, err := s.store.PaginateByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, apperr.Storage("failed to paginate messages", err)
	}
	return resp, nil
}

// Summarize generates and persists a new summary of the conversation.
// Summarization is not idempotent: every call creates a new record.
func (s *ChatService) Summarize(ctx context.Context, req *model.SummarizeRequest) (*model.Summary, error) {
	if req.ConversationID == "" {
		return nil, apperr.Validation("conversation_id is required")
	}

	history, err := s.store.QueryMessages(ctx, store.MessageQuery{ConversationID: req.ConversationID})
	if err != nil {
		return nil, apperr.Storage("failed to load conversation history", err)
	}
	if len(history) == 0 {
		return nil, apperr.NotFound("no messages found for conversation %s", req.ConversationID)
	}

	text, err := s.generator.Summarize(ctx, history)
	if err != nil {
		return nil, err
	}

	summary := &model.Summary{
		ConversationID: req.ConversationID,
		Summary:        text,
		Keywords:       []string{},
		CreatedAt:      time.Now().UTC(),
	}

	// One combined call serves both flags to avoid double generation cost.
	if req.IncludeSentiment || req.IncludeKeywords {
		sentiment, keywords, err := s.generator.Analyze(ctx, history)
		if err != nil {
			return nil, err
		}
		if req.IncludeSentiment {
			summary.Sentiment = sentiment
		}
		if req.IncludeKeywords && keywords != nil {
			summary.Keywords = keywords
		}
	}

	if err := s.store.InsertSummary(ctx, summary); err != nil {
		return nil, apperr.Storage("failed to persist summary", err)
	}
	s.events.SummaryCreated(summary)

	return summary, nil
}

// DeleteConversation removes every message and summary for the conversation.
func (s *ChatService) DeleteConversation(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		return apperr.Validation("conversation_id is required")
	}

	deleted, err := s.store.DeleteConversation(ctx, conversationID)
	if err != nil {
		return apperr.Storage("failed to delete conversation", err)
	}
	if !deleted {
		return apperr.NotFound("conversation %s not found", conversationID)
	}
	return nil
}

// broadcastAsync pushes a persisted message to the conversation's live
// subscribers, enriched with per-message insights. Delivery is best-effort
// and runs off the request path so a slow analysis or socket never stalls
// the submission.
func (s *ChatService) broadcastAsync(msg model.Message) {
	if s.hub == nil || s.hub.Subscribers(msg.ConversationID) == 0 {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.broadcastTimeout)
		defer cancel()

		insights := model.Insights{Sentiment: model.SentimentNeutral, Keywords: []string{}}
		sentiment, keywords, err := s.generator.Analyze(ctx, []model.Message{msg})
		if err != nil {
			s.logger.Debug("broadcast insight analysis degraded",
				zap.String("conversation_id", msg.ConversationID),
				zap.Error(err),
			)
		} else {
			insights.Sentiment = sentiment
			if keywords != nil {
				insights.Keywords = keywords
			}
		}

		s.hub.Broadcast(msg.ConversationID, model.BroadcastPayload{
			Message:  msg,
			Insights: insights,
		})
	}()
}

func validateMessage(msg *model.Message) error {
	switch {
	case msg.ConversationID == "":
		return apperr.Validation("conversation_id is required")
	case msg.UserID == "":
		return apperr.Validation("user_id is required")
	case msg.Body == "":
		return apperr.Validation("message is required")
	}
	return nil
}

func roleOf(msg *model.Message) string {
	if msg.IsBot() {
		return "bot"
	}
	return "user"
}
