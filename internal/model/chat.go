// Package model defines data structures for the chat insights platform.
package model

import (
	"time"
)

// BotUserID is the distinguished user id for system-generated replies.
const BotUserID = "bot"

// Sentiment labels produced by insight analysis.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Message represents a persisted conversation message. The id is assigned
// by the store on insert and immutable thereafter.
type Message struct {
	ID             string            `json:"id,omitempty"`
	ConversationID string            `json:"conversation_id"`
	UserID         string            `json:"user_id"`
	Body           string            `json:"message"`
	CreatedAt      time.Time         `json:"timestamp"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// IsBot reports whether the message was authored by the reply bot.
func (m *Message) IsBot() bool {
	return m.UserID == BotUserID
}

// Summary represents a stored conversation summary. A conversation may have
// any number of summaries; each summarization call creates a new record.
type Summary struct {
	ID             string    `json:"id,omitempty"`
	ConversationID string    `json:"conversation_id"`
	Summary        string    `json:"summary"`
	Sentiment      string    `json:"sentiment,omitempty"`
	Keywords       []string  `json:"keywords"`
	CreatedAt      time.Time `json:"created_at"`
}

// SubmitMessageResponse is the result of a message submission. Reply is nil
// when the submitted message was authored by the bot.
type SubmitMessageResponse struct {
	Message *Message `json:"message"`
	Reply   *Message `json:"reply"`
}

// PaginatedMessages is a page of messages for a single user, newest first.
// Total reflects all matching records regardless of page size.
type PaginatedMessages struct {
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
	Data  []Message `json:"data"`
}

// SummarizeRequest asks for a summary of one conversation.
type SummarizeRequest struct {
	ConversationID   string `json:"conversation_id"`
	IncludeSentiment bool   `json:"include_sentiment"`
	IncludeKeywords  bool   `json:"include_keywords"`
}

// Insights carries per-message analysis attached to realtime broadcasts.
type Insights struct {
	Sentiment string   `json:"sentiment"`
	Keywords  []string `json:"keywords"`
}

// BroadcastPayload is the JSON frame pushed to websocket subscribers.
type BroadcastPayload struct {
	Message  Message  `json:"message"`
	Insights Insights `json:"insights"`
}
