// Package store provides persistence for conversation messages and summaries.
package store

import (
	"context"
	"time"

	"github.com/wavelength-ai/chat-insights/internal/model"
)

// MessageQuery filters a conversation's messages. SearchText matches the
// message body case-insensitively as a substring pattern. Time bounds are
// inclusive.
type MessageQuery struct {
	ConversationID string
	SearchText     string
	StartTime      *time.Time
	EndTime        *time.Time
}

// Store is the persistence contract for messages and summaries.
//
// Implementations must sort query results explicitly by timestamp: insertion
// order is not a reliable ordering under concurrent writers.
type Store interface {
	// InsertMessage persists a message, assigning its ID. The record is
	// visible to subsequent queries immediately.
	InsertMessage(ctx context.Context, msg *model.Message) error

	// QueryMessages returns a conversation's messages sorted ascending by
	// timestamp. An empty result is not an error.
	QueryMessages(ctx context.Context, q MessageQuery) ([]model.Message, error)

	// PaginateByUser returns one page of a user's messages sorted descending
	// by timestamp. Total is computed in the same query pass as the page.
	PaginateByUser(ctx context.Context, userID string, page, limit int) (*model.PaginatedMessages, error)

	// InsertSummary persists a summary, assigning its ID.
	InsertSummary(ctx context.Context, summary *model.Summary) error

	// DeleteConversation removes all messages and summaries for the
	// conversation in one transaction. Returns whether any record was removed.
	DeleteConversation(ctx context.Context, conversationID string) (bool, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	Close() error
}
