// Package store persists conversations and messages. The memory backend is
// the default; SQL and redis backends implement the same interface for
// deployments that want the history to survive a restart.
package store

import (
	"context"

	"simonchat/internal/models"
)

// Store is the persistence contract consumed by the chat service. Lookups for
// an absent conversation return *apperr.NotFoundError; unexpected backend
// failures return *apperr.StoreFault.
type Store interface {
	// ListConversations returns every conversation ordered by updated_at
	// descending, most recently active first.
	ListConversations(ctx context.Context) ([]models.Conversation, error)
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	CreateConversation(ctx context.Context, title string) (*models.Conversation, error)
	// UpdateConversationTitle renames a conversation in place, preserving its
	// id and message associations.
	UpdateConversationTitle(ctx context.Context, id, title string) error
	// DeleteConversation removes the conversation and every message belonging
	// to it. Deleting an unknown id is a no-op, not an error.
	DeleteConversation(ctx context.Context, id string) error
	// ListMessages returns the conversation's messages ordered by created_at
	// ascending, insertion order breaking ties. Unknown conversations yield an
	// empty slice.
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	// CreateMessage appends a message and bumps the parent conversation's
	// updated_at when the parent exists. A missing parent skips the bump but
	// still stores the message; callers are expected to pre-check.
	CreateMessage(ctx context.Context, conversationID, content string, isUser bool) (*models.Message, error)
}
