package models

import "time"

// Role identifies the author of a turn when talking to the model provider.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one turn in a conversation. Messages are never mutated after
// creation and are removed only when their conversation is deleted.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Content        string    `json:"content"`
	IsUser         bool      `json:"isUser"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Role maps the stored author flag onto the provider role vocabulary.
func (m Message) Role() Role {
	if m.IsUser {
		return RoleUser
	}
	return RoleAssistant
}
