package models

import "time"

// Conversation groups a thread of exchanged messages.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultTitle is used when a conversation is created without one and as the
// fallback when title generation fails.
const DefaultTitle = "Nuova conversazione"
