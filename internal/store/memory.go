package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"simonchat/internal/apperr"
	"simonchat/internal/models"
)

// MemoryStore keeps all state in process memory. A single RWMutex makes each
// operation atomic; cross-operation sequences are serialized by the chat
// service's per-conversation locks.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*models.Conversation
	messages      map[string][]models.Message
	order         map[string]uint64
	seq           uint64
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*models.Conversation),
		messages:      make(map[string][]models.Message),
		order:         make(map[string]uint64),
	}
}

func (s *MemoryStore) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return s.order[out[i].ID] > s.order[out[j].ID]
	})
	return out, nil
}

func (s *MemoryStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[id]
	if !ok {
		return nil, &apperr.NotFoundError{Resource: "conversation", ID: id}
	}
	copied := *c
	return &copied, nil
}

func (s *MemoryStore) CreateConversation(ctx context.Context, title string) (*models.Conversation, error) {
	now := time.Now().UTC()
	c := &models.Conversation{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.conversations[c.ID] = c
	s.order[c.ID] = s.seq
	copied := *c
	return &copied, nil
}

func (s *MemoryStore) UpdateConversationTitle(ctx context.Context, id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok {
		return &apperr.NotFoundError{Resource: "conversation", ID: id}
	}
	c.Title = title
	return nil
}

func (s *MemoryStore) DeleteConversation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.conversations, id)
	delete(s.order, id)
	delete(s.messages, id)
	return nil
}

func (s *MemoryStore) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[conversationID]
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *MemoryStore) CreateMessage(ctx context.Context, conversationID, content string, isUser bool) (*models.Message, error) {
	now := time.Now().UTC()
	m := models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Content:        content,
		IsUser:         isUser,
		CreatedAt:      now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Appending keeps insertion order, which is also created_at order since
	// the clock is monotonic under the lock.
	s.messages[conversationID] = append(s.messages[conversationID], m)
	if c, ok := s.conversations[conversationID]; ok {
		c.UpdatedAt = now
	}
	return &m, nil
}
