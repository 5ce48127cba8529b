// Package chat orchestrates the store and the AI gateway: one request in, one
// user/assistant message pair out.
package chat

import (
	"context"
	"strings"
	"sync"

	"simonchat/internal/ai"
	"simonchat/internal/apperr"
	"simonchat/internal/logger"
	"simonchat/internal/models"
	"simonchat/internal/store"
)

// ErrEmptyContent is the localized validation message for blank input.
const ErrEmptyContent = "Il messaggio non può essere vuoto"

// Service implements the conversation flows on top of a Store and a Gateway.
// Both collaborators are injected so tests can swap them.
type Service struct {
	store   store.Store
	gateway ai.Gateway

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService constructs the chat service.
func NewService(st store.Store, gw ai.Gateway) *Service {
	return &Service{
		store:   st,
		gateway: gw,
		locks:   make(map[string]*sync.Mutex),
	}
}

// conversationLock returns the mutex serializing message posts for one
// conversation. Two concurrent posts to the same conversation would otherwise
// interleave the history read with the two writes.
func (s *Service) conversationLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *Service) dropLock(id string) {
	s.mu.Lock()
	delete(s.locks, id)
	s.mu.Unlock()
}

// ListConversations returns all conversations, most recently active first.
func (s *Service) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	return s.store.ListConversations(ctx)
}

// GetConversationWithMessages returns one conversation and its ordered
// messages.
func (s *Service) GetConversationWithMessages(ctx context.Context, id string) (*models.Conversation, []models.Message, error) {
	conversation, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	messages, err := s.store.ListMessages(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return conversation, messages, nil
}

// StartConversation creates an empty conversation. A blank title gets the
// default one; the real title arrives with the first exchange.
func (s *Service) StartConversation(ctx context.Context, title string) (*models.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = models.DefaultTitle
	}
	return s.store.CreateConversation(ctx, title)
}

// DeleteConversation removes a conversation and its messages. Unknown ids are
// a no-op.
func (s *Service) DeleteConversation(ctx context.Context, id string) error {
	if err := s.store.DeleteConversation(ctx, id); err != nil {
		return err
	}
	s.dropLock(id)
	return nil
}

// PostMessage runs one chat turn: persist the user message, generate the
// reply with the prior history as context, persist the reply, and on the
// first exchange retitle the conversation. A generation failure leaves the
// already-persisted user message in place and is surfaced to the caller.
func (s *Service) PostMessage(ctx context.Context, conversationID, content string) (*models.Message, *models.Message, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, nil, &apperr.ValidationError{Field: "content", Reason: ErrEmptyContent}
	}

	// The existence check is advisory: a delete racing this call can still
	// remove the conversation afterwards, in which case the turn's messages
	// land orphaned and the store skips the updated_at bump.
	if _, err := s.store.GetConversation(ctx, conversationID); err != nil {
		return nil, nil, err
	}

	lock := s.conversationLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	userMessage, err := s.store.CreateMessage(ctx, conversationID, trimmed, true)
	if err != nil {
		return nil, nil, err
	}

	previous, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, nil, err
	}
	history := make([]ai.Turn, 0, len(previous))
	for _, msg := range previous {
		if msg.ID == userMessage.ID {
			continue
		}
		history = append(history, ai.Turn{Role: msg.Role(), Content: msg.Content})
	}
	firstExchange := len(history) == 0
	history = append(history, ai.Turn{Role: models.RoleUser, Content: content})

	reply, err := s.gateway.GenerateReply(ctx, history)
	if err != nil {
		// No rollback: the user sees their message without a reply and can
		// resend.
		return nil, nil, err
	}

	aiMessage, err := s.store.CreateMessage(ctx, conversationID, reply, false)
	if err != nil {
		return nil, nil, err
	}

	if firstExchange {
		title := s.gateway.GenerateTitle(ctx, content)
		if err := s.store.UpdateConversationTitle(ctx, conversationID, title); err != nil {
			logger.Errorw("update conversation title failed", "conversation", conversationID, "err", err)
		}
	}

	return userMessage, aiMessage, nil
}
