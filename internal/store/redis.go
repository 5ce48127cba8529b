package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"simonchat/internal/apperr"
	"simonchat/internal/models"
)

const convIndexKey = "conversations:by_updated"

// RedisStore keeps conversations in redis: one JSON value per conversation, a
// sorted set scored by updated_at for the listing order, and a list of JSON
// messages per conversation (RPUSH preserves insertion order).
type RedisStore struct {
	client *redis.Client
}

// OpenRedis connects to redis and returns a ready store.
func OpenRedis(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// Close releases the redis connection.
func (s *RedisStore) Close() error { return s.client.Close() }

func convKey(id string) string     { return "conversation:" + id }
func messagesKey(id string) string { return "conversation:" + id + ":messages" }

func (s *RedisStore) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	ids, err := s.client.ZRevRange(ctx, convIndexKey, 0, -1).Result()
	if err != nil {
		return nil, &apperr.StoreFault{Op: "list conversations", Err: err}
	}

	conversations := make([]models.Conversation, 0, len(ids))
	for _, id := range ids {
		data, err := s.client.Get(ctx, convKey(id)).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, &apperr.StoreFault{Op: "get conversation", Err: err}
		}
		var c models.Conversation
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, &apperr.StoreFault{Op: "decode conversation", Err: err}
		}
		conversations = append(conversations, c)
	}
	return conversations, nil
}

func (s *RedisStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	data, err := s.client.Get(ctx, convKey(id)).Result()
	if err == redis.Nil {
		return nil, &apperr.NotFoundError{Resource: "conversation", ID: id}
	}
	if err != nil {
		return nil, &apperr.StoreFault{Op: "get conversation", Err: err}
	}
	var c models.Conversation
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, &apperr.StoreFault{Op: "decode conversation", Err: err}
	}
	return &c, nil
}

func (s *RedisStore) CreateConversation(ctx context.Context, title string) (*models.Conversation, error) {
	now := time.Now().UTC()
	c := &models.Conversation{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *RedisStore) UpdateConversationTitle(ctx context.Context, id, title string) error {
	c, err := s.GetConversation(ctx, id)
	if err != nil {
		return err
	}
	c.Title = title
	return s.save(ctx, c)
}

func (s *RedisStore) DeleteConversation(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, convKey(id), messagesKey(id)).Err(); err != nil {
		return &apperr.StoreFault{Op: "delete conversation", Err: err}
	}
	if err := s.client.ZRem(ctx, convIndexKey, id).Err(); err != nil {
		return &apperr.StoreFault{Op: "delete conversation", Err: err}
	}
	return nil
}

func (s *RedisStore) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	items, err := s.client.LRange(ctx, messagesKey(conversationID), 0, -1).Result()
	if err != nil {
		return nil, &apperr.StoreFault{Op: "list messages", Err: err}
	}
	messages := make([]models.Message, 0, len(items))
	for _, item := range items {
		var m models.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, &apperr.StoreFault{Op: "decode message", Err: err}
		}
		messages = append(messages, m)
	}
	return messages, nil
}

func (s *RedisStore) CreateMessage(ctx context.Context, conversationID, content string, isUser bool) (*models.Message, error) {
	now := time.Now().UTC()
	m := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Content:        content,
		IsUser:         isUser,
		CreatedAt:      now,
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, &apperr.StoreFault{Op: "encode message", Err: err}
	}
	if err := s.client.RPush(ctx, messagesKey(conversationID), data).Err(); err != nil {
		return nil, &apperr.StoreFault{Op: "append message", Err: err}
	}

	// Bump the parent's updated_at when it exists; a missing parent skips the
	// bump, matching the other backends.
	c, err := s.GetConversation(ctx, conversationID)
	if err == nil {
		c.UpdatedAt = now
		if err := s.save(ctx, c); err != nil {
			return nil, err
		}
	} else {
		var notFound *apperr.NotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return m, nil
}

func (s *RedisStore) save(ctx context.Context, c *models.Conversation) error {
	data, err := json.Marshal(c)
	if err != nil {
		return &apperr.StoreFault{Op: "encode conversation", Err: err}
	}
	if err := s.client.Set(ctx, convKey(c.ID), data, 0).Err(); err != nil {
		return &apperr.StoreFault{Op: "save conversation", Err: err}
	}
	err = s.client.ZAdd(ctx, convIndexKey, redis.Z{
		Score:  float64(c.UpdatedAt.UnixNano()),
		Member: c.ID,
	}).Err()
	if err != nil {
		return &apperr.StoreFault{Op: "index conversation", Err: err}
	}
	return nil
}
