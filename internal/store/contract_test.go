package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"simonchat/internal/apperr"
)

// runStoreContract exercises the guarantees every backend makes: listing
// order, message ordering, timestamp bumps, in-place retitle, cascade and
// idempotent delete, and not-found mapping.
func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	first, err := s.CreateConversation(ctx, "first")
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	second, err := s.CreateConversation(ctx, "second")
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	list, err := s.ListConversations(ctx)
	if err != nil {
		t.Fatalf("list conversations: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(list))
	}
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("expected newest first, got %s then %s", list[0].Title, list[1].Title)
	}

	// Messages keep insertion order and bump the parent to the top.
	time.Sleep(2 * time.Millisecond)
	contents := []string{"uno", "due", "tre", "quattro"}
	for _, content := range contents {
		if _, err := s.CreateMessage(ctx, first.ID, content, true); err != nil {
			t.Fatalf("create message: %v", err)
		}
	}
	messages, err := s.ListMessages(ctx, first.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != len(contents) {
		t.Fatalf("expected %d messages, got %d", len(contents), len(messages))
	}
	for i, msg := range messages {
		if msg.Content != contents[i] {
			t.Fatalf("message %d out of order: got %q", i, msg.Content)
		}
		if i > 0 && msg.CreatedAt.Before(messages[i-1].CreatedAt) {
			t.Fatalf("createdAt not non-decreasing at index %d", i)
		}
	}
	list, err = s.ListConversations(ctx)
	if err != nil {
		t.Fatalf("list conversations: %v", err)
	}
	if list[0].ID != first.ID {
		t.Fatalf("expected bumped conversation first, got %s", list[0].Title)
	}
	if !list[0].UpdatedAt.After(list[0].CreatedAt) {
		t.Fatalf("expected updatedAt to advance past createdAt")
	}

	// Retitle in place: same id, messages untouched.
	if err := s.UpdateConversationTitle(ctx, first.ID, "rinominata"); err != nil {
		t.Fatalf("update title: %v", err)
	}
	got, err := s.GetConversation(ctx, first.ID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if got.ID != first.ID || got.Title != "rinominata" {
		t.Fatalf("retitle changed identity: %+v", got)
	}
	messages, err = s.ListMessages(ctx, first.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != len(contents) {
		t.Fatalf("retitle lost message associations, got %d", len(messages))
	}

	// Not-found mapping.
	var notFound *apperr.NotFoundError
	if _, err := s.GetConversation(ctx, "missing"); !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError from get, got %v", err)
	}
	if err := s.UpdateConversationTitle(ctx, "missing", "x"); !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError from retitle, got %v", err)
	}

	// A message to a missing parent is stored and the bump skipped; no
	// conversation appears.
	if _, err := s.CreateMessage(ctx, "ghost", "orfano", true); err != nil {
		t.Fatalf("create message for missing parent: %v", err)
	}
	list, err = s.ListConversations(ctx)
	if err != nil {
		t.Fatalf("list conversations: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("message to missing parent must not create a conversation, got %d", len(list))
	}

	// Cascade delete, then idempotent repeats.
	if err := s.DeleteConversation(ctx, first.ID); err != nil {
		t.Fatalf("delete conversation: %v", err)
	}
	if _, err := s.GetConversation(ctx, first.ID); !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError after delete, got %v", err)
	}
	messages, err = s.ListMessages(ctx, first.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("expected no messages after cascade, got %d", len(messages))
	}
	if err := s.DeleteConversation(ctx, first.ID); err != nil {
		t.Fatalf("repeat delete should be a no-op, got %v", err)
	}
	if err := s.DeleteConversation(ctx, "missing"); err != nil {
		t.Fatalf("delete of unknown id should be a no-op, got %v", err)
	}
	list, err = s.ListConversations(ctx)
	if err != nil {
		t.Fatalf("list conversations: %v", err)
	}
	if len(list) != 1 || list[0].ID != second.ID {
		t.Fatalf("delete touched the other conversation: %+v", list)
	}
}
