package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"simonchat/internal/apperr"
	"simonchat/internal/models"
)

// fakeChatModel records what it was asked and answers with a fixed reply.
type fakeChatModel struct {
	lastMessages []*schema.Message
	reply        string
	err          error
}

func (m *fakeChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.lastMessages = in
	if m.err != nil {
		return nil, m.err
	}
	return &schema.Message{Role: schema.Assistant, Content: m.reply}, nil
}

func (m *fakeChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported in tests")
}

func (m *fakeChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

func TestGenerateReplyPrependsPersona(t *testing.T) {
	fake := &fakeChatModel{reply: "Ciao! Che bello sentirti."}
	gw := &ModelGateway{chatModel: fake}

	history := []Turn{
		{Role: models.RoleUser, Content: "Ciao"},
		{Role: models.RoleAssistant, Content: "Ciao! Come stai?"},
		{Role: models.RoleUser, Content: "Bene, e tu?"},
	}
	reply, err := gw.GenerateReply(context.Background(), history)
	if err != nil {
		t.Fatalf("generate reply: %v", err)
	}
	if reply != fake.reply {
		t.Fatalf("unexpected reply: %q", reply)
	}

	if len(fake.lastMessages) != len(history)+1 {
		t.Fatalf("expected persona plus %d turns, got %d messages", len(history), len(fake.lastMessages))
	}
	if fake.lastMessages[0].Role != schema.System || fake.lastMessages[0].Content != personaPrompt {
		t.Fatalf("first message must be the persona system prompt")
	}
	if fake.lastMessages[1].Role != schema.User || fake.lastMessages[2].Role != schema.Assistant {
		t.Fatalf("history roles mapped incorrectly")
	}
}

func TestGenerateReplyEmptyCompletionFallsBack(t *testing.T) {
	gw := &ModelGateway{chatModel: &fakeChatModel{reply: ""}}
	reply, err := gw.GenerateReply(context.Background(), []Turn{{Role: models.RoleUser, Content: "Ciao"}})
	if err != nil {
		t.Fatalf("generate reply: %v", err)
	}
	if reply != ReplyFallback {
		t.Fatalf("expected fallback reply, got %q", reply)
	}
}

func TestGenerateReplyProviderFailure(t *testing.T) {
	providerErr := errors.New("quota exceeded")
	gw := &ModelGateway{chatModel: &fakeChatModel{err: providerErr}}

	_, err := gw.GenerateReply(context.Background(), []Turn{{Role: models.RoleUser, Content: "Ciao"}})
	var generationErr *apperr.GenerationError
	if !errors.As(err, &generationErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if generationErr.Message != GenerationFailureMessage {
		t.Fatalf("unexpected user-facing message: %q", generationErr.Message)
	}
	if !errors.Is(err, providerErr) {
		t.Fatalf("provider error not wrapped")
	}
}

func TestGenerateTitle(t *testing.T) {
	fake := &fakeChatModel{reply: "  Saluti mattutini  "}
	gw := &ModelGateway{chatModel: fake}

	if got := gw.GenerateTitle(context.Background(), "Buongiorno!"); got != "Saluti mattutini" {
		t.Fatalf("expected trimmed title, got %q", got)
	}
	if fake.lastMessages[0].Content != titlePrompt {
		t.Fatalf("title call must use the title instruction")
	}

	gw = &ModelGateway{chatModel: &fakeChatModel{err: errors.New("provider down")}}
	if got := gw.GenerateTitle(context.Background(), "Ciao"); got != models.DefaultTitle {
		t.Fatalf("failure must fall back to the default title, got %q", got)
	}

	gw = &ModelGateway{chatModel: &fakeChatModel{reply: "   "}}
	if got := gw.GenerateTitle(context.Background(), "Ciao"); got != models.DefaultTitle {
		t.Fatalf("blank completion must fall back to the default title, got %q", got)
	}
}
