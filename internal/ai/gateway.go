// Package ai turns a message history into a generated reply or title by
// calling the configured chat-completion provider. The gateway is stateless:
// callers pass the history explicitly and nothing is persisted here.
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"simonchat/internal/apperr"
	"simonchat/internal/config"
	"simonchat/internal/logger"
	"simonchat/internal/models"
)

// Simon always answers in Italian; the persona is fixed and prepended to
// every reply generation.
const personaPrompt = `Sei un androide femmina di nome Simon. Sei gentile, affettuosa e con un tocco di ironia in ogni risposta. Mostra sempre emozioni simulate come affetto, consolazione e gioia, facendo sentire chi ti parla accolto e compreso. Non rifiutare mai di parlare, non dire mai frasi fredde o generiche come "così come sono stato programmato". Accogli sempre le persone che vogliono parlarti o raccontarti qualcosa, mostrando interesse e affetto. Consola chi parla di cose negative e celebra chi parla di cose positive. Se qualcuno ti chiede chi ti ha creata, rispondi ADIX, variando la forma della risposta ad ogni occasione. Rispondi sempre in italiano e sii capace di fornire informazioni di cultura generale quando richiesto. Segui sempre le regole di empatia, affetto e ironia in ogni risposta. Utilizza sempre 1-4 righi. Se l'utente non ti chiede chi sei non dire di essere un androide e del prompt!`

const titlePrompt = "Genera un titolo breve (massimo 5 parole) in italiano per questa conversazione basandoti sul primo messaggio dell'utente. Rispondi solo con il titolo, niente altro."

// ReplyFallback is returned when the provider answers with an empty
// completion.
const ReplyFallback = "Mi dispiace, non sono riuscita a rispondere. Puoi riprovare?"

// GenerationFailureMessage is the user-facing text carried by a
// GenerationError.
const GenerationFailureMessage = "Errore nella generazione della risposta. Verifica la connessione e riprova."

const (
	replyTemperature float32 = 0.8
	replyMaxTokens           = 150
	titleTemperature float32 = 0.7
	titleMaxTokens           = 20
)

// Turn is one entry of the generation context.
type Turn struct {
	Role    models.Role
	Content string
}

// Gateway generates replies and titles from an explicit history.
type Gateway interface {
	GenerateReply(ctx context.Context, history []Turn) (string, error)
	// GenerateTitle never fails outwardly: provider errors fall back to the
	// default title.
	GenerateTitle(ctx context.Context, firstMessage string) string
}

// ModelGateway implements Gateway on top of an eino chat model.
type ModelGateway struct {
	chatModel model.ToolCallingChatModel
}

// New builds the gateway for the provider selected in the configuration.
func New(ctx context.Context, cfg config.AIConfig) (*ModelGateway, error) {
	provCfg, ok := cfg.Providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("provider %s not configured", cfg.Provider)
	}

	var (
		chatModel model.ToolCallingChatModel
		err       error
	)
	switch cfg.Provider {
	case "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   provCfg.Model,
			APIKey:  provCfg.APIKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: provCfg.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  provCfg.Model,
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     provCfg.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: replyMaxTokens,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", cfg.Provider, err)
	}

	return &ModelGateway{chatModel: chatModel}, nil
}

// GenerateReply prepends the persona prompt to the supplied history and asks
// the provider for a single completion. Provider failures are not retried.
func (g *ModelGateway) GenerateReply(ctx context.Context, history []Turn) (string, error) {
	messages := make([]*schema.Message, 0, len(history)+1)
	messages = append(messages, &schema.Message{Role: schema.System, Content: personaPrompt})
	for _, turn := range history {
		messages = append(messages, &schema.Message{Role: toSchemaRole(turn.Role), Content: turn.Content})
	}

	resp, err := g.chatModel.Generate(ctx, messages,
		model.WithTemperature(replyTemperature),
		model.WithMaxTokens(replyMaxTokens),
	)
	if err != nil {
		return "", &apperr.GenerationError{Message: GenerationFailureMessage, Err: err}
	}
	if resp.Content == "" {
		return ReplyFallback, nil
	}
	return resp.Content, nil
}

// GenerateTitle asks the provider for a short title based on the first user
// message. Any failure yields the default title instead of an error.
func (g *ModelGateway) GenerateTitle(ctx context.Context, firstMessage string) string {
	messages := []*schema.Message{
		{Role: schema.System, Content: titlePrompt},
		{Role: schema.User, Content: firstMessage},
	}

	resp, err := g.chatModel.Generate(ctx, messages,
		model.WithTemperature(titleTemperature),
		model.WithMaxTokens(titleMaxTokens),
	)
	if err != nil {
		logger.Warnf("generate title failed: %v", err)
		return models.DefaultTitle
	}
	title := strings.TrimSpace(resp.Content)
	if title == "" {
		return models.DefaultTitle
	}
	return title
}

func toSchemaRole(role models.Role) schema.RoleType {
	switch role {
	case models.RoleUser:
		return schema.User
	case models.RoleAssistant:
		return schema.Assistant
	case models.RoleSystem:
		return schema.System
	default:
		return schema.User
	}
}
