package usecase

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/marsha-ai/server/domain/repositories"
)

// fakeLLM replays a canned reply or error and records the prompt it saw.
type fakeLLM struct {
	reply      string
	err        error
	lastPrompt string
	lastSystem string
}

func (f *fakeLLM) Chat(ctx context.Context, systemPrompt string, history []repositories.ChatMessage, message string) (string, []repositories.ChatMessage, error) {
	f.lastSystem = systemPrompt
	f.lastPrompt = message
	if f.err != nil {
		return "", nil, f.err
	}
	newHistory := append(append([]repositories.ChatMessage{}, history...),
		repositories.ChatMessage{Role: repositories.UserRole, Content: message},
		repositories.ChatMessage{Role: repositories.AssistantRole, Content: f.reply},
	)
	return f.reply, newHistory, nil
}

func TestReplyService_Generate(t *testing.T) {
	model := &fakeLLM{reply: "Oh, I love questions!"}
	service := NewReplyService(model, nil, zap.NewNop())

	history := []repositories.ChatMessage{
		{Role: repositories.UserRole, Content: "hello"},
		{Role: repositories.AssistantRole, Content: "hi!"},
	}

	reply, newHistory := service.Generate(context.Background(), "how are you", history)

	if reply != "Oh, I love questions!" {
		t.Errorf("reply = %q", reply)
	}
	if len(newHistory) != 4 {
		t.Fatalf("history length = %d, want 4", len(newHistory))
	}
	if newHistory[2].Content != "how are you" || newHistory[3].Content != reply {
		t.Errorf("history missing this turn's exchange: %+v", newHistory)
	}
	if model.lastSystem == "" || !strings.Contains(model.lastSystem, "Masha") {
		t.Errorf("system prompt not passed through: %q", model.lastSystem)
	}
}

func TestReplyService_FallbackKeepsHistory(t *testing.T) {
	model := &fakeLLM{err: fmt.Errorf("model exploded")}
	service := NewReplyService(model, nil, zap.NewNop())

	history := []repositories.ChatMessage{
		{Role: repositories.UserRole, Content: "hello"},
	}

	reply, newHistory := service.Generate(context.Background(), "how are you", history)

	if reply != replyFallback {
		t.Errorf("reply = %q, want fallback", reply)
	}
	if !reflect.DeepEqual(newHistory, history) {
		t.Errorf("history changed on failure: %+v", newHistory)
	}
}

func TestReplyService_AugmentsNewsQueries(t *testing.T) {
	provider := &fakeNewsProvider{
		headlines: []repositories.Article{{Title: "Chips get faster", Source: "Wire", Description: "Much faster."}},
	}
	model := &fakeLLM{reply: "Guess what I heard!"}
	service := NewReplyService(model, NewNewsAugmenter(provider, zap.NewNop()), zap.NewNop())

	service.Generate(context.Background(), "what's the latest tech news", nil)

	if !strings.Contains(model.lastPrompt, "Chips get faster") {
		t.Errorf("prompt not augmented with news context: %q", model.lastPrompt)
	}
	if !strings.Contains(model.lastPrompt, "what's the latest tech news") {
		t.Errorf("prompt lost the original query: %q", model.lastPrompt)
	}
}

func TestReplyService_SkipsAugmentationForPlainQueries(t *testing.T) {
	provider := &fakeNewsProvider{}
	model := &fakeLLM{reply: "Sure!"}
	service := NewReplyService(model, NewNewsAugmenter(provider, zap.NewNop()), zap.NewNop())

	query := "can you count to three"
	service.Generate(context.Background(), query, nil)

	if provider.headlineHits != 0 || provider.searchHits != 0 {
		t.Errorf("news provider consulted for a non-news query")
	}
	if model.lastPrompt != query {
		t.Errorf("prompt = %q, want untouched query", model.lastPrompt)
	}
}
