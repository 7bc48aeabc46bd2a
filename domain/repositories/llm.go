package repositories

import "context"

// LargeLanguageModel abstracts any chat/LLM provider
type LargeLanguageModel interface {
	// Chat sends one user message with the given system prompt and prior
	// history, returning the reply text and the full updated history. The
	// provider owns the history representation; callers replace their copy
	// wholesale with the returned slice.
	Chat(ctx context.Context, systemPrompt string, history []ChatMessage, message string) (string, []ChatMessage, error)
}

// ChatMessage represents a single message in a conversation
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role defines the type of message sender
type Role string

const (
	UserRole      Role = "user"
	AssistantRole Role = "assistant"
)
