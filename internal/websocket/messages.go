package websocket

import "encoding/base64"

// Inbound control frame types.
const messageTypeAPIKeys = "api_keys"

// APIKeysMessage updates the connection's collaborator credentials. Keys left
// empty fall back to the server's environment configuration.
type APIKeysMessage struct {
	Type       string `json:"type"`
	Gemini     string `json:"gemini"`
	AssemblyAI string `json:"assemblyai"`
	Murf       string `json:"murf"`
}

// Outbound frame types. Per turn the client sees exactly one final frame,
// exactly one assistant frame, then audio frames in sentence order. Partial
// frames are advisory and may arrive at any time between turns.
const (
	frameTypePartial   = "partial"
	frameTypeFinal     = "final"
	frameTypeAssistant = "assistant"
	frameTypeAudio     = "audio"
)

// TranscriptFrame carries partial or final transcript text.
type TranscriptFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// AssistantFrame carries the full reply text for a turn.
type AssistantFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// AudioFrame carries one sentence's synthesized audio, base64-encoded.
type AudioFrame struct {
	Type string `json:"type"`
	B64  string `json:"b64"`
}

func newPartialFrame(text string) TranscriptFrame {
	return TranscriptFrame{Type: frameTypePartial, Text: text}
}

func newFinalFrame(text string) TranscriptFrame {
	return TranscriptFrame{Type: frameTypeFinal, Text: text}
}

func newAssistantFrame(text string) AssistantFrame {
	return AssistantFrame{Type: frameTypeAssistant, Text: text}
}

func newAudioFrame(audio []byte) AudioFrame {
	return AudioFrame{Type: frameTypeAudio, B64: base64.StdEncoding.EncodeToString(audio)}
}
