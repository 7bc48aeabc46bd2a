package repositories

import "context"

// SpeechToText abstracts streaming speech recognition services
type SpeechToText interface {
	// OpenStream establishes a streaming transcription session. Transcript
	// events are delivered on a provider-owned goroutine via handlers.
	OpenStream(ctx context.Context, config AudioConfig, handlers TranscriptHandlers) (SpeechToTextStreaming, error)
}

// AudioConfig represents audio configuration for speech recognition
type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
}

// TranscriptHandlers receives transcript events from a streaming session.
// Either handler may be nil.
type TranscriptHandlers struct {
	// OnPartial is called with interim hypotheses.
	OnPartial func(text string)
	// OnFinal is called exactly once per detected end of turn. formatted
	// reports whether the provider applied text formatting to the turn.
	OnFinal func(text string, formatted bool)
}

// SpeechToTextStreaming is one live transcription session.
type SpeechToTextStreaming interface {
	// Stream feeds raw audio to the session. It must not fail when the
	// session is not active; audio is silently dropped instead.
	Stream(data []byte) error
	// Close terminates the session and releases the upstream connection.
	// It is idempotent and valid in any state.
	Close() error
}
