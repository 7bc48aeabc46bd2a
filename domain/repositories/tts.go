package repositories

import "context"

type TextToSpeech interface {
	// Synthesize converts text to speech, streaming audio over the returned
	// channel. The channel is closed when synthesis completes or fails.
	Synthesize(ctx context.Context, text string) (<-chan []byte, error)
}
