package websocket

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/marsha-ai/server/domain/repositories"
	"github.com/marsha-ai/server/usecase"
)

// pipelineErrorText is the in-character reply for a turn that failed before
// any text could be generated. No audio accompanies it.
const pipelineErrorText = "Oh honey, my brain's a bit fried. What were you saying?"

// finalQueueSize bounds final transcripts waiting for an in-flight turn to
// complete. Finals arriving mid-turn queue here and run strictly after it.
const finalQueueSize = 8

// TurnCoordinator runs the per-turn protocol for one connection: final
// transcript in, ordered final/assistant/audio frames out. Turns execute one
// at a time on the coordinator's own goroutine; EnqueueFinal is the
// thread-safe handoff from the transcription session's callback goroutine.
type TurnCoordinator struct {
	emit    func(v interface{}) bool
	roaster *usecase.RoastRenderer
	logger  *zap.Logger

	finals chan string

	mu      sync.Mutex
	reply   *usecase.ReplyService
	tts     repositories.TextToSpeech
	history []repositories.ChatMessage
}

// NewTurnCoordinator creates a coordinator emitting outbound frames through
// emit. Collaborators are attached later, when credentials arrive.
func NewTurnCoordinator(emit func(v interface{}) bool, roaster *usecase.RoastRenderer, logger *zap.Logger) *TurnCoordinator {
	return &TurnCoordinator{
		emit:    emit,
		roaster: roaster,
		logger:  logger,
		finals:  make(chan string, finalQueueSize),
	}
}

// SetCollaborators swaps the reply and synthesis collaborators, typically
// after a credential update. The in-flight turn keeps the collaborators it
// started with.
func (t *TurnCoordinator) SetCollaborators(reply *usecase.ReplyService, tts repositories.TextToSpeech) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reply = reply
	t.tts = tts
}

// History returns a snapshot of the conversation history.
func (t *TurnCoordinator) History() []repositories.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	history := make([]repositories.ChatMessage, len(t.history))
	copy(history, t.history)
	return history
}

// EnqueueFinal hands a final transcript over to the turn loop. Safe to call
// from any goroutine. When the queue is full the transcript is dropped with a
// warning rather than blocking the transcription session.
func (t *TurnCoordinator) EnqueueFinal(text string) {
	select {
	case t.finals <- text:
	default:
		t.logger.Warn("Turn queue full, dropping final transcript", zap.String("text", text))
	}
}

// Run consumes queued finals until ctx is cancelled, executing turns strictly
// in order.
func (t *TurnCoordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-t.finals:
			t.runTurn(ctx, text)
		}
	}
}

// runTurn executes the per-turn protocol for one final transcript.
func (t *TurnCoordinator) runTurn(ctx context.Context, text string) {
	t.emit(newFinalFrame(text))

	t.mu.Lock()
	reply := t.reply
	tts := t.tts
	history := t.history
	t.mu.Unlock()

	var replyText string
	aborted := false

	decision := usecase.ClassifyRoast(text)
	switch {
	case decision.IsRoast:
		// Roasts are a one-off side channel; history stays untouched.
		replyText = t.roaster.Render(decision)
		t.logger.Info("Roast detected",
			zap.String("roastType", string(decision.Type)),
			zap.String("category", decision.Category))
	case reply == nil:
		t.logger.Warn("No language model configured, cannot generate reply")
		replyText = pipelineErrorText
		aborted = true
	default:
		var newHistory []repositories.ChatMessage
		replyText, newHistory = reply.Generate(ctx, text, history)
		t.mu.Lock()
		t.history = newHistory
		t.mu.Unlock()
	}

	t.emit(newAssistantFrame(replyText))
	if aborted {
		return
	}

	if tts == nil {
		t.logger.Warn("No speech synthesis configured, reply sent as text only")
		return
	}

	for i, sentence := range usecase.Sentences(replyText) {
		if ctx.Err() != nil {
			return
		}

		audio, err := t.synthesize(ctx, tts, sentence)
		if err != nil || len(audio) == 0 {
			// One bad sentence must not silence the rest of the reply.
			t.logger.Warn("Skipping sentence audio",
				zap.Int("sentence", i),
				zap.Error(err))
			continue
		}
		t.emit(newAudioFrame(audio))
	}
}

// synthesize runs one sentence through the TTS collaborator and concatenates
// its streamed chunks into a single payload.
func (t *TurnCoordinator) synthesize(ctx context.Context, tts repositories.TextToSpeech, sentence string) ([]byte, error) {
	chunks, err := tts.Synthesize(ctx, sentence)
	if err != nil {
		return nil, err
	}

	var audio []byte
	for chunk := range chunks {
		audio = append(audio, chunk...)
	}
	return audio, nil
}
