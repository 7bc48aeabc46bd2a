package websocket

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/marsha-ai/server/domain/repositories"
	"github.com/marsha-ai/server/usecase"
)

// fakeLLM replays one canned reply, appending the exchange to history.
type fakeLLM struct {
	reply string
	err   error
}

func (f *fakeLLM) Chat(ctx context.Context, systemPrompt string, history []repositories.ChatMessage, message string) (string, []repositories.ChatMessage, error) {
	if f.err != nil {
		return "", nil, f.err
	}
	newHistory := append(append([]repositories.ChatMessage{}, history...),
		repositories.ChatMessage{Role: repositories.UserRole, Content: message},
		repositories.ChatMessage{Role: repositories.AssistantRole, Content: f.reply},
	)
	return f.reply, newHistory, nil
}

// fakeTTS yields each sentence's bytes as two chunks; sentences listed in
// failOn produce a closed, empty stream like a failed synthesis.
type fakeTTS struct {
	failOn map[string]bool
	calls  []string
}

func (f *fakeTTS) Synthesize(ctx context.Context, text string) (<-chan []byte, error) {
	f.calls = append(f.calls, text)
	out := make(chan []byte, 2)
	if !f.failOn[text] {
		out <- []byte(text[:1])
		out <- []byte(text[1:])
	}
	close(out)
	return out, nil
}

func newTestCoordinator(t *testing.T, reply *usecase.ReplyService, tts repositories.TextToSpeech) (*TurnCoordinator, *[]interface{}) {
	t.Helper()
	var frames []interface{}
	coordinator := NewTurnCoordinator(
		func(v interface{}) bool {
			frames = append(frames, v)
			return true
		},
		usecase.NewRoastRenderer(rand.NewSource(7)),
		zap.NewNop(),
	)
	coordinator.SetCollaborators(reply, tts)
	return coordinator, &frames
}

func TestTurnCoordinator_SuccessfulTurnOrdering(t *testing.T) {
	reply := usecase.NewReplyService(&fakeLLM{reply: "Hi! How are you? I am fine."}, nil, zap.NewNop())
	tts := &fakeTTS{}
	coordinator, frames := newTestCoordinator(t, reply, tts)

	coordinator.runTurn(context.Background(), "hello marsha")

	if len(*frames) != 5 {
		t.Fatalf("frame count = %d, want 5 (final, assistant, 3 audio): %#v", len(*frames), *frames)
	}

	final, ok := (*frames)[0].(TranscriptFrame)
	if !ok || final.Type != "final" || final.Text != "hello marsha" {
		t.Errorf("frame 0 = %#v, want final transcript", (*frames)[0])
	}

	assistant, ok := (*frames)[1].(AssistantFrame)
	if !ok || assistant.Type != "assistant" || assistant.Text != "Hi! How are you? I am fine." {
		t.Errorf("frame 1 = %#v, want assistant text", (*frames)[1])
	}

	wantSentences := []string{"Hi!", "How are you?", "I am fine."}
	for i, sentence := range wantSentences {
		audio, ok := (*frames)[2+i].(AudioFrame)
		if !ok || audio.Type != "audio" {
			t.Fatalf("frame %d = %#v, want audio", 2+i, (*frames)[2+i])
		}
		decoded, err := base64.StdEncoding.DecodeString(audio.B64)
		if err != nil {
			t.Fatalf("audio frame %d not base64: %v", i, err)
		}
		if string(decoded) != sentence {
			t.Errorf("audio frame %d = %q, want %q", i, decoded, sentence)
		}
	}

	if !reflect.DeepEqual(tts.calls, wantSentences) {
		t.Errorf("synthesis calls = %#v, want %#v", tts.calls, wantSentences)
	}
}

func TestTurnCoordinator_HistoryReplacedOnSuccess(t *testing.T) {
	reply := usecase.NewReplyService(&fakeLLM{reply: "Nice to meet you!"}, nil, zap.NewNop())
	coordinator, _ := newTestCoordinator(t, reply, &fakeTTS{})

	coordinator.runTurn(context.Background(), "hello")
	history := coordinator.History()
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}

	coordinator.runTurn(context.Background(), "again")
	history = coordinator.History()
	if len(history) != 4 {
		t.Fatalf("history length after second turn = %d, want 4", len(history))
	}
	if history[2].Content != "again" {
		t.Errorf("second exchange not recorded: %+v", history)
	}
}

func TestTurnCoordinator_HistoryUnchangedOnModelFailure(t *testing.T) {
	reply := usecase.NewReplyService(&fakeLLM{err: fmt.Errorf("model down")}, nil, zap.NewNop())
	coordinator, frames := newTestCoordinator(t, reply, &fakeTTS{})

	coordinator.runTurn(context.Background(), "hello")

	if got := coordinator.History(); len(got) != 0 {
		t.Errorf("history = %+v, want unchanged empty history", got)
	}

	assistant, ok := (*frames)[1].(AssistantFrame)
	if !ok || assistant.Text == "" {
		t.Errorf("expected in-character fallback assistant frame, got %#v", (*frames)[1])
	}
}

func TestTurnCoordinator_RoastSkipsHistory(t *testing.T) {
	llm := &fakeLLM{reply: "should never be used"}
	reply := usecase.NewReplyService(llm, nil, zap.NewNop())
	coordinator, frames := newTestCoordinator(t, reply, &fakeTTS{})

	coordinator.runTurn(context.Background(), "roast me about my procrastination")

	if got := coordinator.History(); len(got) != 0 {
		t.Errorf("roast turn mutated history: %+v", got)
	}

	assistant, ok := (*frames)[1].(AssistantFrame)
	if !ok {
		t.Fatalf("frame 1 = %#v, want assistant", (*frames)[1])
	}
	if assistant.Text == "should never be used" || assistant.Text == "" {
		t.Errorf("roast turn did not render a canned roast: %q", assistant.Text)
	}
}

func TestTurnCoordinator_SkipsFailedSentences(t *testing.T) {
	reply := usecase.NewReplyService(&fakeLLM{reply: "One. Two. Three."}, nil, zap.NewNop())
	tts := &fakeTTS{failOn: map[string]bool{"Two.": true}}
	coordinator, frames := newTestCoordinator(t, reply, tts)

	coordinator.runTurn(context.Background(), "count for me")

	var audio []string
	for _, frame := range *frames {
		if f, ok := frame.(AudioFrame); ok {
			decoded, _ := base64.StdEncoding.DecodeString(f.B64)
			audio = append(audio, string(decoded))
		}
	}

	want := []string{"One.", "Three."}
	if !reflect.DeepEqual(audio, want) {
		t.Errorf("audio frames = %#v, want %#v", audio, want)
	}
}

func TestTurnCoordinator_NoCollaboratorsEmitsErrorText(t *testing.T) {
	coordinator, frames := newTestCoordinator(t, nil, nil)

	coordinator.runTurn(context.Background(), "hello")

	if len(*frames) != 2 {
		t.Fatalf("frame count = %d, want final + assistant only: %#v", len(*frames), *frames)
	}
	assistant, ok := (*frames)[1].(AssistantFrame)
	if !ok || assistant.Text != pipelineErrorText {
		t.Errorf("frame 1 = %#v, want pipeline error text", (*frames)[1])
	}
}

func TestTurnCoordinator_QueuedFinalsRunInOrder(t *testing.T) {
	reply := usecase.NewReplyService(&fakeLLM{reply: "Okay."}, nil, zap.NewNop())

	var frames []interface{}
	done := make(chan struct{}, 16)
	coordinator := NewTurnCoordinator(
		func(v interface{}) bool {
			frames = append(frames, v)
			done <- struct{}{}
			return true
		},
		usecase.NewRoastRenderer(rand.NewSource(7)),
		zap.NewNop(),
	)
	coordinator.SetCollaborators(reply, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go coordinator.Run(ctx)

	coordinator.EnqueueFinal("first")
	coordinator.EnqueueFinal("second")

	// Each turn emits final + assistant; wait for all four frames.
	for i := 0; i < 4; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for frame %d; got %#v", i, frames)
		}
	}
	cancel()

	if f := frames[0].(TranscriptFrame); f.Text != "first" {
		t.Errorf("first turn transcript = %q", f.Text)
	}
	if f := frames[2].(TranscriptFrame); f.Text != "second" {
		t.Errorf("second turn transcript = %q", f.Text)
	}
}
