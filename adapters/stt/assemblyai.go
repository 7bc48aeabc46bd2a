package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/marsha-ai/server/domain/repositories"
)

const (
	defaultBaseURL    = "wss://streaming.assemblyai.com/v3/ws"
	defaultSampleRate = 16000
	defaultEncoding   = "pcm_s16le"

	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second

	// audioQueueSize bounds buffered audio between the client connection and
	// the upstream writer. Chunks are dropped, not blocked on, when full.
	audioQueueSize = 256
)

// AssemblyAIConfig holds configuration for the streaming transcriber.
// Required fields:
// - APIKey: AssemblyAI API key
// Optional fields with defaults:
// - BaseURL: streaming endpoint (default: "wss://streaming.assemblyai.com/v3/ws")
type AssemblyAIConfig struct {
	APIKey  string
	BaseURL string
}

// AssemblyAISpeechToText implements SpeechToText using AssemblyAI's
// Universal-Streaming WebSocket API.
type AssemblyAISpeechToText struct {
	config AssemblyAIConfig
	logger *zap.Logger
}

var _ repositories.SpeechToText = (*AssemblyAISpeechToText)(nil)

// NewAssemblyAISpeechToText creates a streaming transcriber factory.
func NewAssemblyAISpeechToText(config AssemblyAIConfig, logger *zap.Logger) (*AssemblyAISpeechToText, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("AssemblyAI API key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	return &AssemblyAISpeechToText{config: config, logger: logger}, nil
}

// sessionState tracks the lifecycle of one streaming session.
type sessionState int

const (
	stateConnecting sessionState = iota
	stateActive
	stateClosed
)

// Upstream message shapes, per the Universal-Streaming v3 protocol.
type beginMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	ExpiresAt int64  `json:"expires_at"`
}

type turnMessage struct {
	Type          string `json:"type"`
	Transcript    string `json:"transcript"`
	EndOfTurn     bool   `json:"end_of_turn"`
	TurnFormatted bool   `json:"turn_is_formatted"`
}

type terminationMessage struct {
	Type                   string  `json:"type"`
	AudioDurationSeconds   float64 `json:"audio_duration_seconds"`
	SessionDurationSeconds float64 `json:"session_duration_seconds"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type updateConfigurationMessage struct {
	Type        string `json:"type"`
	FormatTurns bool   `json:"format_turns"`
}

// AssemblyAIStream is one live transcription session.
type AssemblyAIStream struct {
	conn     *websocket.Conn
	logger   *zap.Logger
	handlers repositories.TranscriptHandlers

	audio chan []byte
	stop  chan struct{}

	mu             sync.Mutex
	state          sessionState
	formatUpgraded bool

	// writeMu serializes all writes to conn; gorilla allows one writer at a
	// time and the send pump, the receive loop's format upgrade and Close all
	// write from their own goroutines.
	writeMu sync.Mutex

	stopOnce  sync.Once
	closeOnce sync.Once
}

var _ repositories.SpeechToTextStreaming = (*AssemblyAIStream)(nil)

// OpenStream dials the streaming endpoint and starts the session. Transcript
// events are delivered on the session's receive goroutine.
func (a *AssemblyAISpeechToText) OpenStream(ctx context.Context, config repositories.AudioConfig, handlers repositories.TranscriptHandlers) (repositories.SpeechToTextStreaming, error) {
	sampleRate := config.SampleRate
	if sampleRate == 0 {
		sampleRate = defaultSampleRate
	}
	encoding := config.Encoding
	if encoding == "" {
		encoding = defaultEncoding
	}

	params := url.Values{}
	params.Set("sample_rate", strconv.Itoa(sampleRate))
	params.Set("encoding", encoding)
	params.Set("format_turns", "false")

	wsURL := fmt.Sprintf("%s?%s", a.config.BaseURL, params.Encode())
	headers := map[string][]string{
		"Authorization": {a.config.APIKey},
	}

	stream := &AssemblyAIStream{
		logger:   a.logger,
		handlers: handlers,
		audio:    make(chan []byte, audioQueueSize),
		stop:     make(chan struct{}),
		state:    stateConnecting,
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		stream.state = stateClosed
		if resp != nil {
			a.logger.Error("AssemblyAI connection rejected", zap.Int("status", resp.StatusCode))
		}
		return nil, fmt.Errorf("failed to connect to AssemblyAI: %w", err)
	}

	stream.conn = conn
	stream.state = stateActive

	go stream.receiveLoop()
	go stream.sendLoop()

	a.logger.Info("AssemblyAI streaming session opened",
		zap.Int("sampleRate", sampleRate),
		zap.String("encoding", encoding))

	return stream, nil
}

// Stream queues an audio chunk for the session. Outside the Active state the
// chunk is dropped silently; feeding a closed session is never an error.
func (s *AssemblyAIStream) Stream(data []byte) error {
	s.mu.Lock()
	active := s.state == stateActive
	s.mu.Unlock()
	if !active {
		return nil
	}

	select {
	case s.audio <- data:
	default:
		s.logger.Warn("Audio queue full, dropping chunk", zap.Int("size", len(data)))
	}
	return nil
}

// Close terminates the session and releases the upstream connection. Safe to
// call from any state, any number of times.
func (s *AssemblyAIStream) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		wasActive := s.state == stateActive
		s.mu.Unlock()

		s.markClosed()
		if s.conn != nil {
			if wasActive {
				if err := s.writeJSON(map[string]string{"type": "Terminate"}); err != nil {
					s.logger.Debug("Failed to send terminate message", zap.Error(err))
				}
			}
			s.conn.Close()
		}
		s.logger.Info("AssemblyAI streaming session closed")
	})
	return nil
}

// writeJSON and writeBinary are the only paths to the connection's write side.
func (s *AssemblyAIStream) writeJSON(v interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(v)
}

func (s *AssemblyAIStream) writeBinary(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteMessage(websocket.BinaryMessage, data)
}

// sendLoop forwards queued audio chunks upstream.
func (s *AssemblyAIStream) sendLoop() {
	for {
		select {
		case <-s.stop:
			return
		case data := <-s.audio:
			if err := s.writeBinary(data); err != nil {
				s.logger.Error("Failed to send audio chunk", zap.Error(err))
				return
			}
		}
	}
}

// receiveLoop processes transcript events until the session ends.
func (s *AssemblyAIStream) receiveLoop() {
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.stop:
			default:
				s.logger.Warn("AssemblyAI connection lost", zap.Error(err))
				s.markClosed()
			}
			return
		}

		if done := s.processEvent(raw); done {
			return
		}
	}
}

// processEvent dispatches one upstream message. It reports true when the
// session has terminated.
func (s *AssemblyAIStream) processEvent(raw []byte) bool {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		s.logger.Error("Failed to parse AssemblyAI message", zap.Error(err))
		return false
	}

	switch envelope.Type {
	case "Begin":
		var msg beginMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.logger.Error("Failed to parse Begin message", zap.Error(err))
			return false
		}
		s.logger.Info("AssemblyAI session began",
			zap.String("sessionID", msg.ID),
			zap.Time("expiresAt", time.Unix(msg.ExpiresAt, 0)))
	case "Turn":
		var msg turnMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.logger.Error("Failed to parse Turn message", zap.Error(err))
			return false
		}
		s.handleTurn(msg)
	case "Termination":
		var msg terminationMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.logger.Error("Failed to parse Termination message", zap.Error(err))
			return false
		}
		s.logger.Info("AssemblyAI session terminated",
			zap.Float64("audioSeconds", msg.AudioDurationSeconds),
			zap.Float64("sessionSeconds", msg.SessionDurationSeconds))
		s.markClosed()
		return true
	case "Error":
		var msg errorMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.logger.Error("Failed to parse Error message", zap.Error(err))
			return false
		}
		s.logger.Error("AssemblyAI error", zap.String("error", msg.Error))
	default:
		s.logger.Warn("Unknown AssemblyAI message type", zap.String("type", envelope.Type))
	}
	return false
}

func (s *AssemblyAIStream) handleTurn(msg turnMessage) {
	text := strings.TrimSpace(msg.Transcript)
	if text == "" {
		return
	}

	if !msg.EndOfTurn {
		if s.handlers.OnPartial != nil {
			s.handlers.OnPartial(text)
		}
		return
	}

	if s.handlers.OnFinal != nil {
		s.handlers.OnFinal(text, msg.TurnFormatted)
	}

	// First unformatted final upgrades the session to formatted turns. The
	// upgrade happens once; later turns arrive already formatted.
	if !msg.TurnFormatted {
		s.mu.Lock()
		upgrade := !s.formatUpgraded && s.state == stateActive
		s.formatUpgraded = true
		s.mu.Unlock()

		if upgrade {
			if err := s.writeJSON(updateConfigurationMessage{Type: "UpdateConfiguration", FormatTurns: true}); err != nil {
				s.logger.Warn("Failed to request formatted turns", zap.Error(err))
			}
		}
	}
}

// markClosed ends the session: audio stops being accepted and the send pump
// is released. Reached from Close, a Termination message or a lost connection.
func (s *AssemblyAIStream) markClosed() {
	s.mu.Lock()
	s.state = stateClosed
	s.mu.Unlock()
	s.stopOnce.Do(func() { close(s.stop) })
}
