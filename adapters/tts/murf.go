package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/marsha-ai/server/domain/repositories"
)

const (
	defaultAPIBaseURL = "https://api.murf.ai/v1"
	defaultVoiceID    = "en-US-ariana"
	defaultStyle      = "Conversational"
	defaultFormat     = "WAV"
	defaultRate       = 49 // speaking rate offset, matches the persona's fast delivery
	defaultChunkSize  = 4096
	requestTimeout    = 60 * time.Second
)

// MurfConfig holds configuration for the Murf TTS adapter.
// Required fields:
// - APIKey: Murf API key
// Optional fields with defaults:
// - APIBaseURL: API base URL (default: "https://api.murf.ai/v1")
// - VoiceID: voice to synthesize with (default: "en-US-ariana")
// - Style: speaking style (default: "Conversational")
// - Format: audio container format (default: "WAV")
// - Rate: speaking rate offset from -50 to 50 (default: 49)
// - Pitch: pitch offset from -50 to 50 (default: 0)
// - ChunkSize: size of audio chunks to stream (default: 4096)
type MurfConfig struct {
	APIKey     string
	APIBaseURL string
	VoiceID    string
	Style      string
	Format     string
	Rate       int
	Pitch      int
	ChunkSize  int
}

// ValidateMurfConfig validates the MurfConfig
func ValidateMurfConfig(config MurfConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("murf API key is required")
	}

	if config.Rate < -50 || config.Rate > 50 {
		return fmt.Errorf("rate must be between -50 and 50, got %d", config.Rate)
	}

	if config.Pitch < -50 || config.Pitch > 50 {
		return fmt.Errorf("pitch must be between -50 and 50, got %d", config.Pitch)
	}

	if config.ChunkSize < 0 {
		return fmt.Errorf("chunk size must be positive, got %d", config.ChunkSize)
	}

	return nil
}

// MurfTTS implements TextToSpeech using Murf's streaming speech endpoint.
type MurfTTS struct {
	apiKey     string
	apiBaseURL string
	voiceID    string
	style      string
	format     string
	rate       int
	pitch      int
	chunkSize  int
	httpClient *http.Client
	logger     *zap.Logger
}

var _ repositories.TextToSpeech = (*MurfTTS)(nil)

// murfRequest is the payload for the streaming synthesis endpoint.
type murfRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId"`
	Style   string `json:"style,omitempty"`
	Format  string `json:"format,omitempty"`
	Rate    int    `json:"rate"`
	Pitch   int    `json:"pitch"`
}

// NewMurfTTS creates a new Murf TTS instance
func NewMurfTTS(config MurfConfig, logger *zap.Logger) (*MurfTTS, error) {
	if err := ValidateMurfConfig(config); err != nil {
		return nil, err
	}

	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}
	voiceID := config.VoiceID
	if voiceID == "" {
		voiceID = defaultVoiceID
	}
	style := config.Style
	if style == "" {
		style = defaultStyle
	}
	format := config.Format
	if format == "" {
		format = defaultFormat
	}
	chunkSize := config.ChunkSize
	if chunkSize == 0 {
		chunkSize = defaultChunkSize
	}

	return &MurfTTS{
		apiKey:     config.APIKey,
		apiBaseURL: apiBaseURL,
		voiceID:    voiceID,
		style:      style,
		format:     format,
		rate:       config.Rate,
		pitch:      config.Pitch,
		chunkSize:  chunkSize,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}, nil
}

// Synthesize converts text to speech, streaming audio chunks over the
// returned channel. The channel closes when the stream ends or fails; a
// failed stream simply yields fewer (possibly zero) chunks.
func (m *MurfTTS) Synthesize(ctx context.Context, text string) (<-chan []byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	request := murfRequest{
		Text:    text,
		VoiceID: m.voiceID,
		Style:   m.style,
		Format:  m.format,
		Rate:    m.rate,
		Pitch:   m.pitch,
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/speech/stream", m.apiBaseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", m.apiKey)

	audioChan := make(chan []byte, 10)

	go func() {
		defer close(audioChan)

		resp, err := m.httpClient.Do(httpReq)
		if err != nil {
			m.logger.Error("Failed to execute synthesis request", zap.Error(err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			errorBody, _ := io.ReadAll(resp.Body)
			m.logger.Error("Murf API returned error",
				zap.Int("statusCode", resp.StatusCode),
				zap.String("response", string(errorBody)))
			return
		}

		buffer := make([]byte, m.chunkSize)
		totalBytes := 0
		for {
			select {
			case <-ctx.Done():
				m.logger.Warn("Context cancelled while streaming audio")
				return
			default:
			}

			n, err := resp.Body.Read(buffer)
			if n > 0 {
				totalBytes += n
				chunk := make([]byte, n)
				copy(chunk, buffer[:n])

				select {
				case audioChan <- chunk:
				case <-ctx.Done():
					m.logger.Warn("Context cancelled while sending audio chunk")
					return
				}
			}
			if err == io.EOF {
				m.logger.Debug("Finished streaming audio",
					zap.Int("totalBytes", totalBytes),
					zap.String("text", text))
				return
			}
			if err != nil {
				m.logger.Error("Error reading synthesis response", zap.Error(err))
				return
			}
		}
	}()

	return audioChan, nil
}
