package websocket

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/marsha-ai/server/config"
	"github.com/marsha-ai/server/domain/repositories"
	"github.com/marsha-ai/server/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Collaborators builds per-connection collaborator instances from a
// connection's credential set. Injected so tests can supply fakes.
type Collaborators struct {
	SpeechToText func(creds config.Credentials) (repositories.SpeechToText, error)
	Language     func(ctx context.Context, creds config.Credentials) (repositories.LargeLanguageModel, error)
	TextToSpeech func(creds config.Credentials) (repositories.TextToSpeech, error)
	News         func(creds config.Credentials) (repositories.NewsProvider, error)
}

// Hub maintains the set of active clients.
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	config        *config.Config
	collaborators Collaborators

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(cfg *config.Config, collaborators Collaborators, logger *zap.Logger) *Hub {
	return &Hub{
		clients:       make(map[string]*Client),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		config:        cfg,
		collaborators: collaborators,
		logger:        logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.connID] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("connID", client.connID))

		case client := <-h.unregister:
			h.mu.Lock()
			delete(h.clients, client.connID)
			h.mu.Unlock()
			// send is never closed: the turn goroutine may still be emitting.
			// writePump exits on the client's context instead.
			h.logger.Info("Client unregistered", zap.String("connID", client.connID))
		}
	}
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client owns one connection's session: its credentials, its transcription
// stream and its turn coordinator.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	// Connection identity for this client
	connID string

	// Logger
	logger *zap.Logger

	// Cancelled when the connection goes away; stops the turn loop and any
	// outstanding collaborator calls.
	ctx    context.Context
	cancel context.CancelFunc

	turns *TurnCoordinator

	mu        sync.Mutex
	creds     config.Credentials
	sttStream repositories.SpeechToTextStreaming
}

// HandleWebSocket handles websocket requests from the peer.
func HandleWebSocket(hub *Hub, c echo.Context, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())

	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan WriteData, 256),
		connID: uuid.NewString(),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	client.turns = NewTurnCoordinator(
		client.enqueueJSON,
		usecase.NewRoastRenderer(rand.NewSource(time.Now().UnixNano())),
		logger,
	)

	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()
	go client.turns.Run(ctx)

	return nil
}

// readPump pumps messages from the websocket connection into the session.
func (c *Client) readPump() {
	defer func() {
		c.cancel()
		c.releaseTranscription()
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			// Control messages (credential updates)
			c.processControlMessage(message)
		case websocket.BinaryMessage:
			// Raw audio frames for the transcription session
			c.processAudioChunk(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the session to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// enqueueJSON marshals v and queues it as an outbound text frame. It reports
// false when the frame had to be dropped.
func (c *Client) enqueueJSON(v interface{}) bool {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("Failed to marshal outbound frame", zap.Error(err))
		return false
	}

	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
		return true
	case <-c.ctx.Done():
		return false
	}
}

// processControlMessage demultiplexes inbound JSON control frames. Malformed
// frames are logged and ignored; they never tear the connection down.
func (c *Client) processControlMessage(message []byte) {
	var msg APIKeysMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Error("Failed to parse control message", zap.Error(err))
		return
	}

	switch msg.Type {
	case messageTypeAPIKeys:
		c.logger.Info("Received API keys, reconfiguring session")
		c.configure(msg)
	default:
		c.logger.Warn("Unknown control message type", zap.String("type", msg.Type))
	}
}

// processAudioChunk forwards a binary audio frame to the active transcription
// session, dropping it when none is active.
func (c *Client) processAudioChunk(data []byte) {
	c.mu.Lock()
	stream := c.sttStream
	c.mu.Unlock()

	if stream == nil {
		c.logger.Debug("Dropping audio chunk, no active transcription session",
			zap.Int("size", len(data)))
		return
	}

	if err := stream.Stream(data); err != nil {
		c.logger.Error("Failed to stream audio chunk", zap.Error(err))
	}
}

// configure applies a credential update: collaborators are rebuilt and the
// transcription session is recreated, closing the previous one first.
func (c *Client) configure(msg APIKeysMessage) {
	creds := c.hub.config.CredentialsWith(msg.Gemini, msg.AssemblyAI, msg.Murf)

	c.releaseTranscription()

	c.mu.Lock()
	c.creds = creds
	c.mu.Unlock()

	c.turns.SetCollaborators(c.buildReplyService(creds), c.buildTextToSpeech(creds))
	c.openTranscription(creds)
}

func (c *Client) buildReplyService(creds config.Credentials) *usecase.ReplyService {
	if creds.Gemini == "" {
		c.logger.Warn("No Gemini API key available, replies disabled")
		return nil
	}

	llm, err := c.hub.collaborators.Language(c.ctx, creds)
	if err != nil {
		c.logger.Error("Failed to create language model", zap.Error(err))
		return nil
	}

	var augmenter *usecase.NewsAugmenter
	if creds.News != "" {
		provider, err := c.hub.collaborators.News(creds)
		if err != nil {
			c.logger.Warn("Failed to create news provider, continuing without news", zap.Error(err))
		} else {
			augmenter = usecase.NewNewsAugmenter(provider, c.logger)
		}
	}

	return usecase.NewReplyService(llm, augmenter, c.logger)
}

func (c *Client) buildTextToSpeech(creds config.Credentials) repositories.TextToSpeech {
	if creds.Murf == "" {
		c.logger.Warn("No Murf API key available, speech synthesis disabled")
		return nil
	}

	tts, err := c.hub.collaborators.TextToSpeech(creds)
	if err != nil {
		c.logger.Error("Failed to create speech synthesizer", zap.Error(err))
		return nil
	}
	return tts
}

// openTranscription starts a new streaming transcription session wired into
// the turn coordinator.
func (c *Client) openTranscription(creds config.Credentials) {
	if creds.AssemblyAI == "" {
		c.logger.Warn("No AssemblyAI API key available, transcription disabled")
		return
	}

	stt, err := c.hub.collaborators.SpeechToText(creds)
	if err != nil {
		c.logger.Error("Failed to create transcriber", zap.Error(err))
		return
	}

	handlers := repositories.TranscriptHandlers{
		OnPartial: func(text string) {
			c.enqueueJSON(newPartialFrame(text))
		},
		OnFinal: func(text string, formatted bool) {
			c.logger.Info("Final transcript received",
				zap.String("text", text),
				zap.Bool("formatted", formatted))
			c.turns.EnqueueFinal(text)
		},
	}

	audioConfig := repositories.AudioConfig{
		SampleRate: 16000,
		Encoding:   "pcm_s16le",
	}

	stream, err := stt.OpenStream(c.ctx, audioConfig, handlers)
	if err != nil {
		c.logger.Error("Failed to open transcription session", zap.Error(err))
		return
	}

	c.mu.Lock()
	c.sttStream = stream
	c.mu.Unlock()

	c.logger.Info("Transcription session started", zap.String("connID", c.connID))
}

// releaseTranscription closes the active transcription session, if any. Safe
// to call on every exit path.
func (c *Client) releaseTranscription() {
	c.mu.Lock()
	stream := c.sttStream
	c.sttStream = nil
	c.mu.Unlock()

	if stream != nil {
		if err := stream.Close(); err != nil {
			c.logger.Warn("Failed to close transcription session", zap.Error(err))
		}
	}
}
