package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/marsha-ai/server/adapters/llm"
	"github.com/marsha-ai/server/adapters/news"
	"github.com/marsha-ai/server/adapters/stt"
	"github.com/marsha-ai/server/adapters/tts"
	"github.com/marsha-ai/server/config"
	"github.com/marsha-ai/server/domain/repositories"
	"github.com/marsha-ai/server/internal/api"
	"github.com/marsha-ai/server/internal/websocket"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load(logger)

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Collaborator factories: one instance per connection, built from that
	// connection's credential set.
	collaborators := websocket.Collaborators{
		SpeechToText: func(creds config.Credentials) (repositories.SpeechToText, error) {
			return stt.NewAssemblyAISpeechToText(stt.AssemblyAIConfig{APIKey: creds.AssemblyAI}, logger)
		},
		Language: func(ctx context.Context, creds config.Credentials) (repositories.LargeLanguageModel, error) {
			return llm.NewGeminiLLM(ctx, llm.GeminiConfig{APIKey: creds.Gemini}, logger)
		},
		TextToSpeech: func(creds config.Credentials) (repositories.TextToSpeech, error) {
			return tts.NewMurfTTS(tts.MurfConfig{APIKey: creds.Murf}, logger)
		},
		News: func(creds config.Credentials) (repositories.NewsProvider, error) {
			return news.NewNewsAPIClient(news.NewsAPIConfig{APIKey: creds.News}, logger)
		},
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub(cfg, collaborators, logger)
	go hub.Run()

	// Initialize API routes
	api.InitRoutes(e, hub, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
