package config

import (
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds server-level settings loaded from the environment. API keys
// found here act as fallbacks for connections that do not supply their own.
type Config struct {
	Port string

	GeminiAPIKey     string
	AssemblyAIAPIKey string
	MurfAPIKey       string
	NewsAPIKey       string
}

// Credentials is the per-connection key set. It is built once per api_keys
// control frame and passed explicitly into every collaborator; there is no
// process-wide mutable key state.
type Credentials struct {
	Gemini     string
	AssemblyAI string
	Murf       string
	News       string
}

// Load reads configuration from a .env file (if present) and the process
// environment.
func Load(logger *zap.Logger) *Config {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", zap.Error(err))
	}

	cfg := &Config{
		Port:             os.Getenv("PORT"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		AssemblyAIAPIKey: os.Getenv("ASSEMBLYAI_API_KEY"),
		MurfAPIKey:       os.Getenv("MURF_API_KEY"),
		NewsAPIKey:       os.Getenv("NEWS_API_KEY"),
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	if cfg.AssemblyAIAPIKey == "" {
		logger.Warn("ASSEMBLYAI_API_KEY not set, transcription needs a key from the client")
	}
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, replies need a key from the client")
	}
	if cfg.MurfAPIKey == "" {
		logger.Warn("MURF_API_KEY not set, speech synthesis needs a key from the client")
	}

	return cfg
}

// CredentialsWith merges keys supplied by the client with the environment
// fallbacks. An empty client key falls back to the server's key.
func (c *Config) CredentialsWith(gemini, assemblyAI, murf string) Credentials {
	creds := Credentials{
		Gemini:     gemini,
		AssemblyAI: assemblyAI,
		Murf:       murf,
		News:       c.NewsAPIKey,
	}
	if creds.Gemini == "" {
		creds.Gemini = c.GeminiAPIKey
	}
	if creds.AssemblyAI == "" {
		creds.AssemblyAI = c.AssemblyAIAPIKey
	}
	if creds.Murf == "" {
		creds.Murf = c.MurfAPIKey
	}
	return creds
}
