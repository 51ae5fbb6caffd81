package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerURL  string
	Room       string
	Username   string
	TokenStore string
	StateDir   string
	TypingTTL  time.Duration
}

func Load() *Config {
	log.Println("[CONFIG] Attempting to load .env file...")

	err := godotenv.Load()
	if err != nil {
		log.Println("[CONFIG] No .env file found, relying on system environment variables")
	} else {
		log.Println("[CONFIG] Successfully loaded .env file")
	}

	cfg := &Config{
		ServerURL:  getEnv("SERVER_URL", "http://localhost:9090"),
		Room:       getEnv("ROOM", ""),
		Username:   getEnv("USERNAME", ""),
		TokenStore: getEnv("TOKEN_STORE", "file"),
		StateDir:   getEnv("STATE_DIR", defaultStateDir()),
		TypingTTL:  time.Duration(getEnvInt("TYPING_TTL_SECONDS", 10)) * time.Second,
	}

	log.Printf("[CONFIG] Server URL: %s", cfg.ServerURL)
	log.Printf("[CONFIG] Token store: %s (state dir %s)", cfg.TokenStore, cfg.StateDir)

	if cfg.TokenStore != "file" && cfg.TokenStore != "sqlite" {
		log.Fatalf("[CONFIG] CRITICAL: TOKEN_STORE must be 'file' or 'sqlite', got %q", cfg.TokenStore)
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("[CONFIG] Variable %s is not a number, using default: %d", key, defaultValue)
		return defaultValue
	}
	return n
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chatsync"
	}
	return filepath.Join(home, ".chatsync")
}
