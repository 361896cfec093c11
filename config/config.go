package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          int
	DBPath        string
	JWTSecret     string
	UploadDir     string
	ReadTimeout   int // seconds
	WriteTimeout  int // seconds
	AllowedOrigin string
	LogLevel      string
	ControlSocket string
}

func Load() *Config {
	// Optional .env next to the binary; real env vars win.
	_ = godotenv.Load()

	cfg := &Config{
		Port:          5000,
		DBPath:        "chitchat.db",
		JWTSecret:     "change-me-in-production",
		UploadDir:     "uploads",
		ReadTimeout:   120,
		WriteTimeout:  30,
		AllowedOrigin: "*",
		LogLevel:      "info",
		ControlSocket: "/tmp/chitchat.sock",
	}

	if portStr := os.Getenv("CHITCHAT_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			cfg.Port = port
		}
	}

	if dbPath := os.Getenv("CHITCHAT_DB_PATH"); dbPath != "" {
		cfg.DBPath = dbPath
	}

	if secret := os.Getenv("CHITCHAT_JWT_SECRET"); secret != "" {
		cfg.JWTSecret = secret
	}

	if dir := os.Getenv("CHITCHAT_UPLOAD_DIR"); dir != "" {
		cfg.UploadDir = dir
	}

	if timeoutStr := os.Getenv("CHITCHAT_READ_TIMEOUT"); timeoutStr != "" {
		if timeout, err := strconv.Atoi(timeoutStr); err == nil {
			cfg.ReadTimeout = timeout
		}
	}

	if timeoutStr := os.Getenv("CHITCHAT_WRITE_TIMEOUT"); timeoutStr != "" {
		if timeout, err := strconv.Atoi(timeoutStr); err == nil {
			cfg.WriteTimeout = timeout
		}
	}

	if origin := os.Getenv("CHITCHAT_ALLOWED_ORIGIN"); origin != "" {
		cfg.AllowedOrigin = origin
	}

	if level := os.Getenv("CHITCHAT_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	if sock := os.Getenv("CHITCHAT_CONTROL_SOCKET"); sock != "" {
		cfg.ControlSocket = sock
	}

	return cfg
}
