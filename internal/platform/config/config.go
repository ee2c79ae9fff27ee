package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

type HTTPConfig struct {
	Addr string
}

// CommentsConfig carries the comment-subsystem knobs. DefaultStatus is the
// status assigned to freshly created comments: "pending" (hold for moderation)
// or "approved" (auto-approve). It is read once at startup and passed to the
// service explicitly, never consulted as ambient global state afterwards.
type CommentsConfig struct {
	DefaultStatus string
	MaxLength     int
}

type AppConfig struct {
	ServiceName string
	LogLevel    string
	HTTP        HTTPConfig
	Comments    CommentsConfig
}

func Load() (AppConfig, error) {
	cfg := AppConfig{
		ServiceName: strings.TrimSpace(os.Getenv("SERVICE_NAME")),
		LogLevel:    strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		HTTP: HTTPConfig{
			Addr: strings.TrimSpace(os.Getenv("HTTP_ADDR")),
		},
		Comments: CommentsConfig{
			DefaultStatus: strings.ToLower(strings.TrimSpace(os.Getenv("COMMENT_DEFAULT_STATUS"))),
			MaxLength:     envInt("COMMENT_MAX_LENGTH", 1000),
		},
	}
	if cfg.ServiceName == "" {
		return AppConfig{}, errors.New("SERVICE_NAME is required")
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	switch cfg.Comments.DefaultStatus {
	case "", "pending":
		cfg.Comments.DefaultStatus = "pending"
	case "approved":
	default:
		return AppConfig{}, errors.New("COMMENT_DEFAULT_STATUS must be 'pending' or 'approved'")
	}
	return cfg, nil
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
