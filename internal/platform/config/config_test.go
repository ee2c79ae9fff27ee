package config

import "testing"

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SERVICE_NAME", "comments")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("COMMENT_DEFAULT_STATUS", "")
	t.Setenv("COMMENT_MAX_LENGTH", "")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("expected default addr, got %q", cfg.HTTP.Addr)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level, got %q", cfg.LogLevel)
	}
	if cfg.Comments.DefaultStatus != "pending" {
		t.Fatalf("expected default status 'pending', got %q", cfg.Comments.DefaultStatus)
	}
	if cfg.Comments.MaxLength != 1000 {
		t.Fatalf("expected default max length 1000, got %d", cfg.Comments.MaxLength)
	}
}

func TestLoad_RequiresServiceName(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SERVICE_NAME", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing SERVICE_NAME")
	}
}

func TestLoad_CommentStatus(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("COMMENT_DEFAULT_STATUS", "APPROVED")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Comments.DefaultStatus != "approved" {
		t.Fatalf("expected 'approved', got %q", cfg.Comments.DefaultStatus)
	}

	t.Setenv("COMMENT_DEFAULT_STATUS", "shadowbanned")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown default status")
	}
}

func TestLoad_MaxLengthFallsBackOnGarbage(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("COMMENT_MAX_LENGTH", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Comments.MaxLength != 1000 {
		t.Fatalf("expected fallback 1000, got %d", cfg.Comments.MaxLength)
	}
}
