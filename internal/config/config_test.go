package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadReadsYAML(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_ADDR", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: "9090"
redis:
  addr: "localhost:6379"
  ttl: "30m"
generation:
  apiKey: "from-file"
  model: "gpt-4o"
  temperature: 0.2
  maxConcurrent: 2
rooms:
  questionsPerQuiz: 8
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected server/redis config: %+v", cfg)
	}
	if cfg.Generation.APIKey != "from-file" || cfg.Generation.Model != "gpt-4o" {
		t.Fatalf("unexpected generation config: %+v", cfg.Generation)
	}
	if cfg.Generation.Temperature != float32(0.2) || cfg.Generation.MaxConcurrent != 2 {
		t.Fatalf("unexpected generation tuning: %+v", cfg.Generation)
	}
	if cfg.Rooms.QuestionsPerQuiz != 8 || cfg.Rooms.QuizInterval != DefaultQuizInterval {
		t.Fatalf("unexpected room defaults: %+v", cfg.Rooms)
	}
	if got := TTLDuration(cfg.Redis.TTL, time.Minute); got != 30*time.Minute {
		t.Fatalf("expected 30m ttl, got %s", got)
	}
}

func TestLoadMissingFileUsesDefaultsAndEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Generation.APIKey != "sk-env" {
		t.Fatalf("expected env api key, got %q", cfg.Generation.APIKey)
	}
	if cfg.Generation.Model != DefaultModel || cfg.Generation.Temperature != DefaultTemperature {
		t.Fatalf("expected generation defaults, got %+v", cfg.Generation)
	}
	if cfg.Rooms.QuestionsPerQuiz != DefaultQuestionsPerQuiz {
		t.Fatalf("expected default questions per quiz, got %d", cfg.Rooms.QuestionsPerQuiz)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Second); got != time.Second {
		t.Fatalf("expected fallback for empty, got %s", got)
	}
	if got := TTLDuration("soon", time.Second); got != time.Second {
		t.Fatalf("expected fallback for garbage, got %s", got)
	}
}
