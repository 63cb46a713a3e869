package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port          string `yaml:"port"`
		AllowedOrigin string `yaml:"allowedOrigin"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Generation struct {
		APIKey        string  `yaml:"apiKey"`
		BaseURL       string  `yaml:"baseURL"`
		Model         string  `yaml:"model"`
		Temperature   float32 `yaml:"temperature"`
		Timeout       string  `yaml:"timeout"`
		MaxConcurrent int64   `yaml:"maxConcurrent"`
		LockTTL       string  `yaml:"lockTTL"`
	} `yaml:"generation"`
	Rooms struct {
		QuizInterval     int `yaml:"quizInterval"`
		QuestionsPerQuiz int `yaml:"questionsPerQuiz"`
	} `yaml:"rooms"`
}

const (
	DefaultModel            = "gpt-4o-mini"
	DefaultTemperature      = 0.7
	DefaultQuizInterval     = 10
	DefaultQuestionsPerQuiz = 5
)

// Load reads YAML config from path. A missing file yields defaults so the service can run
// from environment alone.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Generation.APIKey = key
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		c.Postgres.URL = url
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
	}
}

func (c *Config) applyDefaults() {
	if c.Generation.Model == "" {
		c.Generation.Model = DefaultModel
	}
	if c.Generation.Temperature == 0 {
		c.Generation.Temperature = DefaultTemperature
	}
	if c.Rooms.QuizInterval <= 0 {
		c.Rooms.QuizInterval = DefaultQuizInterval
	}
	if c.Rooms.QuestionsPerQuiz <= 0 {
		c.Rooms.QuestionsPerQuiz = DefaultQuestionsPerQuiz
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
