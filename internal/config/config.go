// Package config provides configuration loading and structs for the Mission Chat server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Memory    MemoryConfig    `yaml:"memory"`
	Summarize SummarizeConfig `yaml:"summarize"`
	SmallTalk SmallTalkConfig `yaml:"smalltalk"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths to the startup artifacts. CorpusPath and IndexPath
// are loaded together; row i of the index must correspond to record i of the
// corpus. CustomRepliesPath is optional.
type StorageConfig struct {
	CorpusPath        string `yaml:"corpus_path"`
	IndexPath         string `yaml:"index_path"`
	CustomRepliesPath string `yaml:"custom_replies_path"`
	SessionsPath      string `yaml:"sessions_path"`
}

// EmbeddingConfig holds ONNX embedder settings.
type EmbeddingConfig struct {
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// RetrievalConfig holds nearest-neighbor lookup settings.
type RetrievalConfig struct {
	TopK                int     `yaml:"top_k"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"` // -1 disables the gate
}

// Threshold returns the effective similarity threshold. A configured -1 maps
// to 0, so every match clears the gate.
func (r RetrievalConfig) Threshold() float64 {
	if r.SimilarityThreshold < 0 {
		return 0
	}
	return r.SimilarityThreshold
}

// MemoryConfig holds session memory settings. BlendBudget limits the blended
// previous+current context in the summarization prompt; ContextBudget limits
// the per-turn retrieved context stored in memory. A zero value in YAML means
// "use the default"; eviction policies are disabled with -1.
type MemoryConfig struct {
	Backend       string `yaml:"backend"` // "memory" (default) or "sqlite"
	BlendBudget   int    `yaml:"blend_budget"`
	ContextBudget int    `yaml:"context_budget"`
	IdleTTLMin    int    `yaml:"idle_ttl_minutes"` // -1 disables eviction
	MaxSessions   int    `yaml:"max_sessions"`     // -1 disables the cap
}

// IdleTTL returns the effective idle eviction TTL; zero means no eviction.
func (m MemoryConfig) IdleTTL() time.Duration {
	if m.IdleTTLMin < 0 {
		return 0
	}
	return time.Duration(m.IdleTTLMin) * time.Minute
}

// SessionCap returns the effective session cap; zero means unbounded.
func (m MemoryConfig) SessionCap() int {
	if m.MaxSessions < 0 {
		return 0
	}
	return m.MaxSessions
}

// SummarizeConfig holds settings for the external text-generation service.
type SummarizeConfig struct {
	Backend        string `yaml:"backend"` // "ollama" (default) or "openai"
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// SmallTalkConfig holds greeting/farewell keyword sets and canned replies.
type SmallTalkConfig struct {
	Greetings       []string `yaml:"greetings"`
	Farewells       []string `yaml:"farewells"`
	GreetingReply   string   `yaml:"greeting_reply"`
	FarewellReply   string   `yaml:"farewell_reply"`
	NoMatchReply    string   `yaml:"no_match_reply"`
	SentinelContext string   `yaml:"sentinel_context"`
}

// WatchConfig holds artifact hot-reload settings. When disabled (the default),
// corpus and index are loaded once at startup and never reread.
type WatchConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.CorpusPath = expandPath(cfg.Storage.CorpusPath, configDir)
	cfg.Storage.IndexPath = expandPath(cfg.Storage.IndexPath, configDir)
	if cfg.Storage.CustomRepliesPath != "" {
		cfg.Storage.CustomRepliesPath = expandPath(cfg.Storage.CustomRepliesPath, configDir)
	}
	if cfg.Storage.SessionsPath != "" {
		cfg.Storage.SessionsPath = expandPath(cfg.Storage.SessionsPath, configDir)
	}
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
