package config

// DefaultGreetings and DefaultFarewells are matched case-insensitively against
// the whole trimmed query, never as substrings.
var (
	DefaultGreetings = []string{"hi", "hello", "hey", "hii", "good morning", "good afternoon", "good evening"}
	DefaultFarewells = []string{"bye", "goodbye", "see you", "see ya", "thank you", "thanks", "ok bye", "bye bye"}
)

// ApplyDefaults sets default values for any zero values in cfg. Fields that
// support -1 as "disabled" (similarity threshold, idle TTL, session cap) keep
// their negative value; only an unset zero is defaulted.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.CorpusPath == "" {
		cfg.Storage.CorpusPath = "/usr/local/var/missionchat/data/mission_data.json"
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "/usr/local/var/missionchat/data/missions.index"
	}
	if cfg.Storage.SessionsPath == "" {
		cfg.Storage.SessionsPath = "/usr/local/var/missionchat/data/sessions.db"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/missionchat/data/models/paraphrase-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 1
	}
	if cfg.Retrieval.SimilarityThreshold == 0 {
		cfg.Retrieval.SimilarityThreshold = 0.75
	}
	if cfg.Memory.Backend == "" {
		cfg.Memory.Backend = "memory"
	}
	if cfg.Memory.BlendBudget == 0 {
		cfg.Memory.BlendBudget = 600
	}
	if cfg.Memory.ContextBudget == 0 {
		cfg.Memory.ContextBudget = 1000
	}
	if cfg.Memory.IdleTTLMin == 0 {
		cfg.Memory.IdleTTLMin = 30
	}
	if cfg.Memory.MaxSessions == 0 {
		cfg.Memory.MaxSessions = 10000
	}
	if cfg.Summarize.Backend == "" {
		cfg.Summarize.Backend = "ollama"
	}
	if cfg.Summarize.BaseURL == "" {
		cfg.Summarize.BaseURL = "http://localhost:11434"
	}
	if cfg.Summarize.Model == "" {
		cfg.Summarize.Model = "phi"
	}
	if cfg.Summarize.TimeoutSeconds == 0 {
		cfg.Summarize.TimeoutSeconds = 60
	}
	if cfg.SmallTalk.Greetings == nil {
		cfg.SmallTalk.Greetings = DefaultGreetings
	}
	if cfg.SmallTalk.Farewells == nil {
		cfg.SmallTalk.Farewells = DefaultFarewells
	}
	if cfg.SmallTalk.GreetingReply == "" {
		cfg.SmallTalk.GreetingReply = "👋 Hello! How can I assist you today? Ask me about space missions, data access, or anything else. 📩"
	}
	if cfg.SmallTalk.FarewellReply == "" {
		cfg.SmallTalk.FarewellReply = "👋 You're welcome! Have a great day! 🌟"
	}
	if cfg.SmallTalk.NoMatchReply == "" {
		cfg.SmallTalk.NoMatchReply = "Sorry, I couldn't find information about that mission."
	}
	if cfg.SmallTalk.SentinelContext == "" {
		cfg.SmallTalk.SentinelContext = "N/A"
	}
}
