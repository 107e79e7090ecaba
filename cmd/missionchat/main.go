// Package main is the Mission Chat CLI entry point.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/issdc/missionchat/internal/chat"
	"github.com/issdc/missionchat/internal/config"
	"github.com/issdc/missionchat/internal/corpus"
	"github.com/issdc/missionchat/internal/embedding"
	"github.com/issdc/missionchat/internal/models"
	"github.com/issdc/missionchat/internal/retriever"
	"github.com/issdc/missionchat/internal/server"
	"github.com/issdc/missionchat/internal/session"
	"github.com/issdc/missionchat/internal/summarize"
	"github.com/issdc/missionchat/internal/vector"
	"github.com/issdc/missionchat/internal/watcher"
	"github.com/issdc/missionchat/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/missionchat/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "chat":
		runChat()
	case "index":
		runIndex()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("missionchat version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// components holds everything the server needs, for a single Close path.
type components struct {
	Embedder  embedding.Embedder
	Retriever *retriever.Retriever
	Sessions  session.Store
	Composer  *chat.Composer
}

func (c *components) Close() {
	if c.Sessions != nil {
		_ = c.Sessions.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

// loadSnapshot loads corpus and index together and validates their alignment.
func loadSnapshot(cfg *config.Config, dimensions int) (*retriever.Snapshot, error) {
	store, err := corpus.Load(cfg.Storage.CorpusPath)
	if err != nil {
		return nil, err
	}
	idx, err := vector.LoadFlatIndex(cfg.Storage.IndexPath, dimensions)
	if err != nil {
		return nil, err
	}
	return retriever.NewSnapshot(store, idx)
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*components, error) {
	embedder, err := embedding.NewONNXEmbedder(
		cfg.Embedding.ModelPath,
		cfg.Embedding.Dimensions,
		cfg.Embedding.MaxTokens,
		cfg.Embedding.CacheSize,
	)
	if err != nil {
		return nil, fmt.Errorf("embedder init failed: %w", err)
	}

	snap, err := loadSnapshot(cfg, embedder.Dimensions())
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}
	logger.Info("artifacts loaded",
		zap.Int("corpus_records", snap.Corpus.Len()),
		zap.Int("index_rows", snap.Index.Size()),
		zap.Int("dimensions", snap.Index.Dimensions()),
	)

	customReplies, err := corpus.LoadCustomReplies(cfg.Storage.CustomRepliesPath)
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}

	var sessions session.Store
	switch cfg.Memory.Backend {
	case "sqlite":
		sessions, err = session.NewSQLiteStore(cfg.Storage.SessionsPath)
		if err != nil {
			_ = embedder.Close()
			return nil, err
		}
	default:
		sessions = session.NewMemoryStore(
			session.WithIdleTTL(cfg.Memory.IdleTTL()),
			session.WithMaxSessions(cfg.Memory.SessionCap()),
		)
	}

	timeout := time.Duration(cfg.Summarize.TimeoutSeconds) * time.Second
	var client summarize.Client
	switch cfg.Summarize.Backend {
	case "openai":
		client = summarize.NewOpenAIClient(cfg.Summarize.BaseURL, cfg.Summarize.APIKey, cfg.Summarize.Model, timeout)
	default:
		client = summarize.NewOllamaClient(cfg.Summarize.BaseURL, cfg.Summarize.Model, timeout)
	}

	r := retriever.New(embedder, snap)
	composer := chat.NewComposer(
		r,
		sessions,
		summarize.NewSummarizer(client, cfg.Memory.BlendBudget),
		chat.NewSmallTalk(cfg.SmallTalk, customReplies),
		cfg.Retrieval.Threshold(),
		cfg.Retrieval.TopK,
		cfg.Memory.ContextBudget,
		cfg.SmallTalk.NoMatchReply,
		logger,
	)
	return &components{Embedder: embedder, Retriever: r, Sessions: sessions, Composer: composer}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Close()

	var watch *watcher.Watcher
	if cfg.Watch.Enabled {
		watch = watcher.New(cfg.Storage.CorpusPath, cfg.Storage.IndexPath, func() {
			snap, err := loadSnapshot(cfg, comps.Embedder.Dimensions())
			if err != nil {
				logger.Warn("artifact reload failed, keeping current snapshot", zap.Error(err))
				return
			}
			comps.Retriever.Swap(snap)
			logger.Info("artifacts reloaded",
				zap.Int("corpus_records", snap.Corpus.Len()),
				zap.Int("index_rows", snap.Index.Size()),
			)
		}, logger)
		watchCtx, watchCancel := context.WithCancel(context.Background())
		defer watchCancel()
		if err := watch.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start artifact watcher", zap.Error(err))
		}
		defer watch.Stop()
	}

	srv := server.NewServer(comps.Composer, comps.Retriever, comps.Sessions, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// runAsk sends a one-shot direct-match question to a running server.
func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server base URL")
	_ = fs.Parse(os.Args[2:])
	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		fmt.Println("Usage: missionchat ask [flags] <question>")
		os.Exit(1)
	}

	resp, err := postChat(*serverURL+"/chat", models.ChatRequest{Message: question})
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(resp.Response)
	fmt.Printf("(context: %s, %.2fs)\n", utils.Truncate(resp.Context, 120), resp.ResponseTime)
}

// runChat starts an interactive conversational session against a running server.
func runChat() {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server base URL")
	sessionID := fs.String("session", "", "session id (default: random)")
	_ = fs.Parse(os.Args[2:])
	if *sessionID == "" {
		*sessionID = uuid.NewString()
	}

	fmt.Printf("Session %s — ask about space missions (Ctrl-D to quit)\n", *sessionID)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		resp, err := postAsk(*serverURL+"/ask", models.AskRequest{Message: message, SessionID: *sessionID})
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			continue
		}
		fmt.Println(resp.Response)
	}
	fmt.Println()
}

// runIndex builds the vector index artifact from the corpus file. It embeds
// every record with the configured model, so the resulting rows align with
// corpus positions by construction.
func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	store, err := corpus.Load(cfg.Storage.CorpusPath)
	if err != nil {
		fmt.Printf("Failed to load corpus: %v\n", err)
		os.Exit(1)
	}
	embedder, err := embedding.NewONNXEmbedder(
		cfg.Embedding.ModelPath,
		cfg.Embedding.Dimensions,
		cfg.Embedding.MaxTokens,
		cfg.Embedding.CacheSize,
	)
	if err != nil {
		fmt.Printf("Failed to create embedder: %v\n", err)
		os.Exit(1)
	}
	defer embedder.Close()

	ctx := context.Background()
	vectors := make([][]float32, 0, store.Len())
	for i := 0; i < store.Len(); i++ {
		rec, err := store.Get(i)
		if err != nil {
			fmt.Printf("Corpus read failed: %v\n", err)
			os.Exit(1)
		}
		vec, err := embedder.Embed(ctx, rec.Details)
		if err != nil {
			fmt.Printf("Embedding record %d failed: %v\n", i, err)
			os.Exit(1)
		}
		vectors = append(vectors, vec)
	}
	idx, err := vector.NewFlatIndex(embedder.Dimensions(), vectors)
	if err != nil {
		fmt.Printf("Index build failed: %v\n", err)
		os.Exit(1)
	}
	if err := idx.Save(cfg.Storage.IndexPath); err != nil {
		fmt.Printf("Index save failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Indexed %d records (%d dimensions) to %s\n", idx.Size(), idx.Dimensions(), cfg.Storage.IndexPath)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server base URL")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/status")
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Printf("Read failed: %v\n", err)
		os.Exit(1)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return
	}
	fmt.Println(pretty.String())
}

func postChat(url string, req models.ChatRequest) (*models.ChatResponse, error) {
	return postJSON(url, req)
}

func postAsk(url string, req models.AskRequest) (*models.ChatResponse, error) {
	return postJSON(url, req)
}

func postJSON(url string, payload interface{}) (*models.ChatResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var errOut models.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errOut); err == nil && errOut.Error != "" {
			return nil, fmt.Errorf("server error (%d): %s", resp.StatusCode, errOut.Error)
		}
		return nil, fmt.Errorf("server error: status %d", resp.StatusCode)
	}
	var out models.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func printUsage() {
	fmt.Println(`Usage: missionchat <command> [flags]

Commands:
  server   Start the HTTP API server
  ask      One-shot question against a running server (direct match)
  chat     Interactive conversation against a running server
  index    Build the vector index artifact from the corpus file
  status   Show server status
  version  Print version
  help     Show this help

Run 'missionchat <command> -h' for command flags.`)
}
