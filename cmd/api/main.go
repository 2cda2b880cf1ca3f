package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	nethttp "net/http"
	"os"
	"path/filepath"
	"strconv"

	"notebase-ai/internal/config"
	"notebase-ai/internal/http"
	"notebase-ai/internal/indexer"
	"notebase-ai/internal/llm"
	"notebase-ai/internal/rag"
	"notebase-ai/internal/service"
	"notebase-ai/internal/storage"
	"notebase-ai/internal/tablestore"
	"notebase-ai/internal/vectorstore"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize the table store and repair any interrupted writes
	store, err := tablestore.New(filepath.Join(cfg.DataDir, "meta"))
	if err != nil {
		log.Fatalf("Failed to open table store: %v", err)
	}
	storage.Migrate(store)
	slog.Info("Table store initialized", "dir", filepath.Join(cfg.DataDir, "meta"))

	bodies, err := storage.NewBodyStore(filepath.Join(cfg.DataDir, "notes"))
	if err != nil {
		log.Fatalf("Failed to open note body store: %v", err)
	}

	// Create repository instances
	membershipRepo := storage.NewMembershipRepo(store)
	chunkRepo := storage.NewEmbeddingRepo(store)
	noteRepo := storage.NewNoteRepo(store, bodies, membershipRepo, chunkRepo)
	groupRepo := storage.NewGroupRepo(store, membershipRepo)
	tabRepo := storage.NewTabRepo(store)

	ctx := context.Background()

	// Initialize the optional vector index accelerator
	var vectorStore vectorstore.VectorStore
	if cfg.QdrantURL != "" {
		qdrantStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			log.Fatalf("Failed to create Qdrant client: %v", err)
		}
		if err := qdrantStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.EmbedVectorSize); err != nil {
			log.Fatalf("Failed to ensure Qdrant collection: %v", err)
		}
		vectorStore = qdrantStore
		slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.EmbedVectorSize)
	} else {
		slog.Info("Vector index disabled, retrieval uses table scan only")
	}

	// Create Ollama clients
	embedder := llm.NewEmbeddingsClient(cfg.OllamaBaseURL, cfg.EmbedModel, cfg.EmbedVectorSize)
	llmClient := llm.NewClient(cfg.OllamaBaseURL, cfg.ChatModel)

	if err := llmClient.Ping(ctx); err != nil {
		slog.Warn("Ollama not reachable at startup; chat and indexing will fail until it is up", "error", err)
	} else {
		// Best-effort model pulls so first requests don't time out
		if err := llmClient.Pull(ctx, cfg.ChatModel); err != nil {
			slog.Warn("Failed to pull chat model", "model", cfg.ChatModel, "error", err)
		}
		if err := llmClient.Pull(ctx, cfg.EmbedModel); err != nil {
			slog.Warn("Failed to pull embedding model", "model", cfg.EmbedModel, "error", err)
		}

		// Validate embedding vector size (fail-fast)
		testEmbeddings, err := embedder.EmbedTexts(ctx, []string{"test"})
		if err != nil {
			log.Fatalf("Failed to validate embedding client: %v", err)
		}
		if len(testEmbeddings) == 0 || len(testEmbeddings[0]) != cfg.EmbedVectorSize {
			log.Fatalf("Embedding vector size mismatch: expected %d", cfg.EmbedVectorSize)
		}
		slog.Info("Embedding client validated", "vector_size", cfg.EmbedVectorSize)
	}

	// Create indexing pipeline
	pipeline := indexer.NewPipeline(
		noteRepo,
		chunkRepo,
		embedder,
		vectorStore,
		cfg.QdrantCollection,
		cfg.ChunkSize,
		cfg.ChunkOverlap,
	)

	// Create retrieval engine
	engine := rag.NewEngine(
		embedder,
		llmClient,
		chunkRepo,
		noteRepo,
		membershipRepo,
		cfg.MMRLambda,
		cfg.MaxChunksPerQuery,
	)
	slog.Info("Retrieval engine initialized", "lambda", cfg.MMRLambda, "max_chunks_per_query", cfg.MaxChunksPerQuery)

	chatService := service.NewChatService(llmClient)

	deps := &http.Deps{
		Notes:       noteRepo,
		Groups:      groupRepo,
		Membership:  membershipRepo,
		Tabs:        tabRepo,
		Pipeline:    pipeline,
		Engine:      engine,
		Embedder:    embedder,
		ChatService: chatService,
		LLMPinger:   llmClient,
		VectorStore: vectorStore,
		Collection:  cfg.QdrantCollection,
	}
	router := http.NewRouter(deps)

	// Start API server, walking forward from the configured port if taken
	listener, addr, err := listenOnAvailablePort(cfg.APIPort)
	if err != nil {
		log.Fatalf("API server failed to bind: %v", err)
	}
	slog.Info("Starting API server", "addr", addr)
	if err := nethttp.Serve(listener, router); err != nil {
		log.Fatalf("API server failed: %v", err)
	}
}

// listenOnAvailablePort binds the first free port starting from the
// configured one, scanning a small range so a stale instance doesn't block
// startup.
func listenOnAvailablePort(startPort string) (net.Listener, string, error) {
	port, err := strconv.Atoi(startPort)
	if err != nil {
		return nil, "", fmt.Errorf("API_PORT must be a valid integer: %w", err)
	}
	const maxAttempts = 20
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		addr := ":" + strconv.Itoa(port+i)
		listener, err := net.Listen("tcp", addr)
		if err == nil {
			if i > 0 {
				slog.Warn("Configured port taken, using next free port", "configured", startPort, "addr", addr)
			}
			return listener, addr, nil
		}
		lastErr = err
	}
	return nil, "", fmt.Errorf("no free port in range %d-%d: %w", port, port+maxAttempts-1, lastErr)
}
