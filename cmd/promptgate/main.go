// Promptgate is a request admission gateway with hybrid knowledge retrieval
// for an LLM text generation backend.
//
// It rate-limits and gates incoming chat requests, caches responses, augments
// prompts with retrieved knowledge base context via tiered embeddings
// (remote service, local model, lexical fallback), and delegates generation
// to an OpenAI-compatible upstream.
//
// Usage:
//
//	# Start with defaults
//	promptgate
//
//	# Start with a config file, override via environment
//	SERVER_PORT=8080 promptgate -config config.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/promptgate/internal/config"
	"github.com/fyrsmithlabs/promptgate/internal/embeddings"
	"github.com/fyrsmithlabs/promptgate/internal/gateway"
	httpserver "github.com/fyrsmithlabs/promptgate/internal/http"
	"github.com/fyrsmithlabs/promptgate/internal/knowledge"
	"github.com/fyrsmithlabs/promptgate/internal/llm"
	"github.com/fyrsmithlabs/promptgate/internal/logging"
	"github.com/fyrsmithlabs/promptgate/internal/metrics"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("promptgate by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run wires the full service and blocks until ctx is canceled:
//  1. Loads and validates configuration
//  2. Initializes the logger
//  3. Builds the embedding tier chain (remote, local, lexical)
//  4. Opens the knowledge store
//  5. Wires the gateway and HTTP server
//  6. Performs graceful shutdown on context cancellation
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting promptgate",
		zap.String("version", version),
		zap.String("commit", gitCommit))

	provider, err := buildEmbeddings(*cfg, logger)
	if err != nil {
		return fmt.Errorf("building embedding providers: %w", err)
	}
	defer func() { _ = provider.Close() }()

	store, err := knowledge.NewStore(ctx, cfg.Knowledge.Dir, provider, logger)
	if err != nil {
		return fmt.Errorf("opening knowledge store: %w", err)
	}
	if stats := store.Stats(); stats.TotalDocuments == 0 {
		logger.Info("knowledge base is empty, retrieval will return no context")
	} else {
		logger.Info("knowledge base loaded",
			zap.Int("documents", stats.TotalDocuments),
			zap.Bool("vector_index", stats.HasVectorIndex))
	}

	client, err := llm.NewHTTPClient(cfg.LLM)
	if err != nil {
		return fmt.Errorf("creating generation client: %w", err)
	}

	gw := gateway.New(*cfg, store, client, metrics.NewSink(), logger)

	server, err := httpserver.NewServer(gw, store, logger, &httpserver.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout.Duration(),
	})
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	return server.Start(ctx)
}

// buildEmbeddings assembles the tier chain in preference order. The lexical
// tier is always last so the chain as a whole never fails.
func buildEmbeddings(cfg config.Config, logger *zap.Logger) (*embeddings.Tiered, error) {
	var tiers []embeddings.Provider

	if cfg.Embeddings.Remote.Enabled {
		remote, err := embeddings.NewRemoteProvider(cfg.Embeddings.Remote)
		if err != nil {
			return nil, fmt.Errorf("remote tier: %w", err)
		}
		tiers = append(tiers, remote)
		logger.Info("remote embedding tier enabled",
			zap.String("model", cfg.Embeddings.Remote.Model))
	}

	if cfg.Embeddings.Local.Enabled {
		local, err := embeddings.NewFastEmbedProvider(cfg.Embeddings.Local.Model, cfg.Embeddings.Local.CacheDir)
		if err != nil {
			logger.Warn("local embedding tier unavailable, skipping",
				zap.Error(err))
		} else {
			tiers = append(tiers, local)
			logger.Info("local embedding tier enabled",
				zap.String("model", cfg.Embeddings.Local.Model))
		}
	}

	tiers = append(tiers, embeddings.NewLexicalProvider())

	return embeddings.NewTiered(logger, tiers...)
}
