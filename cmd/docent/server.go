package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kalambet/docent/internal/answer"
	"github.com/kalambet/docent/internal/api"
	"github.com/kalambet/docent/internal/config"
	"github.com/kalambet/docent/internal/faq"
	"github.com/kalambet/docent/internal/provider"
	"github.com/kalambet/docent/internal/retrieval"
	"github.com/kalambet/docent/internal/store"
	"github.com/kalambet/docent/internal/task"
	"github.com/kalambet/docent/internal/voice"
)

var serveMCP bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the docent server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "also serve MCP tools on stdio")
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "docent version %s\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("closing store", zap.Error(err))
		}
	}()

	client := provider.New(providerConfig(cfg))

	catalog := retrieval.NewCatalog(st, cfg.Answer.CatalogMaxAge.Std())
	retriever := retrieval.NewRetriever(client, catalog)

	// The FAQ file is optional: a kiosk without one answers every question
	// through the model.
	var faqMatcher answer.FAQMatcher
	if cfg.Storage.FAQPath != "" {
		matcher, err := faq.Load(cfg.Storage.FAQPath, cfg.Answer.FAQThreshold)
		if err != nil {
			logger.Warn("FAQ disabled", zap.String("path", cfg.Storage.FAQPath), zap.Error(err))
		} else {
			logger.Info("FAQ loaded", zap.Int("entries", matcher.Len()))
			faqMatcher = matcher
		}
	}

	answerer := answer.NewService(faqMatcher, retriever, client, answer.Config{
		TopK:             cfg.Answer.TopK,
		MaxSpeechSeconds: cfg.Answer.MaxSpeechSeconds,
		Preamble:         cfg.Answer.Preamble,
	}, logger.Named("answer"))

	pollCfg := task.Config{
		Interval: cfg.Task.PollInterval.Std(),
		Timeout:  cfg.Task.Timeout.Std(),
	}
	voiceSvc := voice.NewService(client, client, pollCfg, cfg.Answer.MaxSpeechSeconds, logger.Named("voice"))

	handler := api.NewHandler(api.Deps{
		Answerer:    answerer,
		Transcriber: voiceSvc,
		Synthesizer: voiceSvc,
		Logger:      logger.Named("http"),
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	if serveMCP {
		mcpSrv := api.NewMCPServer(api.MCPDeps{Answerer: answerer, Searcher: retriever})
		stdioSrv := server.NewStdioServer(mcpSrv)
		go func() {
			if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("MCP stdio server error", zap.Error(err))
			}
		}()
		logger.Info("MCP server started (stdio transport)")
	}

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		logger.Info("docent listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func providerConfig(cfg config.Config) provider.Config {
	return provider.Config{
		SecretID:    cfg.Provider.SecretID,
		SecretKey:   cfg.Provider.SecretKey,
		Region:      cfg.Provider.Region,
		ChatModel:   cfg.Provider.ChatModel,
		LLMEndpoint: cfg.Provider.LLMEndpoint,
		ASREndpoint: cfg.Provider.ASREndpoint,
		TTSEndpoint: cfg.Provider.TTSEndpoint,
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
