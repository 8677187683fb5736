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

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/BerylCAtieno/lexdoc-api/internal/analyzer"
	"github.com/BerylCAtieno/lexdoc-api/internal/auth"
	"github.com/BerylCAtieno/lexdoc-api/internal/config"
	"github.com/BerylCAtieno/lexdoc-api/internal/db"
	"github.com/BerylCAtieno/lexdoc-api/internal/payments"
	"github.com/BerylCAtieno/lexdoc-api/internal/repository"
	"github.com/BerylCAtieno/lexdoc-api/internal/router"
	"github.com/BerylCAtieno/lexdoc-api/internal/services"
	"github.com/BerylCAtieno/lexdoc-api/internal/storage"
	"github.com/BerylCAtieno/lexdoc-api/internal/utils"
)

var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

const appName = "lexdoc-api"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Legal filing generation API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	var dbPath string
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			if dbPath == "" {
				dbPath = os.Getenv("DATABASE_PATH")
			}
			if dbPath == "" {
				dbPath = "data/lexdoc.db"
			}
			if err := db.RunMigrations(dbPath); err != nil {
				return err
			}
			fmt.Printf("migrations applied to %s\n", dbPath)
			return nil
		},
	}
	migrateCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database file (defaults to DATABASE_PATH)")

	cmd.AddCommand(migrateCmd, &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func serve() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := utils.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run migrations
	if err := db.RunMigrations(cfg.DatabasePath); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize database
	database, err := db.NewSQLiteDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	store, err := newStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}

	retry := analyzer.DefaultRetryConfig()
	retry.MaxAttempts = cfg.LLMMaxAttempts
	llm, err := analyzer.NewOpenAIAnalyzer(analyzer.Options{
		APIKey:      cfg.LLMAPIKey,
		BaseURL:     cfg.LLMBaseURL,
		Model:       cfg.LLMModel,
		VisionModel: cfg.LLMVisionModel,
		Timeout:     cfg.LLMTimeout,
		Retry:       retry,
		Referer:     cfg.CheckoutSuccessURL,
		Title:       appName,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialise analyzer: %w", err)
	}

	verifier, err := auth.NewFirebaseVerifier(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
	if err != nil {
		return err
	}

	svc := services.New(services.Dependencies{
		Repo:     repository.NewRepository(database),
		Storage:  store,
		Analyzer: llm,
		Payments: payments.NewStripeProvider(payments.Config{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			SuccessURL:    cfg.CheckoutSuccessURL,
			CancelURL:     cfg.CheckoutCancelURL,
		}, logger),
		Settings: services.Settings{
			InterestRateES:     cfg.LegalInterestRateES,
			SMMLV:              cfg.SMMLV,
			AnalyzeConcurrency: services.DefaultAnalyzeConcurrency,
		},
		Logger: logger,
	})

	handler := router.NewRouter(svc, verifier, router.Options{
		CORSOrigin:  cfg.CORSOrigin,
		MaxFileSize: cfg.MaxFileSize,
		Version:     Version,
	}, logger)

	// Drafting and OCR calls can take most of a minute.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.LLMTimeout*time.Duration(cfg.LLMMaxAttempts) + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "version", Version, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}

func newStorage(ctx context.Context, cfg *config.Config, logger *utils.Logger) (storage.Storage, error) {
	if cfg.StorageDriver == "memory" {
		logger.Warn("Using in-memory storage; files are lost on restart")
		return storage.NewMemoryStorage(), nil
	}
	store, err := storage.NewS3Storage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise storage: %w", err)
	}
	return store, nil
}
