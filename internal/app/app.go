package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"bookkicker/internal/books"
	"bookkicker/internal/bot"
	"bookkicker/internal/config"
	"bookkicker/internal/reading"
	"bookkicker/internal/storage"
	"bookkicker/internal/storage/cached"
	"bookkicker/internal/storage/ch"
	"bookkicker/internal/storage/pg"
	"bookkicker/internal/storage/stubs"
)

// App represents the application
type App struct {
	config   *config.Config
	logger   *zap.Logger
	store    storage.Store
	sessions storage.SessionStore
	bot      *bot.Bot
	server   *http.Server

	cancelSweep context.CancelFunc
}

// New creates and initializes a new application instance
func New() (*App, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	app := &App{config: cfg, logger: logger}

	logger.Info("Starting BookKicker bot")

	if err := app.initStorage(); err != nil {
		return nil, err
	}

	if err := app.initBot(); err != nil {
		return nil, err
	}

	app.initHTTPServer()

	return app, nil
}

// initStorage connects the settings store, the session log and the cache tier.
func (a *App) initStorage() error {
	ctx := context.Background()

	if a.config.UseMockDB {
		a.logger.Info("Using mock storage")
		mock := stubs.NewMockDB()
		if err := mock.Initialize(ctx); err != nil {
			return fmt.Errorf("failed to initialize mock storage: %w", err)
		}
		a.store = mock
		a.sessions = mock
		return nil
	}

	a.logger.Info("Connecting to PostgreSQL",
		zap.String("host", a.config.PostgresHost),
		zap.Int("port", a.config.PostgresPort),
		zap.String("database", a.config.PostgresDatabase),
	)
	pgDB, err := pg.NewPostgresDB(
		a.config.PostgresHost,
		a.config.PostgresPort,
		a.config.PostgresDatabase,
		a.config.PostgresUser,
		a.config.PostgresPassword,
		a.config.PostgresSSLMode,
	)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := pgDB.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL schema: %w", err)
	}

	a.logger.Info("Connecting to ClickHouse",
		zap.String("host", a.config.ClickHouseHost),
		zap.Int("port", a.config.ClickHousePort),
		zap.String("database", a.config.ClickHouseDatabase),
		zap.Bool("tls", a.config.ClickHouseUseTLS),
	)
	chDB, err := ch.NewClickHouseDB(
		a.config.ClickHouseHost,
		a.config.ClickHousePort,
		a.config.ClickHouseDatabase,
		a.config.ClickHouseUser,
		a.config.ClickHousePassword,
		a.config.ClickHouseUseTLS,
	)
	if err != nil {
		return fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	if err := chDB.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize ClickHouse schema: %w", err)
	}

	cache := cached.NewCache(a.config.RedisAddr, a.config.RedisPassword, a.logger)
	a.store = cached.NewStore(pgDB, cache, a.logger)
	a.sessions = chDB

	a.logger.Info("Storage initialized")
	return nil
}

// initBot wires the file store, the tracker and the Telegram bot.
func (a *App) initBot() error {
	files, err := books.NewFiles(a.config.BooksDir)
	if err != nil {
		return fmt.Errorf("failed to prepare books directory: %w", err)
	}

	tracker := reading.NewTracker(a.store, a.sessions, files, a.logger)

	telegramBot, err := bot.NewBot(a.config.TelegramToken, a.store, a.sessions, tracker, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	a.bot = telegramBot
	return nil
}

// initHTTPServer initializes the HTTP server for health checks and webhook
func (a *App) initHTTPServer() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // Default port
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		mode := "polling"
		if a.config.WebhookMode {
			mode = "webhook"
		}
		fmt.Fprintf(w, "BookKicker bot is running (mode: %s)", mode)
	})

	// Webhook endpoint (only used in webhook mode)
	mux.HandleFunc("/telegram-webhook", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			a.logger.Warn("Failed to decode webhook update", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		// Process update in background to respond quickly to Telegram
		go a.bot.HandleWebhookUpdate(update)

		w.WriteHeader(http.StatusOK)
	})

	a.server = &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		a.logger.Info("Starting HTTP server", zap.String("port", port))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
}

// Run starts the application and blocks until shutdown
func (a *App) Run() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Hourly auto-send sweep runs in every mode.
	sweepCtx, cancel := context.WithCancel(context.Background())
	a.cancelSweep = cancel
	go a.bot.RunAutoSend(sweepCtx)

	if a.config.WebhookMode {
		a.logger.Info("Starting bot in webhook mode", zap.String("url", a.config.WebhookURL))
		if err := a.bot.StartWebhook(a.config.WebhookURL); err != nil {
			return fmt.Errorf("failed to setup webhook: %w", err)
		}
	} else {
		go func() {
			a.logger.Info("Starting bot in polling mode")
			if err := a.bot.Start(); err != nil {
				a.logger.Fatal("Failed to start bot", zap.Error(err))
			}
		}()
	}

	<-sigChan

	a.logger.Info("Shutting down")
	return a.Shutdown()
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown() error {
	if a.cancelSweep != nil {
		a.cancelSweep()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	if err := a.sessions.Close(); err != nil {
		a.logger.Warn("Error closing session store", zap.Error(err))
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("Error closing storage", zap.Error(err))
		return err
	}

	a.logger.Info("Shutdown complete")
	_ = a.logger.Sync()
	return nil
}
