package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/avelencia/todo-chat/internal/assistant"
	"github.com/avelencia/todo-chat/internal/auth"
	"github.com/avelencia/todo-chat/internal/classifier"
	"github.com/avelencia/todo-chat/internal/gateway"
	"github.com/avelencia/todo-chat/internal/resilience"
	"github.com/avelencia/todo-chat/internal/session"
	"github.com/avelencia/todo-chat/internal/storage"
	"github.com/avelencia/todo-chat/internal/tools"
	"github.com/avelencia/todo-chat/pkg/config"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	// Initialize the todo backend
	var todos storage.TodoService
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory todo storage")
		todos = storage.NewMemoryStore()
	} else {
		logger.Info("Using PostgreSQL todo storage")
		todos, err = storage.NewPostgresStore(storage.DatabaseConfig{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			User:        cfg.Database.User,
			Password:    cfg.Database.Password,
			DBName:      cfg.Database.DBName,
			SSLMode:     cfg.Database.SSLMode,
			UseInMemory: cfg.Database.UseInMemory,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer todos.Close()

	// Initialize the classifier strategy
	keyword := classifier.NewKeywordClassifier(classifier.Options{
		ConfidenceGap: cfg.Classifier.ConfidenceGap,
		MinConfidence: cfg.Classifier.MinConfidence,
	}, logger)

	var clf classifier.Classifier = keyword
	if cfg.Classifier.Strategy == "gpt" {
		logger.Info("Using GPT classifier with keyword fallback")
		clf = classifier.NewGPTClassifier(
			cfg.OpenAI.APIKey,
			cfg.OpenAI.Model,
			cfg.OpenAI.MaxTokens,
			cfg.OpenAI.Temperature,
			keyword,
			logger,
		)
	}

	// Resilience layer: retry executor plus offline queue
	exec := resilience.NewExecutor(resilience.RetryConfig{
		MaxRetries:     cfg.Retry.MaxRetries,
		InitialBackoff: cfg.Retry.InitialBackoff,
		Multiplier:     cfg.Retry.Multiplier,
		MaxBackoff:     cfg.Retry.MaxBackoff,
		Jitter:         cfg.Retry.Jitter,
		AttemptTimeout: cfg.Retry.AttemptTimeout,
	}, logger)
	queue := resilience.NewQueue(exec, logger)

	// Tool registry with auth gate
	gate := auth.NewGate(logger)
	registry := tools.NewRegistry(gate, todos, exec, queue, logger)

	// Session manager with periodic sweep
	sessions := session.NewManager(
		session.NewMemorySessionStore(),
		session.NewMemoryMessageStore(),
		session.ManagerConfig{
			IdleTimeout:   cfg.Session.IdleTimeout,
			MaxAge:        cfg.Session.MaxAge,
			SweepInterval: cfg.Session.SweepInterval,
		},
		logger,
	)
	sessions.Start()
	defer sessions.Stop()

	// The pipeline itself
	asst := assistant.New(clf, registry, sessions, cfg.Session.MaxMessageLength, logger)

	// Telegram gateway
	gw, err := gateway.NewTelegram(cfg.Telegram.Token, asst, logger)
	if err != nil {
		logger.Fatal("Failed to create gateway", zap.Error(err))
	}

	// Replay queued actions through the registry; failures are surfaced to
	// the user through the gateway.
	queue.Bind(registry.Replay, gw.NotifyActionFailed)
	go drainLoop(queue, cfg.Retry.DrainInterval)

	// Start the gateway
	if err := gw.Start(); err != nil {
		logger.Fatal("Gateway error", zap.Error(err))
	}
}

// drainLoop periodically replays queued actions while the queue believes the
// backend is reachable.
func drainLoop(queue *resilience.Queue, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		if queue.Online() && queue.Pending() > 0 {
			queue.Drain(context.Background())
		}
	}
}
