package main

import (
	"log/slog"
	"os"

	"github.com/danglnh07/titan/api"
	"github.com/danglnh07/titan/db"
	"github.com/danglnh07/titan/service/conversation"
	"github.com/danglnh07/titan/service/identity"
	"github.com/danglnh07/titan/service/mail"
	"github.com/danglnh07/titan/service/notify"
	"github.com/danglnh07/titan/service/prefs"
	"github.com/danglnh07/titan/service/security"
	"github.com/danglnh07/titan/service/session"
	"github.com/danglnh07/titan/service/worker"
	"github.com/danglnh07/titan/util"
	"github.com/hibiken/asynq"
)

func main() {
	// Initialize logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load config from .env
	config := util.LoadConfig(".env")

	// Connect to database
	queries, err := db.NewQueries(config.DBPath)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Run auto migration
	if err = queries.AutoMigration(); err != nil {
		logger.Error("Failed to run auto migration", "error", err)
		os.Exit(1)
	}

	// Build the domain components. The conversation engine is attached to the
	// session manager afterwards since each needs the other.
	ids, err := identity.NewStore(queries, logger)
	if err != nil {
		logger.Error("Failed to load accounts", "error", err)
		os.Exit(1)
	}
	sess := session.NewManager(ids, security.NewJWTService(config), logger)
	engine, err := conversation.NewEngine(queries, ids, sess, logger)
	if err != nil {
		logger.Error("Failed to load conversations", "error", err)
		os.Exit(1)
	}
	sess.AttachPurger(engine)

	prefStore, err := prefs.NewStore(queries, logger)
	if err != nil {
		logger.Error("Failed to load preferences", "error", err)
		os.Exit(1)
	}

	hub := notify.NewHub()

	// The background worker needs Redis; without it tasks are dropped
	distributor := worker.NewNoopDistributor()
	if config.RedisAddr != "" {
		redisOpt := asynq.RedisClientOpt{Addr: config.RedisAddr}
		distributor = worker.NewRedisTaskDistributor(redisOpt, logger)

		processor := worker.NewRedisTaskProcessor(redisOpt, ids, mail.NewEmailService(config), hub, logger)
		if err = processor.Start(); err != nil {
			logger.Error("Failed to start the background worker", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("No Redis address configured, background tasks disabled")
	}

	// Create and start server
	server := api.NewServer(queries, config, ids, sess, engine, prefStore, hub, distributor, logger)
	if err = server.Start(); err != nil {
		logger.Error("Failed to run the server or server shutdown unexpectedly", "error", err)
		os.Exit(1)
	}
}
