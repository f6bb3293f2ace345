package worker

import (
	"context"
	"log/slog"

	"github.com/danglnh07/titan/service/identity"
	"github.com/danglnh07/titan/service/mail"
	"github.com/danglnh07/titan/service/notify"
	"github.com/hibiken/asynq"
)

// Task processor interface
type TaskProcessor interface {
	Start() error
	ProcessTaskDeliverNotification(ctx context.Context, task *asynq.Task) (err error)
	ProcessTaskExpireStatus(ctx context.Context, task *asynq.Task) (err error)
	ProcessTaskSendWelcomeEmail(ctx context.Context, task *asynq.Task) (err error)
}

// Redis task processor
type RedisTaskProcessor struct {
	server      *asynq.Server
	ids         *identity.Store
	mailService *mail.EmailService
	hub         *notify.Hub
	logger      *slog.Logger
}

// Constructor method for Redis task processor
func NewRedisTaskProcessor(
	redisOpts asynq.RedisClientOpt,
	ids *identity.Store,
	mailService *mail.EmailService,
	hub *notify.Hub,
	logger *slog.Logger,
) TaskProcessor {
	return &RedisTaskProcessor{
		server:      asynq.NewServer(redisOpts, asynq.Config{}),
		ids:         ids,
		mailService: mailService,
		hub:         hub,
		logger:      logger,
	}
}

// Method to start the worker server
func (processor *RedisTaskProcessor) Start() error {
	mux := asynq.NewServeMux()

	mux.HandleFunc(DeliverNotification, processor.ProcessTaskDeliverNotification)
	mux.HandleFunc(ExpireStatus, processor.ProcessTaskExpireStatus)
	mux.HandleFunc(SendWelcomeEmail, processor.ProcessTaskSendWelcomeEmail)

	return processor.server.Start(mux)
}
