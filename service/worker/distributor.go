package worker

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Task distributor interface
type TaskDistributor interface {
	DistributeTaskDeliverNotification(ctx context.Context, payload NotificationPayload, opts ...asynq.Option) (err error)
	DistributeTaskExpireStatus(ctx context.Context, payload ExpireStatusPayload, opts ...asynq.Option) (err error)
	DistributeTaskSendWelcomeEmail(ctx context.Context, payload WelcomeEmailPayload, opts ...asynq.Option) (err error)
}

// Redis task distributor
type RedisTaskDistributor struct {
	client *asynq.Client
	logger *slog.Logger
}

// Constructor method for Redis task distributor
func NewRedisTaskDistributor(redisOpt asynq.RedisClientOpt, logger *slog.Logger) TaskDistributor {
	client := asynq.NewClient(redisOpt)
	return &RedisTaskDistributor{
		client: client,
		logger: logger,
	}
}

// NoopDistributor drops every task. Used when no Redis address is configured
// so the rest of the app never has to nil-check the distributor.
type NoopDistributor struct{}

func NewNoopDistributor() TaskDistributor {
	return NoopDistributor{}
}

func (NoopDistributor) DistributeTaskDeliverNotification(context.Context, NotificationPayload, ...asynq.Option) error {
	return nil
}

func (NoopDistributor) DistributeTaskExpireStatus(context.Context, ExpireStatusPayload, ...asynq.Option) error {
	return nil
}

func (NoopDistributor) DistributeTaskSendWelcomeEmail(context.Context, WelcomeEmailPayload, ...asynq.Option) error {
	return nil
}
