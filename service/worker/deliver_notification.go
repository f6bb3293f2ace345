package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/danglnh07/titan/service/notify"
	"github.com/hibiken/asynq"
)

// Payload struct for deliver notification job
type NotificationPayload struct {
	ID       string `json:"id"`
	SourceID string `json:"source_id"`
	DestID   string `json:"dest_id"`
	Kind     string `json:"kind"`
	Content  string `json:"content"`
}

// Deliver notification key
const DeliverNotification = "deliver-notification"

// Method to distribute deliver notification task
func (distributor *RedisTaskDistributor) DistributeTaskDeliverNotification(
	ctx context.Context,
	payload NotificationPayload,
	opts ...asynq.Option,
) (err error) {
	// Marshal payload
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	// Create new task
	task := asynq.NewTask(DeliverNotification, data, opts...)

	// Send task to Redis queue
	info, err := distributor.client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}

	// Log task info
	distributor.logger.Info("Task info", "task_name", DeliverNotification, "queue", info.Queue, "max_retry", info.MaxRetry)

	return nil
}

// Method to process deliver notification task
func (processor *RedisTaskProcessor) ProcessTaskDeliverNotification(ctx context.Context, task *asynq.Task) (err error) {
	processor.logger.Info("Start processing task", "task_name", DeliverNotification)

	// Unmarshal payload
	var payload NotificationPayload
	if err = json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	// Publish event through hub
	processor.hub.Publish(notify.Notification{
		ID:        payload.ID,
		SourceID:  payload.SourceID,
		DestID:    payload.DestID,
		Kind:      payload.Kind,
		Content:   payload.Content,
		CreatedAt: time.Now(),
	})

	return nil
}
