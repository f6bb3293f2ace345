package worker

import (
	"context"
	"encoding/json"

	"github.com/danglnh07/titan/fault"
	"github.com/hibiken/asynq"
)

// Payload struct for expire status job
type ExpireStatusPayload struct {
	OwnerID  string `json:"owner_id"`
	StatusID string `json:"status_id"`
}

// Expire status key
const ExpireStatus = "expire-status"

// Method to distribute expire status task. Callers schedule it with
// asynq.ProcessIn set to the status TTL.
func (distributor *RedisTaskDistributor) DistributeTaskExpireStatus(
	ctx context.Context,
	payload ExpireStatusPayload,
	opts ...asynq.Option,
) (err error) {
	// Marshal payload
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	// Create new task
	task := asynq.NewTask(ExpireStatus, data, opts...)

	// Send task to Redis queue
	info, err := distributor.client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}

	// Log task info
	distributor.logger.Info("Task info", "task_name", ExpireStatus, "queue", info.Queue, "max_retry", info.MaxRetry)

	return nil
}

// Method to process expire status task
func (processor *RedisTaskProcessor) ProcessTaskExpireStatus(ctx context.Context, task *asynq.Task) (err error) {
	processor.logger.Info("Start processing task", "task_name", ExpireStatus)

	// Unmarshal payload
	var payload ExpireStatusPayload
	if err = json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	// The owner or the status may be gone already, which is fine
	err = processor.ids.RemoveStatus(payload.OwnerID, payload.StatusID)
	if err != nil && !fault.IsKind(err, fault.NotFound) {
		return err
	}
	return nil
}
