package services

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/huangang/gymdesk/internal/config"
	"github.com/huangang/gymdesk/pkg/logger"
)

const (
	TaskTypeDeliverNotification = "notification:deliver"

	deliveryQueue      = "deliveries"
	deliveryMaxRetries = 3
)

// DeliveryTask asks a worker to email a notification that is already stored.
type DeliveryTask struct {
	NotificationID uint   `json:"notification_id"`
	Email          string `json:"email"`
	Message        string `json:"message"`
}

// TaskQueue accepts delivery tasks. Delivery is best effort and never feeds
// back into the notification write.
type TaskQueue interface {
	Enqueue(task *DeliveryTask) error
	// IsAsync returns true if queue processes tasks asynchronously
	IsAsync() bool
	Close() error
}

// NewTaskQueue returns a Redis-backed queue when Redis is enabled and
// reachable, and an in-process queue running processor otherwise.
func NewTaskQueue(cfg *config.RedisConfig, processor func(context.Context, *DeliveryTask) error) TaskQueue {
	if cfg.Enabled {
		queue, err := NewAsyncQueue(cfg)
		if err == nil {
			logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Addr)
			return queue
		}
		logger.Warnf("[TaskQueue] Redis unavailable, falling back to sync mode: %v", err)
	} else {
		logger.Infof("[TaskQueue] Sync queue initialized (Redis disabled)")
	}

	q := NewSyncQueue()
	q.SetProcessor(processor)
	return q
}

// AsyncQueue implements TaskQueue using asynq (Redis-based)
type AsyncQueue struct {
	client *asynq.Client
}

func redisClientOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := redisClientOpt(cfg)
	client := asynq.NewClient(redisOpt)

	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

func (q *AsyncQueue) Enqueue(task *DeliveryTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeDeliverNotification, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue(deliveryQueue),
		asynq.MaxRetry(deliveryMaxRetries),
	)
	if err != nil {
		return err
	}

	logger.Debug().Str("task_id", info.ID).Str("queue", info.Queue).Msg("delivery task enqueued")
	return nil
}

func (q *AsyncQueue) IsAsync() bool {
	return true
}

func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue runs tasks in a goroutine of this process (no Redis)
type SyncQueue struct {
	processor func(context.Context, *DeliveryTask) error
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

func (q *SyncQueue) SetProcessor(processor func(context.Context, *DeliveryTask) error) {
	q.processor = processor
}

// Enqueue hands the task to the processor without blocking the caller.
func (q *SyncQueue) Enqueue(task *DeliveryTask) error {
	if q.processor == nil {
		return nil
	}

	go func() {
		if err := q.processor(context.Background(), task); err != nil {
			logger.Warnf("[SyncQueue] Delivery of notification %d failed: %v", task.NotificationID, err)
		}
	}()

	return nil
}

func (q *SyncQueue) IsAsync() bool {
	return false
}

func (q *SyncQueue) Close() error {
	return nil
}
