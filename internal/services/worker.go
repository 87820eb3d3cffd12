package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/huangang/gymdesk/internal/config"
	"github.com/huangang/gymdesk/internal/metrics"
	"github.com/huangang/gymdesk/pkg/logger"
)

const defaultDeliveryConcurrency = 4

// Worker drains the delivery queue and emails each stored notification.
type Worker struct {
	server  *asynq.Server
	deliver func(context.Context, *DeliveryTask) error
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// NewWorker returns nil when Redis is disabled.
func NewWorker(cfg *config.RedisConfig, deliver func(context.Context, *DeliveryTask) error) *Worker {
	if !cfg.Enabled {
		return nil
	}

	concurrency := cfg.DeliveryConcurrency
	if concurrency <= 0 {
		concurrency = defaultDeliveryConcurrency
	}

	server := asynq.NewServer(
		redisClientOpt(cfg),
		asynq.Config{
			Concurrency:  concurrency,
			Queues:       map[string]int{deliveryQueue: 1},
			ErrorHandler: asynq.ErrorHandlerFunc(deliveryFailed),
		},
	)

	return &Worker{server: server, deliver: deliver}
}

// deliveryFailed logs every failed attempt and counts the ones that will
// not be retried.
func deliveryFailed(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	logger.Warn().Err(err).Str("task", task.Type()).Int("retried", retried).Msg("delivery attempt failed")
	if retried >= maxRetry {
		metrics.DeliveryTasks.WithLabelValues("dropped").Inc()
	}
}

func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeDeliverNotification, w.handleDeliveryTask)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Infof("[Worker] Draining %q queue", deliveryQueue)
		if err := w.server.Run(mux); err != nil {
			logger.Errorf("[Worker] Server error: %v", err)
		}
	}()

	return nil
}

func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
	logger.Infof("[Worker] Delivery worker stopped")
}

func (w *Worker) handleDeliveryTask(ctx context.Context, t *asynq.Task) error {
	var task DeliveryTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		// a malformed payload never becomes valid on retry
		return asynq.SkipRetry
	}
	if task.NotificationID == 0 || task.Email == "" {
		logger.Warn().Uint("notification_id", task.NotificationID).Msg("delivery task missing recipient, dropping")
		return asynq.SkipRetry
	}

	if w.deliver == nil {
		logger.Warnf("[Worker] No mailer set, dropping notification %d", task.NotificationID)
		return nil
	}

	return w.deliver(ctx, &task)
}
