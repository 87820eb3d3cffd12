package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/huangang/gymdesk/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func TestDeliveryTask_JSON(t *testing.T) {
	payload, err := json.Marshal(&DeliveryTask{NotificationID: 7, Email: "a@gym.test", Message: "hi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"notification_id":7,"email":"a@gym.test","message":"hi"}`, string(payload))
}

func TestNewTaskQueue_SyncWhenRedisDisabled(t *testing.T) {
	done := make(chan *DeliveryTask, 1)
	queue := NewTaskQueue(&config.RedisConfig{Enabled: false}, func(ctx context.Context, task *DeliveryTask) error {
		done <- task
		return nil
	})
	defer queue.Close()

	assert.False(t, queue.IsAsync())
	require.NoError(t, queue.Enqueue(&DeliveryTask{NotificationID: 3}))

	select {
	case task := <-done:
		assert.EqualValues(t, 3, task.NotificationID)
	case <-time.After(time.Second):
		t.Fatal("processor was not called")
	}
}

func TestSyncQueue_NoProcessor(t *testing.T) {
	q := NewSyncQueue()
	assert.NoError(t, q.Enqueue(&DeliveryTask{NotificationID: 1}))
}

func TestWorker_DisabledRedis(t *testing.T) {
	assert.Nil(t, NewWorker(&config.RedisConfig{Enabled: false}, nil))
}

func TestWorker_HandleDeliveryTask(t *testing.T) {
	var got *DeliveryTask
	calls := 0
	w := &Worker{deliver: func(ctx context.Context, task *DeliveryTask) error {
		calls++
		got = task
		return errors.New("smtp down")
	}}
	run := func(task interface{}) error {
		payload, _ := json.Marshal(task)
		return w.handleDeliveryTask(context.Background(), asynq.NewTask(TaskTypeDeliverNotification, payload))
	}

	err := w.handleDeliveryTask(context.Background(), asynq.NewTask(TaskTypeDeliverNotification, []byte("{")))
	assert.True(t, errors.Is(err, asynq.SkipRetry), "malformed payload")

	assert.True(t, errors.Is(run(&DeliveryTask{NotificationID: 9}), asynq.SkipRetry), "no recipient")
	assert.True(t, errors.Is(run(&DeliveryTask{Email: "a@gym.test"}), asynq.SkipRetry), "no notification")
	assert.Zero(t, calls, "invalid tasks never reach the mailer")

	// a mailer error is returned so asynq retries the delivery
	err = run(&DeliveryTask{NotificationID: 9, Email: "a@gym.test"})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
	require.NotNil(t, got)
	assert.EqualValues(t, 9, got.NotificationID)
}

func TestWorker_NoMailerDropsTask(t *testing.T) {
	w := &Worker{}
	payload, _ := json.Marshal(&DeliveryTask{NotificationID: 9, Email: "a@gym.test"})
	assert.NoError(t, w.handleDeliveryTask(context.Background(), asynq.NewTask(TaskTypeDeliverNotification, payload)))
}

type fakeSender struct {
	mu   sync.Mutex
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func TestMailer_Deliver(t *testing.T) {
	sender := &fakeSender{}
	mailer := &Mailer{cfg: &config.EmailConfig{Enabled: true, From: "desk@gym.test"}, sender: sender}
	task := &DeliveryTask{NotificationID: 1, Email: "asha@gym.test", Message: "Pay your fee"}

	require.NoError(t, mailer.Deliver(context.Background(), task))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"asha@gym.test"}, sender.sent[0].GetHeader("To"))
	assert.Equal(t, []string{notificationSubject}, sender.sent[0].GetHeader("Subject"))

	sender.err = errors.New("connection refused")
	assert.Error(t, mailer.Deliver(context.Background(), task))

	require.NoError(t, mailer.Deliver(context.Background(), &DeliveryTask{NotificationID: 2}))
	assert.Len(t, sender.sent, 1, "a task without an address is skipped")
}

func TestMailer_Unconfigured(t *testing.T) {
	mailer := NewMailer(&config.EmailConfig{Enabled: false})
	assert.NoError(t, mailer.Deliver(context.Background(), &DeliveryTask{Email: "a@gym.test"}))
}
