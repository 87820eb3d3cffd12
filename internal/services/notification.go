package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/huangang/gymdesk/internal/metrics"
	"github.com/huangang/gymdesk/internal/models"
	"github.com/huangang/gymdesk/internal/utils"
	"github.com/huangang/gymdesk/pkg/logger"
	"gorm.io/gorm"
)

const (
	modeSingle    = "single"
	modeBroadcast = "broadcast"
	modeReminder  = "reminder"

	notificationListLimit      = 100
	defaultBroadcastWorkers    = 16
	broadcastAuditRecipient    = "broadcast"
	monthlyReminderFallbackFee = "fee"
)

type NotificationService struct {
	notifications *Repository[models.Notification]
	members       *MemberService
	pipe          *Pipeline
	queue         TaskQueue
	workers       int
	now           func() time.Time
}

// NewNotificationService wires the fan-out. queue may be nil, in which case
// no email delivery is attempted.
func NewNotificationService(db *gorm.DB, members *MemberService, pipe *Pipeline, queue TaskQueue, maxConcurrency int) *NotificationService {
	if maxConcurrency <= 0 {
		maxConcurrency = defaultBroadcastWorkers
	}
	return &NotificationService{
		notifications: NewRepository[models.Notification](db),
		members:       members,
		pipe:          pipe,
		queue:         queue,
		workers:       maxConcurrency,
		now:           time.Now,
	}
}

// SendNotificationRequest targets one member, or every member when Email is
// empty.
type SendNotificationRequest struct {
	Email   string `json:"email" binding:"omitempty,email,max=255"`
	Message string `json:"message" binding:"required"`
}

type RecipientOutcome struct {
	Email          string `json:"email"`
	NotificationID uint   `json:"notification_id,omitempty"`
	Error          string `json:"error,omitempty"`

	err error
}

func (o RecipientOutcome) OK() bool { return o.Error == "" }

// BroadcastResult keeps the outcome of every recipient in a batch.
type BroadcastResult struct {
	Mode      string             `json:"mode"`
	Total     int                `json:"total"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Outcomes  []RecipientOutcome `json:"outcomes"`
}

// Err reports a batch that lost recipients. The result is never a silent
// success when Failed > 0.
func (r *BroadcastResult) Err() error {
	if r.Failed == 0 {
		return nil
	}
	return &Error{
		Kind:    KindBackend,
		Message: fmt.Sprintf("%d of %d notifications failed", r.Failed, r.Total),
		Err:     ErrPartialDelivery,
	}
}

// event announces the written notifications. A batch that wrote nothing is
// still audited but publishes no change.
func (r *BroadcastResult) event() ChangeEvent {
	if r.Succeeded == 0 {
		return ChangeEvent{}
	}
	return ChangeEvent{Entity: "notifications", Action: "created", Count: r.Succeeded}
}

type recipient struct {
	email   string
	message string
}

// Send writes one notification for a known member, or fans out to every
// member. A partial broadcast returns both the result and an error wrapping
// ErrPartialDelivery. Once the guard passes the workflow ignores ctx
// cancellation, so an abandoned request does not leave a batch half-issued.
func (s *NotificationService) Send(ctx context.Context, sess Session, req *SendNotificationRequest) (*BroadcastResult, error) {
	msg := strings.TrimSpace(req.Message)
	email := utils.NormalizeEmail(req.Email)
	if err := validate(&SendNotificationRequest{Email: email, Message: msg}); err != nil {
		return nil, err
	}

	if err := s.pipe.begin(ctx); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	if email != "" {
		return s.sendSingle(ctx, sess, email, msg)
	}
	return s.broadcast(ctx, sess, msg)
}

func (s *NotificationService) sendSingle(ctx context.Context, sess Session, email, msg string) (*BroadcastResult, error) {
	member, err := s.members.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	result := s.fanOut(ctx, modeSingle, []recipient{{email: member.Email, message: msg}})
	if result.Succeeded == 0 {
		return result, storeError("create notification", result.Outcomes[0].err)
	}

	s.pipe.done(ctx, sess, ActionSendNotification,
		models.Details{"email": member.Email, "msg": msg},
		ChangeEvent{Entity: "notifications", Action: "created", ID: result.Outcomes[0].NotificationID, Email: member.Email})
	return result, nil
}

func (s *NotificationService) broadcast(ctx context.Context, sess Session, msg string) (*BroadcastResult, error) {
	members, err := s.allMembers(ctx)
	if err != nil {
		return nil, err
	}

	targets := make([]recipient, len(members))
	for i, m := range members {
		targets[i] = recipient{email: m.Email, message: msg}
	}

	result := s.fanOut(ctx, modeBroadcast, targets)
	s.pipe.done(ctx, sess, ActionSendNotification,
		models.Details{
			"email":     broadcastAuditRecipient,
			"msg":       msg,
			"total":     result.Total,
			"succeeded": result.Succeeded,
			"failed":    result.Failed,
		},
		result.event())
	return result, result.Err()
}

// SendMonthlyReminders sends every member a fee reminder naming their
// package. The reminder scheduler calls it with SystemSession. Like Send it
// runs to completion once the guard passes.
func (s *NotificationService) SendMonthlyReminders(ctx context.Context, sess Session) (*BroadcastResult, error) {
	if err := s.pipe.begin(ctx); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	members, err := s.allMembers(ctx)
	if err != nil {
		return nil, err
	}

	targets := make([]recipient, len(members))
	for i, m := range members {
		targets[i] = recipient{email: m.Email, message: MonthlyReminderMessage(m.FeePackage)}
	}

	result := s.fanOut(ctx, modeReminder, targets)
	s.pipe.done(ctx, sess, ActionMonthlyNotifications,
		models.Details{"count": result.Succeeded, "total": result.Total, "failed": result.Failed},
		result.event())
	return result, result.Err()
}

// MonthlyReminderMessage is the reminder text for a member's fee package.
func MonthlyReminderMessage(feePackage string) string {
	if strings.TrimSpace(feePackage) == "" {
		feePackage = monthlyReminderFallbackFee
	}
	return "Monthly fee reminder: please pay your " + feePackage
}

func (s *NotificationService) allMembers(ctx context.Context) ([]models.Member, error) {
	members, err := s.members.members.List(ctx, Order{Key: "id"}, 0)
	if err != nil {
		return nil, storeError("list members", err)
	}
	if len(members) == 0 {
		return nil, &Error{Kind: KindEmptyTarget, Message: "no members found to send notifications"}
	}
	return members, nil
}

// fanOut writes one notification per recipient concurrently, bounded by the
// worker count. Writes are independent and unordered; a failed write does
// not undo the others.
func (s *NotificationService) fanOut(ctx context.Context, mode string, targets []recipient) *BroadcastResult {
	outcomes := make([]RecipientOutcome, len(targets))

	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, target recipient) {
			defer wg.Done()
			defer func() { <-sem }()

			n := &models.Notification{
				Email:   target.email,
				Message: target.message,
				Ts:      s.now(),
				Read:    false,
			}
			if err := s.notifications.Create(ctx, n); err != nil {
				outcomes[i] = RecipientOutcome{Email: target.email, Error: err.Error(), err: err}
				return
			}
			outcomes[i] = RecipientOutcome{Email: target.email, NotificationID: n.ID}
			s.enqueueDelivery(n)
		}(i, target)
	}
	wg.Wait()

	result := &BroadcastResult{Mode: mode, Total: len(targets), Outcomes: outcomes}
	for _, o := range outcomes {
		if o.OK() {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	metrics.NotificationsCreated.WithLabelValues(mode).Add(float64(result.Succeeded))
	if result.Failed > 0 {
		metrics.NotificationFailures.WithLabelValues(mode).Add(float64(result.Failed))
		logger.Warn().
			Str("mode", mode).
			Int("total", result.Total).
			Int("failed", result.Failed).
			Msg("notification batch partially failed")
	}
	return result
}

func (s *NotificationService) enqueueDelivery(n *models.Notification) {
	if s.queue == nil {
		return
	}
	task := &DeliveryTask{NotificationID: n.ID, Email: n.Email, Message: n.Message}
	if err := s.queue.Enqueue(task); err != nil {
		metrics.DeliveryTasks.WithLabelValues("failed").Inc()
		logger.Warn().Err(err).Uint("notification_id", n.ID).Msg("failed to enqueue delivery")
		return
	}
	metrics.DeliveryTasks.WithLabelValues("enqueued").Inc()
}

// List returns the most recent notifications, newest first.
func (s *NotificationService) List(ctx context.Context) ([]models.Notification, error) {
	list, err := s.notifications.List(ctx, Order{Key: "ts", Desc: true}, notificationListLimit)
	if err != nil {
		return nil, storeError("list notifications", err)
	}
	return list, nil
}

func (s *NotificationService) ListByEmail(ctx context.Context, email string) ([]models.Notification, error) {
	list, err := s.notifications.FindByField(ctx, "email", utils.NormalizeEmail(email), Order{Key: "ts", Desc: true})
	if err != nil {
		return nil, storeError("list notifications", err)
	}
	return list, nil
}

func (s *NotificationService) Delete(ctx context.Context, sess Session, id uint) error {
	if err := s.pipe.begin(ctx); err != nil {
		return err
	}

	if err := s.notifications.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("notification %d not found", id)
		}
		return storeError("delete notification", err)
	}

	s.pipe.done(ctx, sess, ActionDeleteNotification,
		models.Details{"id": id},
		ChangeEvent{Entity: "notifications", Action: "deleted", ID: id})
	return nil
}
