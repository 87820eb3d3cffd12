package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/huangang/gymdesk/internal/config"
	"github.com/huangang/gymdesk/internal/metrics"
	"github.com/huangang/gymdesk/pkg/logger"
	"gopkg.in/gomail.v2"
)

const notificationSubject = "[GymDesk] New notification"

// Sender sends one prepared message.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer emails stored notifications to members over SMTP.
type Mailer struct {
	cfg    *config.EmailConfig
	sender Sender
}

func NewMailer(cfg *config.EmailConfig) *Mailer {
	m := &Mailer{cfg: cfg}
	if cfg.Host != "" {
		m.sender = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return m
}

func (m *Mailer) configured() bool {
	return m.cfg.Enabled && m.sender != nil && m.cfg.From != ""
}

// Deliver is the TaskQueue processor. Unconfigured SMTP skips delivery.
func (m *Mailer) Deliver(ctx context.Context, task *DeliveryTask) error {
	if !m.configured() {
		metrics.DeliveryTasks.WithLabelValues("skipped").Inc()
		return nil
	}
	if strings.TrimSpace(task.Email) == "" {
		metrics.DeliveryTasks.WithLabelValues("skipped").Inc()
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", task.Email)
	msg.SetHeader("Subject", notificationSubject)
	msg.SetBody("text/plain", task.Message)

	if err := m.sender.DialAndSend(msg); err != nil {
		metrics.DeliveryTasks.WithLabelValues("failed").Inc()
		return fmt.Errorf("send email: %w", err)
	}

	metrics.DeliveryTasks.WithLabelValues("sent").Inc()
	logger.Info().Str("to", task.Email).Uint("notification_id", task.NotificationID).Msg("notification email sent")
	return nil
}
