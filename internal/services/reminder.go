package services

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/huangang/gymdesk/internal/metrics"
	"github.com/huangang/gymdesk/internal/models"
	"github.com/huangang/gymdesk/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const (
	reminderLockName = "monthly_reminder"
	reminderCronExpr = "0 * * * *"
)

// ReminderScheduler sends the monthly fee reminder once per month, at the
// configured hour on the first working day on or after the configured day.
// Missed ticks catch up later in the same month.
type ReminderScheduler struct {
	db            *gorm.DB
	configSvc     *SystemConfigService
	holidays      *HolidayService
	notifications *NotificationService
	instance      string
	cronScheduler *cron.Cron
	now           func() time.Time
}

func NewReminderScheduler(db *gorm.DB, notifications *NotificationService, holidays *HolidayService) *ReminderScheduler {
	instance, err := os.Hostname()
	if err != nil || instance == "" {
		instance = "gymdesk"
	}
	return &ReminderScheduler{
		db:            db,
		configSvc:     NewSystemConfigService(db),
		holidays:      holidays,
		notifications: notifications,
		instance:      instance,
		now:           time.Now,
	}
}

// Start checks the schedule at the top of every hour. Settings are re-read on
// each tick so admin edits apply without a restart.
func (s *ReminderScheduler) Start() error {
	s.cronScheduler = cron.New()
	if _, err := s.cronScheduler.AddFunc(reminderCronExpr, s.tick); err != nil {
		return err
	}
	s.cronScheduler.Start()
	logger.Infof("[Reminder] Scheduler started (cron: %s)", reminderCronExpr)
	return nil
}

func (s *ReminderScheduler) Stop() {
	if s.cronScheduler != nil {
		<-s.cronScheduler.Stop().Done()
	}
}

func (s *ReminderScheduler) tick() {
	if _, err := s.RunDue(context.Background(), s.now()); err != nil {
		logger.Errorf("[Reminder] Run failed: %v", err)
	}
}

// DueAt returns when this month's reminder is scheduled.
func (s *ReminderScheduler) DueAt(now time.Time, cfg *ReminderConfigResponse) time.Time {
	day := s.holidays.FirstWorkdayOnOrAfter(now, cfg.Day, cfg.Country)
	return time.Date(day.Year(), day.Month(), day.Day(), cfg.Hour, 0, 0, 0, now.Location())
}

// RunDue sends the reminder when it is due and this month has not been
// claimed yet. It reports whether a batch was sent.
func (s *ReminderScheduler) RunDue(ctx context.Context, now time.Time) (bool, error) {
	cfg := s.configSvc.GetReminderConfig()
	if !cfg.Enabled {
		return false, nil
	}
	if now.Before(s.DueAt(now, cfg)) {
		return false, nil
	}

	period := now.Format("2006-01")
	claimed, err := s.claim(ctx, period, now)
	if err != nil {
		metrics.ReminderRuns.WithLabelValues("error").Inc()
		return false, err
	}
	if !claimed {
		return false, nil
	}

	result, err := s.notifications.SendMonthlyReminders(ctx, SystemSession())
	switch {
	case errors.Is(err, ErrConnectivity):
		// nothing was written, let the next tick retry
		s.release(ctx, period)
		metrics.ReminderRuns.WithLabelValues("offline").Inc()
		return false, err
	case errors.Is(err, ErrEmptyTarget):
		metrics.ReminderRuns.WithLabelValues("no_members").Inc()
		logger.Infof("[Reminder] No members to remind for %s", period)
		return false, nil
	case result == nil:
		metrics.ReminderRuns.WithLabelValues("error").Inc()
		return false, err
	}

	outcome := "sent"
	if result.Failed > 0 {
		outcome = "partial"
	}
	metrics.ReminderRuns.WithLabelValues(outcome).Inc()
	logger.Info().
		Str("period", period).
		Int("total", result.Total).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("monthly reminders sent")
	return true, err
}

// claim inserts the period's lock row. The unique (name, key) index lets
// exactly one instance win.
func (s *ReminderScheduler) claim(ctx context.Context, period string, now time.Time) (bool, error) {
	year, month, _ := now.Date()
	lock := &models.SchedulerLock{
		LockName:  reminderLockName,
		LockKey:   period,
		LockedBy:  s.instance,
		LockedAt:  now,
		ExpiresAt: time.Date(year, month+1, 1, 0, 0, 0, 0, now.Location()),
	}
	err := s.db.WithContext(ctx).Create(lock).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if err != nil {
		return false, storeError("claim reminder period", err)
	}
	return true, nil
}

func (s *ReminderScheduler) release(ctx context.Context, period string) {
	err := s.db.WithContext(ctx).
		Where(&models.SchedulerLock{LockName: reminderLockName, LockKey: period}).
		Delete(&models.SchedulerLock{}).Error
	if err != nil {
		logger.Warnf("[Reminder] Failed to release %s: %v", period, err)
	}
}
