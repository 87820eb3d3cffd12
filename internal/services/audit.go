package services

import (
	"context"
	"time"

	"github.com/huangang/gymdesk/internal/metrics"
	"github.com/huangang/gymdesk/internal/models"
	"github.com/huangang/gymdesk/pkg/logger"
	"gorm.io/gorm"
)

// Audit action tags.
const (
	ActionAddMember            = "add_member"
	ActionEditMember           = "edit_member"
	ActionDeleteMember         = "delete_member"
	ActionCreateBill           = "create_bill"
	ActionMarkPaid             = "mark_paid"
	ActionDeleteBill           = "delete_bill"
	ActionSendNotification     = "send_notification"
	ActionMonthlyNotifications = "monthly_notifications"
	ActionDeleteNotification   = "delete_notification"
	ActionAddSupplement        = "add_supp"
	ActionDeleteSupplement     = "delete_supplement"
	ActionAddDiet              = "add_diet"
	ActionDeleteDiet           = "delete_diet"
	ActionRegister             = "register"
	ActionLogin                = "login"
	ActionMemberLogin          = "member_login"
	ActionLogout               = "logout"
	ActionMemberLogout         = "member_logout"
	ActionMemberSearch         = "member_search"
)

const (
	defaultLogPageSize = 50
	maxLogPageSize     = 100
)

// AuditLogger appends entries to the log_entries table. Writes are best
// effort: a failure is reported on the diagnostic log and never returned.
type AuditLogger struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAuditLogger(db *gorm.DB) *AuditLogger {
	return &AuditLogger{db: db, now: time.Now}
}

// Record appends one entry for action. It survives cancellation of ctx so a
// finished mutation is still logged when the client has gone away.
func (a *AuditLogger) Record(ctx context.Context, sess Session, action string, details models.Details) {
	if a == nil || a.db == nil {
		return
	}

	entry := &models.LogEntry{
		UID:     sess.actor(),
		Action:  action,
		Details: details,
		Ts:      a.now(),
	}
	if err := a.db.WithContext(context.WithoutCancel(ctx)).Create(entry).Error; err != nil {
		metrics.AuditWriteFailures.Inc()
		logger.Warn().
			Err(err).
			Str("component", "audit").
			Str("action", action).
			Msg("failed to write audit entry")
	}
}

type LogListRequest struct {
	Limit  int    `form:"limit"`
	Action string `form:"action"`
}

// List returns the most recent entries, newest first.
func (a *AuditLogger) List(ctx context.Context, req *LogListRequest) ([]models.LogEntry, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLogPageSize
	}
	if limit > maxLogPageSize {
		limit = maxLogPageSize
	}

	query := a.db.WithContext(ctx).Model(&models.LogEntry{})
	if req.Action != "" {
		query = query.Where("action = ?", req.Action)
	}

	var entries []models.LogEntry
	if err := query.Order("ts DESC").Order("id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, storeError("list logs", err)
	}
	return entries, nil
}
