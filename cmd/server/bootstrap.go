package main

import (
	"context"
	"time"

	"github.com/huangang/gymdesk/internal/config"
	"github.com/huangang/gymdesk/internal/handlers"
	"github.com/huangang/gymdesk/internal/models"
	"github.com/huangang/gymdesk/internal/services"
	"github.com/huangang/gymdesk/internal/utils"
	"github.com/huangang/gymdesk/pkg/logger"
	"gorm.io/gorm"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg       *config.Config
	db        *gorm.DB
	hub       *services.SSEHub
	guard     *services.ConnectivityGuard
	inFlight  services.InFlight
	taskQueue services.TaskQueue
	worker    *services.Worker
	reminders *services.ReminderScheduler

	authHandler         *handlers.AuthHandler
	memberHandler       *handlers.MemberHandler
	billHandler         *handlers.BillHandler
	notificationHandler *handlers.NotificationHandler
	supplementHandler   *handlers.SupplementHandler
	dietHandler         *handlers.DietHandler
	exportHandler       *handlers.ExportHandler
	auditLogHandler     *handlers.AuditLogHandler
	memberViewHandler   *handlers.MemberViewHandler
	systemConfigHandler *handlers.SystemConfigHandler
	healthHandler       *handlers.HealthHandler
	sseHandler          *handlers.SSEHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	db := models.GetDB()

	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	if err := models.SeedDefaultData(db, &cfg.Reminder); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	guard := services.NewConnectivityGuard(&cfg.Connectivity, db)
	hub := services.NewSSEHub()
	audit := services.NewAuditLogger(db)
	pipe := &services.Pipeline{Guard: guard, Audit: audit, Hub: hub}

	// Deliveries run through Redis when it is enabled, otherwise inline.
	mailer := services.NewMailer(&cfg.Email)
	taskQueue := services.NewTaskQueue(&cfg.Redis, mailer.Deliver)
	var worker *services.Worker
	if taskQueue.IsAsync() {
		worker = services.NewWorker(&cfg.Redis, mailer.Deliver)
		if worker != nil {
			if err := worker.Start(); err != nil {
				logger.Error().Err(err).Msg("Failed to start delivery worker")
			}
		}
	}

	members := services.NewMemberService(db, pipe)
	bills := services.NewBillService(db, members, pipe)
	notifications := services.NewNotificationService(db, members, pipe, taskQueue, cfg.Broadcast.MaxConcurrency)
	supplements := services.NewSupplementService(db, pipe)
	diets := services.NewDietService(db, members, pipe)
	holidays := services.NewHolidayService()
	configService := services.NewSystemConfigService(db)

	authService := services.NewAuthService(db, services.NewAuthProvider(db, cfg), &cfg.Auth, &cfg.JWT, audit)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authService.EnsureAdmin(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}
	cancel()

	reminders := services.NewReminderScheduler(db, notifications, holidays)
	if err := reminders.Start(); err != nil {
		logger.Error().Err(err).Msg("Failed to start reminder scheduler")
	}

	view := services.NewMemberViewService(members, bills, notifications, supplements, diets, audit)

	return &appServices{
		cfg:       cfg,
		db:        db,
		hub:       hub,
		guard:     guard,
		inFlight:  services.NewInFlight(&cfg.Redis),
		taskQueue: taskQueue,
		worker:    worker,
		reminders: reminders,

		authHandler:         handlers.NewAuthHandler(authService, &cfg.Auth),
		memberHandler:       handlers.NewMemberHandler(members),
		billHandler:         handlers.NewBillHandler(bills),
		notificationHandler: handlers.NewNotificationHandler(notifications),
		supplementHandler:   handlers.NewSupplementHandler(supplements),
		dietHandler:         handlers.NewDietHandler(diets),
		exportHandler:       handlers.NewExportHandler(services.NewExportService(db)),
		auditLogHandler:     handlers.NewAuditLogHandler(audit),
		memberViewHandler:   handlers.NewMemberViewHandler(view),
		systemConfigHandler: handlers.NewSystemConfigHandler(configService, holidays),
		healthHandler:       handlers.NewHealthHandler(db, taskQueue, hub, guard),
		sseHandler:          handlers.NewSSEHandler(hub),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.reminders.Stop()
	logger.Info().Msg("Reminder scheduler stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		if err := s.taskQueue.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close task queue")
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
}
