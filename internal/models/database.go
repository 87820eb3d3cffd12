package models

import (
	"fmt"

	"github.com/huangang/gymdesk/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open connects to the configured database without touching the global handle.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// unique violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

func InitDB(cfg *config.DatabaseConfig) error {
	db, err := Open(cfg)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// Migrate creates or updates every table on the given handle.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Credential{},
		&RefreshToken{},
		&Member{},
		&Bill{},
		&Notification{},
		&Supplement{},
		&DietPlan{},
		&LogEntry{},
		&SystemConfig{},
		&SchedulerLock{},
	)
}

func AutoMigrate() error {
	return Migrate(DB)
}

func GetDB() *gorm.DB {
	return DB
}

// SeedDefaultData creates default system configs if not exists
func SeedDefaultData(db *gorm.DB, reminder *config.ReminderConfig) error {
	defaultConfigs := []SystemConfig{
		{Key: ConfigReminderEnabled, Value: fmt.Sprintf("%t", reminder.Enabled), Type: "bool", Group: "reminder", Label: "Send Monthly Fee Reminders"},
		{Key: ConfigReminderDay, Value: fmt.Sprintf("%d", reminder.Day), Type: "int", Group: "reminder", Label: "Reminder Day Of Month"},
		{Key: ConfigReminderHour, Value: fmt.Sprintf("%d", reminder.Hour), Type: "int", Group: "reminder", Label: "Reminder Hour"},
		{Key: ConfigReminderCountry, Value: reminder.Country, Type: "string", Group: "reminder", Label: "Holiday Calendar"},
	}

	for _, cfg := range defaultConfigs {
		var count int64
		db.Model(&SystemConfig{}).Where(&SystemConfig{Key: cfg.Key}).Count(&count)
		if count == 0 {
			if err := db.Create(&cfg).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
