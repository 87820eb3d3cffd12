package services

import (
	"context"
	"errors"
	"strconv"

	"github.com/huangang/gymdesk/internal/models"
	"gorm.io/gorm"
)

type SystemConfigService struct {
	db *gorm.DB
}

func NewSystemConfigService(db *gorm.DB) *SystemConfigService {
	return &SystemConfigService{db: db}
}

func (s *SystemConfigService) Get(key string) (string, error) {
	var cfg models.SystemConfig
	if err := s.db.Where(&models.SystemConfig{Key: key}).Take(&cfg).Error; err != nil {
		return "", err
	}
	return cfg.Value, nil
}

func (s *SystemConfigService) GetWithDefault(key, defaultValue string) string {
	value, err := s.Get(key)
	if err != nil {
		return defaultValue
	}
	return value
}

func (s *SystemConfigService) Set(key, value string) error {
	var cfg models.SystemConfig
	err := s.db.Where(&models.SystemConfig{Key: key}).Take(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cfg = models.SystemConfig{
			Key:   key,
			Value: value,
		}
		return s.db.Create(&cfg).Error
	}
	if err != nil {
		return err
	}
	return s.db.Model(&cfg).Update("value", value).Error
}

func (s *SystemConfigService) GetByGroup(group string) ([]models.SystemConfig, error) {
	var configs []models.SystemConfig
	if err := s.db.Where(&models.SystemConfig{Group: group}).Order("id").Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

// ReminderConfigResponse is the runtime schedule of the monthly reminder.
type ReminderConfigResponse struct {
	Enabled bool   `json:"enabled"`
	Day     int    `json:"day"`  // day of month, 1-28
	Hour    int    `json:"hour"` // 0-23, server local time
	Country string `json:"country"`
}

func (s *SystemConfigService) GetReminderConfig() *ReminderConfigResponse {
	day, err := strconv.Atoi(s.GetWithDefault(models.ConfigReminderDay, "1"))
	if err != nil || day < 1 || day > 28 {
		day = 1
	}
	hour, err := strconv.Atoi(s.GetWithDefault(models.ConfigReminderHour, "9"))
	if err != nil || hour < 0 || hour > 23 {
		hour = 9
	}
	return &ReminderConfigResponse{
		Enabled: s.GetWithDefault(models.ConfigReminderEnabled, "false") == "true",
		Day:     day,
		Hour:    hour,
		Country: s.GetWithDefault(models.ConfigReminderCountry, "NONE"),
	}
}

type UpdateReminderConfigRequest struct {
	Enabled *bool   `json:"enabled"`
	Day     *int    `json:"day" binding:"omitnil,min=1,max=28"`
	Hour    *int    `json:"hour" binding:"omitnil,min=0,max=23"`
	Country *string `json:"country" binding:"omitnil,holiday_country"`
}

// UpdateReminderConfig applies the fields that are set. Values are checked
// before anything is written.
func (s *SystemConfigService) UpdateReminderConfig(ctx context.Context, req *UpdateReminderConfigRequest) error {
	if err := validate(req); err != nil {
		return err
	}

	svc := &SystemConfigService{db: s.db.WithContext(ctx)}
	if req.Enabled != nil {
		if err := svc.Set(models.ConfigReminderEnabled, strconv.FormatBool(*req.Enabled)); err != nil {
			return storeError("save reminder config", err)
		}
	}
	if req.Day != nil {
		if err := svc.Set(models.ConfigReminderDay, strconv.Itoa(*req.Day)); err != nil {
			return storeError("save reminder config", err)
		}
	}
	if req.Hour != nil {
		if err := svc.Set(models.ConfigReminderHour, strconv.Itoa(*req.Hour)); err != nil {
			return storeError("save reminder config", err)
		}
	}
	if req.Country != nil {
		if err := svc.Set(models.ConfigReminderCountry, *req.Country); err != nil {
			return storeError("save reminder config", err)
		}
	}
	return nil
}
