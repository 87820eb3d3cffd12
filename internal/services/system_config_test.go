package services

import (
	"context"
	"testing"

	"github.com/huangang/gymdesk/internal/config"
	"github.com/huangang/gymdesk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemConfigService_GetSet(t *testing.T) {
	svc := NewSystemConfigService(newTestDB(t))

	_, err := svc.Get("missing")
	assert.Error(t, err)
	assert.Equal(t, "fallback", svc.GetWithDefault("missing", "fallback"))

	require.NoError(t, svc.Set("greeting", "hello"))
	require.NoError(t, svc.Set("greeting", "hi"))

	value, err := svc.Get("greeting")
	require.NoError(t, err)
	assert.Equal(t, "hi", value)
}

func TestSystemConfigService_ReminderDefaults(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, models.SeedDefaultData(db, &config.DefaultConfig().Reminder))

	svc := NewSystemConfigService(db)
	cfg := svc.GetReminderConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 1, cfg.Day)
	assert.Equal(t, 9, cfg.Hour)
	assert.Equal(t, "NONE", cfg.Country)

	group, err := svc.GetByGroup("reminder")
	require.NoError(t, err)
	assert.Len(t, group, 4)

	// out-of-range stored values fall back to defaults
	require.NoError(t, svc.Set(models.ConfigReminderDay, "31"))
	require.NoError(t, svc.Set(models.ConfigReminderHour, "x"))
	cfg = svc.GetReminderConfig()
	assert.Equal(t, 1, cfg.Day)
	assert.Equal(t, 9, cfg.Hour)
}

func TestSystemConfigService_UpdateReminderConfig(t *testing.T) {
	svc := NewSystemConfigService(newTestDB(t))
	ctx := context.Background()

	enabled, day, hour, country := true, 5, 18, "DE"
	require.NoError(t, svc.UpdateReminderConfig(ctx, &UpdateReminderConfigRequest{
		Enabled: &enabled, Day: &day, Hour: &hour, Country: &country,
	}))

	cfg := svc.GetReminderConfig()
	assert.Equal(t, &ReminderConfigResponse{Enabled: true, Day: 5, Hour: 18, Country: "DE"}, cfg)

	badDay, badHour, badCountry := 29, 24, "XX"
	tests := []struct {
		name string
		req  UpdateReminderConfigRequest
	}{
		{"day", UpdateReminderConfigRequest{Day: &badDay}},
		{"hour", UpdateReminderConfigRequest{Hour: &badHour}},
		{"country", UpdateReminderConfigRequest{Country: &badCountry}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.UpdateReminderConfig(ctx, &tt.req)
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}

	assert.Equal(t, 5, svc.GetReminderConfig().Day, "rejected updates leave stored values alone")
}
