package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHolidayService_FirstWorkdayOnOrAfter(t *testing.T) {
	svc := NewHolidayService()
	date := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name    string
		month   time.Time
		day     int
		country string
		want    time.Time
	}{
		{"weekday stays", date(2026, 8, 20), 3, "NONE", date(2026, 8, 3)},
		{"saturday rolls to monday", date(2026, 8, 20), 1, "NONE", date(2026, 8, 3)},
		{"holiday rolls forward", date(2026, 12, 1), 25, "US", date(2026, 12, 28)},
		{"no workday left falls back to last day", date(2026, 2, 1), 28, "NONE", date(2026, 2, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.FirstWorkdayOnOrAfter(tt.month, tt.day, tt.country)
			assert.True(t, tt.want.Equal(got), "got %s", got.Format("2006-01-02"))
		})
	}
}

func TestHolidayService_IsWorkday(t *testing.T) {
	svc := NewHolidayService()

	christmas := time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC)
	assert.False(t, svc.IsWorkday(christmas, "US"))
	assert.True(t, svc.IsWorkday(christmas, "NONE"))
	assert.True(t, svc.IsHoliday(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), "NONE"))
}

func TestIsSupportedCountry(t *testing.T) {
	assert.True(t, IsSupportedCountry("NONE"))
	assert.True(t, IsSupportedCountry("GB"))
	assert.False(t, IsSupportedCountry("XX"))
	assert.False(t, IsSupportedCountry("gb"))
	assert.Len(t, NewHolidayService().GetSupportedCountries(), len(supportedCountries))
}
