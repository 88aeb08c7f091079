package schedule_test

import (
	"testing"
	"time"

	"codeberg.org/mutker/geotrackd/internal/model"
	"codeberg.org/mutker/geotrackd/internal/schedule"
	"github.com/stretchr/testify/assert"
)

// weekdayWindow is Monday through Friday, 08:00 to 18:00.
func weekdayWindow() model.ScheduleConfig {
	var cfg model.ScheduleConfig
	for day := time.Monday; day <= time.Friday; day++ {
		cfg.Days[int(day)] = true
	}
	cfg.StartMinute = 8 * 60
	cfg.EndMinute = 18 * 60

	return cfg
}

// at builds a wall-clock instant on a known week: 2024-01-01 was a Monday.
func at(day time.Weekday, hour, minute int) time.Time {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	offset := (int(day) - int(time.Monday) + 7) % 7

	return base.AddDate(0, 0, offset).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func TestWithinWindow(t *testing.T) {
	cfg := weekdayWindow()

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"start boundary is inclusive", at(time.Monday, 8, 0), true},
		{"end boundary is inclusive", at(time.Monday, 18, 0), true},
		{"one minute past end", at(time.Monday, 18, 1), false},
		{"one minute before start", at(time.Monday, 7, 59), false},
		{"midday inside window", at(time.Wednesday, 12, 30), true},
		{"enabled friday", at(time.Friday, 9, 15), true},
		{"disabled saturday", at(time.Saturday, 12, 0), false},
		{"disabled sunday", at(time.Sunday, 12, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, schedule.WithinWindow(tt.now, cfg))
		})
	}
}

func TestWithinWindowSingleDay(t *testing.T) {
	var cfg model.ScheduleConfig
	cfg.Days[int(time.Monday)] = true
	cfg.StartMinute = 8 * 60
	cfg.EndMinute = 18 * 60

	assert.True(t, schedule.WithinWindow(at(time.Monday, 9, 0), cfg))
	assert.False(t, schedule.WithinWindow(at(time.Tuesday, 9, 0), cfg))
}

func TestWithinWindowNoDaysEnabled(t *testing.T) {
	cfg := model.ScheduleConfig{StartMinute: 0, EndMinute: 1439}

	for day := time.Sunday; day <= time.Saturday; day++ {
		assert.False(t, schedule.WithinWindow(at(day, 12, 0), cfg))
	}
}

func TestWithinWindowInvertedNeverMatches(t *testing.T) {
	cfg := weekdayWindow()
	cfg.StartMinute = 18 * 60
	cfg.EndMinute = 8 * 60

	// An inverted window does not wrap across midnight.
	assert.False(t, schedule.WithinWindow(at(time.Monday, 20, 0), cfg))
	assert.False(t, schedule.WithinWindow(at(time.Monday, 7, 0), cfg))
	assert.False(t, schedule.WithinWindow(at(time.Monday, 12, 0), cfg))
}

func TestWithinWindowSingleMinute(t *testing.T) {
	cfg := weekdayWindow()
	cfg.StartMinute = 12 * 60
	cfg.EndMinute = 12 * 60

	assert.True(t, schedule.WithinWindow(at(time.Monday, 12, 0), cfg))
	assert.False(t, schedule.WithinWindow(at(time.Monday, 12, 1), cfg))
	assert.False(t, schedule.WithinWindow(at(time.Monday, 11, 59), cfg))
}
