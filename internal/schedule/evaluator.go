package schedule

import (
	"time"

	"codeberg.org/mutker/geotrackd/internal/model"
)

// WithinWindow reports whether collection should be running at the given
// wall-clock time. The check is inclusive on both ends: a tick landing on
// the exact end minute still fires. Evaluation only ever looks at the
// current day; a window whose start lies after its end never matches
// (known limitation: no wrap across midnight).
func WithinWindow(now time.Time, cfg model.ScheduleConfig) bool {
	if !cfg.Enabled(now.Weekday()) {
		return false
	}

	minute := now.Hour()*60 + now.Minute()

	return cfg.StartMinute <= minute && minute <= cfg.EndMinute
}
