package model

import "time"

// Sample is a single persisted location reading. IDs are assigned by the
// store and strictly increase with insertion order; samples are immutable
// once written. Timestamps are milliseconds since the Unix epoch.
type Sample struct {
	ID        int64   `json:"id"`
	DeviceID  string  `json:"deviceId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

// DeviceStatus is a point-in-time snapshot of the host device.
type DeviceStatus struct {
	BatteryLevel     int    `json:"batteryLevel"`
	DeviceModel      string `json:"deviceModel"`
	OSVersion        string `json:"osVersion"`
	AvailableStorage int64  `json:"availableStorage"`
	NetworkConnected bool   `json:"networkConnected"`
	Timestamp        int64  `json:"timestamp"`
}

// Mode selects how collection is driven.
type Mode string

const (
	ModeContinuous Mode = "continuous"
	ModeScheduled  Mode = "scheduled"
)

// Valid reports whether the mode is one of the known values.
func (m Mode) Valid() bool {
	return m == ModeContinuous || m == ModeScheduled
}

// ModeState is the persisted controller state. The mode selector is an
// independent preference: it records which set of controls is in use, not
// whether anything is currently running.
type ModeState struct {
	Mode              Mode `json:"mode"`
	ContinuousRunning bool `json:"continuousRunning"`
	ScheduleActive    bool `json:"scheduleActive"`
}

// ScheduleConfig is a weekly collection window. Days is indexed by
// time.Weekday (Sunday = 0). Start and end are minutes of the day in
// [0,1439], inclusive on both ends. A window with StartMinute > EndMinute
// never matches; there is no wrap across midnight.
type ScheduleConfig struct {
	Days        [7]bool `json:"days"`
	StartMinute int     `json:"startMinute"`
	EndMinute   int     `json:"endMinute"`
}

// Enabled reports whether the given weekday is part of the window.
func (c ScheduleConfig) Enabled(day time.Weekday) bool {
	return c.Days[int(day)%7]
}
