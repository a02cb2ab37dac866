// Package logic contains pure business logic for irrigation schedule tracking.
// This package has NO external dependencies (no HTTP, files, OS, or clock reads).
// Time and location are always injectable via parameters.
package logic

import (
	"errors"
	"fmt"
	"time"
)

// OperatingMode is the controller's high-level activity as reported by the API.
// Values other than the known constants pass through unchanged.
type OperatingMode string

const (
	ModeIdle     OperatingMode = "IDLE"
	ModeWatering OperatingMode = "WATERING"
	ModeStandby  OperatingMode = "STANDBY"
)

// DeviceState is a freshly fetched view of the controller.
type DeviceState struct {
	Mode    OperatingMode
	NextRun string // YYYY-MM-DDTHH:MM:SSZ, empty when nothing is scheduled
}

// Record is the state carried between invocations.
type Record struct {
	NextRun      string // empty when absent
	ReminderSent bool
}

// Evaluation is the local-time view of a scheduled run.
type Evaluation struct {
	CurrentHour int    // local hour of "now", 0-23
	Weekday     string // e.g. "Thursday"
	RunTime     string // e.g. "7:00PM"
	RunDate     string // e.g. "10/2"
	Tomorrow    bool
	RunAt       time.Time // run time in the evaluation location
}

// NotificationKind identifies the reason a notification is sent.
type NotificationKind string

const (
	KindScheduleChanged NotificationKind = "SCHEDULE_CHANGED"
	KindReminder        NotificationKind = "REMINDER"
)

// Notification is a message to deliver to the user.
type Notification struct {
	Kind    NotificationKind
	Title   string
	Message string
}

// Text returns the body sent to the push relay.
func (n Notification) Text() string {
	return n.Title + "\n" + n.Message
}

// Outcome summarizes what a single invocation decided.
type Outcome string

const (
	OutcomeBootstrapped    Outcome = "BOOTSTRAPPED"
	OutcomeWatering        Outcome = "WATERING"
	OutcomeStandby         Outcome = "STANDBY"
	OutcomeUnknownMode     Outcome = "UNKNOWN_MODE"
	OutcomeNoRunScheduled  Outcome = "NO_RUN_SCHEDULED"
	OutcomeScheduleChanged Outcome = "SCHEDULE_CHANGED"
	OutcomeNoChange        Outcome = "NO_CHANGE"
)

// Decision is the result of evaluating one invocation.
type Decision struct {
	Outcome       Outcome
	Evaluation    *Evaluation // nil unless the device was idle with a run scheduled
	Notifications []Notification
	Record        *Record // nil means the persisted record must not be touched
}

// ReminderWindow is an inclusive range of local hours in which the
// "runs tomorrow" reminder may be sent.
type ReminderWindow struct {
	StartHour int
	EndHour   int
}

// DefaultReminderWindow covers 6pm through 10pm.
var DefaultReminderWindow = ReminderWindow{StartHour: 18, EndHour: 22}

// ErrInvalidWindow is returned by Validate for out-of-range hours.
var ErrInvalidWindow = errors.New("invalid reminder window")

// Contains reports whether hour falls inside the window.
func (w ReminderWindow) Contains(hour int) bool {
	return hour >= w.StartHour && hour <= w.EndHour
}

// Validate checks both hours are in 0-23 and start is not after end.
func (w ReminderWindow) Validate() error {
	if w.StartHour < 0 || w.StartHour > 23 || w.EndHour < 0 || w.EndHour > 23 {
		return fmt.Errorf("%w: hours must be 0-23, got %d-%d", ErrInvalidWindow, w.StartHour, w.EndHour)
	}
	if w.StartHour > w.EndHour {
		return fmt.Errorf("%w: start %d is after end %d", ErrInvalidWindow, w.StartHour, w.EndHour)
	}
	return nil
}
