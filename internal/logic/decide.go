package logic

import "time"

const (
	titleScheduleChanged = "Irrigation Schedule Changed"
	titleReminder        = "Reminder"
)

// Decide evaluates one invocation against the previously persisted record.
// It never performs I/O; the caller sends Notifications and writes Record.
// At most one tomorrow-related notification is produced per run: a schedule
// change to a tomorrow run counts as the reminder for that run.
func Decide(prev Record, dev DeviceState, now time.Time, loc *time.Location, window ReminderWindow) (Decision, error) {
	switch dev.Mode {
	case ModeIdle:
	case ModeWatering:
		return Decision{Outcome: OutcomeWatering}, nil
	case ModeStandby:
		return Decision{Outcome: OutcomeStandby}, nil
	default:
		return Decision{Outcome: OutcomeUnknownMode}, nil
	}

	if dev.NextRun == "" {
		return Decision{Outcome: OutcomeNoRunScheduled}, nil
	}

	ev, err := Evaluate(dev.NextRun, now, loc)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{
		Outcome:    OutcomeNoChange,
		Evaluation: &ev,
	}
	reminder := prev.ReminderSent

	if dev.NextRun != prev.NextRun {
		d.Outcome = OutcomeScheduleChanged
		d.Notifications = append(d.Notifications, Notification{
			Kind:    KindScheduleChanged,
			Title:   titleScheduleChanged,
			Message: ScheduleMessage(ev),
		})
		// The old reminder belonged to the old run.
		reminder = ev.Tomorrow
	}

	if window.Contains(ev.CurrentHour) && ev.Tomorrow && !reminder {
		d.Notifications = append(d.Notifications, Notification{
			Kind:    KindReminder,
			Title:   titleReminder,
			Message: "Sprinklers will run tomorrow at " + ev.RunTime,
		})
		reminder = true
	}

	d.Record = &Record{NextRun: dev.NextRun, ReminderSent: reminder}
	return d, nil
}

// ScheduleMessage describes the next run for a schedule-change notification.
func ScheduleMessage(ev Evaluation) string {
	if ev.Tomorrow {
		return "Next Run: Tomorrow at " + ev.RunTime
	}
	return "Next Run: " + ev.Weekday + " " + ev.RunDate + " at " + ev.RunTime
}
