package logic

import (
	"errors"
	"fmt"
	"time"
)

// TimestampLayout is the fixed UTC format used by the controller API.
const TimestampLayout = "2006-01-02T15:04:05Z"

const (
	runTimeLayout = "3:04PM"
	runDateLayout = "1/2"
)

// ErrBadTimestamp is returned when a run timestamp does not match TimestampLayout.
var ErrBadTimestamp = errors.New("malformed run timestamp")

// Evaluate converts a UTC run timestamp into its local-time view relative to now.
// A run in the past still evaluates; it is simply neither today nor tomorrow.
func Evaluate(nextRun string, now time.Time, loc *time.Location) (Evaluation, error) {
	if loc == nil {
		loc = time.UTC
	}

	utc, err := time.ParseInLocation(TimestampLayout, nextRun, time.UTC)
	if err != nil {
		return Evaluation{}, fmt.Errorf("%w: %q: %v", ErrBadTimestamp, nextRun, err)
	}
	// Parse tolerates a fractional-seconds field the layout does not name.
	if utc.Format(TimestampLayout) != nextRun {
		return Evaluation{}, fmt.Errorf("%w: %q: does not match %s", ErrBadTimestamp, nextRun, TimestampLayout)
	}

	local := utc.In(loc)
	localNow := now.In(loc)

	runDate := local.Format(runDateLayout)
	// Calendar-day comparison, so month and year rollover work without duration math.
	tomorrow := localNow.AddDate(0, 0, 1).Format(runDateLayout)

	return Evaluation{
		CurrentHour: localNow.Hour(),
		Weekday:     local.Weekday().String(),
		RunTime:     local.Format(runTimeLayout),
		RunDate:     runDate,
		Tomorrow:    runDate == tomorrow,
		RunAt:       local,
	}, nil
}
