package schedule

import (
	"context"
	"time"

	"github.com/chronoline/booking-api/internal/interval"
	"github.com/chronoline/booking-api/internal/models"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Source is the slice of the booking repository the resolver reads from.
// Both getters return (nil, nil) when no row exists.
type Source interface {
	GetWeeklySchedule(
		ctx context.Context,
		staffID uint,
		weekday int,
	) (*models.StaffWeeklySchedule, error)

	GetScheduleOverride(
		ctx context.Context,
		staffID uint,
		date string,
	) (*models.ScheduleOverride, error)
}

type Resolver struct {
	src Source
}

func NewResolver(src Source) *Resolver {
	return &Resolver{src: src}
}

// WorkingWindow resolves the effective working window for one date, in the
// date's location. A dated override wins over the weekly entry; an absent
// weekly entry means closed, never "open all day". A nil interval with a
// nil error means not schedulable that day. Past dates resolve nominally;
// callers decide whether past slots are offered.
func (r *Resolver) WorkingWindow(
	ctx context.Context,
	staffID uint,
	date time.Time,
) (*interval.Interval, error) {

	ov, err := r.src.GetScheduleOverride(ctx, staffID, date.Format(DateLayout))
	if err != nil {
		return nil, err
	}

	if ov != nil {
		if ov.Unavailable {
			return nil, nil
		}
		return materialize(date, ov.StartTime, ov.EndTime)
	}

	wk, err := r.src.GetWeeklySchedule(ctx, staffID, int(date.Weekday()))
	if err != nil {
		return nil, err
	}
	if wk == nil {
		return nil, nil
	}

	return materialize(date, wk.StartTime, wk.EndTime)
}

// materialize places two "15:04" wall-clock strings onto the given date.
// Broken rows (unparseable or inverted) resolve to closed rather than
// failing the request.
func materialize(date time.Time, startHM, endHM string) (*interval.Interval, error) {
	start, ok1 := onDate(date, startHM)
	end, ok2 := onDate(date, endHM)
	if !ok1 || !ok2 || !end.After(start) {
		return nil, nil
	}

	iv := interval.New(start, end)
	return &iv, nil
}

func onDate(date time.Time, hm string) (time.Time, bool) {
	t, err := time.Parse(TimeLayout, hm)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(
		date.Year(), date.Month(), date.Day(),
		t.Hour(), t.Minute(), 0, 0,
		date.Location(),
	), true
}
