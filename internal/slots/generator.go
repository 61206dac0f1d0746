package slots

import (
	"context"
	"iter"
	"time"

	"github.com/chronoline/booking-api/internal/httperr"
	"github.com/chronoline/booking-api/internal/interval"
	"github.com/chronoline/booking-api/internal/models"
	"github.com/chronoline/booking-api/internal/schedule"
)

// BusySource lists the padded intervals of a staff member's non-cancelled
// bookings inside [from, to).
type BusySource interface {
	ListPaddedIntervals(
		ctx context.Context,
		staffID uint,
		from time.Time,
		to time.Time,
	) ([]interval.Interval, error)
}

type Generator struct {
	schedules    *schedule.Resolver
	busy         BusySource
	maxRangeDays int
}

func NewGenerator(
	schedules *schedule.Resolver,
	busy BusySource,
	maxRangeDays int,
) *Generator {
	return &Generator{
		schedules:    schedules,
		busy:         busy,
		maxRangeDays: maxRangeDays,
	}
}

type Input struct {
	StaffID uint
	Service models.Service

	// Half-open date range in the merchant's location.
	From time.Time
	To   time.Time

	GranularityMin int

	// Candidate starts before Now are skipped.
	Now time.Time
}

// Slots yields candidate start times ascending, one day at a time, lazily.
// The sequence is restartable: every range re-resolves windows and re-reads
// busy intervals, so it reflects the store at iteration time. It is advisory
// only; admission re-checks under the lock.
//
// Validation errors are returned up front. Store errors during iteration
// surface as the second element of the pair.
func (g *Generator) Slots(
	ctx context.Context,
	in Input,
) (iter.Seq2[time.Time, error], error) {

	if in.GranularityMin <= 0 {
		return nil, httperr.ErrValidation("invalid_granularity")
	}
	if in.Service.DurationMin <= 0 {
		return nil, httperr.ErrValidation("invalid_duration")
	}
	if !in.To.After(in.From) {
		return nil, httperr.ErrValidation("invalid_range")
	}
	if in.To.After(in.From.AddDate(0, 0, g.maxRangeDays)) {
		return nil, httperr.ErrValidation("range_too_large")
	}

	duration := time.Duration(in.Service.DurationMin) * time.Minute
	step := time.Duration(in.GranularityMin) * time.Minute

	return func(yield func(time.Time, error) bool) {
		for day := in.From; day.Before(in.To); day = day.AddDate(0, 0, 1) {
			window, err := g.schedules.WorkingWindow(ctx, in.StaffID, day)
			if err != nil {
				yield(time.Time{}, httperr.ErrStore(err))
				return
			}
			if window == nil {
				continue
			}

			busy, err := g.busy.ListPaddedIntervals(
				ctx,
				in.StaffID,
				window.Start,
				window.End,
			)
			if err != nil {
				yield(time.Time{}, httperr.ErrStore(err))
				return
			}

			for free := range interval.Subtract(*window, busy) {
				// Steps stay anchored to the window start so gaps left by
				// bookings do not shift the grid.
				start := alignUp(window.Start, free.Start, step)

				for ; !start.Add(duration).After(free.End); start = start.Add(step) {
					if start.Before(in.Now) {
						continue
					}
					if !yield(start, nil) {
						return
					}
				}
			}
		}
	}, nil
}

// Collect drains a slot sequence into a slice, stopping at the first error.
func Collect(seq iter.Seq2[time.Time, error]) ([]time.Time, error) {
	var out []time.Time
	for t, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// alignUp returns the first anchor+k*step that is not before from.
func alignUp(anchor, from time.Time, step time.Duration) time.Time {
	if !from.After(anchor) {
		return anchor
	}
	offset := from.Sub(anchor)
	k := offset / step
	if offset%step != 0 {
		k++
	}
	return anchor.Add(k * step)
}
