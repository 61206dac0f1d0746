package interval

import (
	"iter"
	"sort"
	"time"
)

// ===============================
// Half-open time intervals
// ===============================

// Interval is [Start, End). Two bookings that touch at a boundary do not
// overlap.
type Interval struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) Interval {
	return Interval{Start: start, End: end}
}

func (iv Interval) IsZeroLength() bool {
	return !iv.End.After(iv.Start)
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether a and b share any instant under [start, end)
// semantics: a.Start < b.End && b.Start < a.End.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Expand grows the interval by before on the left and after on the right.
// Negative values shrink it; callers validate that themselves.
func Expand(iv Interval, before, after time.Duration) Interval {
	return Interval{
		Start: iv.Start.Add(-before),
		End:   iv.End.Add(after),
	}
}

// Subtract yields the portions of window not covered by busy, ascending,
// with zero-length remainders filtered out. busy may be unsorted and may
// contain overlapping entries. The sequence is a pure function of its
// inputs and can be ranged over any number of times.
func Subtract(window Interval, busy []Interval) iter.Seq[Interval] {
	return func(yield func(Interval) bool) {
		if window.IsZeroLength() {
			return
		}

		merged := mergeClipped(window, busy)

		cursor := window.Start
		for _, b := range merged {
			if b.Start.After(cursor) {
				if !yield(Interval{Start: cursor, End: b.Start}) {
					return
				}
			}
			if b.End.After(cursor) {
				cursor = b.End
			}
		}

		if window.End.After(cursor) {
			yield(Interval{Start: cursor, End: window.End})
		}
	}
}

// Collect materializes a sequence, mostly for handlers and tests.
func Collect(seq iter.Seq[Interval]) []Interval {
	var out []Interval
	for iv := range seq {
		out = append(out, iv)
	}
	return out
}

// mergeClipped clips busy intervals to the window, drops empty ones and
// merges the rest into a sorted, disjoint set.
func mergeClipped(window Interval, busy []Interval) []Interval {
	var clipped []Interval
	for _, b := range busy {
		if !Overlaps(window, b) {
			continue
		}
		if b.Start.Before(window.Start) {
			b.Start = window.Start
		}
		if b.End.After(window.End) {
			b.End = window.End
		}
		if !b.IsZeroLength() {
			clipped = append(clipped, b)
		}
	}

	sort.Slice(clipped, func(i, j int) bool {
		return clipped[i].Start.Before(clipped[j].Start)
	})

	var merged []Interval
	for _, b := range clipped {
		if n := len(merged); n > 0 && !b.Start.After(merged[n-1].End) {
			if b.End.After(merged[n-1].End) {
				merged[n-1].End = b.End
			}
			continue
		}
		merged = append(merged, b)
	}

	return merged
}
