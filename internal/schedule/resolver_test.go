package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/chronoline/booking-api/internal/models"
)

type fakeSource struct {
	weekly    map[int]*models.StaffWeeklySchedule
	overrides map[string]*models.ScheduleOverride
}

func (f *fakeSource) GetWeeklySchedule(_ context.Context, _ uint, weekday int) (*models.StaffWeeklySchedule, error) {
	return f.weekly[weekday], nil
}

func (f *fakeSource) GetScheduleOverride(_ context.Context, _ uint, date string) (*models.ScheduleOverride, error) {
	return f.overrides[date], nil
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		weekly:    make(map[int]*models.StaffWeeklySchedule),
		overrides: make(map[string]*models.ScheduleOverride),
	}
}

func mustLoc(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Australia/Sydney")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func TestWorkingWindowWeeklyFallback(t *testing.T) {
	loc := mustLoc(t)
	src := newFakeSource()
	src.weekly[int(time.Monday)] = &models.StaffWeeklySchedule{
		Weekday: int(time.Monday), StartTime: "09:00", EndTime: "17:00",
	}
	r := NewResolver(src)

	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)

	win, err := r.WorkingWindow(context.Background(), 1, monday)
	if err != nil {
		t.Fatalf("WorkingWindow: %v", err)
	}
	if win == nil {
		t.Fatal("expected a window, got closed")
	}
	if win.Start.Hour() != 9 || win.End.Hour() != 17 {
		t.Fatalf("window = %v..%v, want 09:00..17:00", win.Start, win.End)
	}
	if win.Start.Location() != loc {
		t.Fatalf("window start in %v, want %v", win.Start.Location(), loc)
	}
}

func TestWorkingWindowNoRowMeansClosed(t *testing.T) {
	r := NewResolver(newFakeSource())

	tuesday := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	win, err := r.WorkingWindow(context.Background(), 1, tuesday)
	if err != nil {
		t.Fatalf("WorkingWindow: %v", err)
	}
	if win != nil {
		t.Fatalf("expected closed, got %v", win)
	}
}

func TestWorkingWindowOverrideWinsOverWeekly(t *testing.T) {
	src := newFakeSource()
	src.weekly[int(time.Monday)] = &models.StaffWeeklySchedule{
		Weekday: int(time.Monday), StartTime: "09:00", EndTime: "17:00",
	}
	src.overrides["2025-03-10"] = &models.ScheduleOverride{
		Date: "2025-03-10", StartTime: "12:00", EndTime: "15:00",
	}
	r := NewResolver(src)

	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	win, err := r.WorkingWindow(context.Background(), 1, monday)
	if err != nil {
		t.Fatalf("WorkingWindow: %v", err)
	}
	if win == nil || win.Start.Hour() != 12 || win.End.Hour() != 15 {
		t.Fatalf("window = %v, want 12:00..15:00", win)
	}
}

func TestWorkingWindowUnavailableOverrideClosesDay(t *testing.T) {
	src := newFakeSource()
	src.weekly[int(time.Monday)] = &models.StaffWeeklySchedule{
		Weekday: int(time.Monday), StartTime: "09:00", EndTime: "17:00",
	}
	src.overrides["2025-03-10"] = &models.ScheduleOverride{
		Date: "2025-03-10", Unavailable: true,
	}
	r := NewResolver(src)

	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	win, err := r.WorkingWindow(context.Background(), 1, monday)
	if err != nil {
		t.Fatalf("WorkingWindow: %v", err)
	}
	if win != nil {
		t.Fatalf("expected closed, got %v", win)
	}
}

func TestWorkingWindowBrokenRowsResolveToClosed(t *testing.T) {
	cases := []struct {
		name       string
		start, end string
	}{
		{"unparseable", "nine", "17:00"},
		{"inverted", "17:00", "09:00"},
		{"zero length", "09:00", "09:00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := newFakeSource()
			src.weekly[int(time.Monday)] = &models.StaffWeeklySchedule{
				Weekday: int(time.Monday), StartTime: tc.start, EndTime: tc.end,
			}
			r := NewResolver(src)

			monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
			win, err := r.WorkingWindow(context.Background(), 1, monday)
			if err != nil {
				t.Fatalf("WorkingWindow: %v", err)
			}
			if win != nil {
				t.Fatalf("expected closed, got %v", win)
			}
		})
	}
}
