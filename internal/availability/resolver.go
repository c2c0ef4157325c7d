package availability

import (
	"context"
	"fmt"
	"time"

	"opatam/internal/availability/interval"
	apperrors "opatam/pkg/errors"
	"opatam/pkg/model"
)

type Resolver struct {
	schedules ScheduleStore
}

func NewResolver(schedules ScheduleStore) *Resolver {
	return &Resolver{schedules: schedules}
}

// Resolve returns the open windows of one member on one calendar date.
func (r *Resolver) Resolve(ctx context.Context, providerID, memberID string, date time.Time) ([]interval.TimeRange, error) {
	week, err := r.schedules.GetWeeklySchedule(ctx, providerID, memberID)
	if err != nil {
		return nil, storeError("schedule", err)
	}

	day := findDay(week, date.Weekday())
	if day == nil || !day.IsOpen {
		return nil, nil
	}

	dayStart := DayStart(date)
	blocks, err := r.schedules.GetBlockedPeriods(ctx, providerID, memberID, dayStart, dayStart)
	if err != nil {
		return nil, storeError("schedule", err)
	}

	return OpenWindows(week, blocks, memberID, date)
}

// OpenWindows merges the weekly schedule with the blocked periods of memberID.
// A period without a member applies to nobody.
func OpenWindows(week []model.WeeklyDaySchedule, blocks []model.BlockedPeriod, memberID string, date time.Time) ([]interval.TimeRange, error) {
	day := findDay(week, date.Weekday())
	if day == nil || !day.IsOpen || len(day.Ranges) == 0 {
		return nil, nil
	}

	windows := make([]interval.TimeRange, 0, len(day.Ranges))
	for _, r := range day.Ranges {
		tr, err := interval.ParseRange(r.Start, r.End)
		if err != nil {
			return nil, err
		}
		windows = append(windows, tr)
	}
	if !interval.SortedDisjoint(windows) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("schedule ranges for %s are not sorted and disjoint", date.Weekday()))
	}

	dateKey := date.Format(model.DateLayout)
	var cuts []interval.TimeRange
	for i := range blocks {
		b := &blocks[i]
		if memberID == "" || b.MemberID != memberID || !b.Covers(dateKey) {
			continue
		}
		if b.AllDay {
			return nil, nil
		}
		if b.StartTime == nil || b.EndTime == nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("blocked period %s is partial but has no times", b.ID))
		}
		cut, err := interval.ParseRange(*b.StartTime, *b.EndTime)
		if err != nil {
			return nil, err
		}
		cuts = append(cuts, cut)
	}

	return interval.SubtractAll(windows, cuts), nil
}

func findDay(week []model.WeeklyDaySchedule, weekday time.Weekday) *model.WeeklyDaySchedule {
	for i := range week {
		if week[i].DayOfWeek == int(weekday) {
			return &week[i]
		}
	}
	return nil
}
