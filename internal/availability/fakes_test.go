package availability

import (
	"context"
	"time"

	"opatam/pkg/logger"
	"opatam/pkg/model"
)

// 2024-01-15 is a Monday.
var monday = time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

func at(day time.Time, h, m int) time.Time {
	return DayStart(day).Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func strPtr(s string) *string { return &s }

func openDay(day time.Weekday, ranges ...model.TimeRange) model.WeeklyDaySchedule {
	return model.WeeklyDaySchedule{DayOfWeek: int(day), IsOpen: true, Ranges: ranges}
}

func rng(start, end string) model.TimeRange {
	return model.TimeRange{Start: start, End: end}
}

// weekWith fills the days not given with closed placeholders.
func weekWith(days ...model.WeeklyDaySchedule) []model.WeeklyDaySchedule {
	week := make([]model.WeeklyDaySchedule, model.DaysPerWeek)
	for d := 0; d < model.DaysPerWeek; d++ {
		week[d] = model.ClosedDay("p1", "", time.Weekday(d))
	}
	for _, d := range days {
		week[d.DayOfWeek] = d
	}
	return week
}

func everyDay(ranges ...model.TimeRange) []model.WeeklyDaySchedule {
	days := make([]model.WeeklyDaySchedule, 0, model.DaysPerWeek)
	for d := time.Sunday; d <= time.Saturday; d++ {
		days = append(days, openDay(d, ranges...))
	}
	return weekWith(days...)
}

type fakeScheduleStore struct {
	weeks      map[string][]model.WeeklyDaySchedule
	blocks     []model.BlockedPeriod
	weekErr    map[string]error
	blockErrOn map[string]error
}

func (f *fakeScheduleStore) GetWeeklySchedule(_ context.Context, _ string, memberID string) ([]model.WeeklyDaySchedule, error) {
	if err := f.weekErr[memberID]; err != nil {
		return nil, err
	}
	if w, ok := f.weeks[memberID]; ok {
		return w, nil
	}
	return weekWith(), nil
}

func (f *fakeScheduleStore) GetBlockedPeriods(_ context.Context, _ string, memberID string, from, _ time.Time) ([]model.BlockedPeriod, error) {
	if err := f.blockErrOn[from.Format(model.DateLayout)]; err != nil {
		return nil, err
	}
	var out []model.BlockedPeriod
	for _, b := range f.blocks {
		if b.MemberID == memberID {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeBookingStore struct {
	bookings []model.Booking
	err      error
}

func (f *fakeBookingStore) GetBookingsInRange(_ context.Context, q model.BookingQuery) ([]model.Booking, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Booking
	for _, b := range f.bookings {
		if q.MemberID != "" && b.MemberID != q.MemberID {
			continue
		}
		if b.Datetime.Before(q.End) && b.EndDatetime.After(q.Start) {
			out = append(out, b)
		}
	}
	return out, nil
}

func newTestEngine(schedules ScheduleStore, bookings BookingStore, now time.Time) *Engine {
	return NewEngine(schedules, bookings, logger.NewNop(), WithClock(func() time.Time { return now }))
}
