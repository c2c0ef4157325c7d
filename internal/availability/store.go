package availability

import (
	"context"
	"time"

	apperrors "opatam/pkg/errors"
	"opatam/pkg/model"
)

// ScheduleStore is the read side of the schedules repository.
type ScheduleStore interface {
	// GetWeeklySchedule returns exactly seven entries, closed placeholders included.
	GetWeeklySchedule(ctx context.Context, providerID, memberID string) ([]model.WeeklyDaySchedule, error)
	// GetBlockedPeriods returns periods intersecting the calendar dates [from, to].
	GetBlockedPeriods(ctx context.Context, providerID, memberID string, from, to time.Time) ([]model.BlockedPeriod, error)
}

type BookingStore interface {
	GetBookingsInRange(ctx context.Context, q model.BookingQuery) ([]model.Booking, error)
}

func storeError(store string, err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.StoreUnavailable(store, err)
}

// DayStart truncates t to midnight of its calendar date in t's location.
func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
