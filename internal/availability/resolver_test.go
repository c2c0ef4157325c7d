package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opatam/internal/availability/interval"
	apperrors "opatam/pkg/errors"
	"opatam/pkg/model"
)

func splitMonday() []model.WeeklyDaySchedule {
	return weekWith(openDay(time.Monday, rng("09:00", "12:00"), rng("14:00", "18:00")))
}

func TestOpenWindows(t *testing.T) {
	tests := []struct {
		name   string
		week   []model.WeeklyDaySchedule
		blocks []model.BlockedPeriod
		date   time.Time
		want   []interval.TimeRange
	}{
		{
			name: "open day without blocks",
			week: splitMonday(),
			date: monday,
			want: mondayWindows(),
		},
		{
			name: "closed day",
			week: splitMonday(),
			date: monday.AddDate(0, 0, 1),
			want: nil,
		},
		{
			name: "open flag with no ranges",
			week: weekWith(openDay(time.Monday)),
			date: monday,
			want: nil,
		},
		{
			name: "all-day block wins",
			week: splitMonday(),
			blocks: []model.BlockedPeriod{
				{MemberID: "m1", StartDate: "2024-01-14", EndDate: "2024-01-16", AllDay: true},
			},
			date: monday,
			want: nil,
		},
		{
			name: "partial block is subtracted",
			week: splitMonday(),
			blocks: []model.BlockedPeriod{
				{MemberID: "m1", StartDate: "2024-01-15", EndDate: "2024-01-15", StartTime: strPtr("10:00"), EndTime: strPtr("11:00")},
			},
			date: monday,
			want: []interval.TimeRange{
				interval.MustRange(9*60, 10*60),
				interval.MustRange(11*60, 12*60),
				interval.MustRange(14*60, 18*60),
			},
		},
		{
			name: "block spanning two windows",
			week: splitMonday(),
			blocks: []model.BlockedPeriod{
				{MemberID: "m1", StartDate: "2024-01-15", EndDate: "2024-01-15", StartTime: strPtr("11:30"), EndTime: strPtr("15:00")},
			},
			date: monday,
			want: []interval.TimeRange{
				interval.MustRange(9*60, 11*60+30),
				interval.MustRange(15*60, 18*60),
			},
		},
		{
			name: "block of another member is ignored",
			week: splitMonday(),
			blocks: []model.BlockedPeriod{
				{MemberID: "m2", StartDate: "2024-01-15", EndDate: "2024-01-15", AllDay: true},
			},
			date: monday,
			want: mondayWindows(),
		},
		{
			name: "block without member applies to nobody",
			week: splitMonday(),
			blocks: []model.BlockedPeriod{
				{StartDate: "2024-01-15", EndDate: "2024-01-15", AllDay: true},
			},
			date: monday,
			want: mondayWindows(),
		},
		{
			name: "block outside the date is ignored",
			week: splitMonday(),
			blocks: []model.BlockedPeriod{
				{MemberID: "m1", StartDate: "2024-01-16", EndDate: "2024-01-20", AllDay: true},
			},
			date: monday,
			want: mondayWindows(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OpenWindows(tt.week, tt.blocks, "m1", tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpenWindows_BlockOrderDoesNotMatter(t *testing.T) {
	a := model.BlockedPeriod{MemberID: "m1", StartDate: "2024-01-15", EndDate: "2024-01-15", StartTime: strPtr("09:30"), EndTime: strPtr("10:30")}
	b := model.BlockedPeriod{MemberID: "m1", StartDate: "2024-01-15", EndDate: "2024-01-15", StartTime: strPtr("10:00"), EndTime: strPtr("14:30")}

	ab, err := OpenWindows(splitMonday(), []model.BlockedPeriod{a, b}, "m1", monday)
	require.NoError(t, err)
	ba, err := OpenWindows(splitMonday(), []model.BlockedPeriod{b, a}, "m1", monday)
	require.NoError(t, err)

	assert.Equal(t, ab, ba)
	assert.Equal(t, []interval.TimeRange{
		interval.MustRange(9*60, 9*60+30),
		interval.MustRange(14*60+30, 18*60),
	}, ab)
}

func TestOpenWindows_RejectsBadData(t *testing.T) {
	overlapping := weekWith(openDay(time.Monday, rng("09:00", "12:00"), rng("11:00", "13:00")))
	_, err := OpenWindows(overlapping, nil, "m1", monday)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))

	inverted := weekWith(openDay(time.Monday, rng("12:00", "09:00")))
	_, err = OpenWindows(inverted, nil, "m1", monday)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))

	partial := []model.BlockedPeriod{{ID: "b1", MemberID: "m1", StartDate: "2024-01-15", EndDate: "2024-01-15"}}
	_, err = OpenWindows(splitMonday(), partial, "m1", monday)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}

func TestResolver_Resolve(t *testing.T) {
	store := &fakeScheduleStore{
		weeks: map[string][]model.WeeklyDaySchedule{"m1": splitMonday()},
		blocks: []model.BlockedPeriod{
			{MemberID: "m1", StartDate: "2024-01-15", EndDate: "2024-01-15", StartTime: strPtr("14:00"), EndTime: strPtr("18:00")},
		},
	}
	r := NewResolver(store)

	got, err := r.Resolve(context.Background(), "p1", "m1", monday)
	require.NoError(t, err)
	assert.Equal(t, []interval.TimeRange{interval.MustRange(9*60, 12*60)}, got)

	got, err = r.Resolve(context.Background(), "p1", "unknown", monday)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolver_StoreFailure(t *testing.T) {
	store := &fakeScheduleStore{weekErr: map[string]error{"m1": errors.New("connection refused")}}

	_, err := NewResolver(store).Resolve(context.Background(), "p1", "m1", monday)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStoreUnavailable))

	store = &fakeScheduleStore{
		weeks:      map[string][]model.WeeklyDaySchedule{"m1": splitMonday()},
		blockErrOn: map[string]error{"2024-01-15": errors.New("timeout")},
	}
	_, err = NewResolver(store).Resolve(context.Background(), "p1", "m1", monday)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStoreUnavailable))

	// closed days never touch the blocked periods
	_, err = NewResolver(store).Resolve(context.Background(), "p1", "m1", monday.AddDate(0, 0, 1))
	assert.NoError(t, err)
}
