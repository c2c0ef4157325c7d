package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opatam/internal/availability/interval"
	apperrors "opatam/pkg/errors"
	"opatam/pkg/model"
)

func mondayWindows() []interval.TimeRange {
	return []interval.TimeRange{
		interval.MustRange(9*60, 12*60),
		interval.MustRange(14*60, 18*60),
	}
}

func starts(slots []Slot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Start.Format("15:04")
	}
	return out
}

func startsIn(slots []Slot, from, to time.Time) []Slot {
	var out []Slot
	for _, s := range slots {
		if !s.Start.Before(from) && s.Start.Before(to) {
			out = append(out, s)
		}
	}
	return out
}

func confirmed(memberID string, start, end time.Time) model.Booking {
	return model.Booking{MemberID: memberID, Datetime: start, EndDatetime: end, Status: model.BookingConfirmed}
}

func TestNewServiceSpec(t *testing.T) {
	_, err := NewServiceSpec(0, 5)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))

	_, err = NewServiceSpec(30, -1)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))

	_, err = SpecFor(nil)
	assert.Error(t, err)

	spec, err := SpecFor(&model.Service{Duration: 45, BufferTime: 10})
	require.NoError(t, err)
	assert.Equal(t, ServiceSpec{Duration: 45, Buffer: 10}, spec)
}

func TestGenerate_MondayScenario(t *testing.T) {
	g := NewGenerator(DefaultGranularity)
	spec := ServiceSpec{Duration: 30, Buffer: 5}

	slots := g.Generate(mondayWindows(), nil, spec, monday, monday)

	morning := startsIn(slots, at(monday, 9, 0), at(monday, 12, 0))
	afternoon := startsIn(slots, at(monday, 14, 0), at(monday, 18, 0))

	assert.Equal(t, []string{"09:00", "09:35", "10:10", "10:45", "11:20"}, starts(morning))
	assert.Equal(t, (180-30)/(30+5)+1, len(morning))
	assert.Equal(t, (240-30)/(30+5)+1, len(afternoon))
	assert.Equal(t, "17:30", afternoon[len(afternoon)-1].Start.Format("15:04"))
	assert.Len(t, slots, len(morning)+len(afternoon))

	for _, s := range slots {
		assert.Equal(t, 30*time.Minute, s.End.Sub(s.Start), "buffer is not part of the slot")
	}
}

func TestGenerate_ConfirmedBookingRemovesOverlappingCandidates(t *testing.T) {
	g := NewGenerator(DefaultGranularity)
	spec := ServiceSpec{Duration: 30, Buffer: 5}
	bookings := []model.Booking{confirmed("m1", at(monday, 10, 0), at(monday, 10, 30))}

	slots := g.Generate(mondayWindows(), bookings, spec, monday, monday)
	morning := starts(startsIn(slots, at(monday, 9, 0), at(monday, 12, 0)))

	assert.NotContains(t, morning, "10:00")
	assert.Contains(t, morning, "09:00")
	assert.Equal(t, []string{"09:00", "10:45", "11:20"}, morning)

	blocked := interval.MustRange(10*60, 10*60+35)
	for _, s := range slots {
		from := int(s.Start.Sub(monday) / time.Minute)
		occupied := interval.TimeRange{Start: interval.TimeOfDay(from), End: interval.TimeOfDay(from + 35)}
		assert.False(t, interval.Overlaps(occupied, blocked), "slot %s double-books", s.Start.Format("15:04"))
	}
}

func TestGenerate_HonorsExistingBookingOwnBuffer(t *testing.T) {
	g := NewGenerator(DefaultGranularity)
	spec := ServiceSpec{Duration: 30, Buffer: 5}
	b := confirmed("m1", at(monday, 10, 0), at(monday, 10, 30))
	b.BufferTime = 20

	slots := g.Generate([]interval.TimeRange{interval.MustRange(9*60, 12*60)}, []model.Booking{b}, spec, monday, monday)

	assert.Equal(t, []string{"09:00", "11:00"}, starts(slots))
}

func TestGenerate_NonBlockingStatusesIgnored(t *testing.T) {
	g := NewGenerator(DefaultGranularity)
	spec := ServiceSpec{Duration: 30, Buffer: 5}
	free := g.Generate(mondayWindows(), nil, spec, monday, monday)

	for _, status := range []model.BookingStatus{model.BookingCancelled, model.BookingCompleted, model.BookingNoShow} {
		t.Run(string(status), func(t *testing.T) {
			b := confirmed("m1", at(monday, 9, 0), at(monday, 12, 0))
			b.Status = status
			assert.Equal(t, free, g.Generate(mondayWindows(), []model.Booking{b}, spec, monday, monday))
		})
	}

	pending := confirmed("m1", at(monday, 9, 0), at(monday, 12, 0))
	pending.Status = model.BookingPending
	slots := g.Generate(mondayWindows(), []model.Booking{pending}, spec, monday, monday)
	assert.Empty(t, startsIn(slots, at(monday, 9, 0), at(monday, 12, 0)))
}

func TestGenerate_NoPastSlots(t *testing.T) {
	g := NewGenerator(DefaultGranularity)
	spec := ServiceSpec{Duration: 30, Buffer: 5}
	now := at(monday, 10, 7)

	slots := g.Generate(mondayWindows(), nil, spec, monday, now)
	require.NotEmpty(t, slots)
	for _, s := range slots {
		assert.False(t, s.Start.Before(now), "slot %s is in the past", s.Start.Format("15:04"))
	}
	assert.Equal(t, "10:15", slots[0].Start.Format("15:04"))

	tuesday := monday.AddDate(0, 0, 1)
	future := g.Generate(mondayWindows(), nil, spec, tuesday, now)
	assert.Equal(t, "09:00", future[0].Start.Format("15:04"))

	late := g.Generate(mondayWindows(), nil, spec, monday, at(monday, 23, 0))
	assert.Empty(t, late)
}

func TestGenerate_PreviousDayBookingBufferSpillsOver(t *testing.T) {
	g := NewGenerator(DefaultGranularity)
	spec := ServiceSpec{Duration: 30, Buffer: 0}
	sunday := monday.AddDate(0, 0, -1)
	b := confirmed("m1", at(sunday, 23, 30), at(sunday, 23, 55))
	b.BufferTime = 10

	slots := g.Generate([]interval.TimeRange{interval.MustRange(0, 60)}, []model.Booking{b}, spec, monday, sunday)

	assert.Equal(t, []string{"00:15"}, starts(slots))
}

func TestGenerate_Deterministic(t *testing.T) {
	g := NewGenerator(DefaultGranularity)
	spec := ServiceSpec{Duration: 45, Buffer: 10}
	bookings := []model.Booking{
		confirmed("m1", at(monday, 15, 0), at(monday, 15, 45)),
		confirmed("m1", at(monday, 9, 30), at(monday, 10, 0)),
	}

	first := g.Generate(mondayWindows(), bookings, spec, monday, monday)
	second := g.Generate(mondayWindows(), bookings, spec, monday, monday)
	assert.Equal(t, first, second)

	for i := 1; i < len(first); i++ {
		assert.True(t, first[i-1].Start.Before(first[i].Start))
	}
}

func TestGenerate_PanicsOnInvalidSpec(t *testing.T) {
	g := NewGenerator(DefaultGranularity)
	assert.Panics(t, func() {
		g.Generate(mondayWindows(), nil, ServiceSpec{}, monday, monday)
	})
}

func TestGenerate_WindowShorterThanService(t *testing.T) {
	g := NewGenerator(DefaultGranularity)
	slots := g.Generate([]interval.TimeRange{interval.MustRange(9*60, 9*60+20)}, nil, ServiceSpec{Duration: 30}, monday, monday)
	assert.Empty(t, slots)
}
