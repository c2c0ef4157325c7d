package availability

import (
	"fmt"
	"sort"
	"time"

	"opatam/internal/availability/interval"
	apperrors "opatam/pkg/errors"
	"opatam/pkg/model"
)

// DefaultGranularity is the minute grid the walk realigns to after a rejected
// candidate. It matches the booking UI.
const DefaultGranularity = 15

type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ServiceSpec carries the validated duration and buffer, in minutes, of the
// service being booked.
type ServiceSpec struct {
	Duration int
	Buffer   int
}

func NewServiceSpec(duration, buffer int) (ServiceSpec, error) {
	if duration <= 0 {
		return ServiceSpec{}, apperrors.InvalidInput(fmt.Sprintf("service duration must be positive, got %d", duration))
	}
	if buffer < 0 {
		return ServiceSpec{}, apperrors.InvalidInput(fmt.Sprintf("buffer time cannot be negative, got %d", buffer))
	}
	if duration > interval.MinutesPerDay {
		return ServiceSpec{}, apperrors.InvalidInput(fmt.Sprintf("service duration cannot exceed a day, got %d", duration))
	}
	return ServiceSpec{Duration: duration, Buffer: buffer}, nil
}

func SpecFor(svc *model.Service) (ServiceSpec, error) {
	if svc == nil {
		return ServiceSpec{}, apperrors.InvalidInput("service is required")
	}
	return NewServiceSpec(svc.Duration, svc.BufferTime)
}

type Generator struct {
	granularity int
}

func NewGenerator(granularity int) *Generator {
	if granularity <= 0 {
		granularity = DefaultGranularity
	}
	return &Generator{granularity: granularity}
}

// busySpan is a booking's occupation in minutes relative to the day's midnight,
// buffer included. Values may fall outside [0, 1440).
type busySpan struct {
	start int
	end   int
}

// Generate walks every open window and returns the bookable slots of one member
// on date, ascending. A candidate at s occupies [s, s+duration+buffer); it is
// dropped when that overlaps a blocking booking's [start, end+buffer) or when it
// starts before now. Accepted candidates advance by duration+buffer; rejected
// ones resume at the next grid minute past the obstacle.
func (g *Generator) Generate(windows []interval.TimeRange, bookings []model.Booking, spec ServiceSpec, date, now time.Time) []Slot {
	if spec.Duration <= 0 || spec.Buffer < 0 {
		panic(fmt.Sprintf("availability: invalid service spec %+v", spec))
	}

	dayStart := DayStart(date)
	busy := busySpans(bookings, spec.Buffer, dayStart)
	nowMin := ceilMinutes(now.Sub(dayStart))

	sorted := make([]interval.TimeRange, len(windows))
	copy(sorted, windows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var slots []Slot
	for _, w := range sorted {
		s := int(w.Start)
		for s+spec.Duration <= int(w.End) {
			if s < nowMin {
				s = g.alignUp(nowMin)
				continue
			}

			occupiedEnd := s + spec.Duration + spec.Buffer
			if until, blocked := blockedUntil(busy, s, occupiedEnd); blocked {
				s = g.alignUp(until)
				continue
			}

			slots = append(slots, Slot{
				Start: dayStart.Add(time.Duration(s) * time.Minute),
				End:   dayStart.Add(time.Duration(s+spec.Duration) * time.Minute),
			})
			s = occupiedEnd
		}
	}
	return slots
}

func (g *Generator) alignUp(minute int) int {
	if minute <= 0 {
		return 0
	}
	return ((minute + g.granularity - 1) / g.granularity) * g.granularity
}

func busySpans(bookings []model.Booking, buffer int, dayStart time.Time) []busySpan {
	spans := make([]busySpan, 0, len(bookings))
	for i := range bookings {
		b := &bookings[i]
		if !b.BlocksSlots() {
			continue
		}
		spans = append(spans, busySpan{
			start: floorMinutes(b.Datetime.Sub(dayStart)),
			end:   ceilMinutes(b.EndDatetime.Sub(dayStart)) + max(buffer, b.BufferTime),
		})
	}
	return spans
}

// blockedUntil returns the latest end among spans overlapping [start, end).
func blockedUntil(spans []busySpan, start, end int) (int, bool) {
	until, blocked := 0, false
	for _, sp := range spans {
		if sp.start < end && start < sp.end {
			if !blocked || sp.end > until {
				until = sp.end
			}
			blocked = true
		}
	}
	return until, blocked
}

func floorMinutes(d time.Duration) int {
	m := int(d / time.Minute)
	if d < 0 && d%time.Minute != 0 {
		m--
	}
	return m
}

func ceilMinutes(d time.Duration) int {
	m := int(d / time.Minute)
	if d > 0 && d%time.Minute != 0 {
		m++
	}
	return m
}
