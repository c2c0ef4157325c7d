// Package interval implements minute-of-day range arithmetic used by the
// availability engine. Every function is pure. Malformed input reaching
// Subtract or ClampToDay means an invariant was broken upstream and panics.
package interval

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	apperrors "opatam/pkg/errors"
)

const (
	MinutesPerHour = 60
	MinutesPerDay  = 24 * MinutesPerHour
)

// EndOfDay is the exclusive upper bound of a day, written "24:00".
const EndOfDay TimeOfDay = MinutesPerDay

// TimeOfDay is a wall-clock time expressed in minutes since midnight.
type TimeOfDay int

func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < MinutesPerDay
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/MinutesPerHour, int(t)%MinutesPerHour)
}

// ParseTimeOfDay parses "HH:MM" (24-hour). "24:00" is accepted and yields EndOfDay.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, apperrors.InvalidInput(fmt.Sprintf("time %q must be in HH:MM format", s))
	}
	h, errH := strconv.Atoi(hh)
	m, errM := strconv.Atoi(mm)
	if errH != nil || errM != nil || h < 0 || m < 0 || m > 59 {
		return 0, apperrors.InvalidInput(fmt.Sprintf("time %q must be in HH:MM format", s))
	}
	t := TimeOfDay(h*MinutesPerHour + m)
	if t > EndOfDay {
		return 0, apperrors.InvalidInput(fmt.Sprintf("time %q is past the end of the day", s))
	}
	return t, nil
}

// TimeRange is the half-open range [Start, End).
type TimeRange struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

func NewTimeRange(start, end TimeOfDay) (TimeRange, error) {
	if start < 0 || end > EndOfDay {
		return TimeRange{}, apperrors.InvalidInput(fmt.Sprintf("range %s-%s is outside the day", start, end))
	}
	if start >= end {
		return TimeRange{}, apperrors.InvalidInput(fmt.Sprintf("range start %s must be before end %s", start, end))
	}
	return TimeRange{Start: start, End: end}, nil
}

// MustRange is NewTimeRange for literals known to be valid.
func MustRange(start, end TimeOfDay) TimeRange {
	r, err := NewTimeRange(start, end)
	if err != nil {
		panic(err)
	}
	return r
}

func ParseRange(start, end string) (TimeRange, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return TimeRange{}, err
	}
	if s == EndOfDay {
		return TimeRange{}, apperrors.InvalidInput("range cannot start at 24:00")
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return TimeRange{}, err
	}
	return NewTimeRange(s, e)
}

func (r TimeRange) Minutes() int {
	return int(r.End - r.Start)
}

func (r TimeRange) Contains(t TimeOfDay) bool {
	return r.Start <= t && t < r.End
}

func (r TimeRange) String() string {
	return r.Start.String() + "-" + r.End.String()
}

func (r TimeRange) valid() bool {
	return r.Start >= 0 && r.End <= EndOfDay && r.Start < r.End
}

// Overlaps uses half-open semantics: touching ranges do not overlap.
func Overlaps(a, b TimeRange) bool {
	return a.Start < b.End && b.Start < a.End
}

// Subtract removes every occupied range from window and returns the remaining
// fragments in ascending order. Zero-length occupied ranges are ignored.
func Subtract(window TimeRange, occupied []TimeRange) []TimeRange {
	if !window.valid() {
		panic(fmt.Sprintf("interval: invalid window %d-%d", window.Start, window.End))
	}

	cuts := make([]TimeRange, 0, len(occupied))
	for _, o := range occupied {
		if o.Start > o.End {
			panic(fmt.Sprintf("interval: inverted occupied range %d-%d", o.Start, o.End))
		}
		if o.Start == o.End || !Overlaps(window, o) {
			continue
		}
		cuts = append(cuts, o)
	}
	sort.Slice(cuts, func(i, j int) bool { return cuts[i].Start < cuts[j].Start })

	var out []TimeRange
	cursor := window.Start
	for _, c := range cuts {
		if c.Start > cursor {
			out = append(out, TimeRange{Start: cursor, End: c.Start})
		}
		if c.End > cursor {
			cursor = c.End
		}
		if cursor >= window.End {
			break
		}
	}
	if cursor < window.End {
		out = append(out, TimeRange{Start: cursor, End: window.End})
	}
	return out
}

// SubtractAll applies Subtract to every window and concatenates the results.
func SubtractAll(windows []TimeRange, occupied []TimeRange) []TimeRange {
	var out []TimeRange
	for _, w := range windows {
		out = append(out, Subtract(w, occupied)...)
	}
	return out
}

// ClampToDay intersects the raw minute range [start, end) with [00:00, 24:00).
// The second return is false when nothing of the range falls inside the day.
func ClampToDay(start, end int) (TimeRange, bool) {
	if start > end {
		panic(fmt.Sprintf("interval: inverted range %d-%d", start, end))
	}
	start = max(start, 0)
	end = min(end, MinutesPerDay)
	if start >= end {
		return TimeRange{}, false
	}
	return TimeRange{Start: TimeOfDay(start), End: TimeOfDay(end)}, true
}

// Merge sorts ranges and coalesces the ones that overlap or touch.
func Merge(ranges []TimeRange) []TimeRange {
	if len(ranges) == 0 {
		return nil
	}
	sorted := make([]TimeRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End < sorted[j].End
		}
		return sorted[i].Start < sorted[j].Start
	})

	out := []TimeRange{sorted[0]}
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		if r.Start <= last.End {
			last.End = max(last.End, r.End)
			continue
		}
		out = append(out, r)
	}
	return out
}

// SortedDisjoint reports whether ranges are ascending and mutually non-overlapping.
func SortedDisjoint(ranges []TimeRange) bool {
	for i := 1; i < len(ranges); i++ {
		if ranges[i].Start < ranges[i-1].End {
			return false
		}
	}
	return true
}
