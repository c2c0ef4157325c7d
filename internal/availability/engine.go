package availability

import (
	"context"
	"time"

	"opatam/pkg/logger"
	"opatam/pkg/metrics"
	"opatam/pkg/model"
)

// bookingLookbehind widens the booking query so a booking that ends just
// before midnight still contributes its buffer to the next day.
const bookingLookbehind = 4 * time.Hour

// Engine computes slots from fresh store reads on every call. It holds no
// per-request state and is safe for concurrent use.
type Engine struct {
	resolver  *Resolver
	bookings  BookingStore
	generator *Generator
	log       *logger.Logger
	now       func() time.Time
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithGranularity(minutes int) Option {
	return func(e *Engine) { e.generator = NewGenerator(minutes) }
}

func NewEngine(schedules ScheduleStore, bookings BookingStore, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		resolver:  NewResolver(schedules),
		bookings:  bookings,
		generator: NewGenerator(DefaultGranularity),
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MemberSlots computes the bookable slots of one member on date.
func (e *Engine) MemberSlots(ctx context.Context, providerID, memberID string, spec ServiceSpec, date time.Time) (slots []Slot, err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.SlotComputationDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	windows, err := e.resolver.Resolve(ctx, providerID, memberID, date)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return nil, nil
	}

	dayStart := DayStart(date)
	bookings, err := e.bookings.GetBookingsInRange(ctx, model.BookingQuery{
		ProviderID: providerID,
		MemberID:   memberID,
		Start:      dayStart.Add(-bookingLookbehind),
		End:        dayStart.AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, storeError("booking", err)
	}

	own := bookings[:0:0]
	for _, b := range bookings {
		if b.MemberID == memberID {
			own = append(own, b)
		}
	}

	slots = e.generator.Generate(windows, own, spec, dayStart, e.now())
	e.log.Debug("Member slots computed",
		"provider_id", providerID,
		"member_id", memberID,
		"date", dayStart.Format(model.DateLayout),
		"windows", len(windows),
		"bookings", len(own),
		"slots", len(slots),
	)
	return slots, nil
}
