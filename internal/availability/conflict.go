package availability

import (
	"time"

	"opatam/pkg/model"
)

// ConflictQuery returns the booking query that can surface every booking able
// to collide with candidate, buffers included.
func ConflictQuery(candidate *model.Booking) model.BookingQuery {
	return model.BookingQuery{
		ProviderID: candidate.ProviderID,
		MemberID:   candidate.MemberID,
		Start:      candidate.Datetime.Add(-bookingLookbehind),
		End:        candidate.EndDatetime.Add(time.Duration(candidate.BufferTime) * time.Minute),
	}
}

// FindConflict applies the slot generator's occupancy rule to a concrete
// booking: candidate holds [start, end+buffer) and every blocking booking holds
// [start, end+max(buffer, own buffer)). It returns the first colliding booking.
func FindConflict(candidate *model.Booking, existing []model.Booking) (*model.Booking, bool) {
	buffer := time.Duration(candidate.BufferTime) * time.Minute
	candEnd := candidate.EndDatetime.Add(buffer)

	for i := range existing {
		b := &existing[i]
		if b.ID != "" && b.ID == candidate.ID {
			continue
		}
		if !b.BlocksSlots() || b.MemberID != candidate.MemberID {
			continue
		}
		busyEnd := b.EndDatetime.Add(max(buffer, time.Duration(b.BufferTime)*time.Minute))
		if b.Datetime.Before(candEnd) && candidate.Datetime.Before(busyEnd) {
			return b, true
		}
	}
	return nil, false
}
