package model

import (
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
	BookingNoShow    BookingStatus = "noshow"
)

type Booking struct {
	ID          string        `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ProviderID  string        `json:"provider_id" bson:"provider_id" validate:"required"`
	MemberID    string        `json:"member_id" bson:"member_id" validate:"required"`
	LocationID  string        `json:"location_id" bson:"location_id" validate:"omitempty"`
	ServiceID   string        `json:"service_id" bson:"service_id" validate:"required"`
	Datetime    time.Time     `json:"datetime" bson:"datetime" validate:"required"`
	EndDatetime time.Time     `json:"end_datetime" bson:"end_datetime" validate:"required,gtfield=Datetime"`
	BufferTime  int           `json:"buffer_time" bson:"buffer_time" validate:"min=0,max=240"`
	Status      BookingStatus `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled completed noshow"`
	ClientName  string        `json:"client_name,omitempty" bson:"client_name,omitempty" validate:"omitempty,max=100"`
	ClientPhone string        `json:"client_phone,omitempty" bson:"client_phone,omitempty" validate:"omitempty,e164"`
	CreatedAt   time.Time     `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// BlocksSlots reports whether the booking occupies its time for slot computation.
// Cancelled, completed and no-show bookings never do.
func (b *Booking) BlocksSlots() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}

type BookingStatusUpdate struct {
	Status BookingStatus `json:"status" validate:"required,oneof=pending confirmed cancelled completed noshow"`
}

// CreateBookingRequest either pins provider, member and datetime explicitly or
// carries the opaque token of a slot returned by the availability API.
type CreateBookingRequest struct {
	SlotToken   string        `json:"slot_token,omitempty"`
	ProviderID  string        `json:"provider_id,omitempty"`
	MemberID    string        `json:"member_id,omitempty"`
	ServiceID   string        `json:"service_id"`
	Datetime    *time.Time    `json:"datetime,omitempty"`
	Status      BookingStatus `json:"status,omitempty"`
	ClientName  string        `json:"client_name,omitempty"`
	ClientPhone string        `json:"client_phone,omitempty"`
}

// BookingQuery selects bookings overlapping [Start, End). Empty MemberID and
// LocationID mean any.
type BookingQuery struct {
	ProviderID string
	MemberID   string
	LocationID string
	Start      time.Time
	End        time.Time
}
