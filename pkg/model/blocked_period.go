package model

import "time"

// BlockedPeriod removes availability for an inclusive date range, optionally only
// between StartTime and EndTime on each of those days.
type BlockedPeriod struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ProviderID string    `json:"provider_id" bson:"provider_id" validate:"required"`
	MemberID   string    `json:"member_id" bson:"member_id" validate:"omitempty"`
	LocationID string    `json:"location_id" bson:"location_id" validate:"omitempty"`
	StartDate  string    `json:"start_date" bson:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string    `json:"end_date" bson:"end_date" validate:"required,datetime=2006-01-02"`
	AllDay     bool      `json:"all_day" bson:"all_day"`
	StartTime  *string   `json:"start_time,omitempty" bson:"start_time,omitempty" validate:"omitempty,hhmm"`
	EndTime    *string   `json:"end_time,omitempty" bson:"end_time,omitempty" validate:"omitempty,hhmm"`
	Reason     *string   `json:"reason,omitempty" bson:"reason,omitempty" validate:"omitempty,max=200"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// BlockPeriodRequest is the body of a block request. AllMembers fans a single
// closure out into one BlockedPeriod per member.
type BlockPeriodRequest struct {
	BlockedPeriod
	AllMembers bool `json:"all_members"`
}

// Covers reports whether the calendar date (formatted with DateLayout) lies in
// [StartDate, EndDate].
func (b *BlockedPeriod) Covers(date string) bool {
	return b.StartDate <= date && date <= b.EndDate
}
