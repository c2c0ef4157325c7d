package model

import "time"

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	DaysPerWeek = 7
)

// TimeRange is an opening range in the provider's wall clock, "HH:MM" on both ends.
// End may be "24:00".
type TimeRange struct {
	Start string `json:"start" bson:"start" validate:"required,hhmm"`
	End   string `json:"end" bson:"end" validate:"required,hhmm"`
}

// WeeklyDaySchedule holds the opening hours of one member for one day of the week.
// DayOfWeek follows time.Weekday (0 = Sunday).
type WeeklyDaySchedule struct {
	ID         string      `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ProviderID string      `json:"provider_id" bson:"provider_id" validate:"required"`
	MemberID   string      `json:"member_id" bson:"member_id" validate:"required"`
	LocationID string      `json:"location_id" bson:"location_id" validate:"omitempty"`
	DayOfWeek  int         `json:"day_of_week" bson:"day_of_week" validate:"min=0,max=6"`
	IsOpen     bool        `json:"is_open" bson:"is_open"`
	Ranges     []TimeRange `json:"ranges" bson:"ranges" validate:"max=4,dive"`
	UpdatedAt  time.Time   `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// WeeklySchedule is the request body for replacing a member's full week.
type WeeklySchedule struct {
	LocationID string              `json:"location_id" validate:"omitempty"`
	Days       []WeeklyDaySchedule `json:"days" validate:"required,len=7,dive"`
}

// ClosedDay builds the placeholder returned for a day with no stored record.
func ClosedDay(providerID, memberID string, day time.Weekday) WeeklyDaySchedule {
	return WeeklyDaySchedule{
		ProviderID: providerID,
		MemberID:   memberID,
		DayOfWeek:  int(day),
		IsOpen:     false,
		Ranges:     []TimeRange{},
	}
}
